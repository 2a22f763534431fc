// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import "time"

// =============================================================================
// PIPELINE STATE
// =============================================================================

// State is the controller's position in a run.
type State int

const (
	// StateIdle - Run created, no stage started
	StateIdle State = iota

	// StateRunningStage - A stage is executing (see Progress.Stage)
	StateRunningStage

	// StateCombining - Stage outputs are being assembled
	StateCombining

	// StateSanitizing - The assembled document is being repaired
	StateSanitizing

	// StateDone - Document produced
	StateDone

	// StateAborted - Cancelled; outcomes discarded
	StateAborted

	// StateFailed - All content stages failed or configuration was invalid
	StateFailed
)

// String returns the string representation of a state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunningStage:
		return "RunningStage"
	case StateCombining:
		return "Combining"
	case StateSanitizing:
		return "Sanitizing"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether the run has ended.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateAborted || s == StateFailed
}

// =============================================================================
// STAGE STATUS
// =============================================================================

// StageStatus is the state of one stage within a run.
type StageStatus int

const (
	StagePending StageStatus = iota
	StageRunning
	StageComplete
	StageFailed
	StageSkipped
)

// String returns the string representation of a stage status.
func (s StageStatus) String() string {
	switch s {
	case StagePending:
		return "Pending"
	case StageRunning:
		return "Running"
	case StageComplete:
		return "Complete"
	case StageFailed:
		return "Failed"
	case StageSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// =============================================================================
// PROGRESS
// =============================================================================

// Progress is one progress event.
type Progress struct {
	RunID string
	State State

	// Stage is the stage the event is about (1..5), or 0.
	Stage       int
	StageName   string
	StageStatus StageStatus

	// Completed counts finished stages (succeeded, failed or skipped).
	Completed int
	Total     int

	Elapsed time.Duration

	// StageEstimate is the learned duration of Stage; ETA covers the rest
	// of the run. Both are advisory.
	StageEstimate time.Duration
	ETA           time.Duration

	Message string
}

// Fraction returns completion in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// ProgressFunc receives progress events. It is called synchronously from
// the controller's goroutine.
type ProgressFunc func(Progress)
