// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/ui/styles"
	"github.com/jeranaias/planforge/internal/util"
)

// =============================================================================
// STAGE LIST COMPONENT
// =============================================================================

// StageRow is the display state of one stage.
type StageRow struct {
	ID       int
	Name     string
	Status   plan.StageStatus
	Detail   string
	Estimate time.Duration
	Started  time.Duration // run elapsed when the stage started
	Took     time.Duration
}

// StageList renders the five pipeline stages as a checklist.
type StageList struct {
	theme *styles.Theme
	width int
	rows  []StageRow
	last  plan.Progress
}

// NewStageList creates a list with every stage pending.
func NewStageList(theme *styles.Theme, width int) *StageList {
	if theme == nil {
		theme = styles.NewTheme()
	}
	rows := make([]StageRow, len(plan.Stages))
	for i, s := range plan.Stages {
		rows[i] = StageRow{ID: s.ID, Name: s.Name, Status: plan.StagePending}
	}
	return &StageList{theme: theme, width: width, rows: rows}
}

// SetWidth updates the render width.
func (l *StageList) SetWidth(width int) {
	l.width = width
}

// Apply folds a progress event into the rows.
func (l *StageList) Apply(p plan.Progress) {
	l.last = p
	if p.Stage < 1 || p.Stage > len(l.rows) {
		return
	}

	row := &l.rows[p.Stage-1]
	if p.StageEstimate > 0 {
		row.Estimate = p.StageEstimate
	}
	if p.StageStatus == plan.StageRunning && row.Status != plan.StageRunning {
		row.Started = p.Elapsed
	}
	if p.StageStatus != plan.StageRunning && row.Status == plan.StageRunning {
		row.Took = p.Elapsed - row.Started
	}
	row.Status = p.StageStatus
	row.Detail = p.Message
}

// Rows returns a copy of the current rows.
func (l *StageList) Rows() []StageRow {
	out := make([]StageRow, len(l.rows))
	copy(out, l.rows)
	return out
}

// Last returns the most recent event applied.
func (l *StageList) Last() plan.Progress {
	return l.last
}

// Render renders the checklist, one stage per line.
func (l *StageList) Render() string {
	lines := make([]string, 0, len(l.rows))
	for _, row := range l.rows {
		lines = append(lines, l.renderRow(row))
	}
	return strings.Join(lines, "\n")
}

func (l *StageList) renderRow(row StageRow) string {
	icon := l.statusStyle(row.Status).Render(statusIcon(row.Status))
	name := fmt.Sprintf("%d. %s", row.ID, row.Name)
	if row.Status == plan.StageRunning {
		name = l.theme.Highlight.Render(name)
	} else {
		name = l.theme.Text.Render(name)
	}

	var timing string
	switch row.Status {
	case plan.StageComplete, plan.StageFailed:
		timing = fmtDuration(row.Took)
	case plan.StageRunning, plan.StagePending:
		if row.Estimate > 0 {
			timing = "~" + fmtDuration(row.Estimate)
		}
	}

	line := fmt.Sprintf("  %s %s", icon, name)
	if timing != "" {
		line += " " + l.theme.Muted.Render("("+timing+")")
	}

	if row.Detail != "" && row.Status != plan.StageRunning {
		room := l.width - lipgloss.Width(line) - 3
		if room > 10 {
			detailStyle := l.theme.Muted
			if row.Status == plan.StageFailed {
				detailStyle = l.theme.Error
			}
			line += " " + detailStyle.Render(util.TruncateWidth(row.Detail, room))
		}
	}
	return line
}

// statusIcon returns the icon for a stage status (ASCII-compatible).
func statusIcon(status plan.StageStatus) string {
	switch status {
	case plan.StagePending:
		return "[ ]"
	case plan.StageRunning:
		return "[>]"
	case plan.StageComplete:
		return "[x]"
	case plan.StageFailed:
		return "[X]"
	case plan.StageSkipped:
		return "[-]"
	default:
		return "[?]"
	}
}

func (l *StageList) statusStyle(status plan.StageStatus) lipgloss.Style {
	switch status {
	case plan.StageRunning:
		return l.theme.Highlight
	case plan.StageComplete:
		return l.theme.Success
	case plan.StageFailed:
		return l.theme.Error
	case plan.StageSkipped:
		return l.theme.Warning
	default:
		return l.theme.Muted
	}
}

// =============================================================================
// PROGRESS LINE
// =============================================================================

// ProgressLine renders one event as a single log-style line, for output
// that is not a terminal.
func ProgressLine(p plan.Progress) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d/%d]", p.Completed, p.Total)

	if p.Stage > 0 {
		fmt.Fprintf(&sb, " stage %d %s: %s", p.Stage, p.StageName, strings.ToLower(p.StageStatus.String()))
	} else {
		fmt.Fprintf(&sb, " %s", strings.ToLower(p.State.String()))
	}
	if p.Message != "" {
		fmt.Fprintf(&sb, " (%s)", util.TruncateWidth(p.Message, 120))
	}

	fmt.Fprintf(&sb, " elapsed %s", fmtDuration(p.Elapsed))
	if !p.State.IsTerminal() && p.ETA > 0 {
		fmt.Fprintf(&sb, " eta %s", fmtDuration(p.ETA))
	}
	return sb.String()
}
