// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jeranaias/planforge/internal/provider"
)

// TruncationWarning is appended to stage output cut short by a length limit.
const TruncationWarning = "\n\n> **Warning:** this part was cut off by the model's output limit and may be incomplete."

// Caller performs one provider call with retry. *provider.Client
// implements it.
type Caller interface {
	Call(ctx context.Context, cand provider.Candidate, req provider.Request, timeout time.Duration) (provider.Result, error)
}

// TimeoutFunc returns the call timeout for a provider; 0 keeps the
// provider's registered timeout.
type TimeoutFunc func(providerID string) time.Duration

// =============================================================================
// STAGE OUTCOME
// =============================================================================

// CandidateFailure records why one chain entry did not produce output.
type CandidateFailure struct {
	Candidate provider.Candidate
	Kind      string
	Message   string
}

func (f CandidateFailure) String() string {
	if f.Kind == "" {
		return fmt.Sprintf("%s: %s", f.Candidate, f.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Candidate, f.Kind, f.Message)
}

// StageOutcome is what one stage produced. Failed outcomes have empty
// Content and are skipped when combining; they never abort the pipeline
// on their own.
type StageOutcome struct {
	StageID int
	Content string
	Failed  bool

	UsedProvider string
	UsedModel    string

	Truncated bool
	Attempts  int
	Duration  time.Duration
	Usage     provider.Usage

	// Failures lists the chain entries tried before success, or all of them
	// when Failed.
	Failures []CandidateFailure

	// Skipped is set when the stage was not run at all.
	Skipped bool
}

// FailureSummary joins the candidate failures for a warning banner.
func (o StageOutcome) FailureSummary() string {
	if len(o.Failures) == 0 {
		return "no candidates"
	}
	parts := make([]string, len(o.Failures))
	for i, f := range o.Failures {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}

// =============================================================================
// STAGE RUNNER
// =============================================================================

// StageRunner invokes one request along a fallback chain.
type StageRunner struct {
	caller  Caller
	timeout TimeoutFunc
	logger  *slog.Logger
}

// NewStageRunner creates a runner. timeout may be nil.
func NewStageRunner(caller Caller, timeout TimeoutFunc, logger *slog.Logger) *StageRunner {
	if timeout == nil {
		timeout = func(string) time.Duration { return 0 }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StageRunner{caller: caller, timeout: timeout, logger: logger}
}

// Run tries each candidate in order and returns the first success. Provider
// errors are logged and never returned; the outcome is Failed only when
// every candidate is exhausted. A cancelled ctx stops the chain early.
func (r *StageRunner) Run(ctx context.Context, stageID int, candidates []provider.Candidate, req provider.Request) StageOutcome {
	start := time.Now()
	out := StageOutcome{StageID: stageID}

	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}

		res, err := r.caller.Call(ctx, cand, req, r.timeout(cand.Provider))
		out.Attempts += res.Attempts

		if err != nil {
			if ctx.Err() != nil {
				out.Failures = append(out.Failures, CandidateFailure{Candidate: cand, Kind: "Cancelled", Message: err.Error()})
				break
			}
			failure := CandidateFailure{Candidate: cand, Message: err.Error()}
			var perr *provider.ProviderError
			if errors.As(err, &perr) {
				failure.Kind = perr.Kind.String()
				failure.Message = perr.Message
				if failure.Message == "" {
					failure.Message = err.Error()
				}
			}
			out.Failures = append(out.Failures, failure)
			r.logger.Warn("stage candidate failed",
				"stage", stageID,
				"task", req.TaskType,
				"candidate", cand.String(),
				"kind", failure.Kind,
				"error", err)
			continue
		}

		if strings.TrimSpace(res.Text) == "" {
			out.Failures = append(out.Failures, CandidateFailure{Candidate: cand, Kind: "EmptyResponse", Message: "provider returned no text"})
			r.logger.Warn("stage candidate returned empty text", "stage", stageID, "candidate", cand.String())
			continue
		}

		out.Content = res.Text
		out.Truncated = res.Truncated
		if res.Truncated {
			out.Content += TruncationWarning
		}
		out.UsedProvider = cand.Provider
		out.UsedModel = cand.Model
		out.Usage = res.Usage
		out.Duration = time.Since(start)

		r.logger.Info("stage succeeded",
			"stage", stageID,
			"candidate", cand.String(),
			"attempts", out.Attempts,
			"truncated", res.Truncated,
			"duration", out.Duration)
		return out
	}

	out.Failed = true
	out.Duration = time.Since(start)
	return out
}
