// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"time"

	"github.com/jeranaias/planforge/internal/plan"
)

// =============================================================================
// RUN RECORD
// =============================================================================

// Record is the metadata of one generated document.
type Record struct {
	Title        string        `yaml:"title" json:"title"`
	RunID        string        `yaml:"run_id" json:"run_id"`
	Tier         string        `yaml:"tier" json:"tier"`
	GeneratedAt  time.Time     `yaml:"generated_at" json:"generated_at"`
	Duration     string        `yaml:"duration,omitempty" json:"duration,omitempty"`
	Missing      []string      `yaml:"missing_sections,omitempty" json:"missing_sections,omitempty"`
	FailedStages []int         `yaml:"failed_stages,omitempty" json:"failed_stages,omitempty"`
	Fallback     bool          `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Stages       []StageRecord `yaml:"-" json:"stages"`
	Generator    string        `yaml:"generator" json:"generator"`
}

// StageRecord summarizes one stage outcome.
type StageRecord struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	Attempts     int    `json:"attempts"`
	DurationMs   int64  `json:"duration_ms"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	Truncated    bool   `json:"truncated,omitempty"`
	Failed       bool   `json:"failed,omitempty"`
	Skipped      bool   `json:"skipped,omitempty"`
	Failure      string `json:"failure,omitempty"`
}

// NewRecord builds the record for doc.
func NewRecord(doc *plan.Document) *Record {
	if doc == nil {
		return nil
	}

	rec := &Record{
		Title:        doc.Idea.Name,
		RunID:        doc.RunID,
		Tier:         doc.Tier.String(),
		GeneratedAt:  doc.FinishedAt,
		FailedStages: doc.FailedStages,
		Fallback:     doc.UsedFallback,
		Generator:    "planforge",
	}
	if !doc.StartedAt.IsZero() && !doc.FinishedAt.IsZero() {
		rec.Duration = doc.FinishedAt.Sub(doc.StartedAt).Round(time.Second).String()
	}
	for _, id := range doc.Missing {
		rec.Missing = append(rec.Missing, id.String())
	}

	rec.Stages = make([]StageRecord, 0, len(doc.Outcomes))
	for _, o := range doc.Outcomes {
		sr := StageRecord{
			ID:           o.StageID,
			Provider:     o.UsedProvider,
			Model:        o.UsedModel,
			Attempts:     o.Attempts,
			DurationMs:   o.Duration.Milliseconds(),
			InputTokens:  o.Usage.InputTokens,
			OutputTokens: o.Usage.OutputTokens,
			Truncated:    o.Truncated,
			Failed:       o.Failed,
			Skipped:      o.Skipped,
		}
		if s, err := plan.StageByID(o.StageID); err == nil {
			sr.Name = s.Name
		}
		if o.Failed {
			sr.Failure = o.FailureSummary()
		}
		rec.Stages = append(rec.Stages, sr)
	}
	return rec
}
