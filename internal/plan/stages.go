// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"fmt"

	"github.com/jeranaias/planforge/internal/document"
)

// Task types, used as preset keys.
const (
	TaskMarket      = "full-plan-market"
	TaskCompetition = "full-plan-competition"
	TaskStrategy    = "full-plan-strategy"
	TaskFinance     = "full-plan-finance"
	TaskReview      = "full-plan-devil"
	TaskDraftIdeas  = "draft-ideas"
)

// =============================================================================
// STAGES
// =============================================================================

// Stage describes one pipeline step.
type Stage struct {
	ID       int
	Name     string
	Task     string
	Sections []document.SectionID

	// MaxTokens caps the stage output.
	MaxTokens int

	// SearchQuery is a fmt template taking the idea name; empty skips search.
	SearchQuery string

	// Role opens the stage's system prompt.
	Role string
}

// StageCount is the number of pipeline stages.
const StageCount = 5

// ContentStages are the stages that write numbered sections.
var ContentStages = []int{1, 2, 3, 4}

// Stages is the pipeline, in execution order.
var Stages = []Stage{
	{
		ID:          1,
		Name:        "Market",
		Task:        TaskMarket,
		Sections:    document.Ownership[1],
		MaxTokens:   8192,
		SearchQuery: "%s market size trends",
		Role:        "You are a market research analyst.",
	},
	{
		ID:          2,
		Name:        "Competition",
		Task:        TaskCompetition,
		Sections:    document.Ownership[2],
		MaxTokens:   8192,
		SearchQuery: "%s competitors alternatives",
		Role:        "You are a competitive intelligence analyst.",
	},
	{
		ID:        3,
		Name:      "Strategy",
		Task:      TaskStrategy,
		Sections:  document.Ownership[3],
		MaxTokens: 8192,
		Role:      "You are a startup strategy consultant.",
	},
	{
		ID:          4,
		Name:        "Finance",
		Task:        TaskFinance,
		Sections:    document.Ownership[4],
		MaxTokens:   8192,
		SearchQuery: "%s pricing revenue benchmarks",
		Role:        "You are a startup financial analyst.",
	},
	{
		ID:        5,
		Name:      "Review",
		Task:      TaskReview,
		Sections:  []document.SectionID{document.SectionAdversarial},
		MaxTokens: 6144,
		Role:      "You are a skeptical investor performing an adversarial review.",
	},
}

// StageByID returns the stage with the given id.
func StageByID(id int) (Stage, error) {
	if id < 1 || id > len(Stages) {
		return Stage{}, fmt.Errorf("unknown stage %d", id)
	}
	return Stages[id-1], nil
}
