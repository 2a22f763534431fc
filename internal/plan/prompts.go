// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"fmt"
	"strings"

	"github.com/jeranaias/planforge/internal/document"
	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/search"
	"github.com/jeranaias/planforge/internal/util"
)

// PromptOptions tunes prompt construction.
type PromptOptions struct {
	// Language is the output language.
	Language string

	// MaxContextChars caps each prior stage output; 0 disables the cap.
	MaxContextChars int
}

// =============================================================================
// STAGE PROMPTS
// =============================================================================

// BuildStageRequest builds the request for a content stage (1-4). prior
// holds the outputs of earlier stages keyed by stage id; failed stages are
// simply absent.
func BuildStageRequest(stage Stage, idea Idea, prior map[int]string, research []search.Result, opts PromptOptions) provider.Request {
	var sys strings.Builder
	sys.WriteString(stage.Role)
	sys.WriteString(" You write one part of a business plan in GitHub-flavored markdown.\n\n")
	sys.WriteString("Rules:\n")
	sys.WriteString("- Write exactly these sections, in this order, each under its exact heading:\n")
	for _, id := range stage.Sections {
		fmt.Fprintf(&sys, "  %s\n", document.Heading(id))
	}
	sys.WriteString("- Do not write any other numbered section.\n")
	sys.WriteString("- Use markdown tables for numeric comparisons, one row per line.\n")
	sys.WriteString("- Put diagrams inside fenced code blocks.\n")
	if opts.Language != "" {
		fmt.Fprintf(&sys, "- Write in %s. Keep the section numbers.\n", opts.Language)
	}

	var payload strings.Builder
	payload.WriteString("# Business idea\n\n")
	payload.WriteString(idea.Summary())

	for _, id := range ContentStages {
		if id >= stage.ID {
			break
		}
		text := strings.TrimSpace(prior[id])
		if text == "" {
			continue
		}
		prev := Stages[id-1]
		fmt.Fprintf(&payload, "\n# Earlier analysis: %s\n\n", prev.Name)
		payload.WriteString(util.TruncateForContext(text, opts.MaxContextChars))
		payload.WriteString("\n")
	}

	if r := search.Format(research); r != "" {
		payload.WriteString("\n# Research notes\n\n")
		payload.WriteString(r)
		payload.WriteString("\nCite sources you rely on by URL.\n")
	}

	fmt.Fprintf(&payload, "\nWrite the %s sections now.\n", strings.ToLower(stage.Name))

	return provider.Request{
		TaskType:  stage.Task,
		System:    sys.String(),
		Payload:   payload.String(),
		MaxTokens: stage.MaxTokens,
	}
}

// BuildReviewRequest builds the stage 5 request from the combined draft of
// stages 1-4.
func BuildReviewRequest(stage Stage, idea Idea, draft string, opts PromptOptions) provider.Request {
	var sys strings.Builder
	sys.WriteString(stage.Role)
	sys.WriteString(" You stress-test a business plan.\n\n")
	sys.WriteString("Rules:\n")
	sys.WriteString("- Start with a short risk summary as a markdown blockquote, with no heading.\n")
	fmt.Fprintf(&sys, "- Then write the review under the heading %q.\n", document.Heading(document.SectionAdversarial))
	sys.WriteString("- Name the weakest assumptions, the likeliest failure modes and what evidence would change your mind.\n")
	if opts.Language != "" {
		fmt.Fprintf(&sys, "- Write in %s. Keep the section number.\n", opts.Language)
	}

	var payload strings.Builder
	payload.WriteString("# Business idea\n\n")
	payload.WriteString(idea.Summary())
	payload.WriteString("\n# Draft plan\n\n")
	// The draft holds four stages, so it gets four stages' worth of room.
	payload.WriteString(util.TruncateForContext(strings.TrimSpace(draft), 4*opts.MaxContextChars))
	payload.WriteString("\n")

	return provider.Request{
		TaskType:  stage.Task,
		System:    sys.String(),
		Payload:   payload.String(),
		MaxTokens: stage.MaxTokens,
	}
}

// SearchQueryFor returns the stage's research query for the idea, or "".
func (s Stage) SearchQueryFor(idea Idea) string {
	if s.SearchQuery == "" {
		return ""
	}
	return fmt.Sprintf(s.SearchQuery, strings.TrimSpace(idea.Name))
}
