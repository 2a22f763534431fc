// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
)

// MinExtractedSections is the default number of the fourteen extractable
// sections (1..13 plus references) that must be found for a structured
// document. Below it the combiner concatenates raw stage texts.
const MinExtractedSections = 7

// ReviewStage is the stage whose output holds the risk summary and the
// adversarial review.
const ReviewStage = 5

// CombinedDocument is the assembled document with its diagnostics.
type CombinedDocument struct {
	Markdown string

	// Missing lists the extractable sections that were not found, in
	// canonical order.
	Missing []SectionID

	// Extracted is the number of extractable sections found.
	Extracted int

	// UsedFallback is true when the document is a raw concatenation.
	UsedFallback bool
}

// Combiner assembles stage outputs into one document.
type Combiner struct {
	matcher      *SectionMatcher
	minExtracted int
}

// NewCombiner creates a combiner. minExtracted <= 0 uses
// MinExtractedSections.
func NewCombiner(minExtracted int) *Combiner {
	if minExtracted <= 0 {
		minExtracted = MinExtractedSections
	}
	return &Combiner{
		matcher:      NewSectionMatcher(),
		minExtracted: minExtracted,
	}
}

// Matcher returns the combiner's section matcher.
func (c *Combiner) Matcher() *SectionMatcher {
	return c.matcher
}

// Combine assembles the stage texts keyed by stage number (1..5). Failed or
// empty stages contribute nothing and never shift section numbers.
func (c *Combiner) Combine(stages map[int]string) CombinedDocument {
	found := make(map[SectionID]string, len(CanonicalOrder))
	var missing []SectionID
	for _, id := range CanonicalOrder {
		text := stages[OwnerOf(id)]
		if strings.TrimSpace(text) == "" {
			missing = append(missing, id)
			continue
		}
		if body, ok := c.matcher.Extract(text, id); ok {
			found[id] = body
		} else {
			missing = append(missing, id)
		}
	}

	doc := CombinedDocument{Missing: missing, Extracted: len(found)}
	if len(found) < c.minExtracted {
		doc.UsedFallback = true
		doc.Markdown = concatenate(stages)
		return doc
	}

	riskSummary, review := c.splitReview(stages[ReviewStage])

	parts := make([]string, 0, len(CanonicalOrder)+2)
	for _, id := range CanonicalOrder {
		if id == 2 && riskSummary != "" {
			parts = append(parts, riskSummary)
		}
		if id == SectionReferences && review != "" {
			parts = append(parts, review)
		}
		if body, ok := found[id]; ok {
			parts = append(parts, body)
		}
	}
	doc.Markdown = strings.Join(parts, "\n\n")
	return doc
}

// splitReview separates the review stage output into the fragment before
// the section 14 heading and section 14 itself. Output without the heading
// becomes section 14 under a synthesized heading.
func (c *Combiner) splitReview(text string) (riskSummary, review string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	before, section, ok := c.matcher.Split(text, SectionAdversarial)
	if !ok {
		return "", Heading(SectionAdversarial) + "\n\n" + text
	}
	return before, section
}

// concatenate joins every non-empty stage text in stage order.
func concatenate(stages map[int]string) string {
	parts := make([]string, 0, len(stages))
	for stage := 1; stage <= ReviewStage; stage++ {
		if text := strings.TrimSpace(stages[stage]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
