// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullStages returns stage outputs with every owned section, each stage
// listing its sections out of canonical order.
func fullStages() map[int]string {
	return map[int]string{
		1: "Intro chatter.\n\n## 8. Market Size\nsize\n\n## 3. Target Customers\ncustomers\n\n## 2. Market Trends\ntrends",
		2: "## 7. Market Positioning\npositioning\n## 5. Competitive Landscape\nlandscape\n## 6. Competitive Advantage\nadvantage",
		3: "## 10. Operations & Milestones\nops\n## 1. Executive Summary\nsummary\n## 9. Go-to-Market Strategy\ngtm\n## 4. Solution & Value Proposition\nsolution",
		4: "## 11. Revenue Model\nrevenue\n## 12. Financial Projections\nfinancials\n## 13. Funding & Use of Proceeds\nfunding\n## References\n- https://example.com",
		5: "**Top risk:** churn.\n\n## 14. Adversarial Review\ncritique",
	}
}

// headingOrder returns the position of each heading in doc, failing the test
// if one is absent.
func headingOrder(t *testing.T, doc string, headings ...string) []int {
	t.Helper()
	positions := make([]int, len(headings))
	for i, h := range headings {
		positions[i] = strings.Index(doc, h)
		require.GreaterOrEqual(t, positions[i], 0, "missing %q", h)
	}
	return positions
}

func TestCombine_CanonicalOrder(t *testing.T) {
	doc := NewCombiner(0).Combine(fullStages())

	assert.False(t, doc.UsedFallback)
	assert.Empty(t, doc.Missing)
	assert.Equal(t, 14, doc.Extracted)

	positions := headingOrder(t, doc.Markdown,
		"## 1. ", "**Top risk:**", "## 2. ", "## 3. ", "## 4. ", "## 5. ", "## 6. ", "## 7. ",
		"## 8. ", "## 9. ", "## 10. ", "## 11. ", "## 12. ", "## 13. ", "## 14. ", "## References")
	for i := 1; i < len(positions); i++ {
		assert.Less(t, positions[i-1], positions[i], "position %d out of order", i)
	}

	assert.NotContains(t, doc.Markdown, "Intro chatter.")
	assert.True(t, strings.HasPrefix(doc.Markdown, "## 1. Executive Summary\nsummary\n\n**Top risk:** churn.\n\n## 2. Market Trends"))
}

func TestCombine_FailedStageLeavesGap(t *testing.T) {
	stages := fullStages()
	delete(stages, 2)

	doc := NewCombiner(0).Combine(stages)

	assert.False(t, doc.UsedFallback)
	assert.Equal(t, []SectionID{5, 6, 7}, doc.Missing)
	assert.Equal(t, 11, doc.Extracted)
	assert.NotContains(t, doc.Markdown, "## 5.")
	headingOrder(t, doc.Markdown, "## 1. ", "## 4. ", "## 8. ", "## 13. ", "## References")
}

func TestCombine_ReviewStageFailed(t *testing.T) {
	stages := fullStages()
	stages[5] = ""

	doc := NewCombiner(0).Combine(stages)
	assert.False(t, doc.UsedFallback)
	assert.NotContains(t, doc.Markdown, "## 14.")
	assert.NotContains(t, doc.Markdown, "Top risk")
}

func TestCombine_ReviewWithoutHeading(t *testing.T) {
	stages := fullStages()
	stages[5] = "Plain critique without a heading."

	doc := NewCombiner(0).Combine(stages)
	positions := headingOrder(t, doc.Markdown, "## 13. ", "## 14. Adversarial Review\n\nPlain critique", "## References")
	assert.Less(t, positions[0], positions[1])
	assert.Less(t, positions[1], positions[2])
}

func TestCombine_FallbackBelowThreshold(t *testing.T) {
	stages := map[int]string{
		1: "  ## 2. Market Trends\ntrends\n## 3. Target Customers\ncustomers  ",
		2: "",
		3: "no headings at all",
		5: "review",
	}

	doc := NewCombiner(0).Combine(stages)
	assert.True(t, doc.UsedFallback)
	assert.Equal(t, 2, doc.Extracted)
	assert.Equal(t, "## 2. Market Trends\ntrends\n## 3. Target Customers\ncustomers\n\nno headings at all\n\nreview", doc.Markdown)
	assert.Len(t, doc.Missing, 12)
}

func TestCombine_ThresholdIsConfigurable(t *testing.T) {
	stages := fullStages()
	delete(stages, 3)
	delete(stages, 4)

	// Stages 1 and 2 yield six sections.
	assert.True(t, NewCombiner(0).Combine(stages).UsedFallback)
	assert.False(t, NewCombiner(6).Combine(stages).UsedFallback)
}

func TestCombine_EmptyInput(t *testing.T) {
	assert.NotPanics(t, func() {
		doc := NewCombiner(0).Combine(nil)
		assert.True(t, doc.UsedFallback)
		assert.Equal(t, "", doc.Markdown)
		assert.Len(t, doc.Missing, len(CanonicalOrder))
	})
}
