// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// SECTION IDS
// =============================================================================

// SectionID identifies a document section. 1..13 are the numbered plan
// sections, 14 is the adversarial review.
type SectionID int

const (
	// SectionAdversarial is the review appended by the last stage.
	SectionAdversarial SectionID = 14

	// SectionReferences is the unnumbered references section.
	SectionReferences SectionID = 99
)

// String returns the section number, or "references".
func (s SectionID) String() string {
	if s == SectionReferences {
		return "references"
	}
	return fmt.Sprintf("%d", int(s))
}

// CanonicalOrder is the emission order of the extractable sections.
var CanonicalOrder = []SectionID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, SectionReferences}

// Titles are the default headings, used in prompts and when a heading must
// be synthesized.
var Titles = map[SectionID]string{
	1:                  "Executive Summary",
	2:                  "Market Trends",
	3:                  "Target Customers",
	4:                  "Solution & Value Proposition",
	5:                  "Competitive Landscape",
	6:                  "Competitive Advantage",
	7:                  "Market Positioning",
	8:                  "Market Size",
	9:                  "Go-to-Market Strategy",
	10:                 "Operations & Milestones",
	11:                 "Revenue Model",
	12:                 "Financial Projections",
	13:                 "Funding & Use of Proceeds",
	SectionAdversarial: "Adversarial Review",
	SectionReferences:  "References",
}

// Heading returns the canonical "## N. Title" heading for a section.
func Heading(id SectionID) string {
	if id == SectionReferences {
		return "## " + Titles[id]
	}
	return fmt.Sprintf("## %d. %s", int(id), Titles[id])
}

// Ownership maps each content stage to the sections it writes.
var Ownership = map[int][]SectionID{
	1: {2, 3, 8},
	2: {5, 6, 7},
	3: {1, 4, 9, 10},
	4: {11, 12, 13, SectionReferences},
}

// OwnerOf returns the stage that writes a section, or 0.
func OwnerOf(id SectionID) int {
	for stage, ids := range Ownership {
		for _, s := range ids {
			if s == id {
				return stage
			}
		}
	}
	return 0
}

// =============================================================================
// SECTION MATCHER
// =============================================================================

// SectionMatcher locates section headings. It holds one compiled pattern
// per section.
type SectionMatcher struct {
	patterns map[SectionID]*regexp.Regexp
}

var headingLine = regexp.MustCompile(`^(#{1,6})[ \t]`)

// numberedPattern accepts "## 2. Title", "### 2) Title", "## **2: Title**"
// and "## 2 Title". The number must be followed by a separator or
// whitespace and then a letter, so "1" never matches "10".
func numberedPattern(n int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`^(#{2,3})[ \t]*(?:\*\*)?[ \t]*%d(?:[.:)][ \t]*|[ \t]+)(?:\*\*)?[ \t]*\pL`, n))
}

// referencesPattern accepts a heading whose whole title is a references
// keyword. A number is allowed only past the numbered sections, so
// "## 13. Sources of Funding" stays section 13.
var referencesPattern = regexp.MustCompile(
	`(?i)^(#{2,3})[ \t]*(?:\*\*)?[ \t]*(?:(?:1[4-9]|[2-9]\d)[.:)]?[ \t]*)?` +
		`(?:references|sources|bibliography|참고[ \t]*문헌|참고[ \t]*자료|출처)[ \t]*:?[ \t]*(?:\*\*)?[ \t]*:?[ \t]*$`)

// NewSectionMatcher builds the pattern table for sections 1..14 and the
// references section.
func NewSectionMatcher() *SectionMatcher {
	m := &SectionMatcher{patterns: make(map[SectionID]*regexp.Regexp, 15)}
	for n := 1; n <= int(SectionAdversarial); n++ {
		m.patterns[SectionID(n)] = numberedPattern(n)
	}
	m.patterns[SectionReferences] = referencesPattern
	return m
}

// Extract returns the section's heading and body from text, trimmed, and
// whether the heading was found. The slice ends before the next heading of
// the same or higher level. Headings inside code fences are ignored.
func (m *SectionMatcher) Extract(text string, id SectionID) (string, bool) {
	lines := strings.Split(text, "\n")
	start, end, ok := m.locate(lines, id)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n")), true
}

// Split returns the text before the section heading and the section itself.
// When the heading is absent, before is empty and ok is false.
func (m *SectionMatcher) Split(text string, id SectionID) (before, section string, ok bool) {
	lines := strings.Split(text, "\n")
	start, end, ok := m.locate(lines, id)
	if !ok {
		return "", "", false
	}
	before = strings.TrimSpace(strings.Join(lines[:start], "\n"))
	section = strings.TrimSpace(strings.Join(lines[start:end], "\n"))
	return before, section, true
}

func (m *SectionMatcher) locate(lines []string, id SectionID) (int, int, bool) {
	pattern, ok := m.patterns[id]
	if !ok {
		return 0, 0, false
	}

	var fence fenceState
	start, level := -1, 0
	for i, line := range lines {
		if fence.step(line) {
			continue
		}
		trimmed := strings.TrimLeft(line, " ")
		if start < 0 {
			if sub := pattern.FindStringSubmatch(trimmed); sub != nil {
				start, level = i, len(sub[1])
			}
			continue
		}
		if h := headingLine.FindStringSubmatch(trimmed); h != nil && len(h[1]) <= level {
			return start, i, true
		}
	}
	if start < 0 {
		return 0, 0, false
	}
	return start, len(lines), true
}

// =============================================================================
// CODE FENCES
// =============================================================================

// fenceState tracks whether a line scan is inside a ``` or ~~~ block.
type fenceState struct {
	marker string
}

// step advances the state over line and reports whether the line belongs to
// a fence (either a marker line or fenced content).
func (f *fenceState) step(line string) bool {
	trimmed := strings.TrimSpace(line)
	if f.marker != "" {
		if strings.HasPrefix(trimmed, f.marker) {
			f.marker = ""
		}
		return true
	}
	if m := fenceMarker(trimmed); m != "" {
		f.marker = m
		return true
	}
	return false
}

func (f *fenceState) inside() bool {
	return f.marker != ""
}

func fenceMarker(trimmed string) string {
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "```"
	case strings.HasPrefix(trimmed, "~~~"):
		return "~~~"
	default:
		return ""
	}
}
