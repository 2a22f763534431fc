// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Sanitize repairs common markdown artifacts. It is pure and idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
//
// Passes, in order:
//  1. normalize line endings and Unicode (NFC), blank whitespace-only lines
//  2. split one-line tables using the |---| separator to infer columns
//  3. join table rows split by blank lines; exactly one blank line around
//     tables and code blocks and before headings
//  4. fence runs of two or more diagram lines
//  5. at most two consecutive blank lines, no leading or trailing blanks
func Sanitize(markdown string) string {
	lines := normalizeLines(markdown)
	lines = repairTables(lines)
	lines = tidyBlocks(lines)
	lines = fenceDiagrams(lines)
	lines = tidyBlocks(lines)
	lines = collapseBlankRuns(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// =============================================================================
// PASS 1: NORMALIZE
// =============================================================================

func normalizeLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFC.String(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
		}
	}
	return lines
}

// =============================================================================
// PASS 2: ONE-LINE TABLES
// =============================================================================

var separatorCell = regexp.MustCompile(`^:?-{3,}:?$`)

func repairTables(lines []string) []string {
	out := make([]string, 0, len(lines))
	var fence fenceState
	for _, line := range lines {
		if fence.step(line) {
			out = append(out, line)
			continue
		}
		if !continuesTable(out) {
			if rows, ok := splitOneLineTable(line); ok {
				out = append(out, rows...)
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

// continuesTable reports whether the last non-blank line written is a table
// row. A line following one is a row of that table, even when a cell holds
// a dash placeholder.
func continuesTable(out []string) bool {
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != "" {
			return isTableLine(out[i])
		}
	}
	return false
}

// splitOneLineTable re-splits a table collapsed onto one line. The column
// count is the number of cells before the first separator cell, at least
// two, and the separator row must be complete. Empty cells are dropped; the last row is
// padded.
func splitOneLineTable(line string) ([]string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(line), "|") {
		return nil, false
	}

	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}

	n := -1
	for i, c := range cells {
		if separatorCell.MatchString(c) {
			n = i
			break
		}
	}
	if n < 2 || len(cells) <= 2*n {
		return nil, false
	}
	for _, c := range cells[n : 2*n] {
		if !separatorCell.MatchString(c) {
			return nil, false
		}
	}

	rows := make([]string, 0, (len(cells)+n-1)/n)
	for i := 0; i < len(cells); i += n {
		row := make([]string, n)
		copy(row, cells[i:min(i+n, len(cells))])
		rows = append(rows, "| "+strings.Join(row, " | ")+" |")
	}
	return rows, true
}

// =============================================================================
// PASS 3: BLOCK SPACING
// =============================================================================

func isTableLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "|") && strings.Count(t, "|") >= 2
}

func isSeparatorRow(line string) bool {
	if !isTableLine(line) {
		return false
	}
	seen := false
	for _, c := range strings.Split(strings.TrimSpace(line), "|") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !separatorCell.MatchString(c) {
			return false
		}
		seen = true
	}
	return seen
}

func isHeading(line string) bool {
	return headingLine.MatchString(strings.TrimLeft(line, " "))
}

// lineKind classifies each line; fenced content is kindFenced.
type lineKind int

const (
	kindText lineKind = iota
	kindBlank
	kindTable
	kindHeading
	kindFenceOpen
	kindFenced
	kindFenceClose
)

func classify(lines []string) []lineKind {
	kinds := make([]lineKind, len(lines))
	var fence fenceState
	for i, line := range lines {
		wasInside := fence.inside()
		if fence.step(line) {
			switch {
			case !wasInside:
				kinds[i] = kindFenceOpen
			case !fence.inside():
				kinds[i] = kindFenceClose
			default:
				kinds[i] = kindFenced
			}
			continue
		}
		switch {
		case line == "":
			kinds[i] = kindBlank
		case isTableLine(line):
			kinds[i] = kindTable
		case isHeading(line):
			kinds[i] = kindHeading
		default:
			kinds[i] = kindText
		}
	}
	return kinds
}

// joinTableRows removes blank runs between two table lines unless the line
// after the run starts a new table (it is followed by a separator row).
func joinTableRows(lines []string) []string {
	kinds := classify(lines)
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if kinds[i] != kindBlank || len(out) == 0 || !isTableLine(out[len(out)-1]) {
			out = append(out, lines[i])
			continue
		}
		j := i
		for j < len(lines) && kinds[j] == kindBlank {
			j++
		}
		if j < len(lines) && kinds[j] == kindTable {
			newTable := j+1 < len(lines) && isSeparatorRow(lines[j+1])
			if !newTable {
				i = j - 1
				continue
			}
		}
		out = append(out, lines[i])
	}
	return out
}

// tidyBlocks joins split tables and pads tables, code blocks and headings.
func tidyBlocks(lines []string) []string {
	lines = joinTableRows(lines)
	kinds := classify(lines)

	out := make([]string, 0, len(lines)+8)
	pendingBlank := false
	for i, line := range lines {
		kind := kinds[i]

		if kind == kindFenced || kind == kindFenceClose {
			out = append(out, line)
			if kind == kindFenceClose {
				pendingBlank = true
			}
			continue
		}

		if kind == kindBlank {
			if !pendingBlank {
				out = append(out, "")
			}
			continue
		}

		tableStart := kind == kindTable && (i == 0 || kinds[i-1] != kindTable)
		needBefore := kind == kindHeading || kind == kindFenceOpen || tableStart
		if needBefore || pendingBlank {
			out = trimTrailingBlanks(out)
			if len(out) > 0 {
				out = append(out, "")
			}
			pendingBlank = false
		}
		out = append(out, line)

		tableEnd := kind == kindTable && (i == len(lines)-1 || kinds[i+1] != kindTable)
		if tableEnd {
			pendingBlank = true
		}
	}
	return out
}

func trimTrailingBlanks(lines []string) []string {
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// =============================================================================
// PASS 4: DIAGRAMS
// =============================================================================

var arrowTokens = []string{"→", "←", "↑", "↓", "↔", "⇒", "⇐", "▶", "◀", "▲", "▼", "->", "<-", "=>"}

// minDiagramGap is the display width of an internal whitespace run that
// marks a line as laid out in columns.
const minDiagramGap = 3

func isDiagramLine(line string) bool {
	for _, r := range line {
		if r >= 0x2500 && r <= 0x257F {
			return true
		}
	}
	hasArrow := false
	for _, tok := range arrowTokens {
		if strings.Contains(line, tok) {
			hasArrow = true
			break
		}
	}
	return hasArrow && widestGap(line) >= minDiagramGap
}

// widestGap returns the display width of the widest whitespace run between
// non-space content. Tabs count as four columns.
func widestGap(line string) int {
	trimmed := strings.TrimFunc(line, unicode.IsSpace)
	widest, cur := 0, 0
	for _, r := range trimmed {
		if !unicode.IsSpace(r) {
			cur = 0
			continue
		}
		switch {
		case r == '\t':
			cur += 4
		case runewidth.RuneWidth(r) > 0:
			cur += runewidth.RuneWidth(r)
		default:
			cur++
		}
		if cur > widest {
			widest = cur
		}
	}
	return widest
}

// fenceDiagrams wraps runs of two or more adjacent diagram lines in a code
// fence. Tables, headings and fenced content are never diagram lines.
func fenceDiagrams(lines []string) []string {
	kinds := classify(lines)
	diagram := func(i int) bool {
		return kinds[i] == kindText && isDiagramLine(lines[i])
	}

	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if !diagram(i) {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) && diagram(j) {
			j++
		}
		if j-i >= 2 {
			out = append(out, "```")
			out = append(out, lines[i:j]...)
			out = append(out, "```")
		} else {
			out = append(out, lines[i])
		}
		i = j
	}
	return out
}

// =============================================================================
// PASS 5: BLANK RUNS
// =============================================================================

func collapseBlankRuns(lines []string) []string {
	kinds := classify(lines)
	out := make([]string, 0, len(lines))
	run := 0
	for i, line := range lines {
		if kinds[i] == kindBlank {
			run++
			if run > 2 {
				continue
			}
		} else {
			run = 0
		}
		out = append(out, line)
	}

	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return trimTrailingBlanks(out)
}
