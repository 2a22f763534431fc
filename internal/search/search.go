// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/planforge/internal/util"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Depth controls how many results are requested per query.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// Searcher is a best-effort search function. Implementations return an empty
// slice on failure.
type Searcher interface {
	Search(ctx context.Context, query string, count int, depth Depth) []Result
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string, count int, depth Depth) []Result

// Search implements Searcher.
func (f SearcherFunc) Search(ctx context.Context, query string, count int, depth Depth) []Result {
	return f(ctx, query, count, depth)
}

// Disabled is a Searcher that never returns results.
var Disabled Searcher = SearcherFunc(func(context.Context, string, int, Depth) []Result { return nil })

// maxSnippetRunes caps each snippet when rendered into a prompt.
const maxSnippetRunes = 300

// Format renders results as a numbered markdown list for prompt context.
func Format(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("[%d] %s\n    %s\n", i+1, r.Title, r.URL))
		if r.Snippet != "" {
			sb.WriteString("    ")
			sb.WriteString(util.TruncateRunes(r.Snippet, maxSnippetRunes))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
