// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/planforge/internal/plan"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes the document under a title, with optional YAML
// frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders doc as Markdown.
func (e *MarkdownExporter) Export(doc *plan.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if strings.TrimSpace(doc.Markdown) == "" {
		return nil, fmt.Errorf("document %s has no content", doc.RunID)
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		// yaml.v3 quotes titles with newlines or colons, so user input
		// cannot inject extra keys.
		front, err := yaml.Marshal(NewRecord(doc))
		if err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(front)
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeTitle(doc.Idea.Name))
	sb.WriteString(strings.TrimSpace(doc.Markdown))
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeTitle keeps the title on one line.
func escapeTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "Business Plan"
	}
	return s
}
