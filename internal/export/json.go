// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/planforge/internal/plan"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the run record with the markdown body. It always
// includes the complete record regardless of options.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	*Record
	Idea     plan.Idea `json:"idea"`
	Markdown string    `json:"markdown"`
}

// Export converts doc to indented JSON.
func (e *JSONExporter) Export(doc *plan.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	return json.MarshalIndent(jsonDocument{
		Record:   NewRecord(doc),
		Idea:     doc.Idea,
		Markdown: doc.Markdown,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
