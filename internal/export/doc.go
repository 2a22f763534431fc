// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes generated business plans to disk.
//
// # Key Types
//
//   - Exporter: converts a plan.Document into file content
//   - MarkdownExporter: the document with YAML frontmatter
//   - JSONExporter: run metadata plus the markdown body
//   - Record: the metadata shared by both formats
//
// # Usage
//
//	opts := export.DefaultOptions()
//	opts.Path = "acme.md"
//	path, err := export.ExportMarkdown(doc, opts)
//
// Files are written atomically, so a crash never leaves a half-written plan.
package export
