// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/planforge/internal/document"
	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
)

func sampleDocument() *plan.Document {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &plan.Document{
		RunID:        "run-123",
		Idea:         plan.Idea{Name: "Acme Anvils", Description: "Anvils by drone."},
		Tier:         router.TierPremium,
		Markdown:     "## 1. Executive Summary\n\nShip anvils.\n",
		Missing:      []document.SectionID{5, 6, 7},
		FailedStages: []int{2},
		Outcomes: []plan.StageOutcome{
			{StageID: 1, UsedProvider: "anthropic", UsedModel: "claude", Attempts: 3, Duration: 2 * time.Second, Usage: provider.Usage{InputTokens: 100, OutputTokens: 50}},
			{StageID: 2, Failed: true, Failures: []plan.CandidateFailure{{Candidate: provider.Candidate{Provider: "openai", Model: "gpt"}, Kind: "Overloaded", Message: "busy"}}},
		},
		StartedAt:  started,
		FinishedAt: started.Add(95 * time.Second),
	}
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExporterFrontmatter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleDocument())
	require.NoError(t, err)

	text := string(out)
	require.True(t, strings.HasPrefix(text, "---\n"))
	parts := strings.SplitN(text, "---\n", 3)
	require.Len(t, parts, 3)

	var front map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &front))
	assert.Equal(t, "Acme Anvils", front["title"])
	assert.Equal(t, "premium", front["tier"])
	assert.Equal(t, "run-123", front["run_id"])
	assert.Equal(t, []any{"5", "6", "7"}, front["missing_sections"])
	assert.Equal(t, "1m35s", front["duration"])
	assert.NotContains(t, front, "stages")

	assert.Contains(t, parts[2], "# Acme Anvils\n\n## 1. Executive Summary")
}

func TestMarkdownExporterTitleInjection(t *testing.T) {
	doc := sampleDocument()
	doc.Idea.Name = "Acme\ninjected: true"

	out, err := NewMarkdownExporter(nil).Export(doc)
	require.NoError(t, err)

	parts := strings.SplitN(string(out), "---\n", 3)
	var front map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &front))
	assert.NotContains(t, front, "injected")
	assert.Contains(t, parts[2], "# Acme injected: true\n")
}

func TestMarkdownExporterWithoutMetadata(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{}).Export(sampleDocument())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# Acme Anvils\n"))
}

func TestMarkdownExporterRejectsEmpty(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(nil)
	assert.ErrorIs(t, err, ErrNilDocument)

	_, err = NewMarkdownExporter(nil).Export(&plan.Document{Markdown: "  "})
	assert.Error(t, err)
}

// =============================================================================
// JSON
// =============================================================================

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleDocument())
	require.NoError(t, err)

	var got struct {
		RunID    string        `json:"run_id"`
		Markdown string        `json:"markdown"`
		Stages   []StageRecord `json:"stages"`
		Idea     plan.Idea     `json:"idea"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "run-123", got.RunID)
	assert.Equal(t, "Anvils by drone.", got.Idea.Description)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, "Market", got.Stages[0].Name)
	assert.Equal(t, 3, got.Stages[0].Attempts)
	assert.Equal(t, int64(2000), got.Stages[0].DurationMs)
	assert.True(t, got.Stages[1].Failed)
	assert.Contains(t, got.Stages[1].Failure, "openai/gpt")
}

// =============================================================================
// FILES
// =============================================================================

func TestExportToFileGeneratedName(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }

	path, err := ExportMarkdown(sampleDocument(), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plan_Acme_Anvils_20250301_093000.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ship anvils.")
}

func TestExportToFileExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "acme.json")
	opts := DefaultOptions()
	opts.Path = path

	got, err := ExportJSON(sampleDocument(), opts)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestForFormat(t *testing.T) {
	md, err := ForFormat("md", nil)
	require.NoError(t, err)
	assert.Equal(t, ".md", md.FileExtension())

	js, err := ForFormat("json", nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", js.MimeType())

	_, err = ForFormat("docx", nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme Anvils", "Acme_Anvils"},
		{"a/b:c*d", "a-b-c-d"},
		{"", "plan"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in))
	}
}
