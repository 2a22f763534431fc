// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/planforge/internal/router"
)

func TestDefaultPresetsConvert(t *testing.T) {
	presets, err := ToRouterPresets(DefaultPresets())
	require.NoError(t, err)

	tiers := map[router.Tier]bool{}
	for _, p := range presets {
		if p.Task == router.AnyTask {
			tiers[p.Tier] = true
		}
		assert.NotEmpty(t, p.Chain)
	}
	for _, tier := range router.AllTiers {
		assert.True(t, tiers[tier], "tier %s has no default chain", tier)
	}
}

func TestToRouterPresetsRejectsBadTier(t *testing.T) {
	_, err := ToRouterPresets([]PresetConfig{{Tier: "gold", Task: "*"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presets[0]")
}

func TestLoadPresetsFile(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"presets.toml": `
[[presets]]
tier = "fast"
task = "full-plan-market"
chain = [{ provider = "gemini", model = "gemini-2.0-flash" }, { provider = "ollama", model = "llama3.2" }]
`,
		"presets.yaml": `
presets:
  - tier: fast
    task: full-plan-market
    chain:
      - { provider: gemini, model: gemini-2.0-flash }
      - { provider: ollama, model: llama3.2 }
`,
		"presets.json": `{"presets": [{"tier": "fast", "task": "full-plan-market", "chain": [
			{"provider": "gemini", "model": "gemini-2.0-flash"},
			{"provider": "ollama", "model": "llama3.2"}]}]}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			presets, err := LoadPresetsFile(path)
			require.NoError(t, err)
			require.Len(t, presets, 1)
			assert.Equal(t, "fast", presets[0].Tier)
			assert.Equal(t, "full-plan-market", presets[0].Task)
			require.Len(t, presets[0].Chain, 2)
			assert.Equal(t, "ollama", presets[0].Chain[1].Provider)
			assert.Equal(t, "llama3.2", presets[0].Chain[1].Model)
		})
	}
}

func TestLoadPresetsFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unsupported extension", "p.ini", "x", "unsupported"},
		{"empty", "p.json", `{"presets": []}`, "defines no presets"},
		{"empty chain", "p.json", `{"presets": [{"tier": "fast", "task": "*"}]}`, "empty chain"},
		{"bad tier", "p.yaml", "presets:\n  - tier: gold\n    task: '*'\n    chain: [{provider: a, model: b}]\n", "unknown tier"},
		{"malformed", "p.toml", "[[presets", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadPresetsFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadPresetsFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestPresetWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"presets": [{"tier": "fast", "task": "*", "chain": [{"provider": "a", "model": "one"}]}]}`), 0644))

	pw, err := NewPresetWatcher(path, nil)
	require.NoError(t, err)
	defer pw.Close()
	pw.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []PresetConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- pw.Run(ctx, func(p []PresetConfig) { got <- p })
	}()

	// A broken intermediate write is skipped.
	require.NoError(t, os.WriteFile(path, []byte(`{"presets": [`), 0644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"presets": [{"tier": "fast", "task": "*", "chain": [{"provider": "a", "model": "two"}]}]}`), 0644))

	select {
	case presets := <-got:
		require.Len(t, presets, 1)
		assert.Equal(t, "two", presets[0].Chain[0].Model)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for preset reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
