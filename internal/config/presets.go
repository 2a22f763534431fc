// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
)

// =============================================================================
// PRESETS
// =============================================================================

// PresetConfig is one (tier, task) fallback chain as written in config.
// Task "*" is the tier's default chain.
type PresetConfig struct {
	Tier  string               `toml:"tier" json:"tier" yaml:"tier"`
	Task  string               `toml:"task" json:"task" yaml:"task"`
	Chain []provider.Candidate `toml:"chain" json:"chain" yaml:"chain"`
}

func (p PresetConfig) clone() PresetConfig {
	chain := make([]provider.Candidate, len(p.Chain))
	copy(chain, p.Chain)
	p.Chain = chain
	return p
}

// presetsDocument is the top level of a standalone preset file.
type presetsDocument struct {
	Presets []PresetConfig `toml:"presets" json:"presets" yaml:"presets"`
}

// DefaultPresets returns the built-in chains: one default per tier plus a
// stronger chain for the adversarial review.
func DefaultPresets() []PresetConfig {
	return []PresetConfig{
		{Tier: "fast", Task: router.AnyTask, Chain: []provider.Candidate{
			{Provider: "gemini", Model: "gemini-2.0-flash"},
			{Provider: "openai", Model: "gpt-4o-mini"},
			{Provider: "openrouter", Model: "google/gemini-2.0-flash-001"},
			{Provider: "ollama", Model: "llama3.2"},
		}},
		{Tier: "standard", Task: router.AnyTask, Chain: []provider.Candidate{
			{Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
			{Provider: "openai", Model: "gpt-4o"},
			{Provider: "openrouter", Model: "anthropic/claude-sonnet-4"},
			{Provider: "gemini", Model: "gemini-2.5-pro"},
			{Provider: "ollama", Model: "llama3.1"},
		}},
		{Tier: "standard", Task: "full-plan-devil", Chain: []provider.Candidate{
			{Provider: "anthropic", Model: "claude-opus-4-20250514"},
			{Provider: "openai", Model: "gpt-4.1"},
			{Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
		}},
		{Tier: "premium", Task: router.AnyTask, Chain: []provider.Candidate{
			{Provider: "anthropic", Model: "claude-opus-4-20250514"},
			{Provider: "openai", Model: "gpt-4.1"},
			{Provider: "openrouter", Model: "anthropic/claude-opus-4"},
			{Provider: "gemini", Model: "gemini-2.5-pro"},
		}},
	}
}

// ToRouterPresets converts config presets to resolver presets.
func ToRouterPresets(presets []PresetConfig) ([]router.Preset, error) {
	out := make([]router.Preset, 0, len(presets))
	for i, p := range presets {
		tier, err := router.ParseTier(p.Tier)
		if err != nil {
			return nil, fmt.Errorf("presets[%d]: %w", i, err)
		}
		task := strings.TrimSpace(p.Task)
		if task == "" {
			task = router.AnyTask
		}
		out = append(out, router.Preset{Tier: tier, Task: task, Chain: p.clone().Chain})
	}
	return out, nil
}

// RouterPresets converts the configured presets for the resolver.
func (c *Config) RouterPresets() ([]router.Preset, error) {
	return ToRouterPresets(c.Presets)
}

// LoadPresetsFile reads a standalone preset file. The format follows the
// extension: .toml, .yaml/.yml or .json. Each holds a top-level "presets"
// list.
func LoadPresetsFile(path string) ([]PresetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	var doc presetsDocument
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported presets file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}

	if len(doc.Presets) == 0 {
		return nil, fmt.Errorf("presets file %s defines no presets", path)
	}
	for i, p := range doc.Presets {
		if len(p.Chain) == 0 {
			return nil, fmt.Errorf("presets file %s: presets[%d] has an empty chain", path, i)
		}
		if _, err := router.ParseTier(p.Tier); err != nil {
			return nil, fmt.Errorf("presets file %s: presets[%d]: %w", path, i, err)
		}
	}
	return doc.Presets, nil
}
