// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/planforge/internal/provider"
)

// =============================================================================
// DEFAULTS & VALIDATION
// =============================================================================

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 7, cfg.Pipeline.MinExtractedSections)
	assert.Equal(t, 0.3, cfg.Pipeline.EWMAWeight)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	assert.Equal(t, 15, cfg.Retry.BackoffSeconds)
	assert.Equal(t, 3, cfg.Retry.BackoffBufferSeconds)
	assert.Equal(t, "sqlite", cfg.Storage.TimingBackend)
	assert.Contains(t, cfg.Providers, "anthropic")
	assert.Contains(t, cfg.Providers, "ollama")
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.DefaultTier = "ultra"
	cfg.Providers["bogus"] = ProviderConfig{Style: "smoke-signals", BaseURL: "not a url"}
	cfg.Presets = append(cfg.Presets, PresetConfig{
		Tier:  "fast",
		Task:  "x",
		Chain: nil,
	}, PresetConfig{
		Tier:  "fast",
		Task:  "y",
		Chain: []provider.Candidate{{Provider: "nobody", Model: "m"}},
	})
	cfg.Pipeline.MinExtractedSections = 15
	cfg.Storage.TimingBackend = "redis"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, len(verrs))
	for i, e := range verrs {
		fields[i] = e.Field
	}
	assert.Contains(t, fields, "default_tier")
	assert.Contains(t, fields, "providers.bogus.style")
	assert.Contains(t, fields, "providers.bogus.base_url")
	assert.Contains(t, fields, "pipeline.min_extracted_sections")
	assert.Contains(t, fields, "storage.timing_backend")

	msg := err.Error()
	assert.Contains(t, msg, "unknown provider 'nobody'")
	assert.Contains(t, msg, "must list at least one candidate")
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
default_tier = "premium"
offline_mode = true

[providers.local]
style = "ollama"
base_url = "http://localhost:9999"

[pipeline]
min_extracted_sections = 9
language = "Korean"

[[presets]]
tier = "premium"
task = "*"
chain = [{ provider = "local", model = "qwen2.5" }]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "premium", cfg.DefaultTier)
	assert.True(t, cfg.OfflineMode)
	assert.Equal(t, 9, cfg.Pipeline.MinExtractedSections)
	assert.Equal(t, "Korean", cfg.Pipeline.Language)
	// Unset numeric values take defaults.
	assert.Equal(t, 0.3, cfg.Pipeline.EWMAWeight)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	// Built-in providers are kept next to the custom one.
	assert.Contains(t, cfg.Providers, "anthropic")
	assert.Equal(t, "http://localhost:9999", cfg.Providers["local"].BaseURL)

	require.Len(t, cfg.Presets, 1)
	assert.Equal(t, "qwen2.5", cfg.Presets[0].Chain[0].Model)

	// Loading tightens permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadFromPathJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"default_tier": "fast", "storage": {"timing_backend": "json"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.DefaultTier)
	assert.Equal(t, "json", cfg.Storage.TimingBackend)
	assert.NotEmpty(t, cfg.Presets)
}

func TestLoadFromPathInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_tier = "ultra"`), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadFromPathPresetsFile(t *testing.T) {
	dir := t.TempDir()
	presets := `
presets:
  - tier: fast
    task: "*"
    chain:
      - provider: openai
        model: gpt-4o-mini
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "presets.yaml"), []byte(presets), 0644))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`presets_file = "presets.yaml"`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Len(t, cfg.Presets, 1)
	assert.Equal(t, "gpt-4o-mini", cfg.Presets[0].Chain[0].Model)
}

func TestLoadUsesHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "standard", cfg.DefaultTier)

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".planforge"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".planforge", "config.toml"),
		[]byte(`default_tier = "fast"`), 0600))

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.DefaultTier)
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.DefaultTier = "premium"
	cfg.Pipeline.Language = "German"

	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "premium", loaded.DefaultTier)
	assert.Equal(t, "German", loaded.Pipeline.Language)
	assert.Equal(t, len(cfg.Presets), len(loaded.Presets))
}

// =============================================================================
// ENVIRONMENT & HELPERS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PLANFORGE_OFFLINE", "true")
	t.Setenv("PLANFORGE_TIER", "fast")
	t.Setenv("PLANFORGE_OLLAMA_URL", "http://gpu-box:11434")
	t.Setenv("PLANFORGE_MIN_SECTIONS", "5")
	t.Setenv("PLANFORGE_EWMA_WEIGHT", "0.5")
	t.Setenv("PLANFORGE_MAX_RETRIES", "2")
	t.Setenv("PLANFORGE_TIMING_BACKEND", "memory")
	t.Setenv("PLANFORGE_SEARCH", "0")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.True(t, cfg.OfflineMode)
	assert.Equal(t, "fast", cfg.DefaultTier)
	assert.Equal(t, "http://gpu-box:11434", cfg.Providers["ollama"].BaseURL)
	assert.Equal(t, 5, cfg.Pipeline.MinExtractedSections)
	assert.Equal(t, 0.5, cfg.Pipeline.EWMAWeight)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, "memory", cfg.Storage.TimingBackend)
	assert.False(t, cfg.Search.Enabled)
}

func TestProviderAvailable(t *testing.T) {
	t.Setenv("PLANFORGE_TEST_KEY", "sk-test")

	cfg := Default()
	cfg.Providers["keyed"] = ProviderConfig{Style: StyleOpenAI, APIKeyEnv: "PLANFORGE_TEST_KEY"}
	cfg.Providers["inline"] = ProviderConfig{Style: StyleAnthropic, APIKey: "sk-inline"}
	cfg.Providers["nokey"] = ProviderConfig{Style: StyleGemini, APIKeyEnv: "PLANFORGE_TEST_MISSING"}
	cfg.Providers["off"] = ProviderConfig{Style: StyleOllama, Disabled: true}

	assert.True(t, cfg.ProviderAvailable("keyed"))
	assert.True(t, cfg.ProviderAvailable("inline"))
	assert.False(t, cfg.ProviderAvailable("nokey"))
	assert.False(t, cfg.ProviderAvailable("off"))
	assert.False(t, cfg.ProviderAvailable("unknown"))
	assert.True(t, cfg.ProviderAvailable("ollama"))

	cfg.OfflineMode = true
	assert.False(t, cfg.ProviderAvailable("keyed"))
	assert.True(t, cfg.ProviderAvailable("ollama"))

	// An ollama-style provider on another host is not local.
	cfg.Providers["gpu-box"] = ProviderConfig{Style: StyleOllama, BaseURL: "http://10.0.0.5:11434"}
	assert.False(t, cfg.ProviderAvailable("gpu-box"))
	cfg.OfflineMode = false
	assert.True(t, cfg.ProviderAvailable("gpu-box"))
}

func TestCallTimeout(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 600*time.Second, cfg.CallTimeout("anthropic"))
	cfg.Providers["anthropic"] = ProviderConfig{Style: StyleAnthropic, TimeoutSeconds: 30}
	assert.Equal(t, 30*time.Second, cfg.CallTimeout("anthropic"))
}

func TestStringRedactsKeys(t *testing.T) {
	cfg := Default()
	cfg.Providers["inline"] = ProviderConfig{Style: StyleOpenAI, APIKey: "sk-very-secret"}

	out := cfg.String()
	assert.NotContains(t, out, "sk-very-secret")
	assert.Contains(t, out, "[REDACTED]")
	// The original is untouched.
	assert.Equal(t, "sk-very-secret", cfg.Providers["inline"].APIKey)
}

func TestCloneIsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Presets[0].Chain[0].Model = "changed"
	clone.Providers["anthropic"] = ProviderConfig{Style: StyleOpenAI}

	assert.NotEqual(t, "changed", cfg.Presets[0].Chain[0].Model)
	assert.Equal(t, StyleAnthropic, cfg.Providers["anthropic"].Style)
}

// =============================================================================
// GLOBAL
// =============================================================================

// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestValidationErrorFormatting(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	assert.Equal(t, "a: bad; b: worse", errs.Error())
	assert.True(t, strings.HasPrefix(ValidateErrors{}.Error(), "no validation"))
}
