// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/planforge/internal/offline"
	"github.com/jeranaias/planforge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete planforge configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// OfflineMode counts only local (ollama style) providers as available.
	OfflineMode bool `toml:"offline_mode" json:"offline_mode"`

	// DefaultTier is used when a command does not name one.
	DefaultTier string `toml:"default_tier" json:"default_tier"`

	Providers map[string]ProviderConfig `toml:"providers" json:"providers"`
	Presets   []PresetConfig            `toml:"presets" json:"presets"`

	// PresetsFile optionally replaces Presets with the chains in a
	// standalone .toml/.yaml/.json file.
	PresetsFile string `toml:"presets_file" json:"presets_file"`

	Pipeline PipelineConfig `toml:"pipeline" json:"pipeline"`
	Retry    RetryConfig    `toml:"retry" json:"retry"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	Search   SearchConfig   `toml:"search" json:"search"`
}

// Provider API styles.
const (
	StyleAnthropic  = "anthropic"
	StyleOpenAI     = "openai"
	StyleOpenRouter = "openrouter"
	StyleGemini     = "gemini"
	StyleOllama     = "ollama"
)

// ProviderConfig describes one text-generation backend.
type ProviderConfig struct {
	// Style selects the wire protocol: anthropic, openai, openrouter, gemini, ollama.
	Style string `toml:"style" json:"style"`
	// BaseURL overrides the style's default endpoint.
	BaseURL string `toml:"base_url" json:"base_url,omitempty"`
	// APIKeyEnv names the environment variable holding the credential.
	APIKeyEnv string `toml:"api_key_env" json:"api_key_env,omitempty"`
	// APIKey is an inline credential; APIKeyEnv wins when both are set.
	APIKey string `toml:"api_key" json:"api_key,omitempty"`
	// TimeoutSeconds caps one call (all attempts); 0 uses the pipeline default.
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds,omitempty"`
	// RequestsPerMinute rate-limits attempts; 0 is unlimited.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute,omitempty"`
	// Disabled removes the provider without deleting its settings.
	Disabled bool `toml:"disabled" json:"disabled,omitempty"`
}

// Credential returns the API key for the provider, from the environment
// first and the inline value second.
func (p ProviderConfig) Credential() string {
	if p.APIKeyEnv != "" {
		if v := strings.TrimSpace(os.Getenv(p.APIKeyEnv)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(p.APIKey)
}

// Timeout returns the configured call timeout, or 0.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// IsLocal reports whether the provider runs on this machine.
func (p ProviderConfig) IsLocal() bool {
	return strings.EqualFold(p.Style, StyleOllama)
}

// PipelineConfig tunes the document pipeline.
type PipelineConfig struct {
	// MinExtractedSections is the combination threshold (of 14) below
	// which stage texts are concatenated instead.
	MinExtractedSections int `toml:"min_extracted_sections" json:"min_extracted_sections"`
	// EWMAWeight is the weight of a new timing sample.
	EWMAWeight float64 `toml:"ewma_weight" json:"ewma_weight"`
	// SearchCount and SearchDepth are passed to the search collaborator.
	SearchCount int    `toml:"search_count" json:"search_count"`
	SearchDepth string `toml:"search_depth" json:"search_depth"`
	// Language is the output language requested in prompts.
	Language string `toml:"language" json:"language"`
	// MaxContextChars caps each prior stage output fed into later prompts.
	MaxContextChars int `toml:"max_context_chars" json:"max_context_chars"`
	// CallTimeoutSeconds caps one provider call when the provider has no
	// timeout of its own.
	CallTimeoutSeconds int `toml:"call_timeout_seconds" json:"call_timeout_seconds"`
}

// RetryConfig mirrors provider.RetryPolicy in seconds.
type RetryConfig struct {
	MaxRetries           int `toml:"max_retries" json:"max_retries"`
	BackoffSeconds       int `toml:"backoff_seconds" json:"backoff_seconds"`
	FixedBackoffSeconds  int `toml:"fixed_backoff_seconds" json:"fixed_backoff_seconds"`
	BackoffBufferSeconds int `toml:"backoff_buffer_seconds" json:"backoff_buffer_seconds"`
	NetworkRetrySeconds  int `toml:"network_retry_seconds" json:"network_retry_seconds"`
}

// StorageConfig selects the timing store.
type StorageConfig struct {
	// TimingBackend is sqlite, json or memory.
	TimingBackend string `toml:"timing_backend" json:"timing_backend"`
	// TimingPath is the store file (empty = ~/.planforge/timings.{db,json}).
	TimingPath string `toml:"timing_path" json:"timing_path,omitempty"`
}

// SearchConfig configures the web search collaborator.
type SearchConfig struct {
	Enabled        bool   `toml:"enabled" json:"enabled"`
	BaseURL        string `toml:"base_url" json:"base_url,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Version:     "1",
		DefaultTier: "standard",
		Providers:   DefaultProviders(),
		Presets:     DefaultPresets(),
		Pipeline: PipelineConfig{
			MinExtractedSections: 7,
			EWMAWeight:           0.3,
			SearchCount:          5,
			SearchDepth:          "basic",
			Language:             "English",
			MaxContextChars:      12000,
			CallTimeoutSeconds:   600,
		},
		Retry: RetryConfig{
			MaxRetries:           4,
			BackoffSeconds:       15,
			FixedBackoffSeconds:  15,
			BackoffBufferSeconds: 3,
			NetworkRetrySeconds:  5,
		},
		Storage: StorageConfig{
			TimingBackend: "sqlite",
		},
		Search: SearchConfig{
			Enabled:        true,
			TimeoutSeconds: 15,
		},
	}
}

// DefaultProviders returns the built-in provider table.
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"anthropic": {
			Style:             StyleAnthropic,
			APIKeyEnv:         "ANTHROPIC_API_KEY",
			RequestsPerMinute: 50,
		},
		"openai": {
			Style:             StyleOpenAI,
			APIKeyEnv:         "OPENAI_API_KEY",
			RequestsPerMinute: 60,
		},
		"openrouter": {
			Style:             StyleOpenRouter,
			APIKeyEnv:         "OPENROUTER_API_KEY",
			RequestsPerMinute: 60,
		},
		"gemini": {
			Style:             StyleGemini,
			APIKeyEnv:         "GEMINI_API_KEY",
			RequestsPerMinute: 15,
		},
		"ollama": {
			Style:          StyleOllama,
			BaseURL:        "http://127.0.0.1:11434",
			TimeoutSeconds: 600,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the planforge configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".planforge"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions tightens config files to 0600; they may hold API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			continue
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Defaults are returned with any load error for informational purposes.
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if cfg.PresetsFile != "" {
		presets, err := LoadPresetsFile(resolveRelative(path, cfg.PresetsFile))
		if err != nil {
			return nil, err
		}
		cfg.Presets = presets
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// resolveRelative resolves target against the directory of base.
func resolveRelative(base, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(base), target)
}

// fillDefaults fills in any missing values with defaults. Built-in providers
// the file does not mention are kept; an empty preset list takes the
// built-in chains.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = defaults.DefaultTier
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for id, p := range defaults.Providers {
		existing, ok := cfg.Providers[id]
		if !ok {
			cfg.Providers[id] = p
			continue
		}
		if existing.Style == "" {
			existing.Style = p.Style
		}
		if existing.APIKeyEnv == "" {
			existing.APIKeyEnv = p.APIKeyEnv
		}
		if existing.BaseURL == "" {
			existing.BaseURL = p.BaseURL
		}
		cfg.Providers[id] = existing
	}

	if len(cfg.Presets) == 0 && cfg.PresetsFile == "" {
		cfg.Presets = defaults.Presets
	}

	if cfg.Storage.TimingBackend == "" {
		cfg.Storage.TimingBackend = defaults.Storage.TimingBackend
	}
	if cfg.Pipeline.SearchDepth == "" {
		cfg.Pipeline.SearchDepth = defaults.Pipeline.SearchDepth
	}
	if cfg.Pipeline.Language == "" {
		cfg.Pipeline.Language = defaults.Pipeline.Language
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// The file may have existed with looser permissions.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# planforge configuration file")
	fmt.Fprintln(file, "# Generated by planforge - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file atomically with 0600
// permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validStyles = map[string]bool{
	StyleAnthropic:  true,
	StyleOpenAI:     true,
	StyleOpenRouter: true,
	StyleGemini:     true,
	StyleOllama:     true,
}

var validTiers = map[string]bool{"fast": true, "standard": true, "premium": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !validTiers[strings.ToLower(c.DefaultTier)] {
		errs = append(errs, ValidationError{
			Field:   "default_tier",
			Message: fmt.Sprintf("invalid tier '%s', must be one of: fast, standard, premium", c.DefaultTier),
		})
	}

	ids := make([]string, 0, len(c.Providers))
	for id := range c.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := c.Providers[id]
		field := "providers." + id
		if !validStyles[strings.ToLower(p.Style)] {
			errs = append(errs, ValidationError{
				Field:   field + ".style",
				Message: fmt.Sprintf("invalid style '%s', must be one of: anthropic, openai, openrouter, gemini, ollama", p.Style),
			})
		}
		if p.BaseURL != "" {
			if err := offline.ValidateEndpoint(p.BaseURL, false); err != nil {
				errs = append(errs, ValidationError{Field: field + ".base_url", Message: fmt.Sprintf("invalid URL '%s': %v", p.BaseURL, err)})
			}
		}
		if p.TimeoutSeconds < 0 {
			errs = append(errs, ValidationError{Field: field + ".timeout_seconds", Message: "must not be negative"})
		}
		if p.RequestsPerMinute < 0 {
			errs = append(errs, ValidationError{Field: field + ".requests_per_minute", Message: "must not be negative"})
		}
	}

	for i, preset := range c.Presets {
		field := fmt.Sprintf("presets[%d]", i)
		if !validTiers[strings.ToLower(preset.Tier)] {
			errs = append(errs, ValidationError{Field: field + ".tier", Message: fmt.Sprintf("invalid tier '%s'", preset.Tier)})
		}
		if strings.TrimSpace(preset.Task) == "" {
			errs = append(errs, ValidationError{Field: field + ".task", Message: "must not be empty (use \"*\" for the tier default)"})
		}
		if len(preset.Chain) == 0 {
			errs = append(errs, ValidationError{Field: field + ".chain", Message: "must list at least one candidate"})
		}
		for j, cand := range preset.Chain {
			if _, ok := c.Providers[cand.Provider]; !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.chain[%d].provider", field, j),
					Message: fmt.Sprintf("unknown provider '%s'", cand.Provider),
				})
			}
			if cand.Model == "" {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.chain[%d].model", field, j), Message: "must not be empty"})
			}
		}
	}

	if n := c.Pipeline.MinExtractedSections; n < 1 || n > 14 {
		errs = append(errs, ValidationError{Field: "pipeline.min_extracted_sections", Message: fmt.Sprintf("%d out of range (1-14)", n)})
	}
	if w := c.Pipeline.EWMAWeight; w <= 0 || w > 1 {
		errs = append(errs, ValidationError{Field: "pipeline.ewma_weight", Message: fmt.Sprintf("%g out of range (0-1]", w)})
	}
	if d := strings.ToLower(c.Pipeline.SearchDepth); d != "basic" && d != "advanced" {
		errs = append(errs, ValidationError{Field: "pipeline.search_depth", Message: fmt.Sprintf("invalid depth '%s', must be basic or advanced", c.Pipeline.SearchDepth)})
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, ValidationError{Field: "retry.max_retries", Message: "must not be negative"})
	}

	switch strings.ToLower(c.Storage.TimingBackend) {
	case "sqlite", "json", "memory":
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.timing_backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: sqlite, json, memory", c.Storage.TimingBackend),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults replaces zero numeric settings with their defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Pipeline.MinExtractedSections == 0 {
		c.Pipeline.MinExtractedSections = d.Pipeline.MinExtractedSections
	}
	if c.Pipeline.EWMAWeight == 0 {
		c.Pipeline.EWMAWeight = d.Pipeline.EWMAWeight
	}
	if c.Pipeline.SearchCount == 0 {
		c.Pipeline.SearchCount = d.Pipeline.SearchCount
	}
	if c.Pipeline.MaxContextChars == 0 {
		c.Pipeline.MaxContextChars = d.Pipeline.MaxContextChars
	}
	if c.Pipeline.CallTimeoutSeconds == 0 {
		c.Pipeline.CallTimeoutSeconds = d.Pipeline.CallTimeoutSeconds
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = d.Retry.MaxRetries
	}
	if c.Retry.BackoffSeconds == 0 {
		c.Retry.BackoffSeconds = d.Retry.BackoffSeconds
	}
	if c.Retry.FixedBackoffSeconds == 0 {
		c.Retry.FixedBackoffSeconds = d.Retry.FixedBackoffSeconds
	}
	if c.Retry.BackoffBufferSeconds == 0 {
		c.Retry.BackoffBufferSeconds = d.Retry.BackoffBufferSeconds
	}
	if c.Retry.NetworkRetrySeconds == 0 {
		c.Retry.NetworkRetrySeconds = d.Retry.NetworkRetrySeconds
	}
	if c.Search.TimeoutSeconds == 0 {
		c.Search.TimeoutSeconds = d.Search.TimeoutSeconds
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PLANFORGE_OFFLINE: "1"/"true" enables offline_mode
//   - PLANFORGE_TIER: overrides default_tier
//   - PLANFORGE_OLLAMA_URL: overrides providers.ollama.base_url
//   - PLANFORGE_MIN_SECTIONS: overrides pipeline.min_extracted_sections
//   - PLANFORGE_EWMA_WEIGHT: overrides pipeline.ewma_weight
//   - PLANFORGE_LANGUAGE: overrides pipeline.language
//   - PLANFORGE_MAX_RETRIES: overrides retry.max_retries
//   - PLANFORGE_TIMING_BACKEND: overrides storage.timing_backend
//   - PLANFORGE_TIMING_PATH: overrides storage.timing_path
//   - PLANFORGE_SEARCH: "0"/"false" disables search
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PLANFORGE_OFFLINE"); v != "" {
		c.OfflineMode = parseBool(v)
	}
	if v := os.Getenv("PLANFORGE_TIER"); v != "" {
		c.DefaultTier = v
	}
	if v := os.Getenv("PLANFORGE_OLLAMA_URL"); v != "" {
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderConfig)
		}
		p := c.Providers["ollama"]
		if p.Style == "" {
			p.Style = StyleOllama
		}
		p.BaseURL = v
		c.Providers["ollama"] = p
	}
	if v := os.Getenv("PLANFORGE_MIN_SECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.MinExtractedSections = n
		}
	}
	if v := os.Getenv("PLANFORGE_EWMA_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Pipeline.EWMAWeight = f
		}
	}
	if v := os.Getenv("PLANFORGE_LANGUAGE"); v != "" {
		c.Pipeline.Language = v
	}
	if v := os.Getenv("PLANFORGE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retry.MaxRetries = n
		}
	}
	if v := os.Getenv("PLANFORGE_TIMING_BACKEND"); v != "" {
		c.Storage.TimingBackend = v
	}
	if v := os.Getenv("PLANFORGE_TIMING_PATH"); v != "" {
		c.Storage.TimingPath = v
	}
	if v := os.Getenv("PLANFORGE_SEARCH"); v != "" {
		c.Search.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

// =============================================================================
// HELPERS
// =============================================================================

// ProviderAvailable reports whether the provider is enabled and has what it
// needs to be called: a credential, or a local endpoint. Offline mode
// admits local providers on a loopback address only.
func (c *Config) ProviderAvailable(id string) bool {
	p, ok := c.Providers[id]
	if !ok || p.Disabled {
		return false
	}
	if p.IsLocal() {
		if !c.OfflineMode || p.BaseURL == "" {
			return true
		}
		return offline.ValidateEndpoint(p.BaseURL, true) == nil
	}
	if c.OfflineMode {
		return false
	}
	return p.Credential() != ""
}

// CallTimeout returns the timeout for one call to the given provider.
func (c *Config) CallTimeout(id string) time.Duration {
	if p, ok := c.Providers[id]; ok && p.TimeoutSeconds > 0 {
		return p.Timeout()
	}
	return time.Duration(c.Pipeline.CallTimeoutSeconds) * time.Second
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	if c.Providers != nil {
		clone.Providers = make(map[string]ProviderConfig, len(c.Providers))
		for k, v := range c.Providers {
			clone.Providers[k] = v
		}
	}
	if c.Presets != nil {
		clone.Presets = make([]PresetConfig, len(c.Presets))
		for i, p := range c.Presets {
			clone.Presets[i] = p.clone()
		}
	}

	return &clone
}

// String returns a JSON representation with inline API keys redacted.
func (c *Config) String() string {
	safe := c.Clone()
	for id, p := range safe.Providers {
		if p.APIKey != "" {
			p.APIKey = "[REDACTED]"
			safe.Providers[id] = p
		}
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
