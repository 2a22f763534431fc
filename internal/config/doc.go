// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for planforge.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation. Preset chains may also live
// in a standalone TOML, YAML or JSON file that is watched for changes.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ProviderConfig: One text-generation backend (style, endpoint, credential)
//   - PresetConfig: One (tier, task) fallback chain
//   - PresetWatcher: Reloads a preset file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PLANFORGE_*)
//   - ~/.planforge/config.toml
//   - ~/.planforge/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	presets, err := cfg.RouterPresets()
package config
