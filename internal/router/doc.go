// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router resolves a quality tier and task type to a fallback chain.
//
// A preset names, for one (tier, task) pair, the ordered list of
// (provider, model) candidates to try. Resolve filters the chain to the
// providers whose credentials are available and keeps the configured order.
//
// # Key Types
//
//   - Tier: quality tier (fast, standard, premium)
//   - Preset: one (tier, task) → chain mapping
//   - Resolver: preset table plus availability check
//   - UnknownPresetError / NoAvailableProviderError: fatal configuration errors
//
// # Usage
//
//	r := router.NewResolver(presets, client.Available)
//	chain, err := r.Resolve(router.TierStandard, "full-plan-market")
//
// A preset whose task is "*" is the tier's default chain for every task
// without an exact preset.
package router
