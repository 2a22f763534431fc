// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"fmt"
	"strings"

	"github.com/jeranaias/planforge/internal/provider"
)

// ============================================================================
// TIER TYPE
// ============================================================================

// Tier is a quality tier. Ordered by cost/capability.
type Tier int

const (
	// TierFast favors latency and cost.
	TierFast Tier = iota
	// TierStandard is the balanced default.
	TierStandard
	// TierPremium uses the strongest models.
	TierPremium
)

// AllTiers lists every tier in order.
var AllTiers = []Tier{TierFast, TierStandard, TierPremium}

// String returns the tier's config name.
func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierStandard:
		return "standard"
	case TierPremium:
		return "premium"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// ParseTier parses a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return TierFast, nil
	case "standard", "":
		return TierStandard, nil
	case "premium":
		return TierPremium, nil
	default:
		return 0, fmt.Errorf("unknown tier %q (want fast, standard or premium)", s)
	}
}

// ============================================================================
// PRESETS
// ============================================================================

// AnyTask is the task wildcard for a tier's default chain.
const AnyTask = "*"

// Preset maps one (tier, task) pair to its fallback chain.
type Preset struct {
	Tier  Tier
	Task  string
	Chain []provider.Candidate
}

// CandidateStatus is one chain entry with its availability.
type CandidateStatus struct {
	provider.Candidate
	Available bool
}

// ChainStatus is a preset with per-candidate availability, for listings.
type ChainStatus struct {
	Tier       Tier
	Task       string
	Candidates []CandidateStatus
}

// ============================================================================
// ERRORS
// ============================================================================

// UnknownPresetError means no chain is configured for the pair.
type UnknownPresetError struct {
	Tier Tier
	Task string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("no preset for tier %s and task %q", e.Tier, e.Task)
}

// NoAvailableProviderError means every candidate in the chain lacks a
// credential.
type NoAvailableProviderError struct {
	Tier  Tier
	Task  string
	Chain []provider.Candidate
}

func (e *NoAvailableProviderError) Error() string {
	names := make([]string, len(e.Chain))
	for i, c := range e.Chain {
		names[i] = c.Provider
	}
	return fmt.Sprintf("no available provider for tier %s and task %q (chain: %s)",
		e.Tier, e.Task, strings.Join(names, ", "))
}
