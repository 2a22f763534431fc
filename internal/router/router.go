// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/jeranaias/planforge/internal/provider"
)

// Availability reports whether a provider's credential is present.
type Availability func(providerID string) bool

type presetKey struct {
	tier Tier
	task string
}

// Resolver maps (tier, task) to an available fallback chain. It is safe for
// concurrent use; SetPresets swaps the table atomically.
type Resolver struct {
	mu        sync.RWMutex
	presets   map[presetKey][]provider.Candidate
	available Availability
	logger    *slog.Logger
}

// NewResolver creates a resolver. A nil availability treats every provider
// as available.
func NewResolver(presets []Preset, available Availability, logger *slog.Logger) *Resolver {
	if available == nil {
		available = func(string) bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{available: available, logger: logger}
	r.SetPresets(presets)
	return r
}

// SetPresets replaces the preset table. Later duplicates win.
func (r *Resolver) SetPresets(presets []Preset) {
	table := make(map[presetKey][]provider.Candidate, len(presets))
	for _, p := range presets {
		chain := make([]provider.Candidate, len(p.Chain))
		copy(chain, p.Chain)
		table[presetKey{p.Tier, p.Task}] = chain
	}

	r.mu.Lock()
	r.presets = table
	r.mu.Unlock()
}

// Resolve returns the chain for (tier, task) filtered to available
// providers, in configured order.
func (r *Resolver) Resolve(tier Tier, task string) ([]provider.Candidate, error) {
	chain, ok := r.chain(tier, task)
	if !ok || len(chain) == 0 {
		return nil, &UnknownPresetError{Tier: tier, Task: task}
	}

	out := make([]provider.Candidate, 0, len(chain))
	for _, c := range chain {
		if r.available(c.Provider) {
			out = append(out, c)
		} else {
			r.logger.Debug("skipping unavailable provider",
				"tier", tier.String(), "task", task, "provider", c.Provider)
		}
	}
	if len(out) == 0 {
		return nil, &NoAvailableProviderError{Tier: tier, Task: task, Chain: chain}
	}
	return out, nil
}

func (r *Resolver) chain(tier Tier, task string) ([]provider.Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if chain, ok := r.presets[presetKey{tier, task}]; ok {
		return chain, true
	}
	chain, ok := r.presets[presetKey{tier, AnyTask}]
	return chain, ok
}

// Describe lists every preset with per-candidate availability, ordered by
// tier then task.
func (r *Resolver) Describe() []ChainStatus {
	r.mu.RLock()
	keys := make([]presetKey, 0, len(r.presets))
	for k := range r.presets {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tier != keys[j].tier {
			return keys[i].tier < keys[j].tier
		}
		return keys[i].task < keys[j].task
	})

	out := make([]ChainStatus, 0, len(keys))
	for _, k := range keys {
		chain, _ := r.chain(k.tier, k.task)
		status := ChainStatus{Tier: k.tier, Task: k.task}
		for _, c := range chain {
			status.Candidates = append(status.Candidates, CandidateStatus{
				Candidate: c,
				Available: r.available(c.Provider),
			})
		}
		out = append(out, status)
	}
	return out
}
