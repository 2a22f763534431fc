// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/planforge/internal/cloud"
	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/ollama"
	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
	"github.com/jeranaias/planforge/internal/search"
	"github.com/jeranaias/planforge/internal/telemetry"
)

// pipeline is everything one command needs to run stages.
type pipeline struct {
	client     *provider.Client
	resolver   *router.Resolver
	runner     *plan.StageRunner
	controller *plan.Controller
	timings    telemetry.TimingStore
}

// Close releases the timing store.
func (p *pipeline) Close() error {
	if p.timings == nil {
		return nil
	}
	return p.timings.Close()
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// newPipeline builds the provider client, resolver, timing store and
// controller from the loaded config.
func (a *app) newPipeline() (*pipeline, error) {
	client, err := a.newClient()
	if err != nil {
		return nil, err
	}

	resolver, err := a.newResolver(client)
	if err != nil {
		return nil, err
	}

	timings, err := telemetry.Open(a.cfg.Storage.TimingBackend, a.cfg.Storage.TimingPath, a.cfg.Pipeline.EWMAWeight)
	if err != nil {
		// Estimates are cosmetic; a broken store must not block a run.
		a.logger.Warn("timing store unavailable, using memory", "backend", a.cfg.Storage.TimingBackend, "error", err)
		timings = telemetry.NewMemoryTimingStore(a.cfg.Pipeline.EWMAWeight)
	}

	runner := plan.NewStageRunner(client, nil, a.logger.With("component", "runner"))
	controller := plan.NewController(resolver, runner, plan.Options{
		MinExtractedSections: a.cfg.Pipeline.MinExtractedSections,
		SearchCount:          a.cfg.Pipeline.SearchCount,
		SearchDepth:          search.Depth(a.cfg.Pipeline.SearchDepth),
		Prompt: plan.PromptOptions{
			Language:        a.cfg.Pipeline.Language,
			MaxContextChars: a.cfg.Pipeline.MaxContextChars,
		},
	}, a.logger.With("component", "controller"))
	controller.SetTimingStore(timings)
	controller.SetSearcher(a.newSearcher())

	return &pipeline{
		client:     client,
		resolver:   resolver,
		runner:     runner,
		controller: controller,
		timings:    timings,
	}, nil
}

// retryPolicy converts the config's seconds into a provider policy.
func (a *app) retryPolicy() provider.RetryPolicy {
	r := a.cfg.Retry
	return provider.RetryPolicy{
		MaxRetries:    r.MaxRetries,
		Backoff:       time.Duration(r.BackoffSeconds) * time.Second,
		FixedBackoff:  time.Duration(r.FixedBackoffSeconds) * time.Second,
		BackoffBuffer: time.Duration(r.BackoffBufferSeconds) * time.Second,
		NetworkDelay:  time.Duration(r.NetworkRetrySeconds) * time.Second,
	}
}

// newClient registers one backend per enabled provider.
func (a *app) newClient() (*provider.Client, error) {
	client := provider.NewClient(a.retryPolicy(), a.logger.With("component", "provider"))

	for _, id := range sortedProviderIDs(a.cfg) {
		pc := a.cfg.Providers[id]
		if pc.Disabled {
			continue
		}
		backend, err := newBackend(id, pc)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}

		opts := []provider.Option{provider.WithTimeout(a.cfg.CallTimeout(id))}
		if pc.RequestsPerMinute > 0 {
			opts = append(opts, provider.WithRequestsPerMinute(pc.RequestsPerMinute))
		}
		client.Register(id, backend, opts...)
	}
	return client, nil
}

func sortedProviderIDs(cfg *config.Config) []string {
	ids := make([]string, 0, len(cfg.Providers))
	for id := range cfg.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// newBackend maps a provider style to its wire client.
func newBackend(id string, pc config.ProviderConfig) (provider.Backend, error) {
	opts := cloud.Options{ID: id, APIKey: pc.Credential(), BaseURL: pc.BaseURL}

	switch strings.ToLower(pc.Style) {
	case config.StyleAnthropic:
		return cloud.NewAnthropic(opts), nil
	case config.StyleOpenAI:
		return cloud.NewOpenAI(opts), nil
	case config.StyleOpenRouter:
		return cloud.NewOpenRouter(opts), nil
	case config.StyleGemini:
		return cloud.NewGemini(opts), nil
	case config.StyleOllama:
		return ollama.NewClientWithConfig(&ollama.ClientConfig{ID: id, BaseURL: pc.BaseURL}), nil
	default:
		return nil, fmt.Errorf("provider %s: unknown style %q", id, pc.Style)
	}
}

// newResolver builds the router over the configured presets. A provider
// is available when the config allows it and its backend is registered.
func (a *app) newResolver(client *provider.Client) (*router.Resolver, error) {
	presets, err := a.cfg.RouterPresets()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	available := func(id string) bool {
		return a.cfg.ProviderAvailable(id) && client.Available(id)
	}
	return router.NewResolver(presets, available, a.logger.With("component", "router")), nil
}

func (a *app) newSearcher() search.Searcher {
	if !a.cfg.Search.Enabled || a.cfg.OfflineMode {
		return search.Disabled
	}
	timeout := time.Duration(a.cfg.Search.TimeoutSeconds) * time.Second
	return search.NewDuckDuckGo(a.cfg.Search.BaseURL, timeout, a.logger.With("component", "search"))
}

// tier resolves a --tier flag value, falling back to the config default.
func (a *app) tier(flag string) (router.Tier, error) {
	name := strings.TrimSpace(flag)
	if name == "" {
		name = a.cfg.DefaultTier
	}
	t, err := router.ParseTier(name)
	if err != nil {
		return 0, NewValidationErrorWithExample("tier", name, "must be fast, standard or premium", "--tier premium")
	}
	return t, nil
}
