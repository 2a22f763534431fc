// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/planforge/internal/document"
	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
)

// stageText returns well-formed output for a content stage.
func stageText(stage int) string {
	var sb strings.Builder
	for _, id := range document.Ownership[stage] {
		sb.WriteString(document.Heading(id))
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "Body of section %s.\n\n", id)
	}
	return sb.String()
}

const reviewText = "> Risk summary: margins are thin.\n\n## 14. Adversarial Review\n\nThe plan assumes too much.\n"

// call is one recorded Caller invocation.
type call struct {
	Candidate provider.Candidate
	Request   provider.Request
}

// fakeCaller answers by task type.
type fakeCaller struct {
	mu      sync.Mutex
	calls   []call
	respond func(ctx context.Context, cand provider.Candidate, req provider.Request) (provider.Result, error)
}

func (f *fakeCaller) Call(ctx context.Context, cand provider.Candidate, req provider.Request, _ time.Duration) (provider.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Candidate: cand, Request: req})
	f.mu.Unlock()
	return f.respond(ctx, cand, req)
}

func (f *fakeCaller) tasks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Request.TaskType
	}
	return out
}

func (f *fakeCaller) request(task string) (provider.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Request.TaskType == task {
			return c.Request, true
		}
	}
	return provider.Request{}, false
}

// healthyResponse answers every stage with well-formed text.
func healthyResponse(_ context.Context, _ provider.Candidate, req provider.Request) (provider.Result, error) {
	switch req.TaskType {
	case TaskMarket:
		return provider.Result{Text: stageText(1), Attempts: 1}, nil
	case TaskCompetition:
		return provider.Result{Text: stageText(2), Attempts: 1}, nil
	case TaskStrategy:
		return provider.Result{Text: stageText(3), Attempts: 1}, nil
	case TaskFinance:
		return provider.Result{Text: stageText(4), Attempts: 1}, nil
	case TaskReview:
		return provider.Result{Text: reviewText, Attempts: 1}, nil
	}
	return provider.Result{}, fmt.Errorf("unexpected task %s", req.TaskType)
}

// failing returns a non-retryable provider error for the given tasks and
// defers to next otherwise.
func failing(next func(context.Context, provider.Candidate, provider.Request) (provider.Result, error), tasks ...string) func(context.Context, provider.Candidate, provider.Request) (provider.Result, error) {
	set := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		set[t] = true
	}
	return func(ctx context.Context, cand provider.Candidate, req provider.Request) (provider.Result, error) {
		if set[req.TaskType] {
			return provider.Result{Attempts: 1}, &provider.ProviderError{
				Kind:     provider.KindHTTPError,
				Provider: cand.Provider,
				Model:    cand.Model,
				Status:   500,
				Message:  "boom",
			}
		}
		return next(ctx, cand, req)
	}
}

// testResolver returns a resolver with one default chain per tier.
func testResolver(chain ...provider.Candidate) *router.Resolver {
	if len(chain) == 0 {
		chain = []provider.Candidate{{Provider: "providerA", Model: "modelX"}}
	}
	presets := make([]router.Preset, 0, len(router.AllTiers))
	for _, tier := range router.AllTiers {
		presets = append(presets, router.Preset{Tier: tier, Task: router.AnyTask, Chain: chain})
	}
	return router.NewResolver(presets, nil, nil)
}

func acme() Idea {
	return Idea{Name: "Acme", Description: "Anvils delivered by drone."}
}

// scriptedBackend is a provider.Backend driven by a function.
type scriptedBackend struct {
	mu       sync.Mutex
	calls    int
	generate func(ctx context.Context, n int, req provider.Request) (provider.Result, error)
}

func (b *scriptedBackend) Configured() bool                { return true }
func (b *scriptedBackend) Backoff() provider.BackoffStyle { return provider.BackoffLinear }

func (b *scriptedBackend) Generate(ctx context.Context, _ string, req provider.Request) (provider.Result, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()
	return b.generate(ctx, n, req)
}

func fastPolicy() provider.RetryPolicy {
	return provider.RetryPolicy{
		MaxRetries:    4,
		Backoff:       time.Millisecond,
		FixedBackoff:  time.Millisecond,
		BackoffBuffer: time.Millisecond,
		NetworkDelay:  time.Millisecond,
	}
}
