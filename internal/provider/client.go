// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// RETRY POLICY
// =============================================================================

// Default retry settings.
const (
	DefaultMaxRetries    = 4
	DefaultBackoff       = 15 * time.Second
	DefaultFixedBackoff  = 15 * time.Second
	DefaultBackoffBuffer = 3 * time.Second
	DefaultNetworkDelay  = 5 * time.Second
	DefaultCallTimeout   = 10 * time.Minute
)

// RetryPolicy holds the retry budget and backoff durations.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Backoff is the base for BackoffLinear (Backoff × attempt).
	Backoff time.Duration

	// FixedBackoff plus BackoffBuffer is the BackoffFixed delay.
	FixedBackoff  time.Duration
	BackoffBuffer time.Duration

	// NetworkDelay is the wait before retrying a NetworkFailure.
	NetworkDelay time.Duration
}

// DefaultRetryPolicy returns the production retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    DefaultMaxRetries,
		Backoff:       DefaultBackoff,
		FixedBackoff:  DefaultFixedBackoff,
		BackoffBuffer: DefaultBackoffBuffer,
		NetworkDelay:  DefaultNetworkDelay,
	}
}

// Delay returns the wait before the retry that follows the given 1-based
// attempt. A positive retryAfter always wins.
func (p RetryPolicy) Delay(style BackoffStyle, attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	if attempt < 1 {
		attempt = 1
	}
	switch style {
	case BackoffFixed:
		return p.FixedBackoff + p.BackoffBuffer
	default:
		return p.Backoff * time.Duration(attempt)
	}
}

// =============================================================================
// CLIENT
// =============================================================================

type registration struct {
	backend Backend
	limiter *rate.Limiter
	timeout time.Duration
}

// Option configures a backend registration.
type Option func(*registration)

// WithRequestsPerMinute throttles calls to the provider. Zero or negative
// disables throttling.
func WithRequestsPerMinute(rpm int) Option {
	return func(r *registration) {
		if rpm <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// WithTimeout sets the default per-attempt wall-clock cap for the provider.
func WithTimeout(d time.Duration) Option {
	return func(r *registration) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Client is the uniform call interface over the registered backends. It is
// safe for concurrent use.
type Client struct {
	mu       sync.RWMutex
	backends map[string]*registration
	policy   RetryPolicy
	logger   *slog.Logger

	// sleep is the backoff primitive; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client with the given retry policy.
func NewClient(policy RetryPolicy, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		backends: make(map[string]*registration),
		policy:   policy,
		logger:   logger,
		sleep:    Sleep,
	}
}

// Register adds or replaces the backend for a provider id.
func (c *Client) Register(id string, backend Backend, opts ...Option) {
	reg := &registration{backend: backend, timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(reg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.backends[id] = reg
}

// Available reports whether id is registered and its credential is present.
func (c *Client) Available(id string) bool {
	c.mu.RLock()
	reg, ok := c.backends[id]
	c.mu.RUnlock()
	return ok && reg.backend.Configured()
}

// Providers returns the registered provider ids in sorted order.
func (c *Client) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.backends))
	for id := range c.backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Policy returns the client's retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Call sends req to the candidate, retrying per the policy. timeout caps
// each attempt; zero uses the provider's registered timeout.
//
// On failure the error is a *ProviderError, except when ctx itself is
// cancelled, in which case ctx.Err() is returned unwrapped.
func (c *Client) Call(ctx context.Context, cand Candidate, req Request, timeout time.Duration) (Result, error) {
	c.mu.RLock()
	reg, ok := c.backends[cand.Provider]
	c.mu.RUnlock()

	if !ok {
		return Result{}, &ProviderError{
			Kind:     KindMissingCredential,
			Provider: cand.Provider,
			Model:    cand.Model,
			Message:  "no backend registered",
		}
	}
	if !reg.backend.Configured() {
		return Result{}, &ProviderError{
			Kind:     KindMissingCredential,
			Provider: cand.Provider,
			Model:    cand.Model,
			Message:  "credential not set",
		}
	}
	if timeout <= 0 {
		timeout = reg.timeout
	}

	maxAttempts := c.policy.MaxRetries + 1
	var lastErr *ProviderError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if reg.limiter != nil {
			if err := reg.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return Result{Attempts: attempt - 1}, ctx.Err()
				}
				// Wait fails early when the remaining deadline cannot cover the
				// reservation; treat that like any other network wait.
				return Result{Attempts: attempt - 1}, &ProviderError{
					Kind:     KindNetworkFailure,
					Provider: cand.Provider,
					Model:    cand.Model,
					Message:  "rate limiter wait failed",
					Cause:    err,
					Attempts: attempt - 1,
				}
			}
		}

		start := time.Now()
		res, perr := c.attempt(ctx, reg.backend, cand, req, timeout)
		if perr == nil {
			res.Attempts = attempt
			c.logger.Debug("provider call succeeded",
				"provider", cand.Provider,
				"model", cand.Model,
				"attempt", attempt,
				"truncated", res.Truncated,
				"duration", time.Since(start))
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{Attempts: attempt}, ctx.Err()
		}

		perr.Attempts = attempt
		lastErr = perr

		if !perr.Retryable() {
			c.logger.Warn("provider call failed",
				"provider", cand.Provider,
				"model", cand.Model,
				"kind", perr.Kind.String(),
				"status", perr.Status,
				"attempt", attempt)
			return Result{Attempts: attempt}, perr
		}
		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if perr.Kind == KindNetworkFailure {
			delay = c.policy.NetworkDelay
		} else {
			delay = c.policy.Delay(reg.backend.Backoff(), attempt, perr.RetryAfter)
		}

		c.logger.Info("provider call will retry",
			"provider", cand.Provider,
			"model", cand.Model,
			"kind", perr.Kind.String(),
			"status", perr.Status,
			"attempt", attempt,
			"delay", delay)

		if err := c.sleep(ctx, delay); err != nil {
			return Result{Attempts: attempt}, err
		}
	}

	c.logger.Warn("provider retry budget exhausted",
		"provider", cand.Provider,
		"model", cand.Model,
		"kind", lastErr.Kind.String(),
		"attempts", maxAttempts)
	return Result{Attempts: maxAttempts}, lastErr
}

// attempt performs one backend call under its own deadline and classifies
// any failure.
func (c *Client) attempt(ctx context.Context, backend Backend, cand Candidate, req Request, timeout time.Duration) (Result, *ProviderError) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := backend.Generate(attemptCtx, cand.Model, req)
	if err == nil {
		return res, nil
	}

	// The attempt deadline fired while the parent is still live.
	if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return Result{}, &ProviderError{
			Kind:     KindTimeout,
			Provider: cand.Provider,
			Model:    cand.Model,
			Message:  "call exceeded " + timeout.String(),
			Cause:    err,
		}
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		classified := *perr
		if classified.Provider == "" {
			classified.Provider = cand.Provider
		}
		classified.Model = cand.Model
		return Result{}, &classified
	}

	return Result{}, &ProviderError{
		Kind:     KindNetworkFailure,
		Provider: cand.Provider,
		Model:    cand.Model,
		Cause:    err,
	}
}
