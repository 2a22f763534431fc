// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider defines the uniform call interface to interchangeable
// text-generation backends.
//
// A Backend performs exactly one HTTP attempt. The Client wraps registered
// backends with the retry, backoff, rate-limit and timeout policy:
//
//   - RateLimited / Overloaded: sleep for Retry-After if the provider sent
//     one, otherwise an attempt-indexed backoff, then retry
//   - NetworkFailure: retry unconditionally until the budget is spent
//   - Timeout: surfaced immediately so the caller can fail over
//   - MissingCredential / HttpError: surfaced immediately
//
// # Key Types
//
//   - Candidate: a (provider, model) pair, one link of a fallback chain
//   - Request / Result: one generation call and its text
//   - ProviderError: classified failure with ErrorKind
//   - Client: registry of backends plus the retry loop
//
// # Usage
//
//	client := provider.NewClient(provider.DefaultRetryPolicy(), logger)
//	client.Register("anthropic", cloud.NewAnthropic(opts), provider.WithRequestsPerMinute(50))
//	res, err := client.Call(ctx, provider.Candidate{Provider: "anthropic", Model: "claude-sonnet-4-5"}, req, 0)
//
// Every backoff sleep is interruptible: cancelling ctx ends the wait at once.
package provider
