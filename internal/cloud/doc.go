// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the hosted text-generation backends.
//
// Each backend implements provider.Backend for one API style and performs a
// single HTTP attempt per Generate call. Retry, backoff and rate limiting
// belong to provider.Client.
//
// # Key Types
//
//   - Anthropic: Messages API (x-api-key, stop_reason)
//   - OpenAI: chat completions, also used for OpenRouter (bearer, finish_reason)
//   - Gemini: generateContent (key query parameter, finishReason)
//
// # Usage
//
//	backend := cloud.NewAnthropic(cloud.Options{APIKey: os.Getenv("ANTHROPIC_API_KEY")})
//	client.Register("anthropic", backend, provider.WithRequestsPerMinute(50))
//
// API keys are never logged.
package cloud

import (
	"net/http"
	"strings"
)

// Options configures a hosted backend.
type Options struct {
	// ID is the provider id used in errors; defaults to the style name.
	ID string

	APIKey  string
	BaseURL string

	// HTTPClient overrides the pooled client. Deadlines come from the
	// request context.
	HTTPClient *http.Client
}

func (o Options) baseURL(fallback string) string {
	if o.BaseURL == "" {
		return fallback
	}
	return strings.TrimSuffix(o.BaseURL, "/")
}

func (o Options) id(fallback string) string {
	if o.ID == "" {
		return fallback
	}
	return o.ID
}
