// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
)

// =============================================================================
// CANDIDATES
// =============================================================================

// Candidate is one (provider, model) link of a fallback chain.
type Candidate struct {
	Provider string `toml:"provider" json:"provider" yaml:"provider"`
	Model    string `toml:"model" json:"model" yaml:"model"`
}

// String returns "provider/model".
func (c Candidate) String() string {
	return fmt.Sprintf("%s/%s", c.Provider, c.Model)
}

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// Request is a single generation request. It is built once per stage
// invocation and never mutated afterwards.
type Request struct {
	// TaskType identifies the pipeline task (e.g. "full-plan-market").
	TaskType string

	// System is the optional system prompt.
	System string

	// Payload is the user prompt.
	Payload string

	// MaxTokens caps the output length. Zero lets the backend decide.
	MaxTokens int

	// JSONMode asks the backend for a JSON object response.
	JSONMode bool
}

// Usage reports token counts for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Result is the text produced by one successful call.
type Result struct {
	Text string

	// Truncated is true when the backend stopped because it hit the output
	// limit. Callers must propagate it.
	Truncated bool

	// StopReason is the raw provider stop signal.
	StopReason string

	// Attempts is the number of HTTP attempts the Client made.
	Attempts int

	Usage Usage
}

// =============================================================================
// BACKEND
// =============================================================================

// BackoffStyle selects how a backend's retry delay is computed when the
// provider does not send Retry-After.
type BackoffStyle int

const (
	// BackoffLinear waits base × attempt.
	BackoffLinear BackoffStyle = iota

	// BackoffFixed waits a fixed delay plus a buffer.
	BackoffFixed
)

// String returns the style name.
func (s BackoffStyle) String() string {
	switch s {
	case BackoffLinear:
		return "linear"
	case BackoffFixed:
		return "fixed"
	default:
		return fmt.Sprintf("BackoffStyle(%d)", int(s))
	}
}

// Backend performs exactly one generation attempt against a provider API.
//
// Implementations return *ProviderError for classified HTTP failures and
// plain errors for transport failures; the Client classifies the rest.
type Backend interface {
	// Configured reports whether the credential this backend needs is present.
	Configured() bool

	// Backoff returns the backend's retry delay style.
	Backoff() BackoffStyle

	// Generate performs one attempt.
	Generate(ctx context.Context, model string, req Request) (Result, error)
}
