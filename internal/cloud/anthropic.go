// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/planforge/internal/provider"
)

const (
	// DefaultAnthropicURL is the Anthropic API base URL.
	DefaultAnthropicURL = "https://api.anthropic.com"

	anthropicVersion = "2023-06-01"

	// anthropicDefaultMaxTokens is required by the API when the request has none.
	anthropicDefaultMaxTokens = 8192
)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Anthropic talks to the Messages API.
type Anthropic struct {
	id         string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropic creates an Anthropic backend.
func NewAnthropic(opts Options) *Anthropic {
	return &Anthropic{
		id:         opts.id("anthropic"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    opts.baseURL(DefaultAnthropicURL),
		httpClient: opts.HTTPClient,
	}
}

// Configured reports whether an API key is set.
func (a *Anthropic) Configured() bool { return a.apiKey != "" }

// Backoff returns BackoffLinear.
func (a *Anthropic) Backoff() provider.BackoffStyle { return provider.BackoffLinear }

// Generate performs one Messages API call.
func (a *Anthropic) Generate(ctx context.Context, model string, req provider.Request) (provider.Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	prompt := req.Payload
	if req.JSONMode {
		// The Messages API has no JSON switch; the instruction goes in the prompt.
		prompt += "\n\nRespond with a single JSON object and nothing else."
	}

	body := anthropicRequest{
		Model:     model,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	data, err := provider.PostJSON(ctx, a.httpClient, a.id, a.baseURL+"/v1/messages", headers, body)
	if err != nil {
		return provider.Result{}, err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return provider.Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return provider.Result{
		Text:       text.String(),
		Truncated:  resp.StopReason == "max_tokens",
		StopReason: resp.StopReason,
		Usage: provider.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
