// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jeranaias/planforge/internal/provider"
)

// DefaultGeminiURL is the Generative Language API base URL.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Gemini talks to the generateContent endpoint.
type Gemini struct {
	id         string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGemini creates a Gemini backend.
func NewGemini(opts Options) *Gemini {
	return &Gemini{
		id:         opts.id("gemini"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    opts.baseURL(DefaultGeminiURL),
		httpClient: opts.HTTPClient,
	}
}

// Configured reports whether an API key is set.
func (g *Gemini) Configured() bool { return g.apiKey != "" }

// Backoff returns BackoffFixed.
func (g *Gemini) Backoff() provider.BackoffStyle { return provider.BackoffFixed }

// Generate performs one generateContent call.
func (g *Gemini) Generate(ctx context.Context, model string, req provider.Request) (provider.Result, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Payload}},
		}},
		GenerationConfig: geminiGenerationConfig{MaxOutputTokens: req.MaxTokens},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSONMode {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(model), url.QueryEscape(g.apiKey))

	data, err := provider.PostJSON(ctx, g.httpClient, g.id, endpoint, nil, body)
	if err != nil {
		return provider.Result{}, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return provider.Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	var reason string
	if len(resp.Candidates) > 0 {
		reason = resp.Candidates[0].FinishReason
		for _, part := range resp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}

	return provider.Result{
		Text:       text.String(),
		Truncated:  reason == "MAX_TOKENS",
		StopReason: reason,
		Usage: provider.Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}
