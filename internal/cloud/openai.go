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

// Base URLs for the chat-completions style.
const (
	DefaultOpenAIURL     = "https://api.openai.com/v1"
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
)

// ChatMessage is a single message in a chat-completions conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the chat-completions request body.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Stream         bool            `json:"stream"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// ChatResponse is the chat-completions response body.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// finishReason returns the finish reason of the first choice.
func (r *ChatResponse) finishReason() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].FinishReason
	}
	return ""
}

// OpenAI talks to any chat-completions API (OpenAI, OpenRouter and
// compatible gateways).
type OpenAI struct {
	id         string
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// OpenRouter attribution headers; empty for plain OpenAI.
	siteURL  string
	siteName string
}

// NewOpenAI creates a chat-completions backend.
func NewOpenAI(opts Options) *OpenAI {
	return &OpenAI{
		id:         opts.id("openai"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    opts.baseURL(DefaultOpenAIURL),
		httpClient: opts.HTTPClient,
	}
}

// NewOpenRouter creates a chat-completions backend pointed at OpenRouter.
func NewOpenRouter(opts Options) *OpenAI {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenRouterURL
	}
	if opts.ID == "" {
		opts.ID = "openrouter"
	}
	o := NewOpenAI(opts)
	o.siteURL = "https://github.com/jeranaias/planforge"
	o.siteName = "planforge"
	return o
}

// Configured reports whether an API key is set.
func (o *OpenAI) Configured() bool { return o.apiKey != "" }

// Backoff returns BackoffLinear.
func (o *OpenAI) Backoff() provider.BackoffStyle { return provider.BackoffLinear }

// Generate performs one chat-completions call.
func (o *OpenAI) Generate(ctx context.Context, model string, req provider.Request) (provider.Result, error) {
	messages := make([]ChatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Payload})

	body := ChatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if o.siteURL != "" {
		headers["HTTP-Referer"] = o.siteURL
		headers["X-Title"] = o.siteName
	}

	data, err := provider.PostJSON(ctx, o.httpClient, o.id, o.baseURL+"/chat/completions", headers, body)
	if err != nil {
		return provider.Result{}, err
	}

	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return provider.Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	reason := resp.finishReason()
	return provider.Result{
		Text:       resp.GetContent(),
		Truncated:  reason == "length",
		StopReason: reason,
		Usage: provider.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
