// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/planforge/internal/provider"
)

// DefaultBaseURL is the local Ollama address. The explicit IPv4 address
// avoids IPv6 localhost resolution issues.
const DefaultBaseURL = "http://127.0.0.1:11434"

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// ID is the provider id used in errors (default: "ollama").
	ID string

	// BaseURL is the Ollama API base URL.
	BaseURL string

	// HealthTimeout bounds CheckRunning and ListModels (default: 5s).
	HealthTimeout time.Duration

	// NumCtx sets the context window for generation; 0 keeps the model default.
	NumCtx int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		ID:            "ollama",
		BaseURL:       DefaultBaseURL,
		HealthTimeout: 5 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API. It is safe for
// concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client with the default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with a custom configuration. Zero
// fields take their defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.ID == "" {
		config.ID = "ollama"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.HealthTimeout == 0 {
		config.HealthTimeout = 5 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: provider.SharedHTTPClient(),
	}
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}
	return nil
}

// ListModels returns the locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}

	var list ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return list.Models, nil
}

// =============================================================================
// GENERATION (provider.Backend)
// =============================================================================

// Configured reports whether a server address is set. Ollama needs no key.
func (c *Client) Configured() bool {
	return c.config.BaseURL != ""
}

// Backoff returns BackoffLinear.
func (c *Client) Backoff() provider.BackoffStyle {
	return provider.BackoffLinear
}

// Generate performs one non-streaming /api/chat call.
func (c *Client) Generate(ctx context.Context, model string, req provider.Request) (provider.Result, error) {
	messages := make([]Message, 0, 2)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, Message{Role: "user", Content: req.Payload})

	body := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}
	if req.MaxTokens > 0 || c.config.NumCtx > 0 {
		body.Options = &Options{NumPredict: req.MaxTokens, NumCtx: c.config.NumCtx}
	}
	if req.JSONMode {
		body.Format = "json"
	}

	data, err := provider.PostJSON(ctx, c.httpClient, c.config.ID, c.config.BaseURL+"/api/chat", nil, body)
	if err != nil {
		return provider.Result{}, err
	}

	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return provider.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return provider.Result{
		Text:       resp.Message.Content,
		Truncated:  resp.DoneReason == "length",
		StopReason: resp.DoneReason,
		Usage: provider.Usage{
			InputTokens:  resp.PromptEvalCount,
			OutputTokens: resp.EvalCount,
		},
	}, nil
}
