// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the local text-generation backend.
//
// The Client talks to an Ollama server's /api/chat endpoint and implements
// provider.Backend. It needs no credential; it counts as configured whenever
// a base URL is set, which makes it the only backend left in offline mode.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - ChatRequest / ChatResponse: /api/chat bodies
//   - ClientError: health-check failures (not running, timeout)
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	if err := client.CheckRunning(ctx); err != nil {
//	    return err
//	}
//	providers.Register("ollama", client)
package ollama
