// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MaxResponseSize caps how much of a response body is read.
const MaxResponseSize = 10 * 1024 * 1024

// sharedHTTPClient pools connections for every backend. Deadlines come from
// the request context, never from the client.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// SharedHTTPClient returns the pooled client used by backends that were not
// given their own.
func SharedHTTPClient() *http.Client {
	return sharedHTTPClient
}

// PostJSON marshals body, POSTs it and returns the response body of a 2xx
// reply. Non-2xx replies become a classified *ProviderError; transport
// failures are returned unclassified so the Client can tell a deadline from
// a dropped connection.
func PostJSON(ctx context.Context, client *http.Client, providerID, url string, headers map[string]string, body any) ([]byte, error) {
	if client == nil {
		client = sharedHTTPClient
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, StatusError(providerID, resp.StatusCode, resp.Header, data)
	}
	return data, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return data, nil
}

// StatusError maps a non-2xx status to a ProviderError.
//
//	401, 403         -> HttpError (credential rejected, never retried)
//	429              -> RateLimited
//	529, 503         -> Overloaded
//	anything else    -> HttpError
func StatusError(providerID string, status int, header http.Header, body []byte) *ProviderError {
	perr := &ProviderError{
		Provider: providerID,
		Status:   status,
		Message:  errorMessage(body),
	}

	switch status {
	case http.StatusTooManyRequests:
		perr.Kind = KindRateLimited
	case 529, http.StatusServiceUnavailable:
		perr.Kind = KindOverloaded
	default:
		perr.Kind = KindHTTPError
	}

	if perr.Retryable() && header != nil {
		perr.RetryAfter = ParseRetryAfter(header.Get("Retry-After"), time.Now())
	}
	return perr
}

// errorMessage pulls a human-readable message out of an error body. All the
// supported APIs nest it under "error"; some use a bare string there.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

// ParseRetryAfter parses a Retry-After header value given either as
// delay-seconds or as an HTTP date. It returns 0 when the header is absent,
// malformed or already in the past.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
