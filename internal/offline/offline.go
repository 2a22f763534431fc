// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidURL is returned for endpoints that do not parse or have no host.
	ErrInvalidURL = errors.New("invalid endpoint URL")

	// ErrInvalidURLScheme is returned when the scheme is not http or https.
	ErrInvalidURLScheme = errors.New("only http and https endpoints are allowed")

	// ErrNonLocalhost is returned for a remote endpoint in offline mode.
	ErrNonLocalhost = errors.New("only loopback endpoints are allowed in offline mode")
)

// =============================================================================
// URL VALIDATION
// =============================================================================

// IsLocalhost reports whether host (optionally with a port) names the
// loopback interface: "localhost", any 127.0.0.0/8 address or an IPv6
// loopback in any notation.
func IsLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// ValidateEndpoint checks a provider or search base URL. The scheme must be
// http or https; when offline is set the host must also be loopback.
func ValidateEndpoint(rawURL string, offline bool) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ErrInvalidURL
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrInvalidURLScheme
	}

	// userinfo is how "http://localhost@evil.com" hides the real host.
	if offline && (parsed.User != nil || !IsLocalhost(parsed.Hostname())) {
		return ErrNonLocalhost
	}
	return nil
}
