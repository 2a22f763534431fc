// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host   string
		expect bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"127.0.0.1:11434", true},
		{"127.1.2.3", true},
		{"::1", true},
		{"[::1]", true},
		{"[::1]:11434", true},

		{"api.anthropic.com", false},
		{"192.168.1.1", false},
		{"0.0.0.0", false},
		{"", false},
		{"localhost.localdomain", false},
	}

	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			assert.Equal(t, tc.expect, IsLocalhost(tc.host))
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		offline bool
		want    error
	}{
		{"local online", "http://127.0.0.1:11434", false, nil},
		{"local offline", "http://localhost:11434", true, nil},
		{"remote online", "https://api.openai.com/v1", false, nil},
		{"remote offline", "https://api.openai.com/v1", true, ErrNonLocalhost},
		{"file scheme", "file:///etc/passwd", false, ErrInvalidURL},
		{"ftp scheme", "ftp://localhost/x", false, ErrInvalidURLScheme},
		{"no host", "localhost:11434", false, ErrInvalidURL},
		{"garbage", "://", false, ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.url, tt.offline)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateEndpointAdversarial(t *testing.T) {
	for _, u := range []string{
		"http://localhost.evil.com:11434",
		"http://127.0.0.1.evil.com:11434",
		"http://evil.com#localhost",
		"http://evil.com?host=localhost",
		"http://localhost@evil.com",
		"http://evil.com@localhost",
	} {
		assert.Error(t, ValidateEndpoint(u, true), u)
	}
}
