// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a provider failure.
type ErrorKind int

const (
	// KindMissingCredential means the provider's credential is absent.
	KindMissingCredential ErrorKind = iota

	// KindRateLimited is HTTP 429.
	KindRateLimited

	// KindOverloaded is HTTP 529 or 503.
	KindOverloaded

	// KindNetworkFailure covers transport errors and unreadable responses.
	KindNetworkFailure

	// KindHTTPError is any other non-2xx status.
	KindHTTPError

	// KindTimeout means the per-call wall-clock cap elapsed.
	KindTimeout
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "MissingCredential"
	case KindRateLimited:
		return "RateLimited"
	case KindOverloaded:
		return "Overloaded"
	case KindNetworkFailure:
		return "NetworkFailure"
	case KindHTTPError:
		return "HttpError"
	case KindTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrMissingCredential = &ProviderError{Kind: KindMissingCredential}
	ErrRateLimited       = &ProviderError{Kind: KindRateLimited}
	ErrOverloaded        = &ProviderError{Kind: KindOverloaded}
	ErrNetworkFailure    = &ProviderError{Kind: KindNetworkFailure}
	ErrHTTPError         = &ProviderError{Kind: KindHTTPError}
	ErrTimeout           = &ProviderError{Kind: KindTimeout}
)

// ProviderError is a classified failure from one provider.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Model    string

	// Status is the HTTP status code, 0 when no response was received.
	Status int

	Message string

	// RetryAfter is the delay the provider asked for, 0 if none.
	RetryAfter time.Duration

	// Attempts is set by the Client to the number of attempts made.
	Attempts int

	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := e.Kind.String()
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches the kind sentinels: a target with no provider matches any
// ProviderError of the same kind.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Provider == "" && t.Status == 0 && t.Kind == e.Kind
}

// Retryable reports whether the Client retries this kind.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindOverloaded, KindNetworkFailure:
		return true
	default:
		return false
	}
}

// KindOf returns the kind of err if it wraps a ProviderError.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
