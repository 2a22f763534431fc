// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// scriptedBackend returns the queued outcomes in order, repeating the last one.
type scriptedBackend struct {
	mu         sync.Mutex
	configured bool
	style      BackoffStyle
	outcomes   []func(ctx context.Context) (Result, error)
	calls      int
}

func (b *scriptedBackend) Configured() bool      { return b.configured }
func (b *scriptedBackend) Backoff() BackoffStyle { return b.style }

func (b *scriptedBackend) Generate(ctx context.Context, model string, req Request) (Result, error) {
	b.mu.Lock()
	idx := b.calls
	if idx >= len(b.outcomes) {
		idx = len(b.outcomes) - 1
	}
	b.calls++
	fn := b.outcomes[idx]
	b.mu.Unlock()
	return fn(ctx)
}

func (b *scriptedBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func fail(kind ErrorKind, status int) func(context.Context) (Result, error) {
	return func(context.Context) (Result, error) {
		return Result{}, &ProviderError{Kind: kind, Status: status}
	}
}

func succeed(text string) func(context.Context) (Result, error) {
	return func(context.Context) (Result, error) {
		return Result{Text: text}, nil
	}
}

// newTestClient returns a client whose sleeps are recorded, not performed.
func newTestClient() (*Client, *[]time.Duration) {
	c := NewClient(DefaultRetryPolicy(), nil)
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return c, &slept
}

var testCand = Candidate{Provider: "providerA", Model: "modelX"}

// =============================================================================
// RETRY BEHAVIOR
// =============================================================================

func TestCall_OverloadedTwiceThenSuccess(t *testing.T) {
	c, slept := newTestClient()
	backend := &scriptedBackend{
		configured: true,
		outcomes: []func(context.Context) (Result, error){
			fail(KindOverloaded, 529),
			fail(KindOverloaded, 529),
			succeed("# 2. 트렌드\n..."),
		},
	}
	c.Register("providerA", backend)

	res, err := c.Call(context.Background(), testCand, Request{TaskType: "full-plan-market"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "# 2. 트렌드\n...", res.Text)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second}, *slept)
}

func TestCall_RetryBudgetExhausted(t *testing.T) {
	tests := []struct {
		name   string
		kind   ErrorKind
		status int
	}{
		{"rate limited", KindRateLimited, 429},
		{"overloaded", KindOverloaded, 529},
		{"network", KindNetworkFailure, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, slept := newTestClient()
			backend := &scriptedBackend{
				configured: true,
				outcomes:   []func(context.Context) (Result, error){fail(tt.kind, tt.status)},
			}
			c.Register("providerA", backend)

			_, err := c.Call(context.Background(), testCand, Request{}, 0)
			require.Error(t, err)

			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, 5, perr.Attempts)
			assert.Equal(t, 5, backend.callCount())
			assert.Len(t, *slept, 4)
		})
	}
}

func TestCall_NonRetryableFailsImmediately(t *testing.T) {
	tests := []struct {
		name   string
		kind   ErrorKind
		status int
	}{
		{"unauthorized", KindHTTPError, 401},
		{"forbidden", KindHTTPError, 403},
		{"bad request", KindHTTPError, 400},
		{"timeout", KindTimeout, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, slept := newTestClient()
			backend := &scriptedBackend{
				configured: true,
				outcomes:   []func(context.Context) (Result, error){fail(tt.kind, tt.status)},
			}
			c.Register("providerA", backend)

			_, err := c.Call(context.Background(), testCand, Request{}, 0)
			require.Error(t, err)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, 1, backend.callCount())
			assert.Empty(t, *slept)
		})
	}
}

func TestCall_MissingCredential(t *testing.T) {
	c, _ := newTestClient()
	backend := &scriptedBackend{
		configured: false,
		outcomes:   []func(context.Context) (Result, error){succeed("never")},
	}
	c.Register("providerA", backend)

	_, err := c.Call(context.Background(), testCand, Request{}, 0)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, backend.callCount())

	_, err = c.Call(context.Background(), Candidate{Provider: "unknown", Model: "m"}, Request{}, 0)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestCall_RetryAfterOverridesBackoff(t *testing.T) {
	c, slept := newTestClient()
	backend := &scriptedBackend{
		configured: true,
		outcomes: []func(context.Context) (Result, error){
			func(context.Context) (Result, error) {
				return Result{}, &ProviderError{Kind: KindRateLimited, Status: 429, RetryAfter: 2 * time.Second}
			},
			succeed("ok"),
		},
	}
	c.Register("providerA", backend)

	_, err := c.Call(context.Background(), testCand, Request{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestCall_FixedBackoffStyle(t *testing.T) {
	c, slept := newTestClient()
	backend := &scriptedBackend{
		configured: true,
		style:      BackoffFixed,
		outcomes: []func(context.Context) (Result, error){
			fail(KindRateLimited, 429),
			fail(KindRateLimited, 429),
			succeed("ok"),
		},
	}
	c.Register("providerA", backend)

	_, err := c.Call(context.Background(), testCand, Request{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{18 * time.Second, 18 * time.Second}, *slept)
}

// =============================================================================
// TIMEOUT AND CANCELLATION
// =============================================================================

func TestCall_AttemptDeadlineIsTimeout(t *testing.T) {
	c, slept := newTestClient()
	backend := &scriptedBackend{
		configured: true,
		outcomes: []func(context.Context) (Result, error){
			func(ctx context.Context) (Result, error) {
				<-ctx.Done()
				return Result{}, ctx.Err()
			},
		},
	}
	c.Register("providerA", backend)

	_, err := c.Call(context.Background(), testCand, Request{}, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, backend.callCount())
	assert.Empty(t, *slept)
}

func TestCall_CancelDuringBackoff(t *testing.T) {
	c := NewClient(DefaultRetryPolicy(), nil)
	backend := &scriptedBackend{
		configured: true,
		outcomes:   []func(context.Context) (Result, error){fail(KindOverloaded, 529)},
	}
	c.Register("providerA", backend)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Call(ctx, testCand, Request{}, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, backend.callCount())

	_, isProvider := KindOf(err)
	assert.False(t, isProvider)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}

func TestWithRequestsPerMinute(t *testing.T) {
	reg := &registration{}
	WithRequestsPerMinute(60)(reg)
	require.NotNil(t, reg.limiter)
	assert.InDelta(t, 1.0, float64(reg.limiter.Limit()), 0.001)

	WithRequestsPerMinute(0)(reg)
	assert.Nil(t, reg.limiter)
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func TestStatusError(t *testing.T) {
	tests := []struct {
		status    int
		want      ErrorKind
		retryable bool
	}{
		{401, KindHTTPError, false},
		{403, KindHTTPError, false},
		{404, KindHTTPError, false},
		{429, KindRateLimited, true},
		{500, KindHTTPError, false},
		{503, KindOverloaded, true},
		{529, KindOverloaded, true},
	}

	for _, tt := range tests {
		perr := StatusError("p", tt.status, nil, []byte(`{"error":{"message":"boom"}}`))
		assert.Equal(t, tt.want, perr.Kind, "status %d", tt.status)
		assert.Equal(t, tt.retryable, perr.Retryable(), "status %d", tt.status)
		assert.Equal(t, "boom", perr.Message)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 7*time.Second, ParseRetryAfter("7", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-3", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon", now))
	assert.Equal(t, 30*time.Second, ParseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "yes" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path == "/busy" {
			w.Header().Set("Retry-After", "4")
			w.WriteHeader(529)
			w.Write([]byte(`{"error":{"type":"overloaded_error","message":"Overloaded"}}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	headers := map[string]string{"X-Test": "yes"}

	body, err := PostJSON(context.Background(), nil, "p", server.URL+"/ok", headers, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	_, err = PostJSON(context.Background(), nil, "p", server.URL+"/busy", headers, nil)
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindOverloaded, perr.Kind)
	assert.Equal(t, 4*time.Second, perr.RetryAfter)
	assert.Equal(t, "Overloaded", perr.Message)

	_, err = PostJSON(context.Background(), nil, "p", server.URL+"/ok", nil, nil)
	assert.ErrorIs(t, err, ErrHTTPError)
}
