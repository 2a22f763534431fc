// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"sync"
	"time"
)

// MemoryTimingStore keeps estimates in process memory.
type MemoryTimingStore struct {
	mu        sync.Mutex
	weight    float64
	estimates map[string]Estimate
	now       func() time.Time
}

// NewMemoryTimingStore creates an empty in-memory store.
func NewMemoryTimingStore(weight float64) *MemoryTimingStore {
	return &MemoryTimingStore{
		weight:    weight,
		estimates: make(map[string]Estimate),
		now:       time.Now,
	}
}

// Get implements TimingStore.
func (s *MemoryTimingStore) Get(_ context.Context, key string) (Estimate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	est, ok := s.estimates[key]
	return est, ok, nil
}

// Update implements TimingStore.
func (s *MemoryTimingStore) Update(_ context.Context, key string, sample time.Duration) (Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	est := s.estimates[key]
	est.Duration = UpdateEstimate(est.Duration, sample, s.weight)
	est.Samples++
	est.UpdatedAt = s.now()
	s.estimates[key] = est
	return est, nil
}

// All implements TimingStore.
func (s *MemoryTimingStore) All(_ context.Context) (map[string]Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Estimate, len(s.estimates))
	for k, v := range s.estimates {
		out[k] = v
	}
	return out, nil
}

// Close implements TimingStore.
func (s *MemoryTimingStore) Close() error { return nil }
