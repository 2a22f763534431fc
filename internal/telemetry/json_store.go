// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jeranaias/planforge/internal/util"
)

// =============================================================================
// JSON TIMING STORE
// =============================================================================

// JSONTimingStore keeps all estimates in one JSON file. Every Update
// re-reads the file so concurrent processes stay last-writer-wins rather
// than clobbering unrelated keys with a stale snapshot.
type JSONTimingStore struct {
	mu     sync.Mutex
	path   string
	weight float64
}

type jsonTimingFile struct {
	Version   int                 `json:"version"`
	Estimates map[string]Estimate `json:"estimates"`
}

// NewJSONTimingStore creates a store backed by path. The file is created on
// first update.
func NewJSONTimingStore(path string, weight float64) (*JSONTimingStore, error) {
	if path == "" {
		return nil, errors.New("timing store path is empty")
	}
	return &JSONTimingStore{path: path, weight: weight}, nil
}

func (s *JSONTimingStore) load() (map[string]Estimate, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Estimate), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read timing file: %w", err)
	}

	var f jsonTimingFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse timing file: %w", err)
	}
	if f.Estimates == nil {
		f.Estimates = make(map[string]Estimate)
	}
	return f.Estimates, nil
}

// Get implements TimingStore.
func (s *JSONTimingStore) Get(_ context.Context, key string) (Estimate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return Estimate{}, false, err
	}
	est, ok := all[key]
	return est, ok, nil
}

// Update implements TimingStore.
func (s *JSONTimingStore) Update(_ context.Context, key string, sample time.Duration) (Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future run.
		all = make(map[string]Estimate)
	}

	est := all[key]
	est.Duration = UpdateEstimate(est.Duration, sample, s.weight)
	est.Samples++
	est.UpdatedAt = time.Now()
	all[key] = est

	data, err := json.MarshalIndent(jsonTimingFile{Version: 1, Estimates: all}, "", "  ")
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to encode timing file: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0644); err != nil {
		return Estimate{}, err
	}
	return est, nil
}

// All implements TimingStore.
func (s *JSONTimingStore) All(_ context.Context) (map[string]Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Close implements TimingStore.
func (s *JSONTimingStore) Close() error { return nil }
