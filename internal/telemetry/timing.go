// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultEWMAWeight is the weight of a new sample; history keeps the rest.
const DefaultEWMAWeight = 0.3

// =============================================================================
// ESTIMATES
// =============================================================================

// Estimate is the learned duration for one key.
type Estimate struct {
	Duration  time.Duration `json:"duration_ns"`
	Samples   int           `json:"samples"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// UpdateEstimate folds sample into old: old*(1-weight) + sample*weight. A
// zero old value (no history) returns the sample itself. weight outside
// (0, 1] uses DefaultEWMAWeight.
func UpdateEstimate(old, sample time.Duration, weight float64) time.Duration {
	if weight <= 0 || weight > 1 {
		weight = DefaultEWMAWeight
	}
	if old <= 0 {
		return sample
	}
	return time.Duration(float64(old)*(1-weight) + float64(sample)*weight)
}

// StageKey returns the store key for a stage at a tier.
func StageKey(stage int, tier string) string {
	return fmt.Sprintf("stage/%d/%s", stage, tier)
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// TimingStore persists estimates across runs.
type TimingStore interface {
	// Get returns the estimate for key and whether one exists.
	Get(ctx context.Context, key string) (Estimate, bool, error)

	// Update folds a new sample into the estimate for key.
	Update(ctx context.Context, key string, sample time.Duration) (Estimate, error)

	// All returns every estimate.
	All(ctx context.Context) (map[string]Estimate, error)

	Close() error
}

// Backend names for Open.
const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open creates a store for the named backend. An empty path uses
// ~/.planforge/timings.{json,db}.
func Open(backend, path string, weight float64) (TimingStore, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))

	if path == "" && backend != BackendMemory {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		name := "timings.db"
		if backend == BackendJSON {
			name = "timings.json"
		}
		path = filepath.Join(home, ".planforge", name)
	}

	switch backend {
	case BackendMemory:
		return NewMemoryTimingStore(weight), nil
	case BackendJSON:
		return NewJSONTimingStore(path, weight)
	case BackendSQLite, "":
		return NewSQLiteTimingStore(path, weight)
	default:
		return nil, fmt.Errorf("unknown timing backend %q", backend)
	}
}
