// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateEstimate(t *testing.T) {
	tests := []struct {
		name   string
		old    time.Duration
		sample time.Duration
		weight float64
		want   time.Duration
	}{
		{"no history takes sample", 0, 40 * time.Second, 0.3, 40 * time.Second},
		{"weighted blend", 100 * time.Second, 200 * time.Second, 0.3, 130 * time.Second},
		{"full weight", 100 * time.Second, 200 * time.Second, 1, 200 * time.Second},
		{"invalid weight uses default", 100 * time.Second, 200 * time.Second, 0, 130 * time.Second},
		{"weight above one uses default", 100 * time.Second, 200 * time.Second, 2, 130 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateEstimate(tt.old, tt.sample, tt.weight)
			assert.InDelta(t, float64(tt.want), float64(got), float64(time.Millisecond))
		})
	}
}

func TestStageKey(t *testing.T) {
	assert.Equal(t, "stage/3/premium", StageKey(3, "premium"))
}

func exerciseStore(t *testing.T, store TimingStore) {
	t.Helper()
	ctx := context.Background()
	key := StageKey(2, "standard")

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	est, err := store.Update(ctx, key, 100*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Second, est.Duration)
	assert.Equal(t, 1, est.Samples)

	est, err = store.Update(ctx, key, 200*time.Second)
	require.NoError(t, err)
	assert.InDelta(t, float64(130*time.Second), float64(est.Duration), float64(time.Millisecond))
	assert.Equal(t, 2, est.Samples)

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, est.Duration, got.Duration)
	assert.Equal(t, 2, got.Samples)

	_, err = store.Update(ctx, StageKey(1, "fast"), 5*time.Second)
	require.NoError(t, err)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, all, "stage/1/fast")
}

func TestMemoryTimingStore(t *testing.T) {
	store := NewMemoryTimingStore(0.3)
	defer store.Close()
	exerciseStore(t, store)
}

func TestJSONTimingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "timings.json")
	store, err := NewJSONTimingStore(path, 0.3)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)

	// A second store over the same file sees the persisted values.
	reopened, err := NewJSONTimingStore(path, 0.3)
	require.NoError(t, err)
	est, ok, err := reopened.Get(context.Background(), StageKey(2, "standard"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, est.Samples)
}

func TestJSONTimingStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store, err := NewJSONTimingStore(path, 0.3)
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "k")
	assert.Error(t, err)

	est, err := store.Update(context.Background(), "k", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, est.Duration)
}

func TestSQLiteTimingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timings.db")
	store, err := NewSQLiteTimingStore(path, 0.3)
	require.NoError(t, err)

	exerciseStore(t, store)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteTimingStore(path, 0.3)
	require.NoError(t, err)
	defer reopened.Close()

	est, ok, err := reopened.Get(context.Background(), StageKey(2, "standard"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, est.Samples)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	mem, err := Open(BackendMemory, "", 0.3)
	require.NoError(t, err)
	assert.IsType(t, &MemoryTimingStore{}, mem)

	js, err := Open("JSON", filepath.Join(dir, "t.json"), 0.3)
	require.NoError(t, err)
	assert.IsType(t, &JSONTimingStore{}, js)

	db, err := Open(BackendSQLite, filepath.Join(dir, "t.db"), 0.3)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteTimingStore{}, db)
	db.Close()

	_, err = Open("redis", filepath.Join(dir, "x"), 0.3)
	assert.Error(t, err)
}
