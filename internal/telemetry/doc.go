// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry keeps the learned per-stage duration estimates used for
// progress ETAs.
//
// Estimates are an exponentially weighted moving average of observed stage
// durations, keyed by "stage/<n>/<tier>". They are the only state shared
// across pipeline runs; concurrent writers resolve last-writer-wins.
//
// # Key Types
//
//   - TimingStore: get/update interface injected into the pipeline
//   - MemoryTimingStore: process-local store, used by tests
//   - JSONTimingStore: single JSON file written atomically
//   - SQLiteTimingStore: SQLite table (modernc.org/sqlite, no cgo)
//
// # Usage
//
//	store, err := telemetry.Open(telemetry.BackendSQLite, path, 0.3)
//	est, ok, err := store.Get(ctx, telemetry.StageKey(2, "standard"))
//
// Estimates are advisory; a store failure never fails a run.
package telemetry
