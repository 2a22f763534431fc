// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const timingSchema = `
CREATE TABLE IF NOT EXISTS stage_timings (
	key         TEXT PRIMARY KEY,
	duration_ns INTEGER NOT NULL,
	samples     INTEGER NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL
);
`

// =============================================================================
// SQLITE TIMING STORE
// =============================================================================

// SQLiteTimingStore keeps estimates in a SQLite table.
type SQLiteTimingStore struct {
	db     *sql.DB
	weight float64
}

// NewSQLiteTimingStore opens (or creates) the database at path.
func NewSQLiteTimingStore(path string, weight float64) (*SQLiteTimingStore, error) {
	if path == "" {
		return nil, errors.New("timing store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(timingSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteTimingStore{db: db, weight: weight}, nil
}

// Get implements TimingStore.
func (s *SQLiteTimingStore) Get(ctx context.Context, key string) (Estimate, bool, error) {
	var ns, updated int64
	var samples int
	err := s.db.QueryRowContext(ctx,
		`SELECT duration_ns, samples, updated_at FROM stage_timings WHERE key = ?`, key,
	).Scan(&ns, &samples, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Estimate{}, false, nil
	}
	if err != nil {
		return Estimate{}, false, fmt.Errorf("failed to read estimate: %w", err)
	}
	return Estimate{
		Duration:  time.Duration(ns),
		Samples:   samples,
		UpdatedAt: time.Unix(0, updated),
	}, true, nil
}

// Update implements TimingStore. The read and write share a transaction.
func (s *SQLiteTimingStore) Update(ctx context.Context, key string, sample time.Duration) (Estimate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ns int64
	var samples int
	err = tx.QueryRowContext(ctx,
		`SELECT duration_ns, samples FROM stage_timings WHERE key = ?`, key,
	).Scan(&ns, &samples)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Estimate{}, fmt.Errorf("failed to read estimate: %w", err)
	}

	est := Estimate{
		Duration:  UpdateEstimate(time.Duration(ns), sample, s.weight),
		Samples:   samples + 1,
		UpdatedAt: time.Now(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stage_timings (key, duration_ns, samples, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			duration_ns = excluded.duration_ns,
			samples     = excluded.samples,
			updated_at  = excluded.updated_at`,
		key, int64(est.Duration), est.Samples, est.UpdatedAt.UnixNano())
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to write estimate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Estimate{}, fmt.Errorf("failed to commit estimate: %w", err)
	}
	return est, nil
}

// All implements TimingStore.
func (s *SQLiteTimingStore) All(ctx context.Context) (map[string]Estimate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, duration_ns, samples, updated_at FROM stage_timings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Estimate)
	for rows.Next() {
		var key string
		var ns, updated int64
		var samples int
		if err := rows.Scan(&key, &ns, &samples, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		out[key] = Estimate{Duration: time.Duration(ns), Samples: samples, UpdatedAt: time.Unix(0, updated)}
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteTimingStore) Close() error {
	return s.db.Close()
}
