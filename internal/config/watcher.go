// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events an editor save produces.
const DefaultWatchDebounce = 200 * time.Millisecond

// =============================================================================
// PRESET WATCHER
// =============================================================================

// PresetWatcher reloads a preset file when it changes on disk. The parent
// directory is watched so atomic saves (write temp, rename) are seen.
type PresetWatcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewPresetWatcher starts watching path's directory.
func NewPresetWatcher(path string, logger *slog.Logger) (*PresetWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve presets path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &PresetWatcher{
		path:     abs,
		debounce: DefaultWatchDebounce,
		logger:   logger,
		watcher:  w,
	}, nil
}

// Run delivers each successfully reloaded preset list to onChange until ctx
// is cancelled or the watcher is closed. Files that fail to parse are
// logged and skipped; the previous presets stay in force.
func (pw *PresetWatcher) Run(ctx context.Context, onChange func([]PresetConfig)) error {
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != pw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(pw.debounce)
			} else {
				timer.Reset(pw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			presets, err := LoadPresetsFile(pw.path)
			if err != nil {
				pw.logger.Warn("preset reload failed", "path", pw.path, "error", err)
				continue
			}
			pw.logger.Info("presets reloaded", "path", pw.path, "count", len(presets))
			onChange(presets)

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return nil
			}
			pw.logger.Warn("preset watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (pw *PresetWatcher) Close() error {
	return pw.watcher.Close()
}
