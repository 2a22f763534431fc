// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progress

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/ui/styles"
)

func plainTheme() *styles.Theme {
	return styles.NewThemeWithProfile(termenv.Ascii, true)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// =============================================================================
// MODEL
// =============================================================================

func TestModelAppliesProgress(t *testing.T) {
	m := New("Acme", plainTheme(), nil)

	m, cmd := update(t, m, ProgressMsg(plan.Progress{
		State:       plan.StateRunningStage,
		Stage:       1,
		StageName:   "Market",
		StageStatus: plan.StageRunning,
		Total:       plan.StageCount,
		Elapsed:     3 * time.Second,
		ETA:         2 * time.Minute,
	}))
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "Acme")
	assert.Contains(t, view, "[>] 1. Market")
	assert.Contains(t, view, "elapsed 3s, about 2m0s left")
	assert.Contains(t, view, "q to cancel")
}

func TestModelCancelKey(t *testing.T) {
	calls := 0
	m := New("Acme", plainTheme(), func() { calls++ })

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, 1, calls)
	assert.Contains(t, m.View(), "cancelling...")

	assert.False(t, m.Done())
}

func TestModelDone(t *testing.T) {
	m := New("Acme", plainTheme(), nil)
	doc := &plan.Document{Missing: nil}

	m, cmd := update(t, m, DoneMsg{Document: doc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Contains(t, m.View(), "Done")

	got, err := m.Result()
	assert.True(t, m.Done())
	assert.NoError(t, err)
	assert.Same(t, doc, got)

	failed, _ := update(t, New("Acme", plainTheme(), nil), DoneMsg{Err: errors.New("all content stages failed")})
	assert.Contains(t, failed.View(), "Failed: all content stages failed")
}

func TestModelWindowSize(t *testing.T) {
	m := New("Acme", plainTheme(), nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, maxBarWidth, m.bar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 8, Height: 40})
	assert.Equal(t, 10, m.bar.Width)
}

// =============================================================================
// RUN
// =============================================================================

func headless(out *bytes.Buffer) []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithInput(nil), tea.WithOutput(out), tea.WithoutRenderer()}
}

func TestRunReturnsWorkResult(t *testing.T) {
	var out bytes.Buffer
	want := &plan.Document{RunID: "r1"}

	doc, err := Run(context.Background(), "Acme", plainTheme(), func(ctx context.Context, onProgress plan.ProgressFunc) (*plan.Document, error) {
		onProgress(plan.Progress{Stage: 1, StageStatus: plan.StageRunning, Total: plan.StageCount})
		onProgress(plan.Progress{Stage: 1, StageStatus: plan.StageComplete, Completed: 1, Total: plan.StageCount})
		return want, nil
	}, headless(&out)...)

	require.NoError(t, err)
	assert.Same(t, want, doc)
}

func TestRunPropagatesCancellation(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Run(ctx, "Acme", plainTheme(), func(ctx context.Context, _ plan.ProgressFunc) (*plan.Document, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}, headless(&out)...)

	assert.ErrorIs(t, err, context.Canceled)
}
