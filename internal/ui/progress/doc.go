// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package progress shows a live view of a pipeline run.
//
// Run starts a Bubble Tea program, runs the work function in a goroutine
// and feeds its plan.Progress events to the view. Pressing q, esc or
// ctrl+c cancels the work's context; the view stays up until the work
// returns so the final state is always drawn.
package progress
