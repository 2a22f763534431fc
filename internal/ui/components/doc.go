// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders pipeline state for the terminal.
//
// StageList tracks per-stage status from plan.Progress events and renders
// the checklist shown by the live progress view. ProgressLine is the
// single-line rendering used when stderr is not a terminal.
package components
