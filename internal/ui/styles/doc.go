// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the planforge terminal palette and theme.
//
// Colors are Lip Gloss AdaptiveColors so light and dark terminals both read
// well. NewTheme detects the terminal's color profile with termenv;
// NewThemeWithProfile pins one, which tests and piped output use.
package styles
