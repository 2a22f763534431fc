// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestAsciiThemeRendersPlainText(t *testing.T) {
	theme := NewThemeWithProfile(termenv.Ascii, true)
	assert.True(t, theme.Plain())
	assert.False(t, theme.HasTrueColor)

	out := theme.Error.Render("failed")
	assert.Equal(t, "failed", out)
	assert.NotContains(t, out, "\x1b[")
}

func TestTrueColorThemeEmitsEscapes(t *testing.T) {
	theme := NewThemeWithProfile(termenv.TrueColor, true)
	assert.True(t, theme.HasTrueColor)
	assert.False(t, theme.Plain())

	out := theme.Success.Render("done")
	assert.True(t, strings.Contains(out, "\x1b["), "expected ANSI escapes in %q", out)
	assert.Contains(t, out, "done")
}
