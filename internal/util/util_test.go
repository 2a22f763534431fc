// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.md")
	data := []byte("## 1. Executive Summary\n")

	if err := AtomicWriteFile(path, data, 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", string(content), string(data))
	}
}

func TestAtomicWriteFile_CreatesParentDirAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "deep", "plan.md")

	if err := AtomicWriteFile(path, []byte("first"), 0600); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "second" {
		t.Errorf("got %q, want %q", content, "second")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

// =============================================================================
// TRUNCATION TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"시장 동향 분석", 5, "시장..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	if got := TruncateWidth("market", 10); got != "market" {
		t.Errorf("got %q", got)
	}
	// Each Hangul syllable is two columns wide.
	got := TruncateWidth("시장동향분석", 7)
	if w := runewidth.StringWidth(got); w > 7 {
		t.Errorf("TruncateWidth result %q is %d columns wide", got, w)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}

func TestTruncateForContext(t *testing.T) {
	short := "short text"
	if got := TruncateForContext(short, 100); got != short {
		t.Errorf("short text changed: %q", got)
	}
	if got := TruncateForContext(short, 0); got != short {
		t.Errorf("zero cap changed text: %q", got)
	}

	long := strings.Repeat("line of market analysis\n", 50)
	got := TruncateForContext(long, 200)
	if !strings.HasSuffix(got, ContextOmittedMarker) {
		t.Fatalf("missing marker: %q", got)
	}
	body := strings.TrimSuffix(got, ContextOmittedMarker)
	if len([]rune(body)) > 200 {
		t.Errorf("body too long: %d runes", len([]rune(body)))
	}
	if !strings.HasSuffix(body, "analysis") {
		t.Errorf("expected cut at a line break, got tail %q", body[len(body)-20:])
	}
}
