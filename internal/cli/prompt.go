// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/plan"
)

// errPromptCancelled is returned when the user aborts an interactive prompt.
var errPromptCancelled = errors.New("input cancelled")

// promptIdea asks for the idea fields the flags left empty. Name is
// required; the others may be skipped with an empty line.
func promptIdea(out io.Writer, idea *plan.Idea) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)

	historyPath := ideaHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintln(out, TitleStyle.Render("New business plan"))
	fmt.Fprintln(out, DimStyle.Render("Ctrl+C to cancel, empty line to skip optional fields"))
	fmt.Fprintln(out)

	fields := []struct {
		label    string
		target   *string
		required bool
	}{
		{"Idea name: ", &idea.Name, true},
		{"Description: ", &idea.Description, false},
		{"Target customer: ", &idea.Customer, false},
		{"Industry: ", &idea.Industry, false},
	}

	for _, f := range fields {
		if strings.TrimSpace(*f.target) != "" {
			continue
		}
		for {
			input, err := line.Prompt(f.label)
			if err == liner.ErrPromptAborted || err == io.EOF {
				return errPromptCancelled
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			input = strings.TrimSpace(input)
			if input == "" && f.required {
				fmt.Fprintln(out, WarningStyle.Render("A name is required."))
				continue
			}
			if input != "" {
				line.AppendHistory(input)
			}
			*f.target = input
			break
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

func ideaHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return ""
	}
	return filepath.Join(dir, "idea_history")
}
