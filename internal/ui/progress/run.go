// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progress

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/ui/styles"
)

// Work is the function whose progress is shown.
type Work func(ctx context.Context, onProgress plan.ProgressFunc) (*plan.Document, error)

type workResult struct {
	doc *plan.Document
	err error
}

// Run shows the live view while work runs and returns work's result. If
// the program fails to start, work is cancelled and the display error is
// returned after work has stopped.
func Run(ctx context.Context, title string, theme *styles.Theme, work Work, opts ...tea.ProgramOption) (*plan.Document, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(title, theme, cancel), opts...)

	results := make(chan workResult, 1)
	go func() {
		doc, err := work(ctx, func(pr plan.Progress) {
			p.Send(ProgressMsg(pr))
		})
		results <- workResult{doc: doc, err: err}
		p.Send(DoneMsg{Document: doc, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-results
		return nil, fmt.Errorf("progress display: %w", err)
	}

	// The program can also exit on a signal before work has finished.
	cancel()
	r := <-results
	return r.doc, r.err
}
