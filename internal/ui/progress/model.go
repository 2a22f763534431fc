// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/ui/components"
	"github.com/jeranaias/planforge/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ProgressMsg carries one pipeline event.
type ProgressMsg plan.Progress

// DoneMsg is sent when the work returns.
type DoneMsg struct {
	Document *plan.Document
	Err      error
}

// =============================================================================
// MODEL
// =============================================================================

const maxBarWidth = 60

// Model is the Bubble Tea model for the live view.
type Model struct {
	title   string
	theme   *styles.Theme
	stages  *components.StageList
	spinner spinner.Model
	bar     progress.Model
	cancel  context.CancelFunc

	last       plan.Progress
	cancelling bool
	done       bool
	doc        *plan.Document
	err        error
}

// New creates the model. cancel is called once when the user asks to stop.
func New(title string, theme *styles.Theme, cancel context.CancelFunc) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}
	if cancel == nil {
		cancel = func() {}
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Highlight

	bar := progress.New(progress.WithGradient(styles.GradientStart, styles.GradientEnd))
	bar.Width = 40

	return Model{
		title:   title,
		theme:   theme,
		stages:  components.NewStageList(theme, 80),
		spinner: s,
		bar:     bar,
		cancel:  cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && !m.done {
				m.cancelling = true
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > maxBarWidth {
			width = maxBarWidth
		}
		if width < 10 {
			width = 10
		}
		m.bar.Width = width
		m.stages.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd

	case ProgressMsg:
		p := plan.Progress(msg)
		m.last = p
		m.stages.Apply(p)
		return m, m.bar.SetPercent(p.Fraction())

	case DoneMsg:
		m.done = true
		m.doc = msg.Document
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.theme.Title.Render(m.title))
	sb.WriteString("\n\n")
	sb.WriteString(m.stages.Render())
	sb.WriteString("\n\n  ")
	sb.WriteString(m.bar.View())
	sb.WriteString("\n\n  ")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) statusLine() string {
	if m.done {
		switch {
		case m.err != nil:
			return m.theme.Error.Render("Failed: " + m.err.Error())
		case m.doc != nil && m.doc.Partial():
			return m.theme.Warning.Render("Done with missing sections")
		default:
			return m.theme.Success.Render("Done")
		}
	}

	state := m.last.State.String()
	if m.last.State == plan.StateRunningStage && m.last.StageName != "" {
		state = m.last.StageName
	}
	line := fmt.Sprintf("%s %s  %s",
		m.spinner.View(),
		m.theme.Text.Render(state),
		m.theme.Muted.Render(timing(m.last.Elapsed, m.last.ETA)))

	if m.cancelling {
		return line + "  " + m.theme.Warning.Render("cancelling...")
	}
	return line + "  " + m.theme.Muted.Render("q to cancel")
}

func timing(elapsed, eta time.Duration) string {
	s := "elapsed " + elapsed.Round(time.Second).String()
	if eta > 0 {
		s += ", about " + eta.Round(time.Second).String() + " left"
	}
	return s
}

// Done reports whether DoneMsg has been handled.
func (m Model) Done() bool {
	return m.done
}

// Result returns the work's outcome; both are nil until Done.
func (m Model) Result() (*plan.Document, error) {
	return m.doc, m.err
}
