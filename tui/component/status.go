package component

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newsletter-agent/pipeline"
	"newsletter-agent/pubsub"
)

// StatusModel shows the run level state: a spinner while the run is going,
// then the outcome.
type StatusModel struct {
	spinner spinner.Model
	theme   *Theme
	running bool
	failed  bool
	text    string
	width   int
}

// NewStatusModel creates an idle status line.
func NewStatusModel() StatusModel {
	theme := DefaultTheme()
	s := spinner.New()
	s.Spinner = spinner.Jump
	s.Style = theme.Spinner

	return StatusModel{
		spinner: s,
		theme:   theme,
		text:    "Waiting to start",
	}
}

func (m StatusModel) Init() tea.Cmd {
	return nil
}

// Update reacts to run level events. Stage events are ignored.
func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	if ev, ok := msg.(pubsub.Event[pipeline.Event]); ok && ev.Payload.Stage == "" {
		switch ev.Type {
		case pubsub.StartedEvent:
			m.failed = false
			m.text = "Running"
			if ev.Payload.Text != "" {
				m.text = "Running: " + ev.Payload.Text
			}
			if !m.running {
				m.running = true
				return m, m.spinner.Tick
			}
			return m, nil
		case pubsub.FinishedEvent:
			m.running = false
			m.text = fmt.Sprintf("Finished in %s", ev.Payload.Duration.Round(time.Millisecond))
			return m, nil
		case pubsub.FailedEvent:
			m.running = false
			m.failed = true
			m.text = "Failed: " + ev.Payload.Err
			return m, nil
		case pubsub.InterruptedEvent:
			m.running = false
			m.text = fmt.Sprintf("Waiting for approval of %s, resume with --resume %s", ev.Payload.Text, ev.Payload.RunID)
			return m, nil
		}
	}

	if m.running {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m StatusModel) View() string {
	style := lipgloss.NewStyle().Padding(1, 0)
	if m.width > 0 {
		style = style.Width(m.width)
	}
	switch {
	case m.running:
		return style.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.text))
	case m.failed:
		return style.Render(m.theme.Failed.Render(m.text))
	}
	return style.Render(m.text)
}

// SetWidth sets the render width.
func (m *StatusModel) SetWidth(width int) {
	m.width = width
}

// IsRunning reports whether a run is in progress.
func (m StatusModel) IsRunning() bool {
	return m.running
}
