package component

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"newsletter-agent/pipeline"
	"newsletter-agent/pubsub"
)

// StageState is the display state of one stage.
type StageState int

const (
	StagePending StageState = iota
	StageRunning
	StageDone
	StageFailed
	StageSkipped
	StageWaiting
)

type stageRow struct {
	name     string
	state    StageState
	started  time.Time
	duration time.Duration
	note     string
}

// StagesModel lists the stages of a run with their state.
type StagesModel struct {
	rows    []stageRow
	index   map[string]int
	spinner spinner.Model
	theme   *Theme
	icons   *Icons
	width   int
	now     func() time.Time
}

// NewStagesModel creates the list with the expected stages pending. Stages
// not listed here are appended when their first event arrives.
func NewStagesModel(names ...string) StagesModel {
	theme := DefaultTheme()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Running

	m := StagesModel{
		index:   make(map[string]int),
		spinner: s,
		theme:   theme,
		icons:   DefaultIcons(),
		now:     time.Now,
	}
	for _, name := range names {
		m.row(name)
	}
	return m
}

func (m *StagesModel) row(name string) *stageRow {
	i, ok := m.index[name]
	if !ok {
		i = len(m.rows)
		m.index[name] = i
		m.rows = append(m.rows, stageRow{name: name})
	}
	return &m.rows[i]
}

func (m StagesModel) Init() tea.Cmd {
	return nil
}

// Update applies stage events and advances the spinner.
func (m StagesModel) Update(msg tea.Msg) (StagesModel, tea.Cmd) {
	if ev, ok := msg.(pubsub.Event[pipeline.Event]); ok {
		if ev.Payload.Stage == "" {
			return m, nil
		}
		wasRunning := m.Running()
		m.rows = append([]stageRow(nil), m.rows...)
		r := m.row(ev.Payload.Stage)

		switch ev.Type {
		case pubsub.StartedEvent:
			r.state = StageRunning
			r.started = ev.Payload.Time
			r.note = ""
		case pubsub.UpdatedEvent:
			if r.state == StagePending {
				r.state = StageRunning
				r.started = ev.Payload.Time
			}
			r.note = ev.Payload.Text
		case pubsub.SkippedEvent:
			r.state = StageSkipped
			r.note = "content file exists"
		case pubsub.FinishedEvent:
			r.state = StageDone
			r.duration = ev.Payload.Duration
			r.note = ev.Payload.Text
		case pubsub.FailedEvent:
			r.state = StageFailed
			r.duration = ev.Payload.Duration
			r.note = ev.Payload.Err
		case pubsub.InterruptedEvent:
			r.state = StageWaiting
			r.duration = ev.Payload.Duration
			r.note = "waiting for approval of " + ev.Payload.Text
		}

		if !wasRunning && m.Running() {
			return m, m.spinner.Tick
		}
		return m, nil
	}

	if m.Running() {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Running reports whether any stage is running.
func (m StagesModel) Running() bool {
	for _, r := range m.rows {
		if r.state == StageRunning {
			return true
		}
	}
	return false
}

// State returns the state of the named stage.
func (m StagesModel) State(name string) StageState {
	if i, ok := m.index[name]; ok {
		return m.rows[i].state
	}
	return StagePending
}

func (m StagesModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Title.Render("Newsletter stages"))
	sb.WriteString("\n\n")

	for _, r := range m.rows {
		var marker, name, timing string
		switch r.state {
		case StageRunning:
			marker = m.spinner.View()
			name = m.theme.Running.Render(r.name)
			if !r.started.IsZero() {
				timing = m.theme.Duration.Render(m.now().Sub(r.started).Round(time.Second).String())
			}
		case StageDone:
			marker = m.theme.Done.Render(m.icons.Done)
			name = m.theme.Done.Render(r.name)
			timing = m.theme.Duration.Render(r.duration.Round(time.Millisecond).String())
		case StageFailed:
			marker = m.theme.Failed.Render(m.icons.Failed)
			name = m.theme.Failed.Render(r.name)
			timing = m.theme.Duration.Render(r.duration.Round(time.Millisecond).String())
		case StageSkipped:
			marker = m.theme.Skipped.Render(m.icons.Skipped)
			name = m.theme.Skipped.Render(r.name + " (skipped)")
		case StageWaiting:
			marker = m.theme.Waiting.Render(m.icons.Waiting)
			name = m.theme.Waiting.Render(r.name)
		default:
			marker = m.theme.Pending.Render(m.icons.Pending)
			name = m.theme.Pending.Render(r.name)
		}

		line := fmt.Sprintf("%s %s", marker, name)
		if timing != "" {
			line += " " + timing
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		if r.note != "" {
			sb.WriteString("    ")
			sb.WriteString(m.theme.Note.Render(truncate(r.note, m.noteWidth())))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m StagesModel) noteWidth() int {
	if m.width > 8 {
		return m.width - 6
	}
	return 72
}

// SetWidth sets the render width.
func (m *StagesModel) SetWidth(width int) {
	m.width = width
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
