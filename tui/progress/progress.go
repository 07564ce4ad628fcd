package progress

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newsletter-agent/pipeline"
	"newsletter-agent/pubsub"
	"newsletter-agent/tui/component"
)

// RunFunc starts one newsletter run.
type RunFunc func(ctx context.Context) (*pipeline.Report, error)

// RunDoneMsg is sent when the run returns.
type RunDoneMsg struct {
	Report *pipeline.Report
	Err    error
}

// Model is the progress view of one run. When the run finishes the content
// file is rendered below the stage list.
type Model struct {
	stages  component.StagesModel
	status  component.StatusModel
	preview viewport.Model

	ctx         context.Context
	run         RunFunc
	sub         <-chan pubsub.Event[pipeline.Event]
	contentPath string

	report *pipeline.Report
	err    error
	done   bool

	width  int
	height int
}

// New subscribes to broker and prepares the view. The run starts in Init.
func New(ctx context.Context, broker pubsub.Subscriber[pipeline.Event], run RunFunc, contentPath string, stages ...string) Model {
	return Model{
		stages:      component.NewStagesModel(stages...),
		status:      component.NewStatusModel(),
		preview:     viewport.New(80, 10),
		ctx:         ctx,
		run:         run,
		sub:         broker.Subscribe(ctx),
		contentPath: contentPath,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.stages.Init(),
		m.status.Init(),
		m.waitForEvent(),
		m.startRun(),
	)
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

func (m Model) startRun() tea.Cmd {
	return func() tea.Msg {
		report, err := m.run(m.ctx)
		return RunDoneMsg{Report: report, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.stages.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)
		m.resizePreview()

	case pubsub.Event[pipeline.Event]:
		cmds = append(cmds, m.waitForEvent())

	case RunDoneMsg:
		m.done = true
		m.report = msg.Report
		m.err = msg.Err
		if data, err := os.ReadFile(m.contentPath); err == nil {
			m.preview.SetContent(component.RenderMarkdown(string(data), m.preview.Width))
		}
		m.resizePreview()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.stages, cmd = m.stages.Update(msg)
	cmds = append(cmds, cmd)

	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	if m.done {
		m.preview, cmd = m.preview.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) resizePreview() {
	if m.width > 0 {
		m.preview.Width = m.width
	}
	if m.height > 0 {
		h := m.height - lipgloss.Height(m.stages.View()) - lipgloss.Height(m.status.View()) - 1
		if h < 3 {
			h = 3
		}
		m.preview.Height = h
	}
}

func (m Model) View() string {
	parts := []string{m.stages.View(), m.status.View()}
	if m.done {
		parts = append(parts, m.preview.View(), "q to quit")
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Report returns the report of the finished run, or nil.
func (m Model) Report() *pipeline.Report {
	return m.report
}

// Err returns the run error.
func (m Model) Err() error {
	return m.err
}

// Done reports whether the run has returned.
func (m Model) Done() bool {
	return m.done
}
