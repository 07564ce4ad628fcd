package component

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles of the progress view.
type Theme struct {
	Title    lipgloss.Style
	Pending  lipgloss.Style
	Running  lipgloss.Style
	Done     lipgloss.Style
	Failed   lipgloss.Style
	Skipped  lipgloss.Style
	Waiting  lipgloss.Style
	Note     lipgloss.Style
	Duration lipgloss.Style
	Spinner  lipgloss.Style
}

// DefaultTheme returns the default theme.
func DefaultTheme() *Theme {
	return &Theme{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bb9af7")).
			Bold(true),

		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true),

		Done: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a")),

		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true),

		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")).
			Italic(true),

		Waiting: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")).
			Bold(true),

		Note: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true),

		Duration: lipgloss.NewStyle().
			Foreground(lipgloss.Color("153")),

		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")),
	}
}

// Icons are the stage state markers.
type Icons struct {
	Pending string
	Done    string
	Failed  string
	Skipped string
	Waiting string
}

// DefaultIcons returns the default markers.
func DefaultIcons() *Icons {
	return &Icons{
		Pending: "·",
		Done:    "✓",
		Failed:  "✗",
		Skipped: "↷",
		Waiting: "?",
	}
}
