package component

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders newsletter copy for the terminal. On a renderer
// error the text is returned unchanged.
func RenderMarkdown(content string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithStylePath("dracula")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}
