package tools

import (
	"path/filepath"

	"newsletter-agent/config"
	"newsletter-agent/llm/parser"
)

// Workspace anchors every file tool to one project root. Relative paths coming
// from the model are resolved against Root, never against the process cwd.
type Workspace struct {
	Root            string
	ContentPath     string
	HTMLPath        string
	ImagesDir       string
	ProductDataDir  string
	StyleSamplesDir string
	OutputDir       string

	parsers *parser.Registry
}

// NewWorkspace derives the workspace layout from the configuration.
func NewWorkspace(cfg *config.Config) *Workspace {
	return &Workspace{
		Root:            cfg.Resolve("."),
		ContentPath:     cfg.ContentPath(),
		HTMLPath:        cfg.HTMLPath(),
		ImagesDir:       cfg.ImagesPath(),
		ProductDataDir:  cfg.Resolve(cfg.Paths.ProductData),
		StyleSamplesDir: cfg.Resolve(cfg.Paths.StyleSamples),
		OutputDir:       cfg.OutputDir(),
		parsers:         parser.DefaultRegistry(),
	}
}

// Resolve makes p absolute relative to the workspace root.
func (w *Workspace) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.Root, p)
}

// Rel returns p relative to the workspace root, or p itself when that fails.
func (w *Workspace) Rel(p string) string {
	rel, err := filepath.Rel(w.Root, p)
	if err != nil {
		return p
	}
	return rel
}
