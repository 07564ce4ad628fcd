package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

const (
	ReadHTMLToolName  = "read_html_file"
	ListHTMLToolName  = "list_html_files"
	htmlGlob          = "**/*.{html,htm}"
	dirNotExistsError = "Directory does not exist"
)

// ReadHTMLParams defines parameters for read_html_file.
type ReadHTMLParams struct {
	FilePath string `json:"file_path" jsonschema:"description=Path to the HTML file (relative or absolute)"`
}

// ListFilesParams defines parameters for the directory listing tools.
type ListFilesParams struct {
	Directory string `json:"directory,omitempty" jsonschema:"description=Directory to search recursively"`
}

// ListFilesResult is the outcome of a recursive listing.
type ListFilesResult struct {
	Success   bool     `json:"success"`
	Files     []string `json:"files"`
	Directory string   `json:"directory"`
	Error     string   `json:"error,omitempty"`
}

// ReadHTML reads an HTML file.
func (w *Workspace) ReadHTML(filePath string) ReadFileResult {
	if filePath == "" {
		return ReadFileResult{Success: false, Error: "file_path is required"}
	}
	path := w.Resolve(filePath)
	return readRegularFile(path, path)
}

// ListHTML lists .html and .htm files under directory, recursively. An empty
// directory means the style samples directory.
func (w *Workspace) ListHTML(directory string) ListFilesResult {
	dir := w.StyleSamplesDir
	if directory != "" {
		dir = w.Resolve(directory)
	}
	return w.listByPattern(dir, htmlGlob)
}

// listByPattern matches pattern under dir and returns the hits relative to
// the workspace root, sorted.
func (w *Workspace) listByPattern(dir, pattern string) ListFilesResult {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ListFilesResult{Success: false, Files: []string{}, Directory: dir, Error: dirNotExistsError}
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return ListFilesResult{Success: false, Files: []string{}, Directory: dir, Error: err.Error()}
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, w.Rel(filepath.Join(dir, filepath.FromSlash(m))))
	}
	sort.Strings(files)

	return ListFilesResult{Success: true, Files: files, Directory: dir}
}

// GetReadHTMLTool returns the read_html_file tool.
func (w *Workspace) GetReadHTMLTool() tool.InvokableTool {
	return mustTool(utils.InferTool(ReadHTMLToolName,
		"Read HTML content from a file, e.g. a style sample found with list_html_files.",
		func(_ context.Context, params ReadHTMLParams) (ReadFileResult, error) {
			return w.ReadHTML(params.FilePath), nil
		}))
}

// GetListHTMLTool returns the list_html_files tool.
func (w *Workspace) GetListHTMLTool() tool.InvokableTool {
	return mustTool(utils.InferTool(ListHTMLToolName,
		"List HTML files (.html, .htm) in a directory, searching subdirectories. Defaults to "+w.Rel(w.StyleSamplesDir)+".",
		func(_ context.Context, params ListFilesParams) (ListFilesResult, error) {
			return w.ListHTML(params.Directory), nil
		}))
}
