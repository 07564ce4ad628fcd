package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

const (
	WriteFileToolName     = "write_file"
	CheckContentToolName  = "check_newsletter_content_exists"
	ReadContentToolName   = "read_newsletter_content"
	fileDoesNotExistError = "File does not exist"
)

// WriteFileParams defines parameters for writing to a file.
type WriteFileParams struct {
	FilePath string `json:"file_path" jsonschema:"description=Path to the file (relative to the project root or absolute)"`
	Content  string `json:"content" jsonschema:"description=Content to write to the file"`
}

// WriteFileResult reports the outcome of write_file.
type WriteFileResult struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ContentExistsResult reports whether the newsletter content file is present.
type ContentExistsResult struct {
	Exists   bool   `json:"exists"`
	FilePath string `json:"file_path"`
}

// ReadFileResult carries file content or the reason it could not be read.
type ReadFileResult struct {
	Success  bool   `json:"success"`
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
	Error    string `json:"error,omitempty"`
}

const writeDescription = `Write content to a file, creating parent directories as needed.

PARAMETERS:
- file_path (required): e.g. "./output/newsletter_content.txt" or "./output/newsletter.html"
- content (required): the full text to write; an existing file is overwritten

OUTPUT FORMAT:
JSON object with success, file_path, and message or error.`

// WriteFile writes content to filePath, creating parent directories.
func (w *Workspace) WriteFile(filePath, content string) WriteFileResult {
	if filePath == "" {
		return WriteFileResult{Success: false, Error: "file_path is required"}
	}
	path := w.Resolve(filePath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return WriteFileResult{Success: false, FilePath: filePath, Error: err.Error()}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return WriteFileResult{Success: false, FilePath: filePath, Error: err.Error()}
	}

	return WriteFileResult{
		Success:  true,
		FilePath: path,
		Message:  fmt.Sprintf("File written successfully: %s", path),
	}
}

// ContentExists checks for the newsletter content file. Only a regular file
// counts; a directory at that path does not.
func (w *Workspace) ContentExists() ContentExistsResult {
	info, err := os.Stat(w.ContentPath)
	return ContentExistsResult{
		Exists:   err == nil && info.Mode().IsRegular(),
		FilePath: w.ContentPath,
	}
}

// ReadContent reads the newsletter content file.
func (w *Workspace) ReadContent() ReadFileResult {
	return readRegularFile(w.ContentPath, w.ContentPath)
}

func readRegularFile(path, reported string) ReadFileResult {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ReadFileResult{Success: false, FilePath: reported, Error: fileDoesNotExistError}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ReadFileResult{Success: false, FilePath: reported, Error: err.Error()}
	}
	return ReadFileResult{Success: true, Content: string(data), FilePath: reported}
}

// GetWriteFileTool returns the write_file tool.
func (w *Workspace) GetWriteFileTool() tool.InvokableTool {
	return mustTool(utils.InferTool(WriteFileToolName, writeDescription,
		func(_ context.Context, params WriteFileParams) (WriteFileResult, error) {
			return w.WriteFile(params.FilePath, params.Content), nil
		}))
}

// GetCheckContentTool returns the check_newsletter_content_exists tool.
func (w *Workspace) GetCheckContentTool() tool.InvokableTool {
	return mustTool(utils.InferTool(CheckContentToolName,
		fmt.Sprintf("Check whether the newsletter content file %s exists.", w.Rel(w.ContentPath)),
		func(_ context.Context, _ NoParams) (ContentExistsResult, error) {
			return w.ContentExists(), nil
		}))
}

// GetReadContentTool returns the read_newsletter_content tool.
func (w *Workspace) GetReadContentTool() tool.InvokableTool {
	return mustTool(utils.InferTool(ReadContentToolName,
		fmt.Sprintf("Read the newsletter text content from %s.", w.Rel(w.ContentPath)),
		func(_ context.Context, _ NoParams) (ReadFileResult, error) {
			return w.ReadContent(), nil
		}))
}
