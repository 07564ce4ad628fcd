package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkdownParser handles markdown files. The markdown itself is kept as is,
// only the YAML frontmatter is lifted into the metadata.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse reads and parses markdown from the reader
func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown: %w", err)
	}

	return p.parse(string(data), ""), nil
}

// ParseFile reads and parses a markdown file
func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.parse(string(data), filePath), nil
}

func (p *MarkdownParser) parse(content, filePath string) *Document {
	front, body, ok := splitFrontmatter(content)

	metadata := make(map[string]interface{})
	if ok {
		// A broken frontmatter block is kept out of the body but otherwise ignored.
		_ = yaml.Unmarshal([]byte(front), &metadata)
	}

	title := ExtractTitle(body, filePath)
	if t, isString := metadata["title"].(string); isString && t != "" {
		title = t
	}

	metadata["file_size"] = len(content)
	metadata["line_count"] = countLines(content)
	metadata["has_frontmatter"] = ok

	return &Document{
		Content:  strings.TrimSpace(body),
		Title:    title,
		Metadata: metadata,
	}
}

// splitFrontmatter separates a leading "---" delimited block from the body.
func splitFrontmatter(content string) (front, body string, ok bool) {
	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		return "", content, false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", content, false
}

// FileType returns the file type this parser handles
func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}
