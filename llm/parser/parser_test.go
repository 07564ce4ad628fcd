package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileTypeFromExt(t *testing.T) {
	cases := map[string]FileType{
		"pdf":      FileTypePDF,
		"PDF":      FileTypePDF,
		"md":       FileTypeMD,
		"markdown": FileTypeMD,
		"htm":      FileTypeHTML,
		"html":     FileTypeHTML,
		"txt":      FileTypeTXT,
		"docx":     FileTypeUnknown,
		"":         FileTypeUnknown,
	}
	for ext, want := range cases {
		assert.Equal(t, want, FileTypeFromExt(ext), ext)
	}
}

func TestDefaultRegistryCoversProductFormats(t *testing.T) {
	reg := DefaultRegistry()
	for _, name := range []string{"a.pdf", "a.md", "a.html", "a.htm", "a.txt"} {
		_, ok := reg.GetParserForPath(name)
		assert.True(t, ok, name)
	}

	_, err := reg.ParseFile(context.Background(), "notes.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parser found")
}

func TestTxtParser(t *testing.T) {
	path := writeFile(t, "spec-sheet.txt", "\nWidget 3000\nA fast widget.\n")

	doc, err := NewTxtParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Widget 3000", doc.Title)
	assert.Contains(t, doc.Content, "A fast widget.")
	assert.Equal(t, 4, doc.Metadata["line_count"])
}

func TestTxtParserEmptyFallsBackToFileName(t *testing.T) {
	path := writeFile(t, "empty.txt", "")

	doc, err := NewTxtParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "empty.txt", doc.Title)
	assert.Equal(t, 0, doc.Metadata["line_count"])
}

func TestMarkdownParserFrontmatter(t *testing.T) {
	content := `---
title: Release Notes Q3
version: 2
---
# Highlights

- **Faster** routing
`
	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "Release Notes Q3", doc.Title)
	assert.Equal(t, true, doc.Metadata["has_frontmatter"])
	assert.Equal(t, 2, doc.Metadata["version"])
	assert.True(t, strings.HasPrefix(doc.Content, "# Highlights"))
	assert.Contains(t, doc.Content, "**Faster** routing")
}

func TestMarkdownParserWithoutFrontmatter(t *testing.T) {
	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader("## Overview\n\nBody"))
	require.NoError(t, err)
	assert.Equal(t, "Overview", doc.Title)
	assert.Equal(t, false, doc.Metadata["has_frontmatter"])
}

func TestHTMLParser(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head><title>Product Brief</title><style>h1{color:red}</style></head>
<body>
<h1>Widget</h1>
<script>alert("x")</script>
<p>Ships in <a href="https://example.com">two colours</a>.</p>
<ul><li>Red</li><li>Blue</li></ul>
</body></html>`

	doc, err := NewHTMLParser().Parse(context.Background(), strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Product Brief", doc.Title)
	assert.Contains(t, doc.Content, "# Widget")
	assert.Contains(t, doc.Content, "two colours")
	assert.Contains(t, doc.Content, "Red")
	assert.NotContains(t, doc.Content, "alert")
	assert.NotContains(t, doc.Content, "color:red")
	assert.Equal(t, 1, doc.Metadata["link_count"])
}

func TestHTMLParserTitleFromHeading(t *testing.T) {
	doc, err := NewHTMLParser().Parse(context.Background(), strings.NewReader("<body><h1> Launch </h1><p>x</p></body>"))
	require.NoError(t, err)
	assert.Equal(t, "Launch", doc.Title)
}

func TestPDFParserRejectsInvalidFile(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")

	_, err := NewPDFParser().ParseFile(context.Background(), path)
	require.Error(t, err)
}

func TestPDFParserMissingFile(t *testing.T) {
	_, err := NewPDFParser().ParseFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
}
