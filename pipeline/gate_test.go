package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "newsletter_content.txt")
	require.NoError(t, os.WriteFile(file, []byte("copy"), 0644))
	sub := filepath.Join(dir, "as_dir")
	require.NoError(t, os.Mkdir(sub, 0755))

	tests := []struct {
		name   string
		path   string
		exists bool
	}{
		{"missing file", filepath.Join(dir, "missing.txt"), false},
		{"regular file", file, true},
		{"directory", sub, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Gate{ContentPath: tt.path}.Check()
			assert.Equal(t, tt.exists, d.ContentExists)
			assert.True(t, d.Runs(PhaseDesign))
			assert.Equal(t, !tt.exists, d.Runs(PhaseResearch))
			assert.Equal(t, !tt.exists, d.Runs(PhaseWriting))
			if tt.exists {
				assert.Equal(t, []string{PhaseResearch, PhaseWriting}, d.Skip)
			} else {
				assert.Empty(t, d.Skip)
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "fenced block",
			in:   "Here it is:\n```html\n<html><body>hi</body></html>\n```\nDone.",
			want: "<html><body>hi</body></html>",
			ok:   true,
		},
		{
			name: "fenced block upper case",
			in:   "```HTML\n<p>x</p>\n```",
			want: "<p>x</p>",
			ok:   true,
		},
		{
			name: "bare document",
			in:   "Saved this:\n<!DOCTYPE html>\n<html><body>hi</body></html>\nThanks",
			want: "<!DOCTYPE html>\n<html><body>hi</body></html>",
			ok:   true,
		},
		{
			name: "html tag without doctype",
			in:   "<html lang=\"en\"><body></body></html>",
			want: "<html lang=\"en\"><body></body></html>",
			ok:   true,
		},
		{name: "no html", in: "The newsletter was saved.", ok: false},
		{name: "unclosed", in: "<html><body>", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractHTML(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListArtifacts(t *testing.T) {
	artifacts, err := ListArtifacts(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.html"), []byte("12345"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "images"), 0755))

	artifacts, err = ListArtifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, []Artifact{
		{Name: "a.txt", Size: 1},
		{Name: "b.html", Size: 5},
		{Name: "images", Size: artifacts[2].Size, IsDir: true},
	}, artifacts)
}

func TestReportString(t *testing.T) {
	r := &Report{
		RunID:          "run-1",
		Mode:           "pipeline",
		ContentExisted: true,
		Duration:       1500 * time.Millisecond,
		Stages: []StageResult{
			{Name: "ContentWritingAgent", Skipped: true},
			{Name: "VisualDesignAgent", Duration: time.Second, OutputBytes: 42},
		},
		HTMLExtracted: true,
		Artifacts:     []Artifact{{Name: "newsletter.html", Size: 42}, {Name: "images", IsDir: true}},
	}

	out := r.String()
	assert.Contains(t, out, "Run run-1 (pipeline mode) finished in 1.5s")
	assert.Contains(t, out, "research and writing skipped")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "42 bytes")
	assert.Contains(t, out, "saved it from the reply")
	assert.Contains(t, out, "images/")
	assert.Contains(t, out, "Files in output directory: 2")
}
