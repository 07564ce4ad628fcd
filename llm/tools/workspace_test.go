package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-agent/config"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	cfg := config.Default()
	cfg.WorkDir = t.TempDir()
	return NewWorkspace(&cfg)
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWorkspaceLayout(t *testing.T) {
	ws := newTestWorkspace(t)

	assert.Equal(t, filepath.Join(ws.Root, "output", "newsletter_content.txt"), ws.ContentPath)
	assert.Equal(t, filepath.Join(ws.Root, "product_data"), ws.ProductDataDir)
	assert.Equal(t, filepath.Join(ws.Root, "style_samples"), ws.StyleSamplesDir)
	assert.Equal(t, filepath.Join("output", "newsletter_content.txt"), ws.Rel(ws.ContentPath))
	assert.Equal(t, filepath.Join(ws.Root, "a", "b.txt"), ws.Resolve("./a/b.txt"))
	assert.Equal(t, "/abs/file", ws.Resolve("/abs/../abs/file"))
}

func TestContentLifecycle(t *testing.T) {
	ws := newTestWorkspace(t)

	assert.False(t, ws.ContentExists().Exists)
	read := ws.ReadContent()
	assert.False(t, read.Success)
	assert.Equal(t, fileDoesNotExistError, read.Error)

	res := ws.WriteFile("./output/newsletter_content.txt", "Hello subscribers")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, ws.ContentPath, res.FilePath)

	exists := ws.ContentExists()
	assert.True(t, exists.Exists)
	assert.Equal(t, ws.ContentPath, exists.FilePath)

	read = ws.ReadContent()
	require.True(t, read.Success)
	assert.Equal(t, "Hello subscribers", read.Content)
}

func TestWriteFileOverwrites(t *testing.T) {
	ws := newTestWorkspace(t)

	require.True(t, ws.WriteFile("out/x.html", "first").Success)
	require.True(t, ws.WriteFile("out/x.html", "second").Success)

	data, err := os.ReadFile(filepath.Join(ws.Root, "out", "x.html"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteFileRequiresPath(t *testing.T) {
	res := newTestWorkspace(t).WriteFile("", "x")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestContentExistsIgnoresDirectory(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, os.MkdirAll(ws.ContentPath, 0755))

	assert.False(t, ws.ContentExists().Exists)
	assert.False(t, ws.ReadContent().Success)
}

func mkdir(path string) error {
	return os.MkdirAll(path, 0755)
}
