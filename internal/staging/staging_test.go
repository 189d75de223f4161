package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"H2E/internal/config"
)

func writeSourceTree(t *testing.T) string {
	t.Helper()

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "css"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "css", "app.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".DS_Store"), []byte{0}, 0o644))
	return src
}

func TestNewStage(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.SourcePath = writeSourceTree(t)
	cfg.Normalize()

	st, err := New(cfg)
	require.NoError(t, err)
	defer st.Close()

	require.FileExists(t, filepath.Join(st.Root, "main.go"))
	require.FileExists(t, filepath.Join(st.Root, "go.mod"))
	require.FileExists(t, filepath.Join(st.AssetsDir, "index.html"))
	require.FileExists(t, filepath.Join(st.AssetsDir, "css", "app.css"))

	// VCS litter and dotfiles stay out of the bundle.
	require.NoDirExists(t, filepath.Join(st.AssetsDir, ".git"))
	require.NoFileExists(t, filepath.Join(st.AssetsDir, ".DS_Store"))
}

func TestNewStageMissingEntry(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.SourcePath = writeSourceTree(t)
	cfg.EntryFile = "nope.html"
	cfg.Normalize()

	_, err := New(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope.html")
}

func TestStageClose(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.SourcePath = writeSourceTree(t)
	cfg.Normalize()

	st, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.NoDirExists(t, st.Root)
}

func TestCopyTreePreservesLayout(t *testing.T) {
	t.Parallel()

	src := writeSourceTree(t)
	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyTree(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "css", "app.css"))
	require.NoError(t, err)
	require.Equal(t, "body{}", string(data))
}
