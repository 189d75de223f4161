package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"H2E/internal/config"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "demo"+DefaultExtension)

	want := config.Default()
	want.SourcePath = t.TempDir()
	want.Title = "Demo App"
	want.Width = 800
	want.Height = 600
	want.OneFile = false
	want.Normalize()

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadRejectsBadDimensions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.h2e.yaml")
	raw := "source_path: /somewhere\nwidth: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "width")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.h2e.yaml"))
	require.Error(t, err)
}
