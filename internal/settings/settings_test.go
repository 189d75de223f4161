package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"H2E/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), s)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "settings.toml")
	want := Settings{
		PackagerTool:     "/opt/go/bin/go",
		RsrcTool:         "rsrc",
		TargetOS:         "linux",
		TargetArch:       "arm64",
		DefaultOutputDir: "/tmp/out",
	}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadFillsEmptyFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_output_dir = \"/builds\"\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "go", s.PackagerTool)
	require.Equal(t, "windows", s.TargetOS)
	require.Equal(t, "/builds", s.DefaultOutputDir)
}

func TestApplyFormDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	s := Settings{DefaultOutputDir: "/builds", DefaultWidth: 1280, DefaultHeight: 720}
	s.ApplyFormDefaults(&cfg)
	require.Equal(t, "/builds", cfg.OutputDir)
	require.Equal(t, 1280, cfg.Width)
	require.Equal(t, 720, cfg.Height)
}

func TestApplyFormDefaultsIgnoresOutOfRange(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	s := Settings{DefaultWidth: 50, DefaultHeight: 99999}
	s.ApplyFormDefaults(&cfg)
	require.Equal(t, config.DefaultWidth, cfg.Width)
	require.Equal(t, config.DefaultHeight, cfg.Height)
}
