package packager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"H2E/internal/config"
	"H2E/internal/runner"
	"H2E/internal/settings"
)

func testPackager() *Packager {
	return New(settings.Default())
}

func sourceTree(t *testing.T) string {
	t.Helper()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<html></html>"), 0o644))
	return src
}

func TestBuildArgsWindowed(t *testing.T) {
	t.Parallel()

	p := testPackager()
	cfg := config.Default()
	cfg.Windowed = true

	args := p.buildArgs(cfg, "/out/app.exe")
	require.Equal(t, []string{"build", "-ldflags", "-H=windowsgui", "-o", "/out/app.exe", "."}, args)

	cfg.Windowed = false
	args = p.buildArgs(cfg, "/out/app.exe")
	require.Equal(t, []string{"build", "-o", "/out/app.exe", "."}, args)
}

func TestBuildArgsNoWindowsGUIOffWindows(t *testing.T) {
	t.Parallel()

	p := testPackager()
	p.TargetOS = "linux"
	cfg := config.Default()
	cfg.Windowed = true

	args := p.buildArgs(cfg, "/out/app")
	require.NotContains(t, args, "-ldflags")
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	p := testPackager()
	cfg := config.Default()
	cfg.AppName = "demo"
	cfg.OutputDir = "/dist"

	cfg.OneFile = true
	require.Equal(t, filepath.Join("/dist", "demo.exe"), p.outputPath(cfg))

	cfg.OneFile = false
	require.Equal(t, filepath.Join("/dist", "demo", "demo.exe"), p.outputPath(cfg))

	p.TargetOS = "linux"
	cfg.OneFile = true
	require.Equal(t, filepath.Join("/dist", "demo"), p.outputPath(cfg))
}

// TestBuildWithFakeTool drives the whole pipeline with a harmless stand-in
// for the toolchain, checking staging, command banners, and the result.
func TestBuildWithFakeTool(t *testing.T) {
	t.Parallel()

	p := testPackager()
	p.Tool = "echo"

	cfg := config.Default()
	cfg.SourcePath = sourceTree(t)
	cfg.Title = "Fake Build"
	cfg.OutputDir = t.TempDir()

	var lines []string
	res, err := p.Build(context.Background(), cfg, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, filepath.Join(cfg.OutputDir, "fake-build.exe"), res.OutputPath)

	joined := strings.Join(lines, "\n")
	require.Contains(t, joined, "+ echo mod tidy")
	require.Contains(t, joined, "+ echo build")
	require.Contains(t, joined, "-H=windowsgui")
}

func TestBuildReportsToolExitCode(t *testing.T) {
	t.Parallel()

	p := testPackager()
	p.Tool = "false"

	cfg := config.Default()
	cfg.SourcePath = sourceTree(t)
	cfg.OutputDir = t.TempDir()

	res, err := p.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.ExitCode)
	require.Empty(t, res.OutputPath)
}

func TestBuildReportsStartFailure(t *testing.T) {
	t.Parallel()

	p := testPackager()
	p.Tool = "definitely-not-a-real-binary"

	cfg := config.Default()
	cfg.SourcePath = sourceTree(t)
	cfg.OutputDir = t.TempDir()

	res, err := p.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, runner.StartFailure, res.ExitCode)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	t.Parallel()

	p := testPackager()
	cfg := config.Default() // no source path

	_, err := p.Build(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestBuildRejectsConcurrentRuns(t *testing.T) {
	t.Parallel()

	p := testPackager()
	p.Tool = "sh"

	// Simulate in-flight state directly; driving a real slow subprocess
	// here would make the test timing-sensitive.
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	cfg := config.Default()
	cfg.SourcePath = sourceTree(t)

	_, err := p.Build(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrBuildRunning)
}
