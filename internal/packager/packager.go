// Package packager turns a validated build configuration into a standalone
// executable by staging the launcher sources and shelling out to the
// external toolchain, streaming everything the tools print.
package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"H2E/internal/config"
	"H2E/internal/runner"
	"H2E/internal/settings"
	"H2E/internal/staging"
)

// ErrBuildRunning is returned when a build is started while another one is
// still in flight. The frontend disables the Build button, this guard covers
// the API and CLI paths.
var ErrBuildRunning = errors.New("a build is already running")

const iconFileName = "app.ico"

// BuildResult reports how a packaging run ended. ExitCode is the exit code
// of the first failing external command, 0 on success, and
// runner.StartFailure when a tool could not be started at all.
type BuildResult struct {
	ExitCode   int           `json:"exitCode"`
	OutputPath string        `json:"outputPath"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Packager drives the external packaging toolchain. One build at a time.
type Packager struct {
	Tool       string
	RsrcTool   string
	TargetOS   string
	TargetArch string

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a Packager from the persisted settings.
func New(s settings.Settings) *Packager {
	return &Packager{
		Tool:       s.PackagerTool,
		RsrcTool:   s.RsrcTool,
		TargetOS:   s.TargetOS,
		TargetArch: s.TargetArch,
	}
}

// Running reports whether a build is currently in flight.
func (p *Packager) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Cancel kills the running build's subprocess, if any.
func (p *Packager) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Build stages cfg, runs the toolchain, and reports the outcome. The sink
// receives every line the external tools print, plus one banner line per
// command. A non-nil error means the build never reached the toolchain.
func (p *Packager) Build(ctx context.Context, cfg config.BuildConfig, sink runner.Sink) (*BuildResult, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrBuildRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
	}()

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckSource(); err != nil {
		return nil, err
	}

	stage, err := staging.New(cfg)
	if err != nil {
		return nil, err
	}
	defer stage.Close()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	outPath := p.outputPath(cfg)

	if cfg.IconPath != "" && p.TargetOS == "windows" {
		if err := copyIcon(cfg.IconPath, stage.Root); err != nil {
			return nil, err
		}
		if res := p.step(ctx, stage.Root, nil, sink, p.RsrcTool, "-ico", iconFileName, "-o", "rsrc.syso"); res.Code != 0 {
			return &BuildResult{ExitCode: res.Code, Elapsed: time.Since(start)}, nil
		}
	}

	if res := p.step(ctx, stage.Root, nil, sink, p.Tool, "mod", "tidy"); res.Code != 0 {
		return &BuildResult{ExitCode: res.Code, Elapsed: time.Since(start)}, nil
	}

	env := []string{"GOOS=" + p.TargetOS, "GOARCH=" + p.TargetArch, "CGO_ENABLED=1"}
	if res := p.step(ctx, stage.Root, env, sink, p.Tool, p.buildArgs(cfg, outPath)...); res.Code != 0 {
		return &BuildResult{ExitCode: res.Code, Elapsed: time.Since(start)}, nil
	}

	if !cfg.OneFile {
		assetsOut := filepath.Join(filepath.Dir(outPath), "assets")
		if err := staging.CopyTree(stage.AssetsDir, assetsOut); err != nil {
			return nil, fmt.Errorf("ship asset folder: %w", err)
		}
	}

	return &BuildResult{
		ExitCode:   0,
		OutputPath: outPath,
		Elapsed:    time.Since(start),
	}, nil
}

// step announces the command on the sink the way a shell trace would, then
// runs it.
func (p *Packager) step(ctx context.Context, dir string, env []string, sink runner.Sink, name string, args ...string) runner.Result {
	if sink != nil {
		sink("+ " + name + " " + strings.Join(args, " "))
	}
	res := runner.Run(ctx, dir, env, sink, name, args...)
	if res.Code != 0 && sink != nil {
		if res.Code == runner.StartFailure {
			sink(fmt.Sprintf("failed to start %s: %v", name, res.Err))
		} else {
			sink(fmt.Sprintf("%s exited with code %d", name, res.Code))
		}
	}
	return res
}

// buildArgs assembles the toolchain's build command line for cfg.
func (p *Packager) buildArgs(cfg config.BuildConfig, outPath string) []string {
	args := []string{"build"}
	if cfg.Windowed && p.TargetOS == "windows" {
		args = append(args, "-ldflags", "-H=windowsgui")
	}
	return append(args, "-o", outPath, ".")
}

// outputPath decides where the executable ends up. Onefile builds drop a
// single binary into the output dir; onedir builds get a folder holding the
// binary and its asset tree.
func (p *Packager) outputPath(cfg config.BuildConfig) string {
	name := cfg.AppName
	if p.TargetOS == "windows" {
		name += ".exe"
	}
	if cfg.OneFile {
		return filepath.Join(cfg.OutputDir, name)
	}
	return filepath.Join(cfg.OutputDir, cfg.AppName, name)
}

func copyIcon(src, stageRoot string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read icon: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stageRoot, iconFileName), data, 0o644); err != nil {
		return fmt.Errorf("stage icon: %w", err)
	}
	return nil
}
