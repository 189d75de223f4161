package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"H2E/internal/api"
	"H2E/internal/args"
	"H2E/internal/config"
	"H2E/internal/engine"
	"H2E/internal/logging"
	"H2E/internal/packager"
	"H2E/internal/project"
	"H2E/internal/settings"
	"H2E/internal/version"
)

//go:embed all:frontend/dist
var assets embed.FS

// App is the Go side of the window. Its exported methods are bound into the
// frontend by Wails.
type App struct {
	ctx          context.Context
	pkg          *packager.Packager
	settingsPath string
	logger       *logrus.Logger

	mu         sync.Mutex
	lastOutput string
}

func NewApp() *App {
	return &App{logger: logging.L()}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	path, err := settings.Path()
	if err != nil {
		a.logger.WithError(err).Warn("No user config dir, settings will not persist")
	}
	a.settingsPath = path

	st, err := settings.Load(path)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load settings, using defaults")
		st = settings.Default()
	}
	a.pkg = packager.New(st)
}

// SelectSourceDirectory opens a directory picker for the HTML asset folder.
func (a *App) SelectSourceDirectory() (string, error) {
	return runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select HTML Folder",
	})
}

// SelectSourceFile opens a file picker for a single HTML entry file.
func (a *App) SelectSourceFile() (string, error) {
	return runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select HTML File",
		Filters: []runtime.FileFilter{
			{
				DisplayName: "HTML Files",
				Pattern:     "*.html;*.htm",
			},
		},
	})
}

// SelectIcon opens a file picker for the executable icon.
func (a *App) SelectIcon() (string, error) {
	return runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select Icon File",
		Filters: []runtime.FileFilter{
			{
				DisplayName: "Icon Files",
				Pattern:     "*.ico",
			},
		},
	})
}

// SelectOutputDir opens a directory picker for the build output.
func (a *App) SelectOutputDir() (string, error) {
	return runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select Output Directory",
	})
}

// GetDefaults returns the configuration the form is seeded with.
func (a *App) GetDefaults() config.BuildConfig {
	cfg := config.Default()
	if st, err := settings.Load(a.settingsPath); err == nil {
		st.ApplyFormDefaults(&cfg)
	}
	return cfg
}

// StartBuild runs one packaging pass, streaming every toolchain line to the
// frontend as a "build:log" event. It blocks until the build ends and
// returns a result map the way the form expects it.
func (a *App) StartBuild(cfg config.BuildConfig) map[string]string {
	a.logger.WithField("config", cfg).Info("Received build configuration")
	runtime.EventsEmit(a.ctx, "build:status", "Starting build...")

	eventLogger := a.createEventLogger()
	sink := func(line string) {
		eventLogger.Info(line)
	}

	start := time.Now()
	res, err := a.pkg.Build(a.ctx, cfg, sink)
	if err != nil {
		errorMsg := fmt.Sprintf("Build failed: %v", err)
		a.logger.WithError(err).Error(errorMsg)
		runtime.EventsEmit(a.ctx, "build:done", map[string]interface{}{
			"success":  false,
			"exitCode": -1,
		})
		return map[string]string{
			"success":      "false",
			"errorMessage": errorMsg,
		}
	}

	if res.ExitCode != 0 {
		runtime.EventsEmit(a.ctx, "build:done", map[string]interface{}{
			"success":  false,
			"exitCode": res.ExitCode,
		})
		return map[string]string{
			"success":      "false",
			"exitCode":     fmt.Sprintf("%d", res.ExitCode),
			"errorMessage": fmt.Sprintf("packaging tool exited with code %d", res.ExitCode),
		}
	}

	a.mu.Lock()
	a.lastOutput = res.OutputPath
	a.mu.Unlock()

	runtime.EventsEmit(a.ctx, "build:done", map[string]interface{}{
		"success":    true,
		"exitCode":   0,
		"outputPath": res.OutputPath,
	})

	return map[string]string{
		"success":     "true",
		"outputPath":  res.OutputPath,
		"elapsedTime": fmt.Sprintf("%.2f", time.Since(start).Seconds()),
	}
}

// CancelBuild stops the running packaging subprocess, if any.
func (a *App) CancelBuild() {
	a.pkg.Cancel()
}

// IsBuildRunning reports whether a build is in flight.
func (a *App) IsBuildRunning() bool {
	return a.pkg.Running()
}

// OpenOutputFolder opens the folder of the last successful build in the
// system file manager.
func (a *App) OpenOutputFolder() error {
	a.mu.Lock()
	out := a.lastOutput
	a.mu.Unlock()

	if out == "" {
		return fmt.Errorf("no finished build yet")
	}
	return openPath(filepath.Dir(out))
}

// SaveProject writes the current form state to a project file.
func (a *App) SaveProject(cfg config.BuildConfig) (string, error) {
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save Project",
		DefaultFilename: cfg.AppName + project.DefaultExtension,
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := project.Save(path, cfg); err != nil {
		return "", err
	}
	a.logger.Infof("Project saved to %s", path)
	return path, nil
}

// LoadProject opens a project file and returns its configuration.
func (a *App) LoadProject() (config.BuildConfig, error) {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open Project",
		Filters: []runtime.FileFilter{
			{
				DisplayName: "H2E Projects",
				Pattern:     "*.yaml;*.yml",
			},
		},
	})
	if err != nil {
		return config.BuildConfig{}, err
	}
	if path == "" {
		return config.BuildConfig{}, fmt.Errorf("no project selected")
	}
	return project.Load(path)
}

// GetSettings returns the persisted application settings.
func (a *App) GetSettings() (settings.Settings, error) {
	return settings.Load(a.settingsPath)
}

// SaveSettings persists the settings and applies them to the packager.
func (a *App) SaveSettings(st settings.Settings) error {
	if err := settings.Save(a.settingsPath, st); err != nil {
		return err
	}
	a.pkg.Tool = st.PackagerTool
	a.pkg.RsrcTool = st.RsrcTool
	a.pkg.TargetOS = st.TargetOS
	a.pkg.TargetArch = st.TargetArch
	return nil
}

// Version returns the application version shown in the About row.
func (a *App) Version() string {
	return version.Version
}

// createEventLogger builds a logger whose entries are forwarded to the
// frontend console.
func (a *App) createEventLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
	logger.AddHook(&eventHook{ctx: a.ctx})
	return logger
}

// eventHook is a logrus hook that emits each entry as a Wails event.
type eventHook struct {
	ctx context.Context
}

func (h *eventHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.DebugLevel,
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
	}
}

func (h *eventHook) Fire(entry *logrus.Entry) error {
	runtime.EventsEmit(h.ctx, "build:log", map[string]interface{}{
		"level":   entry.Level.String(),
		"message": entry.Message,
		"time":    logging.Timestamp(entry.Time),
	})
	return nil
}

// openPath asks the desktop to show a folder.
func openPath(path string) error {
	switch goruntime.GOOS {
	case "windows":
		return exec.Command("explorer", path).Start()
	case "darwin":
		return exec.Command("open", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}

func runServe() {
	logging.EnableBroadcast()

	path, err := settings.Path()
	if err != nil {
		logging.L().WithError(err).Warn("No user config dir, settings will not persist")
	}
	st, err := settings.Load(path)
	if err != nil {
		logging.L().WithError(err).Warn("Failed to load settings, using defaults")
		st = settings.Default()
	}

	server := api.NewServer(packager.New(st), path)
	if err := server.Run(); err != nil {
		logging.L().Fatalf("API server error: %v", err)
	}
}

func main() {
	if len(os.Args) > 1 {
		if os.Args[1] == "serve" {
			runServe()
			return
		}
		parsed := args.ParseArgs()
		if parsed.ShowVersion {
			fmt.Println(version.Version)
			return
		}
		os.Exit(engine.RunBuild(parsed))
	}

	app := NewApp()
	err := wails.Run(&options.App{
		Title:            "H2E - HTML to EXE Converter " + version.Version,
		Width:            860,
		Height:           640,
		MinWidth:         760,
		MinHeight:        520,
		AssetServer:      &assetserver.Options{Assets: assets},
		BackgroundColour: &options.RGBA{R: 16, G: 20, B: 28, A: 1},
		OnStartup:        app.startup,
		Bind: []interface{}{
			app,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyNever,
			ProgramName:         "h2e",
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
	})
	if err != nil {
		logging.L().Fatal(err)
	}
}
