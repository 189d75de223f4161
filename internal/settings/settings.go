// Package settings persists the tool preferences that outlive a single
// build: which packager binary to call, the target platform, and the
// defaults the form is seeded with.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"H2E/internal/config"
)

const (
	configDirName = "h2e"
	fileName      = "settings.toml"
)

// Settings are the persisted application preferences.
type Settings struct {
	// PackagerTool is the external toolchain binary that compiles the
	// generated launcher. Normally just "go" from PATH.
	PackagerTool string `toml:"packager_tool" json:"packagerTool"`
	// RsrcTool embeds the .ico into the Windows executable's resources.
	RsrcTool string `toml:"rsrc_tool" json:"rsrcTool"`
	// TargetOS / TargetArch select the platform the launcher is compiled
	// for. The original tool only produced windows/amd64 executables.
	TargetOS   string `toml:"target_os" json:"targetOS"`
	TargetArch string `toml:"target_arch" json:"targetArch"`
	// DefaultOutputDir pre-fills the output directory field when set.
	DefaultOutputDir string `toml:"default_output_dir" json:"defaultOutputDir"`
	// DefaultWidth / DefaultHeight pre-fill the window size fields when
	// non-zero, overriding the built-in 1024x768.
	DefaultWidth  int `toml:"default_width" json:"defaultWidth"`
	DefaultHeight int `toml:"default_height" json:"defaultHeight"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		PackagerTool: "go",
		RsrcTool:     "rsrc",
		TargetOS:     "windows",
		TargetArch:   "amd64",
	}
}

// Path returns the settings file location under the user config dir.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, configDirName, fileName), nil
}

// Load reads settings from path. A missing file is not an error; defaults
// are returned instead.
func Load(path string) (Settings, error) {
	s := Default()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read settings: %w", err)
	}
	s.fillDefaults()
	return s, nil
}

// Save writes settings to path, creating the parent directory if needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return nil
}

// fillDefaults backstops fields an older or hand-edited file left empty.
func (s *Settings) fillDefaults() {
	def := Default()
	if s.PackagerTool == "" {
		s.PackagerTool = def.PackagerTool
	}
	if s.RsrcTool == "" {
		s.RsrcTool = def.RsrcTool
	}
	if s.TargetOS == "" {
		s.TargetOS = def.TargetOS
	}
	if s.TargetArch == "" {
		s.TargetArch = def.TargetArch
	}
}

// ApplyFormDefaults overlays the persisted form defaults onto a fresh
// build configuration.
func (s Settings) ApplyFormDefaults(cfg *config.BuildConfig) {
	if s.DefaultOutputDir != "" {
		cfg.OutputDir = s.DefaultOutputDir
	}
	if s.DefaultWidth >= config.MinWidth && s.DefaultWidth <= config.MaxWidth {
		cfg.Width = s.DefaultWidth
	}
	if s.DefaultHeight >= config.MinHeight && s.DefaultHeight <= config.MaxHeight {
		cfg.Height = s.DefaultHeight
	}
}
