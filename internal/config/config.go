package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultEntryFile = "index.html"
	DefaultTitle     = "My HTML App"
	DefaultWidth     = 1024
	DefaultHeight    = 768

	MinWidth  = 200
	MaxWidth  = 3840
	MinHeight = 200
	MaxHeight = 2160
)

// BuildConfig describes one packaging run. The frontend form fills it over
// the JSON bindings; project files persist it as YAML.
type BuildConfig struct {
	SourcePath string `json:"sourcePath"         yaml:"source_path"`
	EntryFile  string `json:"entryFile"          yaml:"entry_file"`
	Title      string `json:"title"              yaml:"title"`
	AppName    string `json:"appName"            yaml:"app_name"`
	Width      int    `json:"width"              yaml:"width"`
	Height     int    `json:"height"             yaml:"height"`
	OneFile    bool   `json:"oneFile"            yaml:"one_file"`
	Windowed   bool   `json:"windowed"           yaml:"windowed"`
	IconPath   string `json:"iconPath,omitempty" yaml:"icon_path,omitempty"`
	OutputDir  string `json:"outputDir"          yaml:"output_dir"`
}

// Default returns the configuration the form starts out with.
func Default() BuildConfig {
	return BuildConfig{
		EntryFile: DefaultEntryFile,
		Title:     DefaultTitle,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		OneFile:   true,
		Windowed:  true,
	}
}

// Normalize fills empty fields with their defaults and derives AppName from
// the title when the user left it blank. When SourcePath points at a single
// HTML file, the file becomes the entry and its directory the asset root.
func (c *BuildConfig) Normalize() {
	if c.EntryFile == "" {
		c.EntryFile = DefaultEntryFile
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.OutputDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.OutputDir = wd
		}
	}
	if info, err := os.Stat(c.SourcePath); err == nil && !info.IsDir() {
		c.EntryFile = filepath.Base(c.SourcePath)
		c.SourcePath = filepath.Dir(c.SourcePath)
	}
	if c.AppName == "" {
		c.AppName = SanitizeName(c.Title)
	}
}

// Validate checks the fields that can be verified without touching the
// filesystem. CheckSource covers the rest.
func (c BuildConfig) Validate() error {
	if c.SourcePath == "" {
		return fmt.Errorf("source path is required")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		return fmt.Errorf("width %d out of range [%d, %d]", c.Width, MinWidth, MaxWidth)
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		return fmt.Errorf("height %d out of range [%d, %d]", c.Height, MinHeight, MaxHeight)
	}
	if c.IconPath != "" && !strings.EqualFold(filepath.Ext(c.IconPath), ".ico") {
		return fmt.Errorf("icon must be a .ico file, got %q", filepath.Base(c.IconPath))
	}
	if c.AppName != "" && SanitizeName(c.AppName) != c.AppName {
		return fmt.Errorf("app name %q contains characters unsafe for a filename", c.AppName)
	}
	return nil
}

// CheckSource verifies that the source tree and the entry file exist. Call
// after Normalize so a single-file source has already been rewritten to its
// containing directory.
func (c BuildConfig) CheckSource() error {
	info, err := os.Stat(c.SourcePath)
	if err != nil {
		return fmt.Errorf("source path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", c.SourcePath)
	}
	entry := filepath.Join(c.SourcePath, c.EntryFile)
	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("entry file %s not found in source folder: %w", c.EntryFile, err)
	}
	if c.IconPath != "" {
		if _, err := os.Stat(c.IconPath); err != nil {
			return fmt.Errorf("icon file: %w", err)
		}
	}
	return nil
}

// SanitizeName turns an arbitrary window title into something safe to use as
// an executable and Go module name.
func SanitizeName(title string) string {
	var b strings.Builder
	lastDash := true // strip leading dashes
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	name := strings.TrimRight(b.String(), "-")
	if name == "" {
		name = "html-app"
	}
	return name
}
