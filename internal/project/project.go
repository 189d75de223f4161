// Package project saves and loads build configurations as YAML project
// files so a packaging run can be reproduced later.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"H2E/internal/config"
)

// DefaultExtension is the suffix suggested by the save dialog.
const DefaultExtension = ".h2e.yaml"

// Save writes cfg to path as YAML.
func Save(path string, cfg config.BuildConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

// Load reads a project file and validates its static fields. The source tree
// itself is checked at build time, not here, so a project can be opened on a
// machine where the assets live elsewhere.
func Load(path string) (config.BuildConfig, error) {
	var cfg config.BuildConfig

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("read project: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal project: %w", err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid project: %w", err)
	}
	return cfg, nil
}
