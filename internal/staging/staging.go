// Package staging prepares the throwaway workspace a build runs in: a temp
// dir holding the rendered launcher sources and a copy of the HTML assets.
package staging

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"H2E/internal/config"
	"H2E/internal/launcher"
	"H2E/internal/workerpool"
)

const copyWorkers = 4

// Stage is a prepared build workspace. Close removes it.
type Stage struct {
	Root      string
	AssetsDir string
}

// New creates the staging directory for cfg: launcher main.go and go.mod at
// the root, the asset tree under assets/. The configuration must already be
// normalized and validated.
func New(cfg config.BuildConfig) (*Stage, error) {
	root, err := os.MkdirTemp("", "h2e-build-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	st := &Stage{Root: root, AssetsDir: filepath.Join(root, "assets")}
	if err := st.populate(cfg); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func (s *Stage) populate(cfg config.BuildConfig) error {
	mainSrc, err := launcher.Render(cfg)
	if err != nil {
		return err
	}
	goMod, err := launcher.RenderGoMod(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.Root, "main.go"), mainSrc, 0o644); err != nil {
		return fmt.Errorf("write launcher: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Root, "go.mod"), goMod, 0o644); err != nil {
		return fmt.Errorf("write launcher go.mod: %w", err)
	}

	if err := CopyTree(cfg.SourcePath, s.AssetsDir); err != nil {
		return err
	}

	entry := filepath.Join(s.AssetsDir, cfg.EntryFile)
	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("entry file %s missing after staging: %w", cfg.EntryFile, err)
	}
	return nil
}

// Close removes the staging directory and everything in it.
func (s *Stage) Close() error {
	return os.RemoveAll(s.Root)
}

// CopyTree copies the regular files under src into dst, preserving the
// directory layout. Dot-directories (VCS litter) and symlinks are skipped.
func CopyTree(src, dst string) error {
	var jobs []workerpool.CopyJob

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0o755)
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		jobs = append(jobs, workerpool.CopyJob{Src: path, Dst: filepath.Join(dst, rel)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan source tree: %w", err)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	workerpool.Start(copyWorkers, jobs, func(wg *sync.WaitGroup, jobs <-chan workerpool.CopyJob) {
		defer wg.Done()
		for job := range jobs {
			if err := copyFile(job.Src, job.Dst); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}
	})
	return firstErr
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return out.Close()
}
