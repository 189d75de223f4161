// Package engine runs a headless build from command line flags, printing the
// packager's output stream to the terminal.
package engine

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"H2E/internal/args"
	"H2E/internal/config"
	"H2E/internal/packager"
	"H2E/internal/project"
	"H2E/internal/runner"
	"H2E/internal/settings"
)

// RunBuild performs one packaging run and returns the process exit code:
// the external tool's exit code, or 1 for failures before the toolchain ran.
func RunBuild(parsed *args.Args) int {
	var cfg config.BuildConfig
	if parsed.ProjectFile != "" {
		loaded, err := project.Load(parsed.ProjectFile)
		if err != nil {
			color.Red("[x] %v", err)
			return 1
		}
		cfg = loaded
		color.Blue("[-] Using project file %s", parsed.ProjectFile)
	} else {
		cfg = parsed.BuildConfig()
	}

	settingsPath, err := settings.Path()
	if err != nil {
		color.Red("[x] %v", err)
		return 1
	}
	st, err := settings.Load(settingsPath)
	if err != nil {
		color.Yellow("[!] %v, using defaults", err)
		st = settings.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = st.DefaultOutputDir
	}

	pkg := packager.New(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		pkg.Cancel()
	}()

	color.Blue("[-] Packaging %s", cfg.SourcePath)

	sink := runner.Sink(func(line string) {
		fmt.Println(line)
	})
	res, err := pkg.Build(ctx, cfg, sink)
	if err != nil {
		color.Red("[x] %v", err)
		return 1
	}
	if res.ExitCode != 0 {
		color.Red("[x] Build failed with exit code %d", res.ExitCode)
		return res.ExitCode
	}

	color.Green("[+] Build finished in %.2fs", res.Elapsed.Seconds())
	color.Green("[+] Output: %s", res.OutputPath)
	return 0
}
