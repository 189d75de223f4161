package args

import (
	"flag"
	"fmt"

	"H2E/internal/config"
)

// Args are the command line options of headless build mode.
type Args struct {
	SourcePath  string
	EntryFile   string
	Title       string
	AppName     string
	IconPath    string
	OutputDir   string
	ProjectFile string
	Width       int
	Height      int
	OneFile     bool
	Windowed    bool
	ShowVersion bool
}

// ParseArgs reads the build flags.
func ParseArgs() *Args {
	sourcePath := flag.String("src", "", "Path to the HTML folder or a single HTML file")
	flag.StringVar(sourcePath, "s", *sourcePath, "Path to the HTML folder or a single HTML file (short)")

	entryFile := flag.String("entry", config.DefaultEntryFile, "Entry HTML filename inside the source folder")
	title := flag.String("title", config.DefaultTitle, "Window title of the packaged app")
	appName := flag.String("name", "", "Executable name (derived from the title when empty)")
	iconPath := flag.String("icon", "", "Optional .ico file for the executable")

	outputDir := flag.String("out", "", "Output directory (default: current folder)")
	flag.StringVar(outputDir, "o", *outputDir, "Output directory (short)")

	projectFile := flag.String("project", "", "Build from a saved project file instead of flags")
	flag.StringVar(projectFile, "p", *projectFile, "Build from a saved project file (short)")

	width := flag.Int("width", config.DefaultWidth, "Window width in pixels")
	height := flag.Int("height", config.DefaultHeight, "Window height in pixels")
	oneFile := flag.Bool("onefile", true, "Embed the assets in a single executable")
	windowed := flag.Bool("windowed", true, "No console window (Windows target)")
	showVersion := flag.Bool("version", false, "Print the version and exit")

	flag.Usage = func() {
		fmt.Printf("Usage: %s [options]\n", flag.CommandLine.Name())
		fmt.Println("Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	return &Args{
		SourcePath:  *sourcePath,
		EntryFile:   *entryFile,
		Title:       *title,
		AppName:     *appName,
		IconPath:    *iconPath,
		OutputDir:   *outputDir,
		ProjectFile: *projectFile,
		Width:       *width,
		Height:      *height,
		OneFile:     *oneFile,
		Windowed:    *windowed,
		ShowVersion: *showVersion,
	}
}

// BuildConfig converts the flags into a build configuration.
func (a *Args) BuildConfig() config.BuildConfig {
	return config.BuildConfig{
		SourcePath: a.SourcePath,
		EntryFile:  a.EntryFile,
		Title:      a.Title,
		AppName:    a.AppName,
		IconPath:   a.IconPath,
		OutputDir:  a.OutputDir,
		Width:      a.Width,
		Height:     a.Height,
		OneFile:    a.OneFile,
		Windowed:   a.Windowed,
	}
}
