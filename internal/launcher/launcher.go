// Package launcher renders the generated program that the packaging
// toolchain compiles into the final executable. The launcher opens a native
// webview on the user's HTML entry file, either served from assets embedded
// in the binary (onefile) or loaded from an asset folder shipped next to it.
package launcher

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"H2E/internal/config"
)

// webviewModule is the webview binding compiled into every generated
// launcher. Pinned so repeated builds stay reproducible.
const (
	webviewModule  = "github.com/webview/webview_go"
	webviewVersion = "v0.0.0-20240220051247-56f456ca3a43"
)

const mainTemplate = `// Code generated by h2e. DO NOT EDIT.
package main

import (
{{- if .OneFile}}
	"embed"
	"io/fs"
	"log"
	"net"
	"net/http"
{{- else}}
	"log"
	"os"
	"path/filepath"
{{- end}}

	webview "github.com/webview/webview_go"
)

{{if .OneFile -}}
//go:embed all:assets
var assets embed.FS

func main() {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		log.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatal(err)
	}
	go func() {
		if err := http.Serve(ln, http.FileServer(http.FS(sub))); err != nil {
			log.Fatal(err)
		}
	}()

	w := webview.New(false)
	defer w.Destroy()
	w.SetTitle({{.Title}})
	w.SetSize({{.Width}}, {{.Height}}, webview.HintNone)
	w.Navigate("http://" + ln.Addr().String() + "/" + {{.Entry}})
	w.Run()
}
{{- else -}}
func main() {
	exe, err := os.Executable()
	if err != nil {
		log.Fatal(err)
	}
	index := filepath.Join(filepath.Dir(exe), "assets", {{.Entry}})
	if _, err := os.Stat(index); err != nil {
		log.Fatal(err)
	}

	w := webview.New(false)
	defer w.Destroy()
	w.SetTitle({{.Title}})
	w.SetSize({{.Width}}, {{.Height}}, webview.HintNone)
	w.Navigate("file://" + index)
	w.Run()
}
{{- end}}
`

const goModTemplate = `module {{.Module}}

go 1.23

require {{.WebviewModule}} {{.WebviewVersion}}
`

type params struct {
	Title   string // already quoted Go string literal
	Entry   string // already quoted Go string literal
	Width   int
	Height  int
	OneFile bool
}

// Render produces the launcher main.go for the given build configuration.
// Title and entry path are inserted as quoted Go literals so arbitrary user
// input cannot break out of the generated source.
func Render(cfg config.BuildConfig) ([]byte, error) {
	tmpl, err := template.New("launcher").Parse(mainTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse launcher template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, params{
		Title:   strconv.Quote(cfg.Title),
		Entry:   strconv.Quote(cfg.EntryFile),
		Width:   cfg.Width,
		Height:  cfg.Height,
		OneFile: cfg.OneFile,
	})
	if err != nil {
		return nil, fmt.Errorf("render launcher: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderGoMod produces the go.mod of the launcher module.
func RenderGoMod(cfg config.BuildConfig) ([]byte, error) {
	tmpl, err := template.New("gomod").Parse(goModTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse go.mod template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Module, WebviewModule, WebviewVersion string
	}{
		Module:         cfg.AppName,
		WebviewModule:  webviewModule,
		WebviewVersion: webviewVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("render go.mod: %w", err)
	}
	return buf.Bytes(), nil
}
