// Package crash captures panics from background build goroutines into
// timestamped report files so a failed packaging run can be diagnosed after
// the window is gone.
package crash

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// CrashReport is one captured panic.
type CrashReport struct {
	Timestamp    time.Time
	ErrorMessage string
	StackTrace   string
	Goroutine    string
	Component    string
	Extra        map[string]string
}

// Reporter writes crash reports into a directory.
type Reporter struct {
	reportsDir string
}

// NewReporter creates a reporter writing into reportsDir (default
// "crash_reports").
func NewReporter(reportsDir string) *Reporter {
	if reportsDir == "" {
		reportsDir = "crash_reports"
	}
	os.MkdirAll(reportsDir, 0o755)
	return &Reporter{reportsDir: reportsDir}
}

// RecoverWithCrashReport recovers a panic in the calling goroutine and
// persists a report. Use it with defer around build goroutines.
func (r *Reporter) RecoverWithCrashReport(component string, extra map[string]string) {
	if err := recover(); err != nil {
		report := &CrashReport{
			Timestamp:    time.Now(),
			ErrorMessage: fmt.Sprintf("%v", err),
			StackTrace:   string(debug.Stack()),
			Component:    component,
			Goroutine:    goroutineID(),
			Extra:        extra,
		}
		path := r.write(report)
		fmt.Fprintf(os.Stderr, "CRASH in %s: %v\nCrash report written to: %s\n",
			component, err, path)
	}
}

func (r *Reporter) write(report *CrashReport) string {
	name := fmt.Sprintf("crash_%s_%s.txt",
		report.Component, report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(r.reportsDir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "Time: %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Component: %s\n", report.Component)
	fmt.Fprintf(&b, "Goroutine: %s\n", report.Goroutine)
	fmt.Fprintf(&b, "Error: %s\n", report.ErrorMessage)
	for k, v := range report.Extra {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	fmt.Fprintf(&b, "\nStack:\n%s\n", report.StackTrace)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write crash report: %v\n", err)
	}
	return path
}

func goroutineID() string {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	fields := strings.Fields(string(buf))
	if len(fields) >= 2 {
		return fields[1]
	}
	return "unknown"
}
