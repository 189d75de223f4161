// Package runner executes one external command at a time and pumps its
// combined stdout/stderr to a line sink while the process runs.
package runner

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
)

// StartFailure is reported when the process could not be started at all, as
// opposed to starting and exiting non-zero.
const StartFailure = -1

// Result carries the exit code of a finished command. Code is StartFailure
// when the process never started.
type Result struct {
	Code int
	Err  error
}

// Sink receives one output line at a time, without the trailing newline.
type Sink func(line string)

// Run starts name with args in dir, merges stdout and stderr, and feeds every
// line to sink until the process exits. Extra environment entries are
// appended to the current environment. Cancelling ctx kills the process.
func Run(ctx context.Context, dir string, env []string, sink Sink, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return Result{Code: StartFailure, Err: err}
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return Result{Code: StartFailure, Err: err}
	}
	// The child holds its own copy of the write end; close ours so the
	// scanner sees EOF when the process exits.
	pw.Close()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if sink != nil {
			sink(scanner.Text())
		}
	}
	pr.Close()

	err = cmd.Wait()
	if err == nil {
		return Result{Code: 0}
	}

	// A killed process reports exit code -1 through ExitError; check the
	// context first so cancellation is not mistaken for a start failure.
	if ctx.Err() != nil {
		return Result{Code: 1, Err: ctx.Err()}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return Result{Code: exitErr.ExitCode(), Err: err}
	}
	return Result{Code: 1, Err: err}
}
