// Package shell runs external commands (osascript, open, git) behind a small
// interface so callers can be tested without touching the host.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its captured stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError carries the stderr of a failed command.
type ExitError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, msg)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exec runs commands on the host via os/exec.
type Exec struct {
	// Dir, when set, is the working directory for every command.
	Dir string
}

// Run implements Runner.
func (x Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = x.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &ExitError{Name: name, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

// Osascript runs an AppleScript source through osascript.
func Osascript(ctx context.Context, r Runner, script string) (string, error) {
	out, err := r.Run(ctx, "osascript", "-e", script)
	return strings.TrimSpace(string(out)), err
}

// Recorder is a Runner that records invocations and replays canned output.
// It is meant for tests in packages that shell out.
type Recorder struct {
	Calls  [][]string
	Output map[string]string
	Errors map[string]error
}

// Run implements Runner. Output and Errors are keyed by command name.
func (r *Recorder) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.Calls = append(r.Calls, append([]string{name}, args...))
	return []byte(r.Output[name]), r.Errors[name]
}
