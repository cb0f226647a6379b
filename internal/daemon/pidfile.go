package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// RuntimeState is written next to the pid file while the daemon runs.
type RuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
	LogDir    string    `json:"log_dir,omitempty"`
}

// ErrAlreadyRunning means a live process owns the pid file.
var ErrAlreadyRunning = errors.New("daemon: already running")

// PIDFile tracks the daemon process. The runtime state lives at Path+".json".
type PIDFile struct {
	Path string

	// Alive reports whether pid is a live process. Nil uses signal 0.
	Alive func(pid int) bool
}

func (p PIDFile) statePath() string { return p.Path + ".json" }

func (p PIDFile) alive(pid int) bool {
	if p.Alive != nil {
		return p.Alive(pid)
	}
	return ProcessAlive(pid)
}

// Read returns the recorded pid.
func (p PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon: invalid pid in %s", p.Path)
	}
	return pid, nil
}

// Running returns the pid of a live daemon, or 0.
func (p PIDFile) Running() int {
	pid, err := p.Read()
	if err != nil || !p.alive(pid) {
		return 0
	}
	return pid
}

// Claim clears a stale pid file and fails with ErrAlreadyRunning when the
// recorded process is still alive.
func (p PIDFile) Claim() error {
	pid, err := p.Read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case p.alive(pid):
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	p.Remove()
	return nil
}

// Write records pid and the runtime state.
func (p PIDFile) Write(st RuntimeState) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o750); err != nil {
		return fmt.Errorf("daemon: creating %s: %w", filepath.Dir(p.Path), err)
	}
	if err := os.WriteFile(p.Path, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("daemon: writing pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
}

// State reads the runtime state written by Write.
func (p PIDFile) State() (RuntimeState, error) {
	var st RuntimeState
	data, err := os.ReadFile(p.statePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// Remove deletes the pid and state files.
func (p PIDFile) Remove() {
	_ = os.Remove(p.Path)
	_ = os.Remove(p.statePath())
}

// Stop sends SIGTERM and waits up to timeout for the process to exit.
func (p PIDFile) Stop(timeout time.Duration) (int, error) {
	pid, err := p.Read()
	if err != nil {
		return 0, errors.New("daemon: not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("daemon: finding process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("daemon: signalling %d: %w", pid, err)
	}
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !p.alive(pid) {
			p.Remove()
			return pid, nil
		}
	}
	return pid, fmt.Errorf("daemon: pid %d did not exit within %s", pid, timeout)
}

// ProcessAlive probes pid with signal 0. EPERM still means alive.
func ProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
