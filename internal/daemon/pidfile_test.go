package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPIDFileWriteAndState(t *testing.T) {
	p := PIDFile{Path: filepath.Join(t.TempDir(), "run", "ccpaced.pid")}
	started := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	if err := p.Write(RuntimeState{PID: 4242, Addr: "127.0.0.1:8787", StartedAt: started, Source: "api"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	pid, err := p.Read()
	if err != nil || pid != 4242 {
		t.Fatalf("Read = %d, %v, want 4242", pid, err)
	}
	st, err := p.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Addr != "127.0.0.1:8787" || !st.StartedAt.Equal(started) || st.Source != "api" {
		t.Errorf("State = %+v", st)
	}

	p.Remove()
	if _, err := os.Stat(p.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("pid file still present: %v", err)
	}
	if _, err := p.State(); err == nil {
		t.Error("state file still present")
	}
}

func TestPIDFileClaim(t *testing.T) {
	dir := t.TempDir()
	alive := map[int]bool{7: true}
	p := PIDFile{Path: filepath.Join(dir, "d.pid"), Alive: func(pid int) bool { return alive[pid] }}

	if err := p.Claim(); err != nil {
		t.Fatalf("Claim with no file: %v", err)
	}

	if err := p.Write(RuntimeState{PID: 7}); err != nil {
		t.Fatal(err)
	}
	if err := p.Claim(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Claim over live pid = %v, want ErrAlreadyRunning", err)
	}
	if got := p.Running(); got != 7 {
		t.Errorf("Running = %d, want 7", got)
	}

	alive[7] = false
	if err := p.Claim(); err != nil {
		t.Fatalf("Claim over stale pid: %v", err)
	}
	if _, err := os.Stat(p.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale pid file not removed")
	}
	if got := p.Running(); got != 0 {
		t.Errorf("Running = %d, want 0", got)
	}
}

func TestPIDFileReadRejectsGarbage(t *testing.T) {
	p := PIDFile{Path: filepath.Join(t.TempDir(), "d.pid")}
	if err := os.WriteFile(p.Path, []byte("nope\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Read(); err == nil {
		t.Error("Read accepted a non-numeric pid")
	}
}

func TestProcessAliveSelf(t *testing.T) {
	if !ProcessAlive(os.Getpid()) {
		t.Error("ProcessAlive(self) = false")
	}
}
