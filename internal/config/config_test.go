package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Usage.Source != SourceSafari {
		t.Errorf("Usage.Source = %q, want %q", cfg.Usage.Source, SourceSafari)
	}
	if cfg.Daemon.Addr != "127.0.0.1:8787" {
		t.Errorf("Daemon.Addr = %q", cfg.Daemon.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Usage.Source = SourceAPI
	cfg.ClaudeAI.SessionKey = "sk-ant-sid01-abc"
	cfg.Daemon.Notify.Enabled = true
	cfg.Daemon.Notify.NtfyURL = "https://ntfy.sh/pace"

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Usage.Source != SourceAPI || got.ClaudeAI.SessionKey != "sk-ant-sid01-abc" {
		t.Errorf("round trip = %+v", got)
	}
	if !got.Daemon.Notify.Enabled || got.Daemon.Notify.NtfyURL != "https://ntfy.sh/pace" {
		t.Errorf("Daemon.Notify = %+v", got.Daemon.Notify)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[usage]\nsource = \"text\"\n\n[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Usage.Source != SourceText || cfg.Log.Level != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Usage.RefreshIntervalSec != 300 || cfg.Appearance.Theme != "flexoki-dark" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[usage\nsource="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Usage.Source = "firefox"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown source should not validate")
	}
	cfg = DefaultConfig()
	cfg.Registry.StateBackend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend should not validate")
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Usage.RefreshIntervalSec = 0
	cfg.Daemon.IntervalSec = 30
	if cfg.RefreshInterval() != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want fallback 5m", cfg.RefreshInterval())
	}
	if cfg.DaemonInterval() != 30*time.Second {
		t.Errorf("DaemonInterval = %v, want 30s", cfg.DaemonInterval())
	}
	if cfg.ScriptTimeout() != time.Minute {
		t.Errorf("ScriptTimeout = %v, want 1m", cfg.ScriptTimeout())
	}
}

func TestGetSessionKey_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClaudeAI.SessionKey = "from-config"

	t.Setenv("CLAUDE_SESSION_KEY", "")
	if got := GetSessionKey(cfg); got != "from-config" {
		t.Errorf("GetSessionKey = %q, want from-config", got)
	}
	t.Setenv("CLAUDE_SESSION_KEY", "from-env")
	if got := GetSessionKey(cfg); got != "from-env" {
		t.Errorf("GetSessionKey = %q, want from-env", got)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	cfg := DefaultConfig()

	if got := ConfigPath(); got != "/xdg/config/ccpace/config.toml" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := DBPath(cfg); got != "/xdg/data/ccpace/ccpace.db" {
		t.Errorf("DBPath = %q", got)
	}
	if got := LogDir(cfg); got != "/xdg/data/ccpace/logs" {
		t.Errorf("LogDir = %q", got)
	}

	cfg.General.DataDir = "/srv/pace"
	cfg.General.ClaudeDir = "/opt/claude"
	if got := DBPath(cfg); got != "/srv/pace/ccpace.db" {
		t.Errorf("DBPath = %q", got)
	}
	if got := ClaudeDir(cfg); got != "/opt/claude" {
		t.Errorf("ClaudeDir = %q", got)
	}
}

func TestDetectPlan(t *testing.T) {
	home := t.TempDir()
	claudeDir := filepath.Join(home, ".claude")
	if err := os.Mkdir(claudeDir, 0o750); err != nil {
		t.Fatal(err)
	}

	if got := DetectPlan(claudeDir); got.Name != "Unknown" {
		t.Errorf("no file: Name = %q, want Unknown", got.Name)
	}

	data := []byte(`{"billingType":"stripe_subscription"}`)
	if err := os.WriteFile(filepath.Join(home, ".claude.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	got := DetectPlan(claudeDir)
	if got.Name != "Max" || got.BillingType != "stripe_subscription" {
		t.Errorf("DetectPlan = %+v, want Max", got)
	}
}
