// Package config loads and saves the ccpace TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/ccpace/internal/notify"
)

// Usage source names.
const (
	SourceSafari = "safari"
	SourceAPI    = "api"
	SourceText   = "text"
)

// Registry state backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds all ccpace configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Usage      UsageConfig      `toml:"usage"`
	ClaudeAI   ClaudeAIConfig   `toml:"claude_ai"`
	Registry   RegistryConfig   `toml:"registry"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds paths shared by every command.
type GeneralConfig struct {
	ClaudeDir string `toml:"claude_dir,omitempty"`
	PAIDir    string `toml:"pai_dir,omitempty"`
	DataDir   string `toml:"data_dir,omitempty"`
}

// UsageConfig selects where usage numbers come from.
type UsageConfig struct {
	Source             string `toml:"source"`
	RefreshIntervalSec int    `toml:"refresh_interval_sec"`
	ScriptTimeoutSec   int    `toml:"script_timeout_sec"`
	// PageTextFile feeds the text source; "-" or empty reads stdin.
	PageTextFile string `toml:"page_text_file,omitempty"`
}

// ClaudeAIConfig holds claude.ai web API settings.
type ClaudeAIConfig struct {
	SessionKey string `toml:"session_key,omitempty"`
	BaseURL    string `toml:"base_url,omitempty"`
}

// RegistryConfig holds launcher state settings.
type RegistryConfig struct {
	StateBackend string `toml:"state_backend"`
}

// DaemonConfig holds background poller settings.
type DaemonConfig struct {
	Addr         string        `toml:"addr"`
	IntervalSec  int           `toml:"interval_sec"`
	EventsBuffer int           `toml:"events_buffer"`
	Notify       notify.Config `toml:"notify"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings. An empty Dir logs to stderr.
type LogConfig struct {
	Level string `toml:"level"`
	Dir   string `toml:"dir,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Usage: UsageConfig{
			Source:             SourceSafari,
			RefreshIntervalSec: 300,
			ScriptTimeoutSec:   60,
		},
		Registry: RegistryConfig{
			StateBackend: BackendSQLite,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSec:  300,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Usage.Source {
	case SourceSafari, SourceAPI, SourceText:
	default:
		return fmt.Errorf("usage.source %q: want safari, api or text", c.Usage.Source)
	}
	switch c.Registry.StateBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("registry.state_backend %q: want json or sqlite", c.Registry.StateBackend)
	}
	if c.Usage.RefreshIntervalSec < 0 || c.Daemon.IntervalSec < 0 || c.Usage.ScriptTimeoutSec < 0 {
		return fmt.Errorf("intervals and timeouts must not be negative")
	}
	return nil
}

// RefreshInterval is the TUI auto-refresh period.
func (c Config) RefreshInterval() time.Duration {
	return seconds(c.Usage.RefreshIntervalSec, 300)
}

// ScriptTimeout bounds one browser script run.
func (c Config) ScriptTimeout() time.Duration {
	return seconds(c.Usage.ScriptTimeoutSec, 60)
}

// DaemonInterval is the daemon poll period.
func (c Config) DaemonInterval() time.Duration {
	return seconds(c.Daemon.IntervalSec, 300)
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccpace")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ccpace")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes cfg to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's config file
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetSessionKey returns the claude.ai session key from env var or config, in
// that order.
func GetSessionKey(cfg Config) string {
	if key := os.Getenv("CLAUDE_SESSION_KEY"); key != "" {
		return key
	}
	return cfg.ClaudeAI.SessionKey
}

// ClaudeDir is the Claude Code data directory, ~/.claude by default.
func ClaudeDir(cfg Config) string {
	if cfg.General.ClaudeDir != "" {
		return expandHome(cfg.General.ClaudeDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// DataDir holds the state database and daemon files.
func DataDir(cfg Config) string {
	if cfg.General.DataDir != "" {
		return expandHome(cfg.General.DataDir)
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccpace")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "ccpace")
}

// DBPath returns the full path to the state database.
func DBPath(cfg Config) string {
	return filepath.Join(DataDir(cfg), "ccpace.db")
}

// LogDir is where the daemon writes its daily log files.
func LogDir(cfg Config) string {
	if cfg.Log.Dir != "" {
		return expandHome(cfg.Log.Dir)
	}
	return filepath.Join(DataDir(cfg), "logs")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
