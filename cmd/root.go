// Package cmd implements the ccpace CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/applog"
	"github.com/theirongolddev/ccpace/internal/claudeai"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/kvstore"
	"github.com/theirongolddev/ccpace/internal/registry"
	"github.com/theirongolddev/ccpace/internal/store"
	"github.com/theirongolddev/ccpace/internal/usage"
)

var (
	flagConfig      string
	flagDataDir     string
	flagSource      string
	flagPageText    string
	flagQuiet       bool
	flagInteractive bool
	flagLogLevel    string
)

// appCfg is the loaded config with flag overrides applied.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "ccpace",
	Short: "Claude usage pacing",
	Long: "Show Claude subscription usage windows with pacing judgments, summarize\n" +
		"local Claude Code activity and launch claude-built tools.",
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	RunE:              runUsage,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Claude data directory (default ~/.claude)")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "Usage source: safari, api or text")
	rootCmd.PersistentFlags().StringVar(&flagPageText, "page-text", "", "Page text file for --source text (\"-\" reads stdin)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagInteractive, "interactive", "i", false, "Allow opening the usage page to read it")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadRuntime loads config, applies flag overrides and sets up logging.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if flagDataDir != "" {
		cfg.General.ClaudeDir = flagDataDir
	}
	if flagSource != "" {
		cfg.Usage.Source = flagSource
	}
	if flagPageText != "" {
		cfg.Usage.PageTextFile = flagPageText
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	appCfg = cfg

	// The daemon sets up its own file logging.
	if cmd == daemonCmd {
		return nil
	}
	if _, _, err := applog.Init(applog.InitConfig{LogLevel: cfg.Log.Level, Writer: os.Stderr}); err != nil {
		return err
	}
	return nil
}

// progress prints a status line to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

// newUsageSource builds the configured usage source.
func newUsageSource(cfg config.Config) (usage.TextSource, error) {
	switch cfg.Usage.Source {
	case config.SourceAPI:
		var opts []claudeai.Option
		if cfg.ClaudeAI.BaseURL != "" {
			opts = append(opts, claudeai.WithBaseURL(cfg.ClaudeAI.BaseURL))
		}
		return usage.NewAPISource(config.GetSessionKey(cfg), opts...)
	case config.SourceText:
		path := cfg.Usage.PageTextFile
		if path == "" {
			path = "-"
		}
		return &usage.PageTextSource{Path: path}, nil
	default:
		return usage.NewSafariSource(cfg.ScriptTimeout()), nil
	}
}

// fetchSnapshot reads usage once and records it in the history store. The
// returned snapshot is always renderable.
func fetchSnapshot(ctx context.Context, cfg config.Config, interactive bool) (usage.Snapshot, error) {
	src, err := newUsageSource(cfg)
	if err != nil {
		return usage.Empty(err.Error()), err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ScriptTimeout()*2)
	defer cancel()

	snap, err := src.Fetch(ctx, interactive)
	if snap.HasData() {
		recordSnapshot(ctx, cfg, snap)
	}
	return snap, err
}

func recordSnapshot(ctx context.Context, cfg config.Config, snap usage.Snapshot) {
	db, err := store.Open(config.DBPath(cfg))
	if err != nil {
		slog.Debug("history unavailable", "err", err)
		return
	}
	defer func() { _ = db.Close() }()

	rec := store.SnapshotRecord{
		Snapshot:      snap,
		SessionPacing: snap.SessionPacing(),
		WeeklyPacing:  snap.AllModels.Pacing(snap.FetchedAt),
	}
	if _, err := db.InsertSnapshot(ctx, rec); err != nil {
		slog.Debug("recording snapshot failed", "err", err)
	}
}

// openRegistryState opens the launcher state in the configured backend.
func openRegistryState(cfg config.Config) (*registry.State, io.Closer, error) {
	if cfg.Registry.StateBackend == config.BackendJSON {
		kv := kvstore.NewFile(filepath.Join(config.DataDir(cfg), "registry-state.json"))
		return registry.NewState(kv), nopCloser{}, nil
	}
	db, err := store.Open(config.DBPath(cfg))
	if err != nil {
		return nil, nil, err
	}
	return registry.NewState(db.Bucket("registry")), db, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// friendlyError maps known failures to actionable messages.
func friendlyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, claudeai.ErrUnauthorized):
		return errors.New("session key expired or invalid; grab a fresh one from claude.ai cookies")
	case errors.Is(err, claudeai.ErrRateLimited):
		return errors.New("rate limited by claude.ai; try again in a minute")
	case errors.Is(err, registry.ErrNotFound):
		return fmt.Errorf("%w (looked in %s)", err, registry.Dir(appCfg.General.PAIDir))
	}
	return err
}
