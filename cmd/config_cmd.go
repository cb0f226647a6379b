package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/registry"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
	}
	fmt.Printf("  Config file: %s\n", path)
	if flagConfig != "" || config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Claude directory:   %s\n", config.ClaudeDir(cfg))
	fmt.Printf("    Registry directory: %s\n", registry.Dir(cfg.General.PAIDir))
	fmt.Printf("    Data directory:     %s\n", config.DataDir(cfg))
	fmt.Printf("    Plan:               %s\n", config.DetectPlan(config.ClaudeDir(cfg)).Name)
	fmt.Println()

	fmt.Println("  [Usage]")
	fmt.Printf("    Source:           %s\n", cfg.Usage.Source)
	fmt.Printf("    Refresh interval: %s\n", cfg.RefreshInterval())
	fmt.Printf("    Script timeout:   %s\n", cfg.ScriptTimeout())
	if cfg.Usage.PageTextFile != "" {
		fmt.Printf("    Page text file:   %s\n", cfg.Usage.PageTextFile)
	}
	fmt.Println()

	fmt.Println("  [Claude.ai]")
	if key := config.GetSessionKey(cfg); key != "" {
		fmt.Printf("    Session key: %s\n", maskKey(key))
	} else {
		fmt.Println("    Session key: not configured")
	}
	if cfg.ClaudeAI.BaseURL != "" {
		fmt.Printf("    Base URL:    %s\n", cfg.ClaudeAI.BaseURL)
	}
	fmt.Println()

	fmt.Println("  [Registry]")
	fmt.Printf("    State backend: %s\n", cfg.Registry.StateBackend)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  http://%s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.DaemonInterval())
	fmt.Printf("    Notify:   %v\n", cfg.Daemon.Notify.Enabled)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Printf("    Dir:   %s\n", config.LogDir(cfg))
	fmt.Println()

	fmt.Println("  Run `ccpace setup` to reconfigure.")
	return nil
}

// maskKey keeps enough of a session key to recognize it.
func maskKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
