package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/cli"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/source"
	"github.com/theirongolddev/ccpace/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose the usage source, session key and theme",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	dir := config.ClaudeDir(appCfg)
	files, err := source.ScanDir(dir)
	switch {
	case err != nil:
		fmt.Printf("\n  No Claude Code data in %s yet; the daily summary will be empty.\n\n", dir)
	case len(files) > 0:
		fmt.Printf("\n  %s sessions across %d projects in %s\n\n",
			cli.FormatNumber(int64(len(files))), source.CountProjects(files), dir)
	}

	cfg, err := tui.RunSetup(appCfg)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Setup cancelled; nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n  Usage source: %s, theme: %s\n", cfg.Usage.Source, cfg.Appearance.Theme)
	fmt.Printf("  Saved to %s (rerun `ccpace setup` to change)\n\n", config.ConfigPath())
	return nil
}
