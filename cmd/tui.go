package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/activity"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/registry"
	"github.com/theirongolddev/ccpace/internal/shell"
	"github.com/theirongolddev/ccpace/internal/tui"
	"github.com/theirongolddev/ccpace/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive usage dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	profile := termenv.NewOutput(os.Stdout).EnvColorProfile()
	lipgloss.SetColorProfile(profile)
	theme.Active = theme.Resolve(appCfg.Appearance.Theme, profile)

	src, err := newUsageSource(appCfg)
	if err != nil {
		return friendlyError(err)
	}

	state, closer, err := openRegistryState(appCfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	r := shell.Exec{}
	app := tui.NewApp(tui.Options{
		Config:      appCfg,
		Source:      src,
		Runner:      r,
		Git:         activity.ExecGit{Runner: r},
		Registry:    registry.NewExecutor(state, nil),
		RegistryDir: registry.Dir(appCfg.General.PAIDir),
		NeedSetup:   !config.Exists() && flagConfig == "",
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
