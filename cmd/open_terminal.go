package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/registry"
	"github.com/theirongolddev/ccpace/internal/shell"
)

var (
	flagTerminal     string
	flagTerminalList bool
)

var openTerminalCmd = &cobra.Command{
	Use:   "open-terminal [dir]",
	Short: "Open a terminal at a directory (default: the front Finder window)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOpenTerminal,
}

func init() {
	openTerminalCmd.Flags().StringVarP(&flagTerminal, "terminal", "t", "Terminal", "Terminal, Ghostty, iTerm or Warp")
	openTerminalCmd.Flags().BoolVar(&flagTerminalList, "list", false, "List supported terminals")
	rootCmd.AddCommand(openTerminalCmd)
}

func runOpenTerminal(cmd *cobra.Command, args []string) error {
	if flagTerminalList {
		for _, t := range registry.Terminals {
			fmt.Printf("  %-10s %s\n", t.Name, t.Subtitle)
		}
		return nil
	}

	r := shell.Exec{}
	dir := ""
	if len(args) == 1 {
		dir = registry.ExpandPath(args[0])
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("open-terminal: %w", err)
		}
	} else {
		dir = registry.FinderPath(cmd.Context(), r)
	}

	if err := registry.OpenTerminalAt(cmd.Context(), r, flagTerminal, dir); err != nil {
		return err
	}
	progress("Opened %s at %s", flagTerminal, registry.ShortPath(dir))
	return nil
}
