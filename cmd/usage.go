package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/cli"
	"github.com/theirongolddev/ccpace/internal/usage"
)

var flagUsageMarkdown bool

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show usage windows with pacing (default command)",
	RunE:  runUsage,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, usageCmd} {
		c.Flags().BoolVar(&flagUsageMarkdown, "markdown", false, "Print the detail view as markdown")
	}
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	progress("Reading usage...")
	snap, err := fetchSnapshot(cmd.Context(), appCfg, flagInteractive)
	if err != nil {
		snap.Err = friendlyError(err).Error()
	}

	d := usage.BuildDetail(snap, time.Now())
	if flagUsageMarkdown {
		fmt.Println(d.Markdown())
		return nil
	}
	fmt.Println()
	fmt.Print(cli.RenderDetail(d))
	fmt.Println()
	return nil
}
