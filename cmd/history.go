package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/cli"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/store"
	"github.com/theirongolddev/ccpace/internal/usage"
)

var (
	flagHistoryLimit int
	flagHistoryPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded usage readings",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of readings to show")
	historyCmd.Flags().DurationVar(&flagHistoryPrune, "prune", 0, "Delete readings older than this (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	db, err := store.Open(config.DBPath(appCfg))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	if flagHistoryPrune > 0 {
		n, err := db.PruneSnapshots(ctx, time.Now().Add(-flagHistoryPrune))
		if err != nil {
			return err
		}
		fmt.Printf("  Pruned %d readings older than %s\n", n, flagHistoryPrune)
		return nil
	}

	recs, err := db.RecentSnapshots(ctx, flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("\n  No readings recorded yet. Run `ccpace` or `ccpace daemon` first.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		s := r.Snapshot
		rows = append(rows, []string{
			s.FetchedAt.Local().Format("Jan 2 3:04 PM"),
			usage.FormatPercent(s.Session.UsedPercent),
			r.SessionPacing,
			usage.FormatPercent(s.AllModels.UsedPercent),
			r.WeeklyPacing,
			usage.FormatPercent(s.Sonnet.UsedPercent),
			cli.FormatAgo(s.FetchedAt, now),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Usage History",
		Headers: []string{"Time", "Session", "Pacing", "Weekly", "Pacing", "Sonnet", "Age"},
		Rows:    rows,
	}))
	return nil
}
