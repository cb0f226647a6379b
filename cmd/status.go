package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/claudeai"
	"github.com/theirongolddev/ccpace/internal/cli"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/pacing"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show claude.ai subscription rate limits with pacing",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

const sessionKeyHelp = `
  No claude.ai session key configured.

  Copy the sessionKey cookie (sk-ant-sid...) from claude.ai via the
  browser's developer tools, then either:
    ccpace setup                                    save it to the config
    CLAUDE_SESSION_KEY=sk-ant-sid... ccpace status   use it once
`

func runStatus(cmd *cobra.Command, _ []string) error {
	key := config.GetSessionKey(appCfg)
	if key == "" {
		fmt.Print(sessionKeyHelp)
		return nil
	}

	var opts []claudeai.Option
	if appCfg.ClaudeAI.BaseURL != "" {
		opts = append(opts, claudeai.WithBaseURL(appCfg.ClaudeAI.BaseURL))
	}
	client := claudeai.NewClient(key, opts...)
	if client == nil {
		return fmt.Errorf("session key %s does not look like sk-ant-sid...", maskKey(key))
	}

	progress("Fetching rate limits...")
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	data := client.FetchAll(ctx)
	switch {
	case errors.Is(data.Error, claudeai.ErrUnauthorized), errors.Is(data.Error, claudeai.ErrRateLimited):
		return friendlyError(data.Error)
	case data.Error != nil && data.Usage == nil && data.Overage == nil:
		return fmt.Errorf("fetch failed: %w", data.Error)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CLAUDE.AI STATUS"))
	fmt.Println()
	if data.Org.UUID != "" {
		fmt.Printf("  Organization: %s\n", data.Org.Name)
		if caps := data.Org.Capabilities; len(caps) > 0 {
			fmt.Printf("  Capabilities: %s\n", strings.Join(caps, ", "))
		}
	}
	fmt.Printf("  Plan:         %s\n\n", config.DetectPlan(config.ClaudeDir(appCfg)).Name)

	if rows := rateLimitRows(data.Usage, time.Now()); len(rows) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Rate Limits",
			Headers: []string{"Window", "Used", "Bar", "Resets", "Pacing"},
			Rows:    rows,
		}))
	}
	if data.Overage != nil {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Overage Spend",
			Headers: []string{"Setting", "Value"},
			Rows:    overageRows(data.Overage),
		}))
	}

	if data.Error != nil {
		fmt.Printf("  %s\n\n", cli.RenderWarning("Partial data: "+data.Error.Error()))
	}
	fmt.Printf("  Fetched at %s\n\n", data.FetchedAt.Format("3:04:05 PM"))
	return nil
}

func rateLimitRows(u *claudeai.ParsedUsage, now time.Time) [][]string {
	if u == nil {
		return nil
	}
	windows := []struct {
		label string
		w     *claudeai.ParsedWindow
		total pacing.Window
	}{
		{"5-hour window", u.FiveHour, pacing.SessionWindow},
		{"7-day (all)", u.SevenDay, pacing.WeeklyWindow},
		{"7-day Opus", u.SevenDayOpus, pacing.WeeklyWindow},
		{"7-day Sonnet", u.SevenDaySonnet, pacing.WeeklyWindow},
	}
	var rows [][]string
	for _, win := range windows {
		if win.w != nil {
			rows = append(rows, rateLimitRow(win.label, win.w, win.total, now))
		}
	}
	return rows
}

// rateLimitRow renders one API window with its pacing judgment. The session
// window is paced in minutes, weekly windows in hours. Utilization outside
// [0, 100] percent gets no pacing.
func rateLimitRow(label string, w *claudeai.ParsedWindow, win pacing.Window, now time.Time) []string {
	pct := w.Percent()
	remaining := w.Remaining(now)

	var resets, pace string
	switch {
	case w.ResetsAt.IsZero():
	case remaining > 0:
		resets = cli.FormatDuration(int64(remaining / time.Second))
	default:
		resets = "now"
	}
	if !w.ResetsAt.IsZero() && pct >= 0 && pct <= 100 {
		left := remaining.Hours()
		if win == pacing.SessionWindow {
			left = remaining.Minutes()
		}
		if res, ok := pacing.Compute(&pct, &left, win); ok {
			pace = pacing.StatusFor(res.Diff).Icon() + " " + res.Label
		}
	}
	return []string{label, fmt.Sprintf("%d%%", pct), cli.RenderUsageBar(&pct, 20), resets, pace}
}

func overageRows(ol *claudeai.OverageLimit) [][]string {
	money := func(v float64) string { return fmt.Sprintf("%.2f %s", v, ol.Currency) }
	state := "disabled"
	if ol.IsEnabled {
		state = "enabled"
	}
	rows := [][]string{
		{"Overage", state},
		{"Used Credits", money(ol.UsedCredits)},
		{"Monthly Limit", money(ol.MonthlyCreditLimit)},
	}
	if ol.IsEnabled && ol.MonthlyCreditLimit > 0 {
		rows = append(rows, []string{"Usage", fmt.Sprintf("%.1f%%", ol.UsedCredits/ol.MonthlyCreditLimit*100)})
	}
	return rows
}
