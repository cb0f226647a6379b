package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/activity"
	"github.com/theirongolddev/ccpace/internal/cli"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/shell"
)

var (
	flagSummaryRange    string
	flagSummaryCopy     bool
	flagSummaryMarkdown bool
	flagSummaryNoGit    bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize local Claude Code activity",
	Long: "Summarize prompts, projects, files and tools from the session logs under the\n" +
		"Claude data directory for today, yesterday, the past week or the past month.",
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&flagSummaryRange, "range", "r", "today", "today, yesterday, week or month")
	summaryCmd.Flags().BoolVarP(&flagSummaryCopy, "copy", "c", false, "Copy a standup note to the clipboard")
	summaryCmd.Flags().BoolVar(&flagSummaryMarkdown, "markdown", false, "Print the full summary as markdown")
	summaryCmd.Flags().BoolVar(&flagSummaryNoGit, "no-git", false, "Skip git remote lookups")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	r, err := activity.ParseRange(flagSummaryRange)
	if err != nil {
		return err
	}

	var git activity.GitChecker = activity.ExecGit{Runner: shell.Exec{}}
	if flagSummaryNoGit {
		git = activity.NoGit{}
	}

	claudeDir := config.ClaudeDir(appCfg)
	progress("Scanning sessions in %s...", claudeDir)
	now := time.Now()
	s := activity.Scan(cmd.Context(), claudeDir, r, now, git)

	if flagSummaryCopy {
		if err := clipboard.WriteAll(activity.StandupText(s)); err != nil {
			return fmt.Errorf("copying standup note: %w", err)
		}
		progress("Standup note copied to clipboard")
		return nil
	}
	if flagSummaryMarkdown {
		fmt.Print(activity.Markdown(s, now))
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CLAUDE CODE  %s %s", s.Label, activity.ProductivityLevel(s.TotalPrompts, r))))
	fmt.Println()

	if s.Err != "" {
		fmt.Println(cli.RenderWarning(s.Err))
		fmt.Println()
	}
	if len(s.Sessions) == 0 {
		fmt.Printf("  No Claude Code sessions found for %s.\n\n", s.Label)
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Overview",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Prompts", cli.FormatNumber(int64(s.TotalPrompts))},
			{"Sessions", cli.FormatNumber(int64(len(s.Sessions)))},
			{"Projects", cli.FormatNumber(int64(len(s.Projects)))},
			{"Files Created", cli.FormatNumber(int64(s.TotalFilesCreated))},
			{"Files Modified", cli.FormatNumber(int64(s.TotalFilesModified))},
			{"Lines Written", cli.FormatNumber(int64(s.TotalLinesWritten))},
			{"Active Days", cli.FormatNumber(int64(s.UniqueDaysActive))},
		},
	}))

	type projectRow struct {
		prompts int
		files   int
		git     string
		last    time.Time
	}
	rows := make(map[string]*projectRow)
	for _, ss := range s.Sessions {
		pr, ok := rows[ss.Project]
		if !ok {
			pr = &projectRow{git: ss.Git.Label(), last: ss.Timestamp}
			rows[ss.Project] = pr
		}
		pr.prompts += len(ss.UserPrompts)
		pr.files += len(ss.FilesCreated) + len(ss.FilesModified)
	}
	projectRows := make([][]string, 0, len(s.Projects))
	for _, p := range s.Projects {
		pr := rows[p]
		projectRows = append(projectRows, []string{
			p, cli.FormatNumber(int64(pr.prompts)), cli.FormatNumber(int64(pr.files)),
			pr.git, cli.FormatAgo(pr.last, now),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Projects",
		Headers: []string{"Project", "Prompts", "Files", "Git", "Last Active"},
		Rows:    projectRows,
	}))

	if len(s.TopTools) > 0 {
		toolRows := make([][]string, 0, len(s.TopTools))
		for _, tc := range s.TopTools {
			toolRows = append(toolRows, []string{tc.Name, cli.FormatNumber(int64(tc.Count))})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Top Tools",
			Headers: []string{"Tool", "Calls"},
			Rows:    toolRows,
		}))
	}

	if hm := activity.Heatmap(s.ByDay, r, now); hm != "" {
		fmt.Println(indent(stripMarkdown(hm)))
		fmt.Println()
	}
	fmt.Println(indent(stripMarkdown(activity.HourlyChart(s.ByHour))))
	fmt.Printf("  Most productive: %s\n", activity.MostProductiveHour(s.ByHour))
	fmt.Println()
	fmt.Println("  Run `ccpace summary --copy` for a standup note.")
	fmt.Println()
	return nil
}

var markdownMarks = strings.NewReplacer("```\n", "", "\n```", "", "`", "", "*", "")

// stripMarkdown drops the code and emphasis marks from a chart.
func stripMarkdown(s string) string {
	return markdownMarks.Replace(s)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
