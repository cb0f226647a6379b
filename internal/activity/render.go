package activity

import (
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	heatCells = []string{"·", "░", "▒", "▓", "█"}
	barCells  = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
)

const (
	clockLayout = "03:04 PM"
	footer      = "*Run `ccpace summary --copy` for a standup note*"
)

// Heatmap renders prompts per day for the week (one line of 7 cells) or
// month (a fenced grid, 7 cells per row). Day ranges render as "".
func Heatmap(byDay map[string]int, r Range, now time.Time) string {
	var days int
	switch r {
	case RangeWeek:
		days = 7
	case RangeMonth:
		days = 30
	default:
		return ""
	}

	maxv := 1
	for _, v := range byDay {
		maxv = max(maxv, v)
	}

	cells := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).Format(DayKeyLayout)
		intensity := int(math.Ceil(float64(byDay[key]) / float64(maxv) * 4))
		cells = append(cells, heatCells[intensity])
	}

	if r == RangeWeek {
		return "`" + strings.Join(cells, "") + "`"
	}
	var rows []string
	for i := 0; i < len(cells); i += 7 {
		rows = append(rows, strings.Join(cells[i:min(i+7, len(cells))], ""))
	}
	return "```\n" + strings.Join(rows, "\n") + "\n```"
}

// HourlyChart renders prompts per hour from 6am to 11pm as a sparkline.
func HourlyChart(byHour [24]int) string {
	maxv := 1
	for _, v := range byHour {
		maxv = max(maxv, v)
	}
	var b strings.Builder
	for h := 6; h <= 23; h++ {
		idx := int(math.Floor(float64(byHour[h])/float64(maxv)*float64(len(barCells)-1) + 0.5))
		b.WriteString(barCells[idx])
	}
	return "`" + b.String() + "`\n*6am → 11pm*"
}

// MostProductiveHour names the earliest hour with the most prompts, like
// "3pm", or "—" when there were none.
func MostProductiveHour(byHour [24]int) string {
	best, bestv := 0, 0
	for h, v := range byHour {
		if v > bestv {
			best, bestv = h, v
		}
	}
	if bestv == 0 {
		return "—"
	}
	period := "am"
	if best >= 12 {
		period = "pm"
	}
	h12 := best % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d%s", h12, period)
}

// Markdown renders the full summary page.
func Markdown(s Summary, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s %s\n", s.Label, ProductivityLevel(s.TotalPrompts, s.Range))
	fmt.Fprintf(&b, "*Generated %s*\n\n", now.Format(clockLayout))

	if s.Err != "" {
		fmt.Fprintf(&b, "> ⚠️ %s\n\n", s.Err)
	}

	if len(s.Sessions) == 0 {
		b.WriteString("---\n\n## No activity\n\n")
		fmt.Fprintf(&b, "No Claude Code sessions found for %s.\n", strings.ToLower(s.Label))
		b.WriteString("---\n\n")
		b.WriteString(footer)
		return b.String()
	}

	b.WriteString("---\n\n## Overview\n\n")
	b.WriteString("| 💬 Prompts | 📁 Projects | 📝 Files Created | ✏️ Files Modified | 📊 Lines Written |\n")
	b.WriteString("|:----------:|:-----------:|:----------------:|:-----------------:|:----------------:|\n")
	fmt.Fprintf(&b, "| **%d** | **%d** | **%d** | **%d** | **%s** |\n\n",
		s.TotalPrompts, len(s.Projects), s.TotalFilesCreated, s.TotalFilesModified,
		humanize.Comma(int64(s.TotalLinesWritten)))

	if s.Range == RangeWeek || s.Range == RangeMonth {
		b.WriteString("### Activity\n")
		b.WriteString(Heatmap(s.ByDay, s.Range, now))
		plural := "s"
		if s.UniqueDaysActive == 1 {
			plural = ""
		}
		fmt.Fprintf(&b, "\n*%d active day%s*\n\n", s.UniqueDaysActive, plural)
	}

	if s.TotalPrompts > 5 {
		b.WriteString("### Peak Hours\n")
		b.WriteString(HourlyChart(s.ByHour))
		fmt.Fprintf(&b, "\n\n**Most productive:** %s\n\n", MostProductiveHour(s.ByHour))
	}

	if len(s.TopTools) > 0 {
		b.WriteString("### Tools Used\n")
		top := s.TopTools[0].Count
		for _, t := range s.TopTools {
			bar := strings.Repeat("█", int(math.Ceil(float64(t.Count)/float64(top)*10)))
			fmt.Fprintf(&b, "`%-12s` %s %d\n", t.Name, bar, t.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n## Sessions\n\n")
	for _, g := range groupByProject(s.Sessions) {
		latest := g.sessions[0]
		if sym := latest.Git.Symbol(); sym != "" {
			fmt.Fprintf(&b, "### %s %s\n", sym, g.name)
		} else {
			fmt.Fprintf(&b, "### %s\n", g.name)
		}
		fmt.Fprintf(&b, "📁 `%s`\n", latest.ProjectPath)
		fmt.Fprintf(&b, "*%d prompts · Last active %s*\n\n",
			g.prompts(), latest.Timestamp.In(now.Location()).Format(clockLayout))

		if prompts := latest.UserPrompts[:min(3, len(latest.UserPrompts))]; len(prompts) > 0 {
			b.WriteString("**Recent prompts:**\n")
			for _, p := range prompts {
				fmt.Fprintf(&b, "- \"%s\"\n", truncate(p, 100))
			}
			b.WriteString("\n")
		}

		var created, modified []string
		for _, ss := range g.sessions {
			created = append(created, ss.FilesCreated...)
			modified = append(modified, ss.FilesModified...)
		}
		writeFiles(&b, "Created", unique(created))
		writeFiles(&b, "Modified", unique(modified))
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(footer)
	return b.String()
}

func writeFiles(b *strings.Builder, label string, files []string) {
	if len(files) == 0 {
		return
	}
	names := make([]string, 0, 4)
	for _, f := range files[:min(4, len(files))] {
		names = append(names, "`"+path.Base(f)+"`")
	}
	fmt.Fprintf(b, "**%s:** %s", label, strings.Join(names, ", "))
	if len(files) > 4 {
		fmt.Fprintf(b, " +%d more", len(files)-4)
	}
	b.WriteString("\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// StandupText renders a short plain summary for pasting into a standup.
func StandupText(s Summary) string {
	if len(s.Sessions) == 0 {
		return fmt.Sprintf("No Claude Code activity for %s.", strings.ToLower(s.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Claude Code Summary - %s\n\n", s.Label)
	fmt.Fprintf(&b, "**Stats:** %d prompts across %d project(s)\n\n", s.TotalPrompts, len(s.Projects))

	if len(s.Projects) > 0 {
		b.WriteString("**Projects:**\n")
		counts := make(map[string]int)
		for _, ss := range s.Sessions {
			counts[ss.Project] += len(ss.UserPrompts)
		}
		for _, p := range s.Projects {
			fmt.Fprintf(&b, "- %s (%d prompts)\n", p, counts[p])
		}
		b.WriteString("\n")
	}

	if s.TotalFilesCreated > 0 || s.TotalFilesModified > 0 {
		fmt.Fprintf(&b, "**Files:** %d created, %d modified\n", s.TotalFilesCreated, s.TotalFilesModified)
	}
	return b.String()
}
