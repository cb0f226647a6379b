package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ccpace/internal/pacing"
	"github.com/theirongolddev/ccpace/internal/usage"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// StatusColor maps a pacing band to its color.
func StatusColor(s pacing.Status) lipgloss.Color {
	switch s {
	case pacing.StatusFarAhead, pacing.StatusAhead:
		return ColorGreen
	case pacing.StatusOnPace:
		return ColorText
	case pacing.StatusBehind:
		return ColorOrange
	}
	return ColorRed
}

// UsageColor maps a used percent to green, yellow or red.
func UsageColor(pct int) lipgloss.Color {
	switch {
	case pct >= 90:
		return ColorRed
	case pct >= 70:
		return ColorYellow
	}
	return ColorGreen
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderWarning renders an error banner line.
func RenderWarning(msg string) string {
	return warnStyle.Render("  ⚠ " + msg)
}

// pad fills s with spaces to display width w, on the right or left.
func pad(s string, w int, right bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// RenderTable renders a bordered table with headers and rows. Widths are
// measured in terminal cells, so block glyphs and emoji line up.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	rule := func(left, mid, right string) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
		return b.String()
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(rule("╭", "┬", "╮"))

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + pad(h, widths[i], false) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		b.WriteString(rule("├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			// First column left-aligned, the rest right-aligned.
			b.WriteString(valueStyle.Render(" " + pad(cell, widths[i], i > 0) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

// RenderUsageBar renders a used-percent bar of the given width, colored by
// how much of the window is gone.
func RenderUsageBar(pct *int, width int) string {
	if pct == nil {
		return dimStyle.Render(strings.Repeat("·", width))
	}
	p := min(max(*pct, 0), 100)
	filled := p * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(UsageColor(p)).Render(bar)
}

// RenderTimeline renders one pacing timeline for the terminal.
func RenderTimeline(t pacing.Timeline) string {
	label := headerStyle.Render(t.Label)
	if t.NoData {
		return label + "  " + mutedStyle.Render("No data")
	}
	status := lipgloss.NewStyle().Foreground(StatusColor(t.Status))
	return fmt.Sprintf("%s %s\n  %s\n  %s",
		label, t.Status.Icon(),
		status.Render(t.Bar),
		mutedStyle.Render(t.Detail()),
	)
}

// RenderDetail renders the full usage detail view for the terminal.
func RenderDetail(d usage.Detail) string {
	var b strings.Builder
	b.WriteString(RenderTitle(d.Now.Format("03:04 PM") + "  ·  " + d.Now.Format("Mon, Jan 2")))
	b.WriteString("\n")
	if d.Err != "" {
		b.WriteString(RenderWarning(d.Err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, t := range []pacing.Timeline{d.Session, d.AllModels, d.Sonnet} {
		b.WriteString(RenderTimeline(t))
		b.WriteString("\n\n")
	}
	b.WriteString("  ")
	b.WriteString(valueStyle.Render(d.Calendar))
	b.WriteString("\n  ")
	b.WriteString(dimStyle.Render("[today] → (reset)"))
	b.WriteString("\n\n  ")
	updated := "never"
	if !d.Updated.IsZero() {
		updated = d.Updated.Format("3:04:05 PM")
	}
	b.WriteString(mutedStyle.Render("Updated " + updated))
	b.WriteString("\n")
	return b.String()
}
