package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ccpace/internal/tui/theme"
)

// ColorForPct returns green/yellow/orange/red based on how much of a window
// is used.
func ColorForPct(pct float64) string {
	t := theme.Active
	switch {
	case pct >= 0.9:
		return string(t.Danger)
	case pct >= 0.7:
		return string(t.Warn)
	case pct >= 0.5:
		return string(t.Caution)
	default:
		return string(t.Ok)
	}
}

func fraction(used *int) float64 {
	if used == nil {
		return 0
	}
	return min(max(float64(*used)/100, 0), 1)
}

// UsageBar renders a labeled window bar with used percent and reset text.
// A nil used renders an empty bar with "--".
func UsageBar(label string, used *int, reset string, labelW, barWidth int) string {
	t := theme.Active
	pct := fraction(used)

	bar := progress.New(
		progress.WithSolidFill(ColorForPct(pct)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorForPct(pct))).Bold(true)
	resetStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	pctStr := " --"
	if used != nil {
		pctStr = fmt.Sprintf("%3d%%", *used)
	}

	out := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + " " +
		bar.ViewAs(pct) + " " +
		pctStyle.Render(pctStr)
	if reset != "" {
		out += "  " + resetStyle.Render(reset)
	}
	return out
}

// CompactUsageBar renders a status-bar-sized window indicator.
func CompactUsageBar(label string, used *int, width int) string {
	t := theme.Active
	pct := fraction(used)

	barW := max(width-lipgloss.Width(label)-6, 4)
	bar := progress.New(
		progress.WithSolidFill(ColorForPct(pct)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorForPct(pct))).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	pctStr := "--"
	if used != nil {
		pctStr = fmt.Sprintf("%2d%%", *used)
	}
	return labelStyle.Render(label) + " " + bar.ViewAs(pct) + " " + pctStyle.Render(pctStr)
}
