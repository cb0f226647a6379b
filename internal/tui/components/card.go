// Package components provides reusable widgets for the ccpace dashboard.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ccpace/internal/tui/theme"
)

// LayoutRow divides total columns among n cards so the widths add up to
// total; the first total%n cards are one column wider.
func LayoutRow(total, n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = total / n
		if i < total%n {
			widths[i]++
		}
	}
	return widths
}

// Metric is one figure shown in a metric card.
type Metric struct {
	Label string
	Value string
	Note  string
}

func card(outer int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Active.Border).
		Width(max(outer-2, 10)).
		Padding(0, 1)
}

func styled(c lipgloss.Color, bold bool) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(bold)
}

// MetricCard renders a label over a bold value, with an optional dim note.
// outer includes the border.
func MetricCard(m Metric, outer int) string {
	t := theme.Active
	lines := []string{
		styled(t.TextMuted, false).Render(m.Label),
		styled(t.TextPrimary, true).Render(m.Value),
	}
	if m.Note != "" {
		lines = append(lines, styled(t.TextDim, false).Render(m.Note))
	}
	return card(outer).Render(strings.Join(lines, "\n"))
}

// MetricRow lays metric cards side by side across total columns.
func MetricRow(metrics []Metric, total int) string {
	if len(metrics) == 0 {
		return ""
	}
	widths := LayoutRow(total, len(metrics))
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		cards[i] = MetricCard(m, widths[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// ContentCard renders body in a bordered card under an optional title.
func ContentCard(title, body string, outer int) string {
	if title != "" {
		body = styled(theme.Active.TextMuted, true).Render(title) + "\n" + body
	}
	return card(outer).Render(body)
}

// CardInnerWidth is the text width left inside a ContentCard.
func CardInnerWidth(outer int) int {
	return max(outer-4, 10)
}
