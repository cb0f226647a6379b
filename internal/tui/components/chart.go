package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders one block per value scaled to the peak. Zero values
// render as a space so idle hours stay visible.
func Sparkline(values []int, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		if v <= 0 {
			buf.WriteRune(' ')
			continue
		}
		idx := min(v*(len(sparkBlocks)-1)/peak, len(sparkBlocks)-1)
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Render(buf.String())
}

// HourAxis labels a 24-column sparkline every six hours.
func HourAxis() string {
	return "0     6     12    18    "
}
