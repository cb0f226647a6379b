package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ccpace/internal/tui/theme"
)

// RenderStatusBar renders the bottom bar: key hints on the left, right text
// flush right.
func RenderStatusBar(width int, hints, right string) string {
	t := theme.Active
	left := " " + hints
	if right != "" {
		right += " "
	}
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return lipgloss.NewStyle().Foreground(t.TextMuted).Width(width).
		Render(left + strings.Repeat(" ", gap) + right)
}

// Tab is one view in the tab bar.
type Tab struct {
	Name string
	Key  string
}

// RenderTabBar renders tabs with the active one highlighted and the
// others showing their shortcut.
func RenderTabBar(tabs []Tab, active int) string {
	t := theme.Active
	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	parts := make([]string, len(tabs))
	for i, tab := range tabs {
		if i == active {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}
		parts[i] = inactiveStyle.Render(tab.Name) + keyStyle.Render("["+tab.Key+"]")
	}
	return " " + strings.Join(parts, "  ")
}
