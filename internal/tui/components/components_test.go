package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/ccpace/internal/tui/theme"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func intp(v int) *int { return &v }

func TestLayoutRowSumsToWidth(t *testing.T) {
	for _, tc := range []struct{ w, n int }{{80, 3}, {81, 4}, {10, 1}, {7, 7}} {
		got := LayoutRow(tc.w, tc.n)
		sum := 0
		for _, w := range got {
			sum += w
		}
		if sum != tc.w {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tc.w, tc.n, sum)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow(10, 0) should be nil")
	}
}

func TestMetricRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	row := MetricRow([]Metric{
		{Label: "Prompts", Value: "12"},
		{Label: "Files", Value: "3", Note: "2 new"},
	}, 60)
	for _, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 60 {
			t.Fatalf("line width = %d, want 60: %q", w, line)
		}
	}
}

func TestUsageBar(t *testing.T) {
	got := UsageBar("Session", intp(42), "resets in 2h", 10, 20)
	for _, want := range []string{"Session", " 42%", "resets in 2h"} {
		if !strings.Contains(got, want) {
			t.Errorf("UsageBar missing %q: %q", want, got)
		}
	}
	if !strings.Contains(UsageBar("Sonnet", nil, "", 10, 20), " --") {
		t.Error("nil usage should render --")
	}
}

func TestColorForPct(t *testing.T) {
	theme.SetActive("flexoki-dark")
	th := theme.Active
	tests := []struct {
		pct  float64
		want string
	}{
		{0.1, string(th.Ok)},
		{0.5, string(th.Caution)},
		{0.75, string(th.Warn)},
		{0.95, string(th.Danger)},
	}
	for _, tc := range tests {
		if got := ColorForPct(tc.pct); got != tc.want {
			t.Errorf("ColorForPct(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestSparkline(t *testing.T) {
	got := Sparkline([]int{0, 1, 2, 4}, lipgloss.Color("2"))
	if got != " ▂▄█" {
		t.Errorf("Sparkline = %q, want %q", got, " ▂▄█")
	}
	if Sparkline(nil, lipgloss.Color("2")) != "" {
		t.Error("empty Sparkline should be empty")
	}
}

func TestRenderTabBar(t *testing.T) {
	got := RenderTabBar([]Tab{{"Usage", "1"}, {"Today", "2"}}, 0)
	if !strings.Contains(got, "Usage") || !strings.Contains(got, "Today[2]") {
		t.Errorf("RenderTabBar = %q", got)
	}
	if strings.Contains(got, "Usage[1]") {
		t.Error("active tab should not show its key")
	}
}
