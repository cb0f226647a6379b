package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ccpace/internal/pacing"
	"github.com/theirongolddev/ccpace/internal/usage"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0s"},
		{45, "45s"},
		{125, "2m"},
		{3725, "1h 2m"},
		{90000, "1d 1h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.secs); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1200); got != "-1,200" {
		t.Errorf("FormatNumber(-1200) = %q", got)
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	if got := FormatAgo(time.Time{}, now); got != "never" {
		t.Errorf("zero = %q, want never", got)
	}
	if got := FormatAgo(now.Add(-3*time.Minute), now); got != "3 minutes ago" {
		t.Errorf("3m = %q", got)
	}
}

func TestRenderTable_AlignsWideGlyphs(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Window", "Bar"},
		Rows: [][]string{
			{"Session", "███░░"},
			{"Weekly", "—"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	w := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != w {
			t.Errorf("line %d width = %d, want %d: %q", i, lipgloss.Width(l), w, l)
		}
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render empty")
	}
}

func TestRenderUsageBar(t *testing.T) {
	n := 50
	bar := RenderUsageBar(&n, 10)
	if !strings.Contains(bar, "█████░░░░░") {
		t.Errorf("bar = %q", bar)
	}
	over := 150
	if !strings.Contains(RenderUsageBar(&over, 4), "████") {
		t.Error("bar should clamp at 100%")
	}
	if !strings.Contains(RenderUsageBar(nil, 3), "···") {
		t.Error("nil bar should be dotted")
	}
}

func TestRenderDetail(t *testing.T) {
	used := 64
	now := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	d := usage.BuildDetail(usage.Snapshot{
		Session: usage.Session{UsedPercent: &used, ResetIn: "1h 12m"},
		Err:     "stale",
	}, now)
	out := RenderDetail(d)
	for _, want := range []string{"09:00 AM", "Wed, Jun 4", "⚠ stale", "Session", "64% used", "Weekly All", "No data", "Updated never"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDetail missing %q:\n%s", want, out)
		}
	}
}

func TestStatusColor(t *testing.T) {
	if StatusColor(pacing.StatusFarBehind) != ColorRed || StatusColor(pacing.StatusAhead) != ColorGreen {
		t.Error("StatusColor mismatch")
	}
	if UsageColor(95) != ColorRed || UsageColor(75) != ColorYellow || UsageColor(10) != ColorGreen {
		t.Error("UsageColor mismatch")
	}
}
