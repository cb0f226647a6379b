package theme

import (
	"testing"

	"github.com/muesli/termenv"

	"github.com/theirongolddev/ccpace/internal/pacing"
)

func TestByNameFallsBack(t *testing.T) {
	if got := ByName("tokyo-night").Name; got != "tokyo-night" {
		t.Errorf("ByName(tokyo-night) = %q", got)
	}
	if got := ByName("nope").Name; got != FlexokiDark.Name {
		t.Errorf("ByName(nope) = %q, want %q", got, FlexokiDark.Name)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		profile termenv.Profile
		want    string
	}{
		{termenv.TrueColor, "catppuccin-mocha"},
		{termenv.ANSI256, "catppuccin-mocha"},
		{termenv.ANSI, "terminal"},
		{termenv.Ascii, "terminal"},
	}
	for _, tt := range tests {
		if got := Resolve("catppuccin-mocha", tt.profile).Name; got != tt.want {
			t.Errorf("Resolve(profile %v) = %q, want %q", tt.profile, got, tt.want)
		}
	}
}

func TestStatusColor(t *testing.T) {
	th := FlexokiDark
	tests := []struct {
		status pacing.Status
		want   string
	}{
		{pacing.StatusFarAhead, string(th.OkBright)},
		{pacing.StatusAhead, string(th.Ok)},
		{pacing.StatusOnPace, string(th.TextPrimary)},
		{pacing.StatusBehind, string(th.Warn)},
		{pacing.StatusFarBehind, string(th.Danger)},
	}
	for _, tt := range tests {
		if got := string(th.StatusColor(tt.status)); got != tt.want {
			t.Errorf("StatusColor(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(All) || names[0] != "flexoki-dark" || names[len(names)-1] != "terminal" {
		t.Errorf("Names() = %v", names)
	}
}
