// Package theme holds the dashboard color palettes.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/ccpace/internal/pacing"
)

// Theme assigns a color to each role the dashboard draws.
type Theme struct {
	Name         string
	Background   lipgloss.Color
	Selection    lipgloss.Color // selected registry row
	Border       lipgloss.Color
	BorderFocus  lipgloss.Color
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Severity scale shared by usage bars and pacing bands.
	OkBright lipgloss.Color
	Ok       lipgloss.Color
	Caution  lipgloss.Color
	Warn     lipgloss.Color
	Danger   lipgloss.Color
}

// Active is the theme the dashboard renders with.
var Active = FlexokiDark

// FlexokiDark is the default: warm, paper-inspired dark colors.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Selection:    lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderFocus:  lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	OkBright:     lipgloss.Color("#A3B859"),
	Ok:           lipgloss.Color("#879A39"),
	Caution:      lipgloss.Color("#D0A215"),
	Warn:         lipgloss.Color("#DA702C"),
	Danger:       lipgloss.Color("#D14D41"),
}

// CatppuccinMocha is a soft pastel palette.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Selection:    lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderFocus:  lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	OkBright:     lipgloss.Color("#C6F6C1"),
	Ok:           lipgloss.Color("#A6E3A1"),
	Caution:      lipgloss.Color("#F9E2AF"),
	Warn:         lipgloss.Color("#FAB387"),
	Danger:       lipgloss.Color("#F38BA8"),
}

// TokyoNight is a cool blue and purple palette.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Selection:    lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderFocus:  lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	OkBright:     lipgloss.Color("#B9E87A"),
	Ok:           lipgloss.Color("#9ECE6A"),
	Caution:      lipgloss.Color("#E0AF68"),
	Warn:         lipgloss.Color("#FF9E64"),
	Danger:       lipgloss.Color("#F7768E"),
}

// Terminal sticks to the ANSI 16 colors.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Selection:    lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderFocus:  lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	OkBright:     lipgloss.Color("10"),
	Ok:           lipgloss.Color("2"),
	Caution:      lipgloss.Color("3"),
	Warn:         lipgloss.Color("3"),
	Danger:       lipgloss.Color("1"),
}

// All lists the themes in display order.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName falls back to FlexokiDark for unknown names.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

func SetActive(name string) {
	Active = ByName(name)
}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Resolve picks the theme for an output profile. Terminals without true or
// 256 color support get the terminal palette whatever was configured.
func Resolve(name string, profile termenv.Profile) Theme {
	if profile == termenv.ANSI || profile == termenv.Ascii {
		return Terminal
	}
	return ByName(name)
}

// StatusColor maps a pacing band to a theme color.
func (t Theme) StatusColor(s pacing.Status) lipgloss.Color {
	switch s {
	case pacing.StatusFarAhead:
		return t.OkBright
	case pacing.StatusAhead:
		return t.Ok
	case pacing.StatusOnPace:
		return t.TextPrimary
	case pacing.StatusBehind:
		return t.Warn
	}
	return t.Danger
}
