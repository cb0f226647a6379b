package pacing

import (
	"fmt"
	"math"
	"strings"
)

// TimelineSegments is the fixed width of a rendered timeline bar.
const TimelineSegments = 24

// Timeline glyphs, in tie-break order.
const (
	GlyphBoth      = '◆'
	GlyphTime      = '│'
	GlyphUsed      = '█'
	GlyphAvailable = '░'
)

// Status is the five-band pacing classification used by the detail view.
// It is independent of Label.
type Status int

const (
	StatusFarAhead Status = iota
	StatusAhead
	StatusOnPace
	StatusBehind
	StatusFarBehind
)

// StatusFor classifies a pacing difference into five bands.
func StatusFor(diff int) Status {
	switch {
	case diff > 15:
		return StatusFarAhead
	case diff > 0:
		return StatusAhead
	case diff == 0:
		return StatusOnPace
	case diff > -15:
		return StatusBehind
	default:
		return StatusFarBehind
	}
}

// Icon returns the colored dot shown next to a timeline label.
func (s Status) Icon() string {
	switch s {
	case StatusFarAhead:
		return "🟢"
	case StatusAhead:
		return "🟡"
	case StatusOnPace:
		return "⚪"
	case StatusBehind:
		return "🟠"
	default:
		return "🔴"
	}
}

func (s Status) String() string {
	switch s {
	case StatusFarAhead:
		return "far-ahead"
	case StatusAhead:
		return "ahead"
	case StatusOnPace:
		return "on-pace"
	case StatusBehind:
		return "behind"
	default:
		return "far-behind"
	}
}

// StatusText renders the detail-view wording for a pacing difference.
func StatusText(diff int) string {
	switch {
	case diff > 0:
		return fmt.Sprintf("%d%% ahead", diff)
	case diff < 0:
		return fmt.Sprintf("%d%% behind", -diff)
	default:
		return "On pace"
	}
}

// TimelineInput carries one window's data into BuildTimeline. Elapsed is in
// the same unit as Total; a nil Elapsed means the reset time was unknown.
type TimelineInput struct {
	Label         string
	UsedPercent   *int
	TimeRemaining string
	Total         float64
	Elapsed       *float64
}

// Timeline is a rendered window summary.
type Timeline struct {
	Label          string
	NoData         bool
	Bar            string
	Status         Status
	StatusText     string
	UsedPercent    int
	ElapsedPercent int
	TimeRemaining  string
}

// BuildTimeline lays elapsed time and cumulative usage over 24 buckets.
func BuildTimeline(in TimelineInput) Timeline {
	if in.UsedPercent == nil || in.Elapsed == nil || in.Total <= 0 {
		return Timeline{Label: in.Label, NoData: true}
	}

	used := *in.UsedPercent
	elapsedPct := roundHalfUp(*in.Elapsed / in.Total * 100)
	diff := elapsedPct - used

	return Timeline{
		Label:          in.Label,
		Bar:            TimelineBar(elapsedPct, used),
		Status:         StatusFor(diff),
		StatusText:     StatusText(diff),
		UsedPercent:    used,
		ElapsedPercent: elapsedPct,
		TimeRemaining:  in.TimeRemaining,
	}
}

// TimelineBar renders the 24-character bar for the given elapsed and used
// percentages. Markers outside 0..23 are simply never drawn.
func TimelineBar(elapsedPct, usedPct int) string {
	timeMarker := roundHalfUp(float64(elapsedPct) / 100 * TimelineSegments)
	usageMarker := roundHalfUp(float64(usedPct) / 100 * TimelineSegments)

	var b strings.Builder
	for i := 0; i < TimelineSegments; i++ {
		switch {
		case i == timeMarker && i == usageMarker:
			b.WriteRune(GlyphBoth)
		case i == timeMarker:
			b.WriteRune(GlyphTime)
		case i < usageMarker:
			b.WriteRune(GlyphUsed)
		default:
			b.WriteRune(GlyphAvailable)
		}
	}
	return b.String()
}

// Detail renders the "N% used · X left · status" line.
func (t Timeline) Detail() string {
	if t.NoData {
		return ""
	}
	remaining := t.TimeRemaining
	if remaining == "" {
		remaining = "?"
	}
	return fmt.Sprintf("%d%% used · %s left · %s", t.UsedPercent, remaining, t.StatusText)
}

// String renders the timeline as plain text.
func (t Timeline) String() string {
	if t.NoData {
		return t.Label + ": No data"
	}
	return fmt.Sprintf("%s %s\n%s\n%s", t.Label, t.Status.Icon(), t.Bar, t.Detail())
}

// FormatHoursRemaining renders hours until a reset compactly: "45m", "5h"
// or "3d 4h". Nil renders as "?".
func FormatHoursRemaining(hours *float64) string {
	if hours == nil {
		return "?"
	}
	h := *hours
	switch {
	case h < 1:
		return fmt.Sprintf("%dm", roundHalfUp(h*60))
	case h < 24:
		return fmt.Sprintf("%dh", roundHalfUp(h))
	}
	days := int(math.Floor(h / 24))
	rem := roundHalfUp(math.Mod(h, 24))
	return fmt.Sprintf("%dd %dh", days, rem)
}
