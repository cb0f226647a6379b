package pacing

import (
	"fmt"
	"math"
	"time"
)

// Window describes a rolling quota period. Total is expressed in the same
// unit as the remaining values passed alongside it.
type Window struct {
	Name  string
	Total float64
}

// The two quota periods tracked on the usage page.
var (
	SessionWindow = Window{Name: "session", Total: 5 * 60} // minutes
	WeeklyWindow  = Window{Name: "weekly", Total: 7 * 24}  // hours
)

// Result is a pacing judgment for one window.
type Result struct {
	// ElapsedPercent is the rounded share of the window already elapsed.
	// It is not clamped and exceeds 100 when a reset has passed but the
	// page has not refreshed yet.
	ElapsedPercent int
	// Diff is ElapsedPercent minus the used percent. Positive means less
	// quota was used than elapsed time would predict.
	Diff  int
	Label string
}

// Compute compares elapsed time against quota used. It reports false when
// either input is missing; no judgment is fabricated from partial data.
func Compute(used *int, remaining *float64, w Window) (Result, bool) {
	if used == nil || remaining == nil || w.Total <= 0 {
		return Result{}, false
	}

	elapsed := w.Total - *remaining
	elapsedPct := roundHalfUp(100 * elapsed / w.Total)
	diff := elapsedPct - *used

	return Result{
		ElapsedPercent: elapsedPct,
		Diff:           diff,
		Label:          Label(diff),
	}, true
}

// Label renders the three-way pacing label used by the menu bar.
func Label(diff int) string {
	switch {
	case diff > 0:
		return fmt.Sprintf("%d%% ahead", diff)
	case diff < 0:
		return fmt.Sprintf("%d%% behind", -diff)
	default:
		return "On schedule"
	}
}

// SessionPacing returns the pacing label for the 5-hour session window, or
// "" when the used percent or the reset string is missing.
func SessionPacing(used *int, resetIn string) string {
	minutes, ok := ParseSessionResetTime(resetIn)
	if !ok {
		return ""
	}
	remaining := float64(minutes)
	r, ok := Compute(used, &remaining, SessionWindow)
	if !ok {
		return ""
	}
	return r.Label
}

// WeeklyPacing returns the pacing label for a 7-day window, or "" when the
// used percent or the reset string is missing.
func WeeklyPacing(used *int, resetsAt string, now time.Time) string {
	hours, ok := ParseResetTime(resetsAt, now)
	if !ok {
		return ""
	}
	r, ok := Compute(used, &hours, WeeklyWindow)
	if !ok {
		return ""
	}
	return r.Label
}

// roundHalfUp rounds halves toward positive infinity so -2.5 becomes -2.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
