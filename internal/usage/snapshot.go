// Package usage fetches the claude.ai usage windows from one of several
// sources and assembles them into a renderable Snapshot.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/ccpace/internal/pacing"
)

// PageURL is the claude.ai settings page that lists the usage windows.
const PageURL = "https://claude.ai/settings/usage"

var (
	// ErrScript means the browser script ran but reported a failure.
	ErrScript = errors.New("usage: script error")
	// ErrParse means the source returned output that could not be decoded.
	ErrParse = errors.New("usage: unparseable response")
	// ErrAccessibility means osascript lacks accessibility permission.
	ErrAccessibility = errors.New("usage: accessibility permission required (System Settings > Privacy & Security > Accessibility)")
	// ErrJavaScriptDisabled means Safari refuses JavaScript from Apple Events.
	ErrJavaScriptDisabled = errors.New("usage: Safari JavaScript from Apple Events is not enabled (Develop > Allow JavaScript from Apple Events)")
)

// Session is the rolling 5-hour window. ResetIn is relative text ("2h 15m").
type Session struct {
	UsedPercent *int   `json:"used_percent"`
	ResetIn     string `json:"reset_in,omitempty"`
}

// Weekly is a 7-day window. ResetsAt is absolute text ("Mon 3:00 AM").
type Weekly struct {
	UsedPercent *int   `json:"used_percent"`
	ResetsAt    string `json:"resets_at,omitempty"`
}

// Snapshot is one reading of the usage page. Every field may be absent.
type Snapshot struct {
	Session   Session   `json:"session"`
	AllModels Weekly    `json:"all_models"`
	Sonnet    Weekly    `json:"sonnet"`
	Err       string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// TextSource produces snapshots. Interactive sources may open a browser tab
// to obtain data; quiet fetches never do.
//
// Fetch always returns a renderable snapshot. When the error is non-nil the
// snapshot's Err carries the same message.
type TextSource interface {
	Fetch(ctx context.Context, interactive bool) (Snapshot, error)
}

// Empty returns a snapshot with every window absent.
func Empty(errMsg string) Snapshot {
	return Snapshot{Err: errMsg}
}

// failed builds the snapshot/error pair returned on fetch failure.
func failed(err error) (Snapshot, error) {
	return Empty(err.Error()), err
}

// HasData reports whether any window has a used percent.
func (s Snapshot) HasData() bool {
	return s.Session.UsedPercent != nil || s.AllModels.UsedPercent != nil || s.Sonnet.UsedPercent != nil
}

// SessionPacing is the pacing label for the session window, or "".
func (s Snapshot) SessionPacing() string {
	return pacing.SessionPacing(s.Session.UsedPercent, s.Session.ResetIn)
}

// Pacing is the pacing label for a weekly window, or "".
func (w Weekly) Pacing(now time.Time) string {
	return pacing.WeeklyPacing(w.UsedPercent, w.ResetsAt, now)
}

// checkPercent drops a used percent outside [0, 100] so no pacing is
// computed from it.
func checkPercent(p *int) *int {
	if p == nil || *p < 0 || *p > 100 {
		return nil
	}
	return p
}

// FormatPercent renders a nullable percent, using an em dash for null.
func FormatPercent(p *int) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("%d%%", *p)
}

// MenuTitle is the compact status-bar title.
func MenuTitle(s Snapshot, loading bool) string {
	switch {
	case loading:
		return "C: ..."
	case s.Err != "":
		return "C: !"
	case s.Session.UsedPercent != nil:
		return "C: " + FormatPercent(s.Session.UsedPercent)
	default:
		return "C: —"
	}
}

// SessionSubtitle prefers the pacing label and falls back to the reset text.
func (s Snapshot) SessionSubtitle() string {
	if p := s.SessionPacing(); p != "" {
		return p
	}
	if s.Session.ResetIn != "" {
		return "Resets in " + s.Session.ResetIn
	}
	return ""
}

// Subtitle prefers the pacing label and falls back to the reset text.
func (w Weekly) Subtitle(now time.Time) string {
	if p := w.Pacing(now); p != "" {
		return p
	}
	if w.ResetsAt != "" {
		return "Resets " + w.ResetsAt
	}
	return ""
}
