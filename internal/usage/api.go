package usage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/theirongolddev/ccpace/internal/claudeai"
)

// ErrNoSessionKey means the API source has no usable session key.
var ErrNoSessionKey = errors.New("usage: no valid claude.ai session key (set CLAUDE_SESSION_KEY or claude_ai.session_key)")

// APISource reads the usage windows from the claude.ai web API and renders
// reset times in the same text grammars the usage page shows.
type APISource struct {
	Client *claudeai.Client
	Now    func() time.Time
}

// NewAPISource returns an APISource for sessionKey.
func NewAPISource(sessionKey string, opts ...claudeai.Option) (*APISource, error) {
	c := claudeai.NewClient(sessionKey, opts...)
	if c == nil {
		return nil, ErrNoSessionKey
	}
	return &APISource{Client: c, Now: time.Now}, nil
}

// Fetch implements TextSource. The interactive flag has no effect.
func (a *APISource) Fetch(ctx context.Context, _ bool) (Snapshot, error) {
	if a.Client == nil {
		return failed(ErrNoSessionKey)
	}
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}

	data := a.Client.FetchAll(ctx)
	if data.Usage == nil {
		err := data.Error
		if err == nil {
			err = fmt.Errorf("%w: empty usage response", ErrParse)
		}
		return failed(err)
	}

	snap := FromParsedUsage(data.Usage, now)
	snap.FetchedAt = now
	return snap, nil
}

// FromParsedUsage converts API windows to a Snapshot relative to now.
// Utilization outside [0, 100] percent becomes absent.
func FromParsedUsage(u *claudeai.ParsedUsage, now time.Time) Snapshot {
	percent := func(w *claudeai.ParsedWindow) *int {
		pct := w.Percent()
		return checkPercent(&pct)
	}
	var s Snapshot
	if w := u.FiveHour; w != nil {
		s.Session = Session{UsedPercent: percent(w), ResetIn: FormatResetIn(w.Remaining(now))}
	}
	if w := u.SevenDay; w != nil {
		s.AllModels = Weekly{UsedPercent: percent(w), ResetsAt: FormatResetsAt(w.ResetsAt, now.Location())}
	}
	if w := u.SevenDaySonnet; w != nil {
		s.Sonnet = Weekly{UsedPercent: percent(w), ResetsAt: FormatResetsAt(w.ResetsAt, now.Location())}
	}
	return s
}

// FormatResetIn renders a duration as the page does for the session window
// ("2h 15m", "45m"). Sub-minute remainders round up so a window about to
// reset never renders as zero. Zero renders as "".
func FormatResetIn(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	minutes := int(math.Ceil(d.Minutes()))
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatResetsAt renders an absolute reset the way the page does for weekly
// windows ("Mon 3:00 AM"). Zero renders as "".
func FormatResetsAt(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("Mon 3:04 PM")
}
