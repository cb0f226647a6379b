package usage

import (
	"strings"
	"time"

	"github.com/theirongolddev/ccpace/internal/pacing"
)

// Detail holds the three timelines and the week strip for one snapshot.
type Detail struct {
	Now       time.Time
	Err       string
	Session   pacing.Timeline
	AllModels pacing.Timeline
	Sonnet    pacing.Timeline
	Calendar  string
	Updated   time.Time
}

// BuildDetail derives the detail view from a snapshot. The Sonnet window
// uses its own reset when present and the all-models reset otherwise.
func BuildDetail(s Snapshot, now time.Time) Detail {
	d := Detail{Now: now, Err: s.Err, Updated: s.FetchedAt}

	var sessionElapsed *float64
	if mins, ok := pacing.ParseSessionResetTime(s.Session.ResetIn); ok {
		e := pacing.SessionWindow.Total - float64(mins)
		sessionElapsed = &e
	}
	d.Session = pacing.BuildTimeline(pacing.TimelineInput{
		Label:         "Session",
		UsedPercent:   s.Session.UsedPercent,
		TimeRemaining: s.Session.ResetIn,
		Total:         pacing.SessionWindow.Total,
		Elapsed:       sessionElapsed,
	})

	allHours := weeklyHours(s.AllModels.ResetsAt, now)
	d.AllModels = weeklyTimeline("Weekly All", s.AllModels.UsedPercent, allHours)

	sonnetHours := weeklyHours(s.Sonnet.ResetsAt, now)
	if sonnetHours == nil {
		sonnetHours = allHours
	}
	d.Sonnet = weeklyTimeline("Weekly Sonnet", s.Sonnet.UsedPercent, sonnetHours)

	d.Calendar = pacing.WeekCalendar(allHours, now.Weekday())
	return d
}

func weeklyHours(resetsAt string, now time.Time) *float64 {
	h, ok := pacing.ParseResetTime(resetsAt, now)
	if !ok {
		return nil
	}
	return &h
}

func weeklyTimeline(label string, used *int, hoursLeft *float64) pacing.Timeline {
	var elapsed *float64
	if hoursLeft != nil {
		e := pacing.WeeklyWindow.Total - *hoursLeft
		elapsed = &e
	}
	return pacing.BuildTimeline(pacing.TimelineInput{
		Label:         label,
		UsedPercent:   used,
		TimeRemaining: pacing.FormatHoursRemaining(hoursLeft),
		Total:         pacing.WeeklyWindow.Total,
		Elapsed:       elapsed,
	})
}

// Markdown renders the detail view as Markdown.
func (d Detail) Markdown() string {
	var b strings.Builder
	b.WriteString("# " + d.Now.Format("03:04 PM") + "\n")
	b.WriteString("*" + d.Now.Format("Mon, Jan 2") + "*\n\n")
	if d.Err != "" {
		b.WriteString("> ⚠️ " + d.Err + "\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(timelineMarkdown(d.Session) + "\n\n---\n\n")
	b.WriteString(timelineMarkdown(d.AllModels) + "\n\n")
	b.WriteString("`" + d.Calendar + "`\n")
	b.WriteString("*[today] → (reset)*\n\n---\n\n")
	b.WriteString(timelineMarkdown(d.Sonnet) + "\n\n---\n\n")

	updated := "never"
	if !d.Updated.IsZero() {
		updated = d.Updated.Format("3:04:05 PM")
	}
	b.WriteString("*Updated " + updated + "*\n")
	return b.String()
}

func timelineMarkdown(t pacing.Timeline) string {
	if t.NoData {
		return t.String()
	}
	return "**" + t.Label + "** " + t.Status.Icon() + "\n`" + t.Bar + "`\n" + t.Detail()
}
