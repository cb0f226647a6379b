// Package activity summarizes local Claude Code sessions over a time range:
// prompts, projects, files, tools and when the work happened.
package activity

import (
	"fmt"
	"time"
)

// Range is a summary window ending now (or at midnight for yesterday).
type Range string

const (
	RangeToday     Range = "today"
	RangeYesterday Range = "yesterday"
	RangeWeek      Range = "week"
	RangeMonth     Range = "month"
)

// Ranges lists every range in menu order.
var Ranges = []Range{RangeToday, RangeYesterday, RangeWeek, RangeMonth}

// ParseRange validates a range name.
func ParseRange(s string) (Range, error) {
	for _, r := range Ranges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("activity: unknown range %q (want today, yesterday, week or month)", s)
}

// Label is the range's display title.
func (r Range) Label() string {
	switch r {
	case RangeYesterday:
		return "Yesterday"
	case RangeWeek:
		return "Past 7 Days"
	case RangeMonth:
		return "Past 30 Days"
	}
	return "Today"
}

// RangeBounds returns the inclusive [start, end] of r relative to now, with
// day boundaries at local midnight in now's location.
func RangeBounds(r Range, now time.Time) (start, end time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r {
	case RangeYesterday:
		return midnight.AddDate(0, 0, -1), midnight
	case RangeWeek:
		return midnight.AddDate(0, 0, -7), now
	case RangeMonth:
		return midnight.AddDate(0, 0, -30), now
	}
	return midnight, now
}

// thresholds are the prompt counts for 👍, ✨, ⚡ and 🔥.
func (r Range) thresholds() [4]int {
	switch r {
	case RangeWeek:
		return [4]int{20, 50, 100, 200}
	case RangeMonth:
		return [4]int{50, 150, 300, 500}
	}
	return [4]int{5, 15, 30, 50}
}

// ProductivityLevel grades a prompt count for the range as an emoji.
func ProductivityLevel(prompts int, r Range) string {
	t := r.thresholds()
	switch {
	case prompts >= t[3]:
		return "🔥"
	case prompts >= t[2]:
		return "⚡"
	case prompts >= t[1]:
		return "✨"
	case prompts >= t[0]:
		return "👍"
	}
	return "🌱"
}
