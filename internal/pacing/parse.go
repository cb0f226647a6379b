// Package pacing turns scraped usage-window text into pacing judgments and
// compact text visualizations. Every function is pure: callers pass the
// current time explicitly.
package pacing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hourPattern   = regexp.MustCompile(`(?i)(\d+)\s*h`)
	minutePattern = regexp.MustCompile(`(?i)(\d+)\s*m`)
	resetPattern  = regexp.MustCompile(`(?i)(\w{3})\s+(\d{1,2}):(\d{2})\s*(AM|PM)`)
)

// weekdays maps the abbreviations shown on the usage page. Lookup is exact:
// the page always renders title-case names.
var weekdays = map[string]time.Weekday{
	"Sun": time.Sunday,
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
}

// ParseSessionResetTime parses a relative reset string such as "2h 15m",
// "3 hr" or "45 min" into whole minutes.
//
// It reports false for empty input and for input that sums to zero minutes.
// "0h 0m" is therefore indistinguishable from unparseable text.
func ParseSessionResetTime(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	total := 0
	if m := hourPattern.FindStringSubmatch(s); m != nil {
		h, ok := atoi(m[1])
		if !ok {
			return 0, false
		}
		total += h * 60
	}
	if m := minutePattern.FindStringSubmatch(s); m != nil {
		mins, ok := atoi(m[1])
		if !ok {
			return 0, false
		}
		total += mins
	}

	if total <= 0 {
		return 0, false
	}
	return total, true
}

// ParseResetTime parses an absolute weekly reset such as "Mon 3:00 AM" and
// returns the fractional hours from now until the next occurrence.
//
// A reset on today's weekday whose clock time is at or before now's clock
// time (minute resolution) rolls to next week, so the result is in (0, 168].
func ParseResetTime(s string, now time.Time) (float64, bool) {
	if s == "" {
		return 0, false
	}

	m := resetPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	targetDay, ok := weekdays[m[1]]
	if !ok {
		return 0, false
	}

	hour, _ := atoi(m[2])
	minute, _ := atoi(m[3])
	switch meridiem := strings.ToUpper(m[4]); {
	case meridiem == "PM" && hour != 12:
		hour += 12
	case meridiem == "AM" && hour == 12:
		hour = 0
	}

	daysUntil := (int(targetDay) - int(now.Weekday()) + 7) % 7
	if daysUntil == 0 {
		current := now.Hour()*60 + now.Minute()
		target := hour*60 + minute
		if current >= target {
			daysUntil = 7
		}
	}

	target := time.Date(now.Year(), now.Month(), now.Day()+daysUntil, hour, minute, 0, 0, now.Location())
	return target.Sub(now).Hours(), true
}

// ParseWeeklyResetTime is ParseResetTime under the name the detail view uses.
func ParseWeeklyResetTime(s string, now time.Time) (float64, bool) {
	return ParseResetTime(s, now)
}

// atoi parses a run of digits already validated by a pattern. Values that
// do not fit in 32 bits report false.
func atoi(s string) (int, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
