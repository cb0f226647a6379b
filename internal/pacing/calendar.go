package pacing

import (
	"math"
	"strings"
	"time"
)

var dayLetters = [7]string{"S", "M", "T", "W", "T", "F", "S"}

// WeekCalendar renders a Sunday-first strip of the week. Today is wrapped in
// brackets, the reset day in parentheses, days in between (wrapping past
// Saturday) show their letter and the rest a dot. A nil hoursUntilReset marks
// no reset day.
func WeekCalendar(hoursUntilReset *float64, today time.Weekday) string {
	current := int(today)
	resetDay := -1
	if hoursUntilReset != nil {
		daysUntil := int(math.Ceil(*hoursUntilReset / 24))
		resetDay = ((current+daysUntil)%7 + 7) % 7
	}

	var b strings.Builder
	for i := 0; i < 7; i++ {
		switch {
		case i == current:
			b.WriteString("[" + dayLetters[i] + "]")
		case i == resetDay:
			b.WriteString("(" + dayLetters[i] + ")")
		case resetDay >= 0 && between(i, current, resetDay):
			b.WriteString(" " + dayLetters[i] + " ")
		default:
			b.WriteString(" · ")
		}
	}
	return b.String()
}

// between reports whether day lies strictly between from and to, walking
// forward through the week.
func between(day, from, to int) bool {
	if to > from {
		return day > from && day < to
	}
	if to < from {
		return day > from || day < to
	}
	return false
}
