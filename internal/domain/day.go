package domain

import (
	"fmt"
	"time"
)

// DayFormat is the wire format for all calendar dates.
const DayFormat = "2006-01-02"

// Day truncates a timestamp to midnight in the given location.
// All period boundaries and "today" checks go through this so that a single
// request cannot mix timezones and disagree with itself by one day.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Today returns the current calendar day in the given location.
func Today(loc *time.Location) time.Time {
	return Day(time.Now(), loc)
}

// FormatDay renders a timestamp as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string in the given location.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q: %w", s, err)
	}
	return t, nil
}

// SameDay reports whether two timestamps fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Day(a, loc).Equal(Day(b, loc))
}

// DaysBetween returns the number of whole days from a to b, at least 1.
// Used for annualization where a zero-length activity window must not
// divide by zero.
func DaysBetween(a, b time.Time) int {
	days := int(b.Sub(a).Hours() / 24)
	if b.Sub(a) > time.Duration(days)*24*time.Hour {
		days++
	}
	if days < 1 {
		return 1
	}
	return days
}
