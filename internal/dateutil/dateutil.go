// Package dateutil provides the calendar-date helpers shared by the
// dashboard, calendar, and reminder surfaces. Dates cross the storage
// boundary as YYYY-MM-DD strings; these helpers do the conversions.
package dateutil

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FormatDate renders a time as a YYYY-MM-DD storage date.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD storage date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDateDisplay renders a storage date for display, e.g. "Jan 15, 2024".
// Unparseable input is returned unchanged.
func FormatDateDisplay(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// IsToday reports whether the storage date is today's calendar date.
func IsToday(s string) bool {
	return s == FormatDate(time.Now())
}

// SameDate reports whether two storage dates name the same calendar day.
func SameDate(a, b string) bool {
	ta, errA := ParseDate(a)
	tb, errB := ParseDate(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta.Equal(tb)
}

// DayName returns the lowercase weekday name of a storage date, matching
// the day names used in notification settings.
func DayName(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(t.Weekday().String())
}

// MonthDays enumerates every day of the month containing t, in order.
func MonthDays(t time.Time) []time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	var days []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// NextMonth returns the same instant one month later.
func NextMonth(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}

// PreviousMonth returns the same instant one month earlier.
func PreviousMonth(t time.Time) time.Time {
	return t.AddDate(0, -1, 0)
}

// WeekdayNames returns the short weekday header names, Sunday first.
func WeekdayNames() []string {
	return []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
}
