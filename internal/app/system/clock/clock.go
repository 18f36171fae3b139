// Package clock formats stored UTC timestamps for presentation in the
// campus timezone (America/New_York). All user-facing date and time strings
// go through here so the app renders consistently.
package clock

import (
	"fmt"
	"time"
)

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata missing from the host; fall back to UTC rather than crash.
		loc = time.UTC
	}
	eastern = loc
}

// Eastern returns the campus timezone.
func Eastern() *time.Location {
	return eastern
}

// Date renders t as a short month-day string, e.g. "Mar 14".
func Date(t time.Time) string {
	return t.In(eastern).Format("Jan 2")
}

// Clock renders t as a 12-hour clock string, e.g. "3:04 PM".
func Clock(t time.Time) string {
	return t.In(eastern).Format("3:04 PM")
}

// DateTime renders t as date plus clock, e.g. "Mar 14 at 3:04 PM".
func DateTime(t time.Time) string {
	return Date(t) + " at " + Clock(t)
}

// Ago renders how long ago t was, relative to now, in coarse units:
// "just now", "5m ago", "3h ago", "2d ago". Future or zero times render
// as "just now".
func Ago(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// DaysSince returns whole days elapsed between t and now, never negative.
func DaysSince(t time.Time, now time.Time) int {
	if t.IsZero() || t.After(now) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}
