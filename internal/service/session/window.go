package session

import (
	"time"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
)

// ParseClock parses a 24-hour "HH:MM" time of day.
func ParseClock(s string) (repo.TimeOfDay, error) {
	return repo.ParseTimeOfDay(s)
}

// CivilDay returns midnight of t's calendar date in loc.
func CivilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayBounds returns [start, end) of the civil day containing t.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := CivilDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}

func at(day time.Time, tod repo.TimeOfDay, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, loc)
}

// WindowEnd is the instant a session ending at end closes on day.
func WindowEnd(day time.Time, end repo.TimeOfDay, loc *time.Location) time.Time {
	return at(day, end, loc)
}

// IsAfterSessionEnd reports whether now is past the session's end on day.
// The end instant itself still counts as inside the window.
func IsAfterSessionEnd(now, day time.Time, end repo.TimeOfDay, loc *time.Location) bool {
	return now.After(WindowEnd(day, end, loc))
}

// IsWindowOpen reports whether now falls inside today's [start, end] window.
func IsWindowOpen(now time.Time, start, end repo.TimeOfDay, loc *time.Location) bool {
	return !now.Before(at(now, start, loc)) && !IsAfterSessionEnd(now, now, end, loc)
}
