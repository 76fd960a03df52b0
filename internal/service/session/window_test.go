package session

import (
	"testing"
	"time"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func clock(t *testing.T, s string) repo.TimeOfDay {
	t.Helper()
	tod, err := ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return tod
}

func TestIsAfterSessionEnd(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	end := clock(t, "10:00")

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before end", time.Date(2026, 3, 1, 9, 0, 0, 0, loc), false},
		{"exactly at end", time.Date(2026, 3, 1, 10, 0, 0, 0, loc), false},
		{"after end", time.Date(2026, 3, 1, 11, 0, 0, 0, loc), true},
		{"previous day evening", time.Date(2026, 2, 28, 23, 0, 0, 0, loc), false},
		{"next day morning", time.Date(2026, 3, 2, 8, 0, 0, 0, loc), true},
		{"utc instant before end", time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC), false},
		{"utc instant after end", time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAfterSessionEnd(tt.now, day, end, loc); got != tt.want {
				t.Errorf("IsAfterSessionEnd(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestWindowEnd_UsesCivilDate(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	// 20:00 UTC on 28 Feb is already 1 March in Kolkata.
	day := time.Date(2026, 2, 28, 20, 0, 0, 0, time.UTC)

	got := WindowEnd(day, clock(t, "10:30"), loc)
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("WindowEnd = %v, want %v", got, want)
	}
}

func TestIsWindowOpen(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	start, end := clock(t, "09:00"), clock(t, "12:00")

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", time.Date(2026, 3, 1, 8, 59, 0, 0, loc), false},
		{"at start", time.Date(2026, 3, 1, 9, 0, 0, 0, loc), true},
		{"midday", time.Date(2026, 3, 1, 11, 0, 0, 0, loc), true},
		{"after end", time.Date(2026, 3, 1, 12, 1, 0, 0, loc), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWindowOpen(tt.now, start, end, loc); got != tt.want {
				t.Errorf("IsWindowOpen(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestDayBounds(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	from, to := DayBounds(time.Date(2026, 3, 1, 15, 0, 0, 0, loc), loc)

	if !from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("from = %v", from)
	}
	if to.Sub(from) != 24*time.Hour {
		t.Errorf("day length = %v", to.Sub(from))
	}
	// 1 March 00:00 IST is 28 Feb 18:30 UTC.
	if !from.UTC().Equal(time.Date(2026, 2, 28, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("from in UTC = %v", from.UTC())
	}
}
