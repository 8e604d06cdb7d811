package itinerary

import (
	"fmt"
	"time"
)

// FormatDuration renders d as "1 hr 5 min" or "12 min", rounded down to the minute.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	hours, minutes := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%d hr %d min", hours, minutes)
	}
	return fmt.Sprintf("%d min", minutes)
}

// ClockTime renders t as "HH:MM".
func ClockTime(t time.Time) string {
	return t.Format("15:04")
}

// ParseClock parses an "HH:MM" time of day onto the date of day, in day's location.
func ParseClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time of day %q: %w", clock, err)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
