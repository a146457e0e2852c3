package util

import "time"

// DayOf truncates a time to midnight UTC. Attendance days are stored
// date-only, so every comparison goes through this first.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a midnight-UTC day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return DayOf(t), nil
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ElapsedDays counts calendar days from enrollment through now, inclusive.
// Floor-bounded at 1 so a same-day enrollment never yields zero.
func ElapsedDays(enrolledOn, now time.Time) int {
	days := int(DayOf(now).Sub(DayOf(enrolledOn)).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}
