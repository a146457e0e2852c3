package util

import (
	"testing"
	"time"
)

func TestDayOf(t *testing.T) {
	in := time.Date(2025, 3, 14, 15, 9, 26, 535, time.UTC)
	got := DayOf(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Errorf("DayOf() should return midnight, got %v", got)
	}
	if got.Year() != 2025 || got.Month() != time.March || got.Day() != 14 {
		t.Errorf("DayOf() should preserve the date, got %v", got)
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "valid date", in: "2025-01-10", wantErr: false},
		{name: "garbage", in: "not-a-date", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "time component rejected", in: "2025-01-10T08:00:00Z", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}

	parsed, err := ParseDay("2025-01-10")
	if err != nil {
		t.Fatalf("ParseDay() failed: %v", err)
	}
	if FormatDay(parsed) != "2025-01-10" {
		t.Errorf("round trip = %s, want 2025-01-10", FormatDay(parsed))
	}
}

func TestElapsedDays(t *testing.T) {
	day := func(s string) time.Time {
		d, err := ParseDay(s)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", s, err)
		}
		return d
	}

	tests := []struct {
		name       string
		enrolledOn string
		now        string
		want       int
	}{
		{name: "same day counts as one", enrolledOn: "2025-01-01", now: "2025-01-01", want: 1},
		{name: "nine days later is ten elapsed", enrolledOn: "2025-01-01", now: "2025-01-10", want: 10},
		{name: "enrollment in the future floors at one", enrolledOn: "2025-02-01", now: "2025-01-01", want: 1},
		{name: "month boundary", enrolledOn: "2025-01-31", now: "2025-02-01", want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedDays(day(tt.enrolledOn), day(tt.now)); got != tt.want {
				t.Errorf("ElapsedDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestElapsedDaysIgnoresTimeOfDay(t *testing.T) {
	enrolled := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	now := time.Date(2025, 1, 2, 0, 1, 0, 0, time.UTC)
	if got := ElapsedDays(enrolled, now); got != 2 {
		t.Errorf("ElapsedDays() = %d, want 2", got)
	}
}
