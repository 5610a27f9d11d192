package chat

import (
	"testing"
	"time"
)

func TestSameDay(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want bool
	}{
		{
			"same moment",
			time.Date(2025, 6, 1, 12, 0, 0, 0, loc),
			time.Date(2025, 6, 1, 12, 0, 0, 0, loc),
			true,
		},
		{
			"same day different hours",
			time.Date(2025, 6, 1, 0, 1, 0, 0, loc),
			time.Date(2025, 6, 1, 23, 59, 0, 0, loc),
			true,
		},
		{
			"adjacent days across midnight",
			time.Date(2025, 6, 1, 23, 59, 0, 0, loc),
			time.Date(2025, 6, 2, 0, 1, 0, 0, loc),
			false,
		},
		{
			"different months",
			time.Date(2025, 5, 31, 12, 0, 0, 0, loc),
			time.Date(2025, 6, 1, 12, 0, 0, 0, loc),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Comparison happens in the second argument's location: 23:00 UTC and
// 01:00 UTC next day are the same day in UTC+2.
func TestSameDayLocation(t *testing.T) {
	plus2 := time.FixedZone("UTC+2", 2*60*60)

	a := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC).In(plus2)

	if !SameDay(a, b) {
		t.Error("expected same local day in UTC+2")
	}
}

func TestNeedsSeparator(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	day1Later := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	if !NeedsSeparator(time.Time{}, day1) {
		t.Error("first message must take a separator")
	}
	if NeedsSeparator(day1, day1Later) {
		t.Error("same-day pair must not take a separator")
	}
	if !NeedsSeparator(day1Later, day2) {
		t.Error("cross-day pair must take exactly one separator")
	}
}

// A rendered sequence gets exactly one separator per calendar day.
func TestSeparatorCountPerDay(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC),
	}

	var prev time.Time
	separators := 0
	for _, ts := range times {
		if NeedsSeparator(prev, ts) {
			separators++
		}
		prev = ts
	}

	if separators != 3 {
		t.Errorf("separators = %d, want 3 (one per distinct day)", separators)
	}
}

func TestDayLabel(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"today", time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC), "Today"},
		{"yesterday", time.Date(2025, 6, 9, 23, 0, 0, 0, time.UTC), "Yesterday"},
		{"older", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), "June 1, 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayLabel(tt.t, now); got != tt.want {
				t.Errorf("DayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
