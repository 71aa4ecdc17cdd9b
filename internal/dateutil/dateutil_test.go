package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		got, err := ParseDate("2026-01-15", time.UTC)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("empty defaults to today", func(t *testing.T) {
		got, err := ParseDate("", time.UTC)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		today := TruncateToDay(time.Now().UTC())
		if !got.Equal(today) {
			t.Errorf("got %v, want %v", got, today)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := ParseDate("01-15-2026", time.UTC)
		if !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("got error %v, want %v", err, ErrInvalidDateFormat)
		}
	})
}

func TestNewDateRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		dr, err := NewDateRange("2026-01-15", "2026-01-20", time.UTC)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !dr.Start.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("wrong start: %v", dr.Start)
		}
		if !dr.End.Equal(time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("wrong end: %v", dr.End)
		}
	})

	t.Run("empty end defaults to start", func(t *testing.T) {
		dr, err := NewDateRange("2026-01-15", "", time.UTC)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !dr.End.Equal(dr.Start) {
			t.Errorf("end %v should equal start %v", dr.End, dr.Start)
		}
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := NewDateRange("2026-01-20", "2026-01-15", time.UTC)
		if !errors.Is(err, ErrEndDateBeforeStart) {
			t.Errorf("got error %v, want %v", err, ErrEndDateBeforeStart)
		}
	})
}

func TestHorizon(t *testing.T) {
	now := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)

	start, end := Horizon(now, 7)
	if !start.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}

	start, end = Horizon(now, 0)
	if !start.Equal(end) {
		t.Errorf("zero-day horizon should collapse to one day, got %v - %v", start, end)
	}
}

func TestParseRelativeDate(t *testing.T) {
	// A Monday.
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr error
	}{
		{"empty is today", "", TruncateToDay(base), nil},
		{"today", "today", TruncateToDay(base), nil},
		{"tomorrow", "tomorrow", time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), nil},
		{"next-week", "next-week", time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), nil},
		{"weekday", "friday", time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC), nil},
		{"same weekday rolls over", "monday", time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), nil},
		{"next-prefixed weekday", "next-wednesday", time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), nil},
		{"absolute", "2026-02-01", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nil},
		{"absolute past", "2025-12-01", time.Time{}, ErrDateInPast},
		{"garbage", "whenever", time.Time{}, ErrInvalidDateFormat},
		{"bad next prefix", "next-someday", time.Time{}, ErrInvalidDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeDate(tt.input, base)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
