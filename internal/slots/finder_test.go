package slots

import (
	"testing"
	"time"

	"github.com/me/autoplan/internal/interval"
)

var loc = time.UTC

func at(day, h, m int) time.Time {
	return time.Date(2025, 3, day, h, m, 0, 0, loc)
}

func busy(title string, start, end time.Time) interval.Busy {
	return interval.Busy{Title: title, Start: start, End: end}
}

func TestFind_SingleBusyInterval(t *testing.T) {
	// Working window 09:00-17:00, one meeting 10:00-10:30.
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 8, 0)

	got := f.Find([]interval.Busy{busy("Standup", at(10, 10, 0), at(10, 10, 30))}, at(10, 0, 0), at(10, 0, 0), now)

	if len(got) != 2 {
		t.Fatalf("Find() returned %d slots, want 2: %v", len(got), got)
	}
	if !got[0].Start.Equal(at(10, 9, 0)) || !got[0].End.Equal(at(10, 10, 0)) {
		t.Errorf("first slot = %v, want 09:00-10:00", got[0])
	}
	if !got[1].Start.Equal(at(10, 10, 30)) || !got[1].End.Equal(at(10, 17, 0)) {
		t.Errorf("second slot = %v, want 10:30-17:00", got[1])
	}
}

func TestFind_EmptyDayIsOneSlot(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 7, 0)

	got := f.Find(nil, at(10, 0, 0), at(10, 0, 0), now)

	if len(got) != 1 {
		t.Fatalf("Find() returned %d slots, want 1", len(got))
	}
	if got[0].DurationMinutes() != 8*60 {
		t.Errorf("slot duration = %dm, want 480m", got[0].DurationMinutes())
	}
}

func TestFind_BusySpanningWholeWindow(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 7, 0)

	got := f.Find([]interval.Busy{busy("Offsite", at(10, 8, 0), at(10, 18, 0))}, at(10, 0, 0), at(10, 0, 0), now)

	if len(got) != 0 {
		t.Errorf("Find() = %v, want no slots for a fully booked day", got)
	}
}

func TestFind_ClampsTodayToNow(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 13, 45)

	got := f.Find(nil, at(10, 0, 0), at(10, 0, 0), now)

	if len(got) != 1 {
		t.Fatalf("Find() returned %d slots, want 1", len(got))
	}
	if !got[0].Start.Equal(now) {
		t.Errorf("slot start = %v, want clamped to now %v", got[0].Start, now)
	}
}

func TestFind_SkipsDayWhenWindowAlreadyOver(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 18, 30) // past work end on day 10

	got := f.Find(nil, at(10, 0, 0), at(11, 0, 0), now)

	if len(got) != 1 {
		t.Fatalf("Find() returned %d slots, want only the next day's: %v", len(got), got)
	}
	if got[0].Start.Day() != 11 {
		t.Errorf("slot start day = %d, want 11", got[0].Start.Day())
	}
}

func TestFind_MinimumDurationThreshold(t *testing.T) {
	f := NewFinder(9, 17, 30, loc)
	now := at(10, 7, 0)

	// Gap 09:00-09:20 is below the 30 minute threshold.
	events := []interval.Busy{busy("A", at(10, 9, 20), at(10, 17, 0))}
	got := f.Find(events, at(10, 0, 0), at(10, 0, 0), now)

	if len(got) != 0 {
		t.Errorf("Find() = %v, want short gap discarded", got)
	}
}

func TestFind_BusyOutsideWindowIgnored(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 7, 0)

	events := []interval.Busy{
		busy("Early gym", at(10, 6, 0), at(10, 7, 30)),
		busy("Dinner", at(10, 19, 0), at(10, 21, 0)),
	}
	got := f.Find(events, at(10, 0, 0), at(10, 0, 0), now)

	if len(got) != 1 {
		t.Fatalf("Find() returned %d slots, want 1", len(got))
	}
	if !got[0].Start.Equal(at(10, 9, 0)) || !got[0].End.Equal(at(10, 17, 0)) {
		t.Errorf("slot = %v, want full window", got[0])
	}
}

func TestFind_BusyOverlappingWindowEdgeIsClipped(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 7, 0)

	events := []interval.Busy{busy("Breakfast run", at(10, 8, 0), at(10, 9, 45))}
	got := f.Find(events, at(10, 0, 0), at(10, 0, 0), now)

	if len(got) != 1 {
		t.Fatalf("Find() returned %d slots, want 1", len(got))
	}
	if !got[0].Start.Equal(at(10, 9, 45)) {
		t.Errorf("slot start = %v, want 09:45", got[0].Start)
	}
}

func TestFind_NoSlotOverlapsBusy(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 7, 0)

	events := []interval.Busy{
		busy("A", at(10, 9, 30), at(10, 10, 15)),
		busy("B", at(10, 10, 0), at(10, 11, 0)), // overlaps A
		busy("C", at(10, 14, 0), at(10, 15, 0)),
		busy("D", at(11, 12, 0), at(11, 13, 0)),
	}
	got := f.Find(events, at(10, 0, 0), at(11, 0, 0), now)

	for _, s := range got {
		if s.DurationMinutes() < 15 {
			t.Errorf("slot %v below minimum duration", s)
		}
		for _, b := range events {
			if s.Interval().Overlaps(b.Interval()) {
				t.Errorf("slot %v overlaps busy %v", s, b)
			}
		}
	}
}

func TestFind_OrderedAndIdempotent(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(10, 7, 0)

	events := []interval.Busy{
		busy("B", at(11, 10, 0), at(11, 11, 0)),
		busy("A", at(10, 12, 0), at(10, 13, 0)),
	}

	first := f.Find(events, at(10, 0, 0), at(12, 0, 0), now)
	second := f.Find(events, at(10, 0, 0), at(12, 0, 0), now)

	if len(first) != len(second) {
		t.Fatalf("repeated runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Errorf("slot %d differs between identical runs", i)
		}
		if i > 0 && first[i].Start.Before(first[i-1].Start) {
			t.Errorf("slots out of order at %d: %v before %v", i, first[i], first[i-1])
		}
	}
}

func TestFind_PastSlotsFiltered(t *testing.T) {
	f := NewFinder(9, 17, 15, loc)
	now := at(11, 12, 0) // midday of the second day

	got := f.Find(nil, at(10, 0, 0), at(11, 0, 0), now)

	for _, s := range got {
		if s.Start.Before(now) {
			t.Errorf("slot %v starts before now %v", s, now)
		}
	}
}
