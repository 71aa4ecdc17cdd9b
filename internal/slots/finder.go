// Package slots computes free time slots from busy calendar intervals
// against a per-day working window.
package slots

import (
	"sort"
	"time"

	"github.com/me/autoplan/internal/interval"
)

// Finder computes free slots for a date range. All computation happens in a
// single reference timezone; busy intervals are expected to be normalized
// before they reach the finder.
type Finder struct {
	workStartHour  int
	workEndHour    int
	minSlotMinutes int
	loc            *time.Location
}

// NewFinder creates a Finder for a [workStartHour, workEndHour) daily window.
// Slots shorter than minSlotMinutes are discarded.
func NewFinder(workStartHour, workEndHour, minSlotMinutes int, loc *time.Location) *Finder {
	if loc == nil {
		loc = time.UTC
	}
	return &Finder{
		workStartHour:  workStartHour,
		workEndHour:    workEndHour,
		minSlotMinutes: minSlotMinutes,
		loc:            loc,
	}
}

// Find sweeps each calendar day between startDate and endDate (inclusive) and
// returns the ordered free slots around the given busy intervals.
//
// now is captured once per scheduling run and threaded through: today's
// window is clamped forward to it, and any slot starting before it is
// discarded at the end so slots never begin in the past.
func (f *Finder) Find(busy []interval.Busy, startDate, endDate, now time.Time) []interval.FreeSlot {
	var free []interval.FreeSlot

	day := f.dateOf(startDate)
	last := f.dateOf(endDate)

	for !day.After(last) {
		windowStart := time.Date(day.Year(), day.Month(), day.Day(), f.workStartHour, 0, 0, 0, f.loc)
		windowEnd := time.Date(day.Year(), day.Month(), day.Day(), f.workEndHour, 0, 0, 0, f.loc)

		// Never produce slots in the past: today's window starts no
		// earlier than now.
		if f.sameDate(day, now) && now.After(windowStart) {
			windowStart = now
		}

		if !windowStart.Before(windowEnd) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		free = append(free, f.sweepDay(busy, day, windowStart, windowEnd)...)
		day = day.AddDate(0, 0, 1)
	}

	// Guard against slots computed earlier in the loop going stale while
	// later days were processed: the single captured now decides.
	kept := free[:0]
	for _, s := range free {
		if !s.Start.Before(now) {
			kept = append(kept, s)
		}
	}
	return kept
}

// sweepDay walks the day's busy intervals left to right, emitting every gap
// that meets the minimum duration.
func (f *Finder) sweepDay(busy []interval.Busy, day, windowStart, windowEnd time.Time) []interval.FreeSlot {
	dayBusy := make([]interval.Busy, 0)
	for _, b := range busy {
		if f.sameDate(day, b.Start.In(f.loc)) || f.sameDate(day, b.End.In(f.loc)) {
			dayBusy = append(dayBusy, b)
		}
	}
	sort.SliceStable(dayBusy, func(i, j int) bool {
		return dayBusy[i].Start.Before(dayBusy[j].Start)
	})

	var free []interval.FreeSlot
	cursor := windowStart

	for _, b := range dayBusy {
		busyStart := maxTime(b.Start, windowStart)
		busyEnd := minTime(b.End, windowEnd)

		// Fully outside the work window.
		if !b.End.After(windowStart) || !b.Start.Before(windowEnd) {
			continue
		}

		if cursor.Before(busyStart) && gapMinutes(cursor, busyStart) >= f.minSlotMinutes {
			free = append(free, interval.FreeSlot{Start: cursor, End: busyStart})
		}
		cursor = maxTime(cursor, busyEnd)
	}

	if cursor.Before(windowEnd) && gapMinutes(cursor, windowEnd) >= f.minSlotMinutes {
		free = append(free, interval.FreeSlot{Start: cursor, End: windowEnd})
	}

	return free
}

func (f *Finder) dateOf(t time.Time) time.Time {
	t = t.In(f.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, f.loc)
}

func (f *Finder) sameDate(day, t time.Time) bool {
	t = t.In(f.loc)
	return day.Year() == t.Year() && day.Month() == t.Month() && day.Day() == t.Day()
}

func gapMinutes(from, to time.Time) int {
	return int(to.Sub(from).Minutes())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
