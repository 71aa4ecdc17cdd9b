// Package interval defines the time interval primitives shared by the
// scheduling core: busy intervals from the calendar and computed free slots.
package interval

import (
	"fmt"
	"time"
)

// Interval is a half-open time window [Start, End).
// Both instants must be expressed in the same reference timezone; callers
// convert at the boundary before comparing.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two intervals share any time.
// Half-open semantics: touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether inner lies fully inside iv.
func (iv Interval) Contains(inner Interval) bool {
	return !inner.Start.Before(iv.Start) && !inner.End.After(iv.End)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Minutes returns the interval length in whole minutes.
func (iv Interval) Minutes() int {
	return int(iv.Duration().Minutes())
}

// Busy is an existing calendar commitment that scheduling must avoid.
type Busy struct {
	UID         string
	Title       string
	Start       time.Time
	End         time.Time
	Description string
}

// Interval returns the busy window as an Interval.
func (b Busy) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

func (b Busy) String() string {
	return fmt.Sprintf("%s (%s - %s)", b.Title, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
}

// FreeSlot is a computed, conflict-free window available for new placements.
// Slots are derived per run and never mutated; recomputation is the only
// update path.
type FreeSlot struct {
	Start time.Time
	End   time.Time
}

// Interval returns the slot as an Interval.
func (s FreeSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// DurationMinutes returns the slot length in whole minutes.
func (s FreeSlot) DurationMinutes() int {
	return int(s.End.Sub(s.Start).Minutes())
}

func (s FreeSlot) String() string {
	return fmt.Sprintf("%s - %s (%dm)", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339), s.DurationMinutes())
}
