package placement

import (
	"fmt"
	"time"

	"github.com/me/autoplan/internal/interval"
)

// Validator checks proposed placements against the free-slot list and the
// busy intervals of the calendar. It never changes a placement's timing;
// infeasible placements are flipped to skipped with an explanatory reason.
type Validator struct {
	freeSlots []interval.FreeSlot
	busy      []interval.Busy

	// CheckProposedOverlap additionally rejects placements that overlap an
	// earlier accepted placement from the same proposal. Off by default:
	// packing tasks within a slot is the proposer's responsibility.
	CheckProposedOverlap bool
}

// NewValidator creates a Validator over a consistent snapshot of free slots
// and busy intervals.
func NewValidator(freeSlots []interval.FreeSlot, busy []interval.Busy) *Validator {
	return &Validator{freeSlots: freeSlots, busy: busy}
}

// Validate returns a same-shaped placement list. Each non-skipped entry is
// either accepted unchanged or flipped to skipped. Entries already skipped by
// the proposer pass through untouched, since they carry no timing to check.
func (v *Validator) Validate(proposed []Placement) []Placement {
	validated := make([]Placement, 0, len(proposed))
	var accepted []Placement

	for _, p := range proposed {
		if p.Skipped {
			validated = append(validated, p)
			continue
		}

		window := interval.Interval{Start: p.Start, End: p.End}

		if !v.insideFreeSlot(window) {
			p.Skipped = true
			p.Reason = fmt.Sprintf("validation error: scheduled outside of free slots (%s - %s); original reason: %s",
				p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), orNA(p.Reason))
			validated = append(validated, p)
			continue
		}

		if conflict, ok := v.collides(window); ok {
			p.Skipped = true
			p.Reason = fmt.Sprintf("validation error: overlaps with existing event %q (%s - %s)",
				conflict.Title, conflict.Start.Format(time.RFC3339), conflict.End.Format(time.RFC3339))
			validated = append(validated, p)
			continue
		}

		if v.CheckProposedOverlap {
			if prev, ok := overlapsAccepted(window, accepted); ok {
				p.Skipped = true
				p.Reason = fmt.Sprintf("validation error: overlaps with proposed task %q (%s - %s)",
					prev.Title, prev.Start.Format(time.RFC3339), prev.End.Format(time.RFC3339))
				validated = append(validated, p)
				continue
			}
		}

		accepted = append(accepted, p)
		validated = append(validated, p)
	}

	return validated
}

// insideFreeSlot reports whether some free slot fully contains the window.
func (v *Validator) insideFreeSlot(window interval.Interval) bool {
	for _, s := range v.freeSlots {
		if s.Interval().Contains(window) {
			return true
		}
	}
	return false
}

// collides returns the first busy interval overlapping the window.
func (v *Validator) collides(window interval.Interval) (interval.Busy, bool) {
	for _, b := range v.busy {
		if window.Overlaps(b.Interval()) {
			return b, true
		}
	}
	return interval.Busy{}, false
}

func overlapsAccepted(window interval.Interval, accepted []Placement) (Placement, bool) {
	for _, a := range accepted {
		if window.Overlaps(interval.Interval{Start: a.Start, End: a.End}) {
			return a, true
		}
	}
	return Placement{}, false
}

func orNA(reason string) string {
	if reason == "" {
		return "n/a"
	}
	return reason
}
