// Package placement defines proposed task placements and validates them
// against free slots and existing calendar commitments.
package placement

import (
	"fmt"
	"time"
)

// Placement assigns a task to a concrete time window, or marks it skipped
// with a reason. Placements are created by a proposer per run, validated
// once, and discarded after the run.
type Placement struct {
	Title           string
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Reason          string
	Skipped         bool
}

func (p Placement) String() string {
	if p.Skipped {
		return fmt.Sprintf("%s: skipped (%s)", p.Title, p.Reason)
	}
	return fmt.Sprintf("%s: %s - %s (%dm)", p.Title,
		p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), p.DurationMinutes)
}
