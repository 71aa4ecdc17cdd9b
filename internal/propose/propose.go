// Package propose produces candidate placements for a task set within the
// computed free slots. Proposals are advisory: every placement is re-checked
// by the placement validator before anything touches the calendar.
package propose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/me/autoplan/internal/deps"
	"github.com/me/autoplan/internal/interval"
	"github.com/me/autoplan/internal/placement"
	"github.com/me/autoplan/internal/task"
)

// ErrEmptyProposal is returned when the proposer yields no entries at all for
// a non-empty task set.
var ErrEmptyProposal = errors.New("proposer returned no placements")

// ResponseError reports an unusable proposer response. Raw carries the
// original response text for diagnostics.
type ResponseError struct {
	Raw string
	Err error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("unusable proposer response: %v", e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// Request bundles the inputs of one proposal round. Tasks arrive in the
// resolved scheduling order (prerequisites first).
type Request struct {
	Tasks    []*task.Task
	DepInfo  map[string]deps.Info
	Slots    []interval.FreeSlot
	Busy     []interval.Busy
	Now      time.Time
	Location *time.Location
}

func (r Request) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return r.Now.Location()
}

// Proposer maps tasks onto free slots. Implementations must return one entry
// per task they considered; tasks they cannot place are returned with
// Skipped set and a reason.
type Proposer interface {
	Propose(ctx context.Context, req Request) ([]placement.Placement, error)
}
