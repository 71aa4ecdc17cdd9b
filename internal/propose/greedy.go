package propose

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/me/autoplan/internal/placement"
	"github.com/me/autoplan/internal/task"
)

// Greedy is a deterministic proposer: it walks the tasks in their resolved
// order and packs each one into the earliest gap that satisfies its
// prerequisites, target date and duration. Time preferences get a first pass
// over matching slots before falling back to any slot.
type Greedy struct{}

// NewGreedy creates a deterministic proposer.
func NewGreedy() *Greedy {
	return &Greedy{}
}

// segment is a still-unoccupied stretch of a free slot.
type segment struct {
	start time.Time
	end   time.Time
}

// Propose places tasks greedily. It never returns an error; tasks that do
// not fit come back skipped with a reason.
func (g *Greedy) Propose(_ context.Context, req Request) ([]placement.Placement, error) {
	free := make([]segment, 0, len(req.Slots))
	for _, s := range req.Slots {
		free = append(free, segment{start: s.Start, end: s.End})
	}

	placements := make([]placement.Placement, 0, len(req.Tasks))
	endOf := make(map[string]time.Time, len(req.Tasks))
	skipped := make(map[string]bool)

	for _, t := range req.Tasks {
		p := g.placeTask(t, req, &free, endOf, skipped)
		if p.Skipped {
			skipped[t.Title] = true
		} else {
			endOf[t.Title] = p.End
		}
		placements = append(placements, p)
	}
	return placements, nil
}

func (g *Greedy) placeTask(t *task.Task, req Request, free *[]segment,
	endOf map[string]time.Time, skippedTasks map[string]bool) placement.Placement {

	var prereqs []string
	if info, ok := req.DepInfo[t.Title]; ok {
		prereqs = info.Prerequisites
	}

	// A task cannot start before its prerequisites end; a skipped
	// prerequisite cascades.
	var notBefore time.Time
	for _, dep := range prereqs {
		if skippedTasks[dep] {
			return placement.Placement{
				Title:   t.Title,
				Reason:  fmt.Sprintf("prerequisite %q could not be scheduled", dep),
				Skipped: true,
			}
		}
		end, ok := endOf[dep]
		if !ok {
			return placement.Placement{
				Title:   t.Title,
				Reason:  fmt.Sprintf("prerequisite %q has no placement yet", dep),
				Skipped: true,
			}
		}
		if end.After(notBefore) {
			notBefore = end
		}
	}

	// Preference pass first, then any slot.
	if t.TimePreference != task.PreferAnytime && t.TimePreference != "" {
		if p, ok := g.tryFit(t, req, free, notBefore, true); ok {
			return p
		}
	}
	if p, ok := g.tryFit(t, req, free, notBefore, false); ok {
		return p
	}

	reason := "no free slot long enough"
	if t.TargetDate != nil {
		reason = fmt.Sprintf("no free slot fits on target date %s", t.TargetDate.Format("2006-01-02"))
	}
	return placement.Placement{Title: t.Title, Reason: reason, Skipped: true}
}

func (g *Greedy) tryFit(t *task.Task, req Request, free *[]segment,
	notBefore time.Time, matchPreference bool) (placement.Placement, bool) {

	loc := req.location()
	minDur := time.Duration(t.DurationMinutes) * time.Minute

	for i, seg := range *free {
		start := seg.start
		if start.Before(notBefore) {
			start = notBefore
		}
		if !start.Before(seg.end) {
			continue
		}
		if t.TargetDate != nil && !sameDate(start.In(loc), *t.TargetDate) {
			continue
		}
		if matchPreference && partOfDay(start.In(loc)) != string(t.TimePreference) {
			continue
		}
		if seg.end.Sub(start) < minDur {
			continue
		}

		duration := minDur
		if t.Flexible() {
			available := seg.end.Sub(start)
			maxDur := time.Duration(t.Range.Max) * time.Minute
			if available < maxDur {
				duration = available
			} else {
				duration = maxDur
			}
		}
		end := start.Add(duration)

		g.occupy(free, i, start, end)
		return placement.Placement{
			Title:           t.Title,
			Start:           start,
			End:             end,
			DurationMinutes: int(duration.Minutes()),
			Reason:          g.reason(t, req, matchPreference),
		}, true
	}
	return placement.Placement{}, false
}

// occupy carves [start, end) out of the i-th segment, keeping the remaining
// pieces sorted chronologically.
func (g *Greedy) occupy(free *[]segment, i int, start, end time.Time) {
	seg := (*free)[i]
	replacement := make([]segment, 0, 2)
	if seg.start.Before(start) {
		replacement = append(replacement, segment{start: seg.start, end: start})
	}
	if end.Before(seg.end) {
		replacement = append(replacement, segment{start: end, end: seg.end})
	}

	updated := append([]segment{}, (*free)[:i]...)
	updated = append(updated, replacement...)
	updated = append(updated, (*free)[i+1:]...)
	sort.SliceStable(updated, func(a, b int) bool {
		return updated[a].start.Before(updated[b].start)
	})
	*free = updated
}

func (g *Greedy) reason(t *task.Task, req Request, preferenceMatched bool) string {
	parts := []string{fmt.Sprintf("%s priority, earliest fit", t.Priority)}
	if info, ok := req.DepInfo[t.Title]; ok && len(info.Prerequisites) > 0 {
		parts = append(parts, fmt.Sprintf("after %s", strings.Join(info.Prerequisites, ", ")))
	}
	if preferenceMatched {
		parts = append(parts, fmt.Sprintf("%s preference matched", t.TimePreference))
	}
	return strings.Join(parts, ", ")
}

func sameDate(t, date time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

var _ Proposer = (*Greedy)(nil)
var _ Proposer = (*LLMProposer)(nil)
