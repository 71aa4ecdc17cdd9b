package placement

import (
	"strings"
	"testing"
	"time"

	"github.com/me/autoplan/internal/interval"
)

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func slot(start, end time.Time) interval.FreeSlot {
	return interval.FreeSlot{Start: start, End: end}
}

func TestValidate_AcceptsExactSlotBounds(t *testing.T) {
	v := NewValidator([]interval.FreeSlot{slot(at(9, 0), at(10, 0))}, nil)

	got := v.Validate([]Placement{{Title: "X", Start: at(9, 0), End: at(10, 0), DurationMinutes: 60}})

	if len(got) != 1 {
		t.Fatalf("Validate() returned %d placements, want 1", len(got))
	}
	if got[0].Skipped {
		t.Errorf("placement at exact slot bounds rejected: %s", got[0].Reason)
	}
}

func TestValidate_RejectsOneMinutePastSlotEnd(t *testing.T) {
	v := NewValidator([]interval.FreeSlot{slot(at(9, 0), at(10, 0))}, nil)

	got := v.Validate([]Placement{{Title: "X", Start: at(9, 0), End: at(10, 1), DurationMinutes: 61}})

	if !got[0].Skipped {
		t.Fatal("placement extending past slot end should be rejected")
	}
	if !strings.Contains(got[0].Reason, "outside of free slots") {
		t.Errorf("reason = %q, want out-of-slot explanation", got[0].Reason)
	}
}

func TestValidate_RejectsOutsideAnySlot(t *testing.T) {
	// Only free slot is 09:00-10:00; proposal lands at 11:00-12:00.
	v := NewValidator([]interval.FreeSlot{slot(at(9, 0), at(10, 0))}, nil)

	got := v.Validate([]Placement{
		{Title: "X", Start: at(11, 0), End: at(12, 0), DurationMinutes: 60, Reason: "afternoon preference"},
		{Title: "Y", Start: at(9, 0), End: at(9, 30), DurationMinutes: 30},
	})

	if !got[0].Skipped {
		t.Error("X should be skipped")
	}
	if !strings.Contains(got[0].Reason, "11:00") {
		t.Errorf("reason should include the offending window, got %q", got[0].Reason)
	}
	if !strings.Contains(got[0].Reason, "afternoon preference") {
		t.Errorf("reason should carry the original reason, got %q", got[0].Reason)
	}
	if got[1].Skipped {
		t.Error("Y should still be accepted; rejection is per placement")
	}
}

func TestValidate_RejectsBusyCollision(t *testing.T) {
	// Slot covers the whole morning but a meeting overlaps by one minute.
	free := []interval.FreeSlot{slot(at(9, 0), at(12, 0))}
	busy := []interval.Busy{{Title: "Standup", Start: at(9, 59), End: at(10, 30)}}
	v := NewValidator(free, busy)

	got := v.Validate([]Placement{{Title: "X", Start: at(9, 0), End: at(10, 0), DurationMinutes: 60}})

	if !got[0].Skipped {
		t.Fatal("colliding placement should be rejected")
	}
	if !strings.Contains(got[0].Reason, "Standup") {
		t.Errorf("reason should name the conflicting event, got %q", got[0].Reason)
	}
}

func TestValidate_SkippedPassThrough(t *testing.T) {
	v := NewValidator(nil, nil)

	in := Placement{Title: "X", Skipped: true, Reason: "dependencies not satisfied"}
	got := v.Validate([]Placement{in})

	if !got[0].Skipped || got[0].Reason != in.Reason {
		t.Errorf("skipped placement should pass through unchanged, got %+v", got[0])
	}
}

func TestValidate_NoTimingMutation(t *testing.T) {
	v := NewValidator([]interval.FreeSlot{slot(at(9, 0), at(12, 0))}, nil)

	got := v.Validate([]Placement{{Title: "X", Start: at(9, 15), End: at(10, 0), DurationMinutes: 45}})

	if !got[0].Start.Equal(at(9, 15)) || !got[0].End.Equal(at(10, 0)) {
		t.Error("validator must never adjust placement timing")
	}
}

func TestValidate_ProposedOverlapOptIn(t *testing.T) {
	free := []interval.FreeSlot{slot(at(9, 0), at(12, 0))}
	proposed := []Placement{
		{Title: "First", Start: at(9, 0), End: at(10, 0), DurationMinutes: 60},
		{Title: "Second", Start: at(9, 30), End: at(10, 30), DurationMinutes: 60},
	}

	// Default: the proposer owns within-slot packing, both pass.
	v := NewValidator(free, nil)
	got := v.Validate(proposed)
	if got[0].Skipped || got[1].Skipped {
		t.Fatal("default validator should not reject proposer-internal overlap")
	}

	// Strict: the later placement loses.
	strict := NewValidator(free, nil)
	strict.CheckProposedOverlap = true
	got = strict.Validate(proposed)
	if got[0].Skipped {
		t.Error("first placement should stay accepted")
	}
	if !got[1].Skipped || !strings.Contains(got[1].Reason, "First") {
		t.Errorf("second placement should be rejected naming the first, got %+v", got[1])
	}
}
