package propose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/me/autoplan/internal/interval"
	"github.com/me/autoplan/internal/llm"
	"github.com/me/autoplan/internal/placement"
)

const schedulingPrompt = `You are a scheduling assistant. I need you to schedule the following tasks into available time slots.

TASKS TO SCHEDULE:
%s

AVAILABLE TIME SLOTS (These are the ONLY valid times - these slots are already calculated to avoid existing calendar events):
%s

TIME SLOTS BY PREFERENCE:
%s

CRITICAL CONSTRAINTS:
- You MUST ONLY use the time slots listed in "AVAILABLE TIME SLOTS" above
- DO NOT schedule tasks outside of these slots under any circumstances
- If a task doesn't fit in any available slot, skip it with "skipped": true
- SCHEDULE TASKS AS EARLY AS POSSIBLE: always use the earliest available time that fits the task
- MULTIPLE TASKS CAN FIT IN THE SAME SLOT as long as they don't overlap:
  - Example: a 9:00-12:00 slot can hold a 60-minute task at 9:00-10:00 and a 90-minute task at 10:00-11:30
  - Track already-scheduled tasks and treat them as obstacles within slots
  - Fill gaps: if a task doesn't fit at the start of a slot, check if it fits after an already-scheduled task
- PRIORITY ORDERING WITH SMART SLOT FILLING:
  - Prefer high priority tasks when several tasks could take the same slot
  - Use lower priority tasks to fill slots where higher priority tasks cannot fit, don't waste slots
  - Exception: dependencies may force a lower priority task before a higher priority one

INSTRUCTIONS:
1. Process slots chronologically (earliest first) and fit the best remaining task into each slot or gap
2. For tasks with a fixed duration (no duration_range), respect the duration exactly
3. For tasks with a duration_range, schedule at least duration_minutes and stretch up to max_duration_minutes when the remaining space in the slot allows
4. DEPENDENCIES: a task listing must_schedule_after_tasks MUST start after all of those tasks end; if a prerequisite cannot be scheduled, skip the dependent task too
5. TIME PREFERENCES are soft: prefer matching slots (morning before 12:00, afternoon 12:00-17:00, evening after 17:00) but never delay a high-priority task for them
6. If a task has a target_date it MUST be placed on that date; only use slots on that date
7. Don't split tasks across multiple slots
8. If a task doesn't fit or its dependencies cannot be satisfied, skip it and explain why

%sReturn your response as a JSON array. For each scheduled task include:
- title: task title (string)
- start: start time in ISO format (string)
- end: end time in ISO format (string)
- duration_minutes: actual scheduled duration in minutes (integer)
- reason: brief explanation including dependency satisfaction and time preference matching (string)

For any task that couldn't be scheduled, include it with "skipped": true and a reason.

Return ONLY the JSON array, no other text or markdown formatting.
`

type taskPayload struct {
	Title             string   `json:"title"`
	DurationMinutes   int      `json:"duration_minutes"`
	MaxDurationMins   *int     `json:"max_duration_minutes,omitempty"`
	Priority          string   `json:"priority"`
	TargetDate        *string  `json:"target_date"`
	TimePreference    string   `json:"time_preference"`
	Dependencies      []string `json:"dependencies"`
	MustScheduleAfter []string `json:"must_schedule_after_tasks"`
}

type slotPayload struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

type proposalEntry struct {
	Title           string `json:"title"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason"`
	Skipped         bool   `json:"skipped"`
}

// LLMProposer asks an LLM to lay tasks into the free slots. Responses are
// handled leniently: unreadable entries degrade to skipped tasks, only a
// fully unusable response is an error.
type LLMProposer struct {
	client llm.Client
}

// NewLLMProposer creates a proposer backed by the given LLM client.
func NewLLMProposer(client llm.Client) *LLMProposer {
	return &LLMProposer{client: client}
}

// Propose sends the scheduling prompt and converts the response into
// placements. Returns *ResponseError when the response cannot be decoded or
// contains no entries for a non-empty task set.
func (p *LLMProposer) Propose(ctx context.Context, req Request) ([]placement.Placement, error) {
	if len(req.Tasks) == 0 {
		return nil, nil
	}

	prompt, err := p.buildPrompt(req)
	if err != nil {
		return nil, err
	}

	var entries []proposalEntry
	raw, err := p.client.ChatJSON(ctx, []llm.Message{{Role: "user", Content: prompt}}, &entries)
	if err != nil {
		if raw == "" {
			return nil, fmt.Errorf("requesting placements: %w", err)
		}
		return nil, &ResponseError{Raw: raw, Err: err}
	}
	if len(entries) == 0 {
		return nil, &ResponseError{Raw: raw, Err: ErrEmptyProposal}
	}

	return entriesToPlacements(entries, req.location()), nil
}

func (p *LLMProposer) buildPrompt(req Request) (string, error) {
	tasksData := make([]taskPayload, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		payload := taskPayload{
			Title:             t.Title,
			DurationMinutes:   t.DurationMinutes,
			Priority:          string(t.Priority),
			TimePreference:    string(t.TimePreference),
			Dependencies:      []string{},
			MustScheduleAfter: []string{},
		}
		if t.Range != nil {
			upper := t.Range.Max
			payload.MaxDurationMins = &upper
		}
		if t.TargetDate != nil {
			date := t.TargetDate.Format("2006-01-02")
			payload.TargetDate = &date
		}
		if info, ok := req.DepInfo[t.Title]; ok {
			payload.Dependencies = append(payload.Dependencies, info.Prerequisites...)
			payload.MustScheduleAfter = append(payload.MustScheduleAfter, info.MustFollow...)
		}
		tasksData = append(tasksData, payload)
	}

	slotsData := make([]slotPayload, 0, len(req.Slots))
	for _, s := range req.Slots {
		slotsData = append(slotsData, slotPayload{
			Start:           s.Start.Format(time.RFC3339),
			End:             s.End.Format(time.RFC3339),
			DurationMinutes: s.DurationMinutes(),
		})
	}

	tasksJSON, err := json.MarshalIndent(tasksData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding tasks: %w", err)
	}
	slotsJSON, err := json.MarshalIndent(slotsData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding slots: %w", err)
	}
	byPrefJSON, err := json.MarshalIndent(slotsByPreference(req.Slots), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding slot categories: %w", err)
	}

	return fmt.Sprintf(schedulingPrompt, tasksJSON, slotsJSON, byPrefJSON, eventContext(req.Busy)), nil
}

// slotsByPreference buckets slots by the part of day their start falls in.
// Every slot additionally lands in the anytime bucket.
func slotsByPreference(slots []interval.FreeSlot) map[string][]slotPayload {
	buckets := map[string][]slotPayload{
		"morning":   {},
		"afternoon": {},
		"evening":   {},
		"anytime":   {},
	}
	for _, s := range slots {
		payload := slotPayload{
			Start:           s.Start.Format(time.RFC3339),
			End:             s.End.Format(time.RFC3339),
			DurationMinutes: s.DurationMinutes(),
		}
		buckets[partOfDay(s.Start)] = append(buckets[partOfDay(s.Start)], payload)
		buckets["anytime"] = append(buckets["anytime"], payload)
	}
	return buckets
}

func partOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

// eventContext lists a few existing events so the model understands why the
// slots look the way they do. Slots already exclude these windows.
func eventContext(busy []interval.Busy) string {
	if len(busy) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("CONTEXT (existing events for reference):\n")
	for i, b := range busy {
		if i == 5 {
			break
		}
		fmt.Fprintf(&sb, "- %s (%s - %s)\n", b.Title,
			b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
	}
	sb.WriteString("\n")
	return sb.String()
}

// entriesToPlacements converts parsed entries, degrading malformed timed
// entries to skipped placements instead of failing the whole proposal.
func entriesToPlacements(entries []proposalEntry, loc *time.Location) []placement.Placement {
	placements := make([]placement.Placement, 0, len(entries))
	for _, e := range entries {
		if e.Title == "" {
			continue
		}
		if e.Skipped {
			placements = append(placements, placement.Placement{
				Title:   e.Title,
				Reason:  e.Reason,
				Skipped: true,
			})
			continue
		}

		start, startErr := parseTimestamp(e.Start, loc)
		end, endErr := parseTimestamp(e.End, loc)
		if startErr != nil || endErr != nil || !start.Before(end) {
			placements = append(placements, placement.Placement{
				Title:   e.Title,
				Reason:  fmt.Sprintf("proposal had an unreadable time window (%q - %q)", e.Start, e.End),
				Skipped: true,
			})
			continue
		}

		duration := e.DurationMinutes
		if duration <= 0 {
			duration = int(end.Sub(start).Minutes())
		}
		placements = append(placements, placement.Placement{
			Title:           e.Title,
			Start:           start,
			End:             end,
			DurationMinutes: duration,
			Reason:          e.Reason,
		})
	}
	return placements
}

// parseTimestamp accepts RFC 3339 and zone-less ISO timestamps; the latter
// are interpreted in the scheduling timezone.
func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, loc)
}
