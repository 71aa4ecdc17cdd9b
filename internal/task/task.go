// Package task defines the core domain types for autoplan.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidRange       = errors.New("duration range minimum must not exceed maximum")
	ErrInvalidPriority    = errors.New("priority must be 'high', 'medium' or 'low'")
	ErrInvalidPreference  = errors.New("time preference must be 'morning', 'afternoon', 'evening' or 'anytime'")
	ErrDuplicateTitle     = errors.New("task titles must be unique")
	ErrRangeMinimumDrift  = errors.New("duration must equal the range minimum when a range is set")
	ErrBelowMinimumLength = errors.New("duration is below the minimum granularity")
)

// Priority ranks a task for scheduling order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort rank of the priority, lower is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// ParsePriority parses a priority string, defaulting to medium for empty input.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", ErrInvalidPriority
	}
}

// TimePreference is a soft hint about the preferred part of day.
// It never becomes a hard constraint.
type TimePreference string

const (
	PreferMorning   TimePreference = "morning"
	PreferAfternoon TimePreference = "afternoon"
	PreferEvening   TimePreference = "evening"
	PreferAnytime   TimePreference = "anytime"
)

// ParseTimePreference parses a time preference, defaulting to anytime.
func ParseTimePreference(s string) (TimePreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PreferAnytime, nil
	case "morning":
		return PreferMorning, nil
	case "afternoon":
		return PreferAfternoon, nil
	case "evening":
		return PreferEvening, nil
	case "anytime":
		return PreferAnytime, nil
	default:
		return "", ErrInvalidPreference
	}
}

// DurationRange marks a flexible task that may be stretched between
// Min and Max minutes.
type DurationRange struct {
	Min int
	Max int
}

// Task is a unit of work to be placed into the calendar.
// Tasks are read-only inputs to the scheduling core for the duration of a run.
type Task struct {
	Title           string
	DurationMinutes int            // minimum duration; equals Range.Min when Range is set
	Range           *DurationRange // nil for fixed-duration tasks
	Priority        Priority
	TargetDate      *time.Time // task must be placed entirely within this date
	TimePreference  TimePreference
	Dependencies    []string // free-text references to other task titles
	ReminderMinutes int      // 0 means no reminder
	Link            string   // optional resource URL
	Calendar        string   // optional target calendar name
	Notes           string
}

// MinGranularityMinutes is the smallest schedulable duration.
const MinGranularityMinutes = 1

// Validate checks the task invariants.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.DurationMinutes <= 0 {
		return fmt.Errorf("%q: %w", t.Title, ErrInvalidDuration)
	}
	if t.DurationMinutes < MinGranularityMinutes {
		return fmt.Errorf("%q: %w", t.Title, ErrBelowMinimumLength)
	}
	if t.Range != nil {
		if t.Range.Min <= 0 || t.Range.Max <= 0 || t.Range.Min > t.Range.Max {
			return fmt.Errorf("%q: %w", t.Title, ErrInvalidRange)
		}
		if t.DurationMinutes != t.Range.Min {
			return fmt.Errorf("%q: %w", t.Title, ErrRangeMinimumDrift)
		}
	}
	return nil
}

// MaxDurationMinutes returns the longest duration the task may take.
func (t *Task) MaxDurationMinutes() int {
	if t.Range != nil {
		return t.Range.Max
	}
	return t.DurationMinutes
}

// Flexible reports whether the task duration may be stretched.
func (t *Task) Flexible() bool {
	return t.Range != nil && t.Range.Max > t.Range.Min
}

func (t *Task) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%dm)", t.Title, t.DurationMinutes)
	if t.Range != nil {
		fmt.Fprintf(&sb, " [%d-%dm]", t.Range.Min, t.Range.Max)
	}
	fmt.Fprintf(&sb, " [%s]", t.Priority)
	if t.Calendar != "" {
		fmt.Fprintf(&sb, " [cal: %s]", t.Calendar)
	}
	if t.TargetDate != nil {
		fmt.Fprintf(&sb, " [date: %s]", t.TargetDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&sb, " [time: %s]", t.TimePreference)
	if len(t.Dependencies) > 0 {
		fmt.Fprintf(&sb, " [depends: %s]", strings.Join(t.Dependencies, ", "))
	}
	return sb.String()
}

// CheckUniqueTitles fails fast when two tasks share a title,
// compared case-insensitively. Title uniqueness is a precondition of the
// scheduling core.
func CheckUniqueTitles(tasks []*Task) error {
	seen := make(map[string]string, len(tasks))
	for _, t := range tasks {
		key := strings.ToLower(strings.TrimSpace(t.Title))
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateTitle, prev, t.Title)
		}
		seen[key] = t.Title
	}
	return nil
}
