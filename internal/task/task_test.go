package task

import (
	"errors"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	target := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		task    Task
		wantErr error
	}{
		{
			name: "valid fixed duration",
			task: Task{Title: "Write report", DurationMinutes: 60, Priority: PriorityMedium, TimePreference: PreferAnytime},
		},
		{
			name: "valid flexible duration",
			task: Task{Title: "Research", DurationMinutes: 120, Range: &DurationRange{Min: 120, Max: 240}, Priority: PriorityHigh, TimePreference: PreferMorning},
		},
		{
			name: "valid with target date",
			task: Task{Title: "Dentist prep", DurationMinutes: 30, TargetDate: &target, Priority: PriorityLow, TimePreference: PreferAnytime},
		},
		{
			name:    "empty title",
			task:    Task{Title: "  ", DurationMinutes: 60},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "zero duration",
			task:    Task{Title: "Nothing", DurationMinutes: 0},
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "negative duration",
			task:    Task{Title: "Nothing", DurationMinutes: -30},
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "inverted range",
			task:    Task{Title: "Research", DurationMinutes: 240, Range: &DurationRange{Min: 240, Max: 120}},
			wantErr: ErrInvalidRange,
		},
		{
			name:    "duration differs from range minimum",
			task:    Task{Title: "Research", DurationMinutes: 90, Range: &DurationRange{Min: 120, Max: 240}},
			wantErr: ErrRangeMinimumDrift,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "high", want: PriorityHigh},
		{in: "HIGH", want: PriorityHigh},
		{in: " medium ", want: PriorityMedium},
		{in: "low", want: PriorityLow},
		{in: "", want: PriorityMedium},
		{in: "urgent", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	if PriorityHigh.Rank() >= PriorityMedium.Rank() {
		t.Error("high should rank before medium")
	}
	if PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Error("medium should rank before low")
	}
}

func TestMaxDurationMinutes(t *testing.T) {
	fixed := Task{Title: "a", DurationMinutes: 60}
	if got := fixed.MaxDurationMinutes(); got != 60 {
		t.Errorf("fixed MaxDurationMinutes() = %d, want 60", got)
	}

	flex := Task{Title: "b", DurationMinutes: 60, Range: &DurationRange{Min: 60, Max: 120}}
	if got := flex.MaxDurationMinutes(); got != 120 {
		t.Errorf("flexible MaxDurationMinutes() = %d, want 120", got)
	}
	if !flex.Flexible() {
		t.Error("task with wider range should be flexible")
	}
	if fixed.Flexible() {
		t.Error("fixed task should not be flexible")
	}
}

func TestCheckUniqueTitles(t *testing.T) {
	ok := []*Task{
		{Title: "Write report"},
		{Title: "Review PRs"},
	}
	if err := CheckUniqueTitles(ok); err != nil {
		t.Errorf("CheckUniqueTitles() = %v, want nil", err)
	}

	dup := []*Task{
		{Title: "Write report"},
		{Title: "write REPORT"},
	}
	if err := CheckUniqueTitles(dup); !errors.Is(err, ErrDuplicateTitle) {
		t.Errorf("CheckUniqueTitles() = %v, want ErrDuplicateTitle", err)
	}
}
