package mdparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/me/autoplan/internal/task"
)

var testNow = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func writeTask(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func defaults() Defaults {
	return Defaults{
		DurationMinutes: 60,
		Priority:        task.PriorityMedium,
		TimePreference:  task.PreferAnytime,
	}
}

func TestParseStructuredFields(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "Prepare slides.md", `c: work
r: 30m
p: high
t: morning
d: Collect feedback, Draft outline
dur: 2h
l: https://example.com/deck
`)

	tasks, err := New(dir, defaults(), testNow).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	got := tasks[0]
	if got.Title != "Prepare slides" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.DurationMinutes != 120 {
		t.Errorf("DurationMinutes = %d, want 120", got.DurationMinutes)
	}
	if got.Priority != task.PriorityHigh {
		t.Errorf("Priority = %q", got.Priority)
	}
	if got.TimePreference != task.PreferMorning {
		t.Errorf("TimePreference = %q", got.TimePreference)
	}
	if got.Calendar != "work" {
		t.Errorf("Calendar = %q", got.Calendar)
	}
	if got.ReminderMinutes != 30 {
		t.Errorf("ReminderMinutes = %d", got.ReminderMinutes)
	}
	if got.Link != "https://example.com/deck" {
		t.Errorf("Link = %q", got.Link)
	}
	if len(got.Dependencies) != 2 || got.Dependencies[0] != "Collect feedback" || got.Dependencies[1] != "Draft outline" {
		t.Errorf("Dependencies = %v", got.Dependencies)
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "Review budget.md", "high priority, afternoon, remind 1h, cal finance, time 90m")

	tasks, err := New(dir, defaults(), testNow).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := tasks[0]
	if got.Priority != task.PriorityHigh {
		t.Errorf("Priority = %q", got.Priority)
	}
	if got.TimePreference != task.PreferAfternoon {
		t.Errorf("TimePreference = %q", got.TimePreference)
	}
	if got.ReminderMinutes != 60 {
		t.Errorf("ReminderMinutes = %d", got.ReminderMinutes)
	}
	if got.Calendar != "finance" {
		t.Errorf("Calendar = %q", got.Calendar)
	}
	if got.DurationMinutes != 90 {
		t.Errorf("DurationMinutes = %d", got.DurationMinutes)
	}
}

func TestParseDurationRange(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "Deep work.md", "dur: 2-4h")

	tasks, err := New(dir, defaults(), testNow).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := tasks[0]
	if got.Range == nil {
		t.Fatal("expected a duration range")
	}
	if got.Range.Min != 120 || got.Range.Max != 240 {
		t.Errorf("Range = %+v, want 120-240", got.Range)
	}
	if got.DurationMinutes != 120 {
		t.Errorf("DurationMinutes = %d, want the range minimum", got.DurationMinutes)
	}
}

func TestParseTargetDate(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "File taxes.md", "due: tomorrow\ndur: 1h")

	tasks, err := New(dir, defaults(), testNow).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := tasks[0]
	if got.TargetDate == nil {
		t.Fatal("expected a target date")
	}
	want := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	if !got.TargetDate.Equal(want) {
		t.Errorf("TargetDate = %v, want %v", got.TargetDate, want)
	}
}

func TestParseTargetDateNextWeekday(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "File taxes.md", "due: next-friday\ndur: 1h")

	tasks, err := New(dir, defaults(), testNow).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := tasks[0]
	if got.TargetDate == nil {
		t.Fatal("expected a target date")
	}
	want := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	if !got.TargetDate.Equal(want) {
		t.Errorf("TargetDate = %v, want %v", got.TargetDate, want)
	}
}

func TestParseDefaultsApply(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "Just a note.md", "nothing machine readable here")

	d := defaults()
	d.ReminderMinutes = 15
	tasks, err := New(dir, d, testNow).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := tasks[0]
	if got.DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want default 60", got.DurationMinutes)
	}
	if got.Priority != task.PriorityMedium || got.TimePreference != task.PreferAnytime {
		t.Errorf("defaults not applied: %v", got)
	}
	if got.ReminderMinutes != 15 {
		t.Errorf("ReminderMinutes = %d, want default 15", got.ReminderMinutes)
	}
}

func TestParseSkipsFileWithoutDuration(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "No duration.md", "p: low")

	p := New(dir, Defaults{}, testNow)
	tasks, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected file to be skipped, got %v", tasks)
	}
	if len(p.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", p.Warnings())
	}
}

func TestParseInvalidDurationFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "Odd duration.md", "dur: soonish")

	p := New(dir, defaults(), testNow)
	tasks, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tasks[0].DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want default 60", tasks[0].DurationMinutes)
	}
	if len(p.Warnings()) == 0 {
		t.Error("expected an invalid-duration warning")
	}
}

func TestParseMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"), defaults(), testNow).Parse()
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestParseIgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "Real task.md", "dur: 30m")
	writeTask(t, dir, "notes.txt", "dur: 30m")

	tasks, err := New(dir, defaults(), testNow).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected only the .md file, got %d tasks", len(tasks))
	}
}

func TestParseReminderFirstValueWins(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"30m", 30},
		{"2h", 120},
		{"1h, 30m", 60},
		{"1hr and 30m", 60},
	}
	for _, tt := range tests {
		got, ok := parseReminder(tt.input)
		if !ok || got != tt.want {
			t.Errorf("parseReminder(%q) = %d, %v; want %d", tt.input, got, ok, tt.want)
		}
	}
}
