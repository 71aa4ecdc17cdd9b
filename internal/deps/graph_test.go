package deps

import (
	"errors"
	"testing"

	"github.com/me/autoplan/internal/task"
)

func mkTask(title string, prio task.Priority, deps ...string) *task.Task {
	return &task.Task{
		Title:           title,
		DurationMinutes: 60,
		Priority:        prio,
		TimePreference:  task.PreferAnytime,
		Dependencies:    deps,
	}
}

func titles(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestResolve_PrerequisitesFirst(t *testing.T) {
	tasks := []*task.Task{
		mkTask("Deploy", task.PriorityMedium, "Build", "Test"),
		mkTask("Build", task.PriorityMedium),
		mkTask("Test", task.PriorityMedium, "Build"),
	}

	r := NewResolver(tasks)
	ordered, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(ordered) != len(tasks) {
		t.Fatalf("Resolve() returned %d tasks, want %d", len(ordered), len(tasks))
	}

	got := titles(ordered)
	if indexOf(got, "Build") > indexOf(got, "Test") {
		t.Errorf("Build should precede Test, got %v", got)
	}
	if indexOf(got, "Test") > indexOf(got, "Deploy") {
		t.Errorf("Test should precede Deploy, got %v", got)
	}
}

func TestResolve_FuzzyMatch(t *testing.T) {
	// C references "Aa", a near-miss of "A" handled by fuzzy matching.
	tasks := []*task.Task{
		mkTask("Prepare slides", task.PriorityMedium),
		mkTask("B", task.PriorityMedium, "Prepare slides"),
		mkTask("C", task.PriorityMedium, "Prepare slidess"),
	}

	r := NewResolver(tasks)
	ordered, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	got := titles(ordered)
	if indexOf(got, "Prepare slides") > indexOf(got, "B") {
		t.Errorf("prerequisite should precede B, got %v", got)
	}
	if indexOf(got, "Prepare slides") > indexOf(got, "C") {
		t.Errorf("fuzzy-resolved prerequisite should precede C, got %v", got)
	}

	info := r.DependencyInfo()
	if len(info["C"].Prerequisites) != 1 || info["C"].Prerequisites[0] != "Prepare slides" {
		t.Errorf("C prerequisites = %v, want [Prepare slides]", info["C"].Prerequisites)
	}
	if len(r.Warnings()) != 0 {
		t.Errorf("fuzzy match should not warn, got %v", r.Warnings())
	}
}

func TestResolve_CaseInsensitiveExactMatch(t *testing.T) {
	tasks := []*task.Task{
		mkTask("Write Report", task.PriorityMedium),
		mkTask("Send Report", task.PriorityMedium, "write report"),
	}

	r := NewResolver(tasks)
	if _, err := r.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	info := r.DependencyInfo()
	if len(info["Send Report"].Prerequisites) != 1 || info["Send Report"].Prerequisites[0] != "Write Report" {
		t.Errorf("prerequisites = %v, want [Write Report]", info["Send Report"].Prerequisites)
	}
}

func TestResolve_UnresolvedDependencyIsDropped(t *testing.T) {
	tasks := []*task.Task{
		mkTask("A", task.PriorityMedium),
		mkTask("B", task.PriorityMedium, "Completely unrelated thing"),
	}

	r := NewResolver(tasks)
	ordered, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(ordered) != 2 {
		t.Fatalf("Resolve() returned %d tasks, want 2", len(ordered))
	}
	if len(r.Warnings()) != 1 {
		t.Errorf("Warnings() = %v, want exactly one", r.Warnings())
	}
	if len(r.DependencyInfo()["B"].Prerequisites) != 0 {
		t.Errorf("unresolved dependency should leave B without prerequisites")
	}
}

func TestResolve_CycleIsFatal(t *testing.T) {
	tasks := []*task.Task{
		mkTask("A", task.PriorityMedium, "C"),
		mkTask("B", task.PriorityMedium, "A"),
		mkTask("C", task.PriorityMedium, "B"),
	}

	r := NewResolver(tasks)
	ordered, err := r.Resolve()
	if ordered != nil {
		t.Error("cyclic graph must not produce an ordering")
	}

	var cde *CircularDependencyError
	if !errors.As(err, &cde) {
		t.Fatalf("Resolve() error = %v, want CircularDependencyError", err)
	}
	if len(cde.Cycle) < 3 {
		t.Errorf("cycle path = %v, want at least the three participating tasks", cde.Cycle)
	}
}

func TestResolve_PriorityTieBreak(t *testing.T) {
	tasks := []*task.Task{
		mkTask("Low first in input", task.PriorityLow),
		mkTask("High later in input", task.PriorityHigh),
		mkTask("Medium", task.PriorityMedium),
	}

	r := NewResolver(tasks)
	ordered, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	got := titles(ordered)
	want := []string{"High later in input", "Medium", "Low first in input"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestResolve_StableWithinEqualPriority(t *testing.T) {
	tasks := []*task.Task{
		mkTask("First", task.PriorityMedium),
		mkTask("Second", task.PriorityMedium),
		mkTask("Third", task.PriorityMedium),
	}

	r := NewResolver(tasks)
	ordered, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	got := titles(ordered)
	want := []string{"First", "Second", "Third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want input order %v", got, want)
		}
	}
}

func TestResolve_IsPermutation(t *testing.T) {
	tasks := []*task.Task{
		mkTask("A", task.PriorityHigh),
		mkTask("B", task.PriorityLow, "A"),
		mkTask("C", task.PriorityMedium),
		mkTask("D", task.PriorityHigh, "C", "B"),
		mkTask("Island", task.PriorityLow),
	}

	r := NewResolver(tasks)
	ordered, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(ordered) != len(tasks) {
		t.Fatalf("result length = %d, want %d", len(ordered), len(tasks))
	}

	seen := make(map[string]bool)
	for _, tk := range ordered {
		if seen[tk.Title] {
			t.Fatalf("task %q appears twice", tk.Title)
		}
		seen[tk.Title] = true
	}
}

func TestDependencyInfo_Order(t *testing.T) {
	tasks := []*task.Task{
		mkTask("B", task.PriorityMedium, "A"),
		mkTask("A", task.PriorityMedium),
	}

	r := NewResolver(tasks)
	if _, err := r.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	info := r.DependencyInfo()
	if info["A"].Order != 0 || info["B"].Order != 1 {
		t.Errorf("orders = A:%d B:%d, want A:0 B:1", info["A"].Order, info["B"].Order)
	}
	if len(info["B"].MustFollow) != 1 || info["B"].MustFollow[0] != "A" {
		t.Errorf("B MustFollow = %v, want [A]", info["B"].MustFollow)
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []string{"Write thesis introduction", "Review pull requests", "Email clients"}

	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{query: "Write thesis intro", want: "Write thesis introduction", wantOK: true},
		{query: "review pull request", want: "Review pull requests", wantOK: true},
		{query: "Walk the dog", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := BestMatch(tt.query, candidates, FuzzyThreshold)
		if ok != tt.wantOK {
			t.Errorf("BestMatch(%q) ok = %v, want %v", tt.query, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("BestMatch(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
