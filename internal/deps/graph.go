// Package deps resolves free-text task dependency references and computes a
// priority-aware topological scheduling order.
package deps

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/me/autoplan/internal/task"
)

// CircularDependencyError reports a dependency cycle. A cycle is fatal for
// the whole task set: no partial ordering is produced.
type CircularDependencyError struct {
	Cycle []string // task titles along the cycle, in edge order
}

func (e *CircularDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected in tasks"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

// Info is a read-only projection of a task's resolved dependencies.
type Info struct {
	Prerequisites []string // resolved prerequisite titles
	Order         int      // position in the computed schedule order
	MustFollow    []string // human-readable list of tasks this one must follow
}

// Resolver resolves dependencies for one task set. It owns its derived graph
// exclusively and never mutates the input tasks.
type Resolver struct {
	tasks   []*task.Task
	byTitle map[string]*task.Task // canonical title -> task
	titles  []string              // canonical titles in input order
	index   map[string]int        // canonical title -> input position

	prereqs    map[string][]string // title -> resolved prerequisite titles
	dependents map[string][]string // title -> titles that depend on it
	warnings   []string
	resolved   bool
}

// NewResolver builds a Resolver over the task set. Title uniqueness is the
// caller's precondition (task.CheckUniqueTitles).
func NewResolver(tasks []*task.Task) *Resolver {
	r := &Resolver{
		tasks:   tasks,
		byTitle: make(map[string]*task.Task, len(tasks)),
		index:   make(map[string]int, len(tasks)),
	}
	for i, t := range tasks {
		r.byTitle[t.Title] = t
		r.titles = append(r.titles, t.Title)
		r.index[t.Title] = i
	}
	return r
}

// Warnings returns the unresolved-dependency warnings collected during
// resolution. Unresolved references are never fatal: the edge is dropped and
// the task proceeds without it.
func (r *Resolver) Warnings() []string {
	return r.warnings
}

// Resolve resolves all dependency references, rejects cyclic graphs and
// returns the tasks in priority-aware topological order (prerequisites
// first). Returns *CircularDependencyError if the resolved graph has a cycle.
func (r *Resolver) Resolve() ([]*task.Task, error) {
	r.buildGraph()

	if cycle := r.detectCycle(); cycle != nil {
		return nil, &CircularDependencyError{Cycle: cycle}
	}

	return r.topoSort(), nil
}

// DependencyInfo returns, per task title, its resolved prerequisites and its
// position in the schedule order. Must be called after Resolve succeeds on an
// acyclic set; on a fresh resolver it resolves the graph itself.
func (r *Resolver) DependencyInfo() map[string]Info {
	r.buildGraph()
	order := r.topoSort()

	pos := make(map[string]int, len(order))
	for i, t := range order {
		pos[t.Title] = i
	}

	info := make(map[string]Info, len(r.tasks))
	for _, t := range r.tasks {
		p := r.prereqs[t.Title]
		entry := Info{
			Prerequisites: append([]string(nil), p...),
			Order:         pos[t.Title],
			MustFollow:    append([]string(nil), p...),
		}
		info[t.Title] = entry
	}
	return info
}

// buildGraph resolves each declared reference: case-insensitive exact match
// first, then fuzzy match above FuzzyThreshold, else dropped with a warning.
func (r *Resolver) buildGraph() {
	if r.resolved {
		return
	}
	r.resolved = true
	r.prereqs = make(map[string][]string, len(r.tasks))
	r.dependents = make(map[string][]string)

	for _, t := range r.tasks {
		var resolved []string
		for _, ref := range t.Dependencies {
			title, ok := r.resolveRef(ref)
			if !ok {
				r.warnings = append(r.warnings,
					fmt.Sprintf("dependency %q not found for task %q", ref, t.Title))
				continue
			}
			if title == t.Title {
				r.warnings = append(r.warnings,
					fmt.Sprintf("task %q cannot depend on itself, ignoring", t.Title))
				continue
			}
			resolved = append(resolved, title)
			r.dependents[title] = append(r.dependents[title], t.Title)
		}
		r.prereqs[t.Title] = resolved
	}
}

func (r *Resolver) resolveRef(ref string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(ref))
	for _, title := range r.titles {
		if strings.ToLower(title) == want {
			return title, true
		}
	}
	return BestMatch(ref, r.titles, FuzzyThreshold)
}

// detectCycle runs a DFS with white/gray/black coloring over the resolved
// edge set and returns the cycle path if one exists, or nil.
func (r *Resolver) detectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(r.titles))
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range r.prereqs[node] {
			if color[next] == gray {
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, title := range r.titles {
		if color[title] == white {
			if cycle := dfs(title); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// topoSort is Kahn's algorithm with a ready-queue keyed by
// (priority rank, input position): among ready tasks the highest priority
// goes first, and equal priorities keep input order. Disconnected tasks are
// ready immediately.
func (r *Resolver) topoSort() []*task.Task {
	inDegree := make(map[string]int, len(r.titles))
	for _, title := range r.titles {
		inDegree[title] = len(r.prereqs[title])
	}

	ready := &readyQueue{}
	heap.Init(ready)
	for _, title := range r.titles {
		if inDegree[title] == 0 {
			heap.Push(ready, readyItem{
				rank:  r.byTitle[title].Priority.Rank(),
				index: r.index[title],
				title: title,
			})
		}
	}

	ordered := make([]*task.Task, 0, len(r.tasks))
	for ready.Len() > 0 {
		current := heap.Pop(ready).(readyItem)
		ordered = append(ordered, r.byTitle[current.title])

		for _, dep := range r.dependents[current.title] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				heap.Push(ready, readyItem{
					rank:  r.byTitle[dep].Priority.Rank(),
					index: r.index[dep],
					title: dep,
				})
			}
		}
	}

	return ordered
}

type readyItem struct {
	rank  int
	index int
	title string
}

type readyQueue []readyItem

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].rank != q[j].rank {
		return q[i].rank < q[j].rank
	}
	return q[i].index < q[j].index
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(readyItem)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
