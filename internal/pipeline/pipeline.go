// Package pipeline orchestrates one scheduling run: read tasks, resolve
// dependencies, fetch the calendar, compute free slots, propose placements,
// validate them, and create events for the accepted ones.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/me/autoplan/internal/caldav"
	"github.com/me/autoplan/internal/config"
	"github.com/me/autoplan/internal/dateutil"
	"github.com/me/autoplan/internal/deps"
	"github.com/me/autoplan/internal/interval"
	"github.com/me/autoplan/internal/journal"
	"github.com/me/autoplan/internal/mdparse"
	"github.com/me/autoplan/internal/placement"
	"github.com/me/autoplan/internal/propose"
	"github.com/me/autoplan/internal/slots"
	"github.com/me/autoplan/internal/task"
)

// Sentinel errors for conditions the caller may want to treat as a normal
// outcome rather than a failure.
var (
	ErrNoTasks     = errors.New("no task files found")
	ErrNoFreeSlots = errors.New("no free slots available for scheduling")
)

// Calendar is the calendar collaborator the pipeline drives. *caldav.Client
// satisfies it.
type Calendar interface {
	Connect(ctx context.Context) error
	Calendars() []string
	HasCalendar(name string) bool
	Events(ctx context.Context, start, end time.Time, calendarName string) ([]interval.Busy, error)
	CreateEvent(ctx context.Context, event caldav.Event) (interval.Busy, error)
}

// Options control one run.
type Options struct {
	// DryRun stops after validation; no events are created.
	DryRun bool
	// Confirm is asked before events are created. nil means auto-confirm.
	Confirm func(accepted []placement.Placement) bool
}

// Result is everything one run produced.
type Result struct {
	Tasks           []*task.Task
	Warnings        []string
	SkippedExisting []string // tasks already present on the calendar
	Busy            []interval.Busy
	FreeSlots       []interval.FreeSlot
	Placements      []placement.Placement // validated proposer output
	Created         []interval.Busy
	Cancelled       bool
	StartedAt       time.Time
}

// Accepted returns the validated placements that will become events.
func (r *Result) Accepted() []placement.Placement {
	var accepted []placement.Placement
	for _, p := range r.Placements {
		if !p.Skipped {
			accepted = append(accepted, p)
		}
	}
	return accepted
}

// Skipped returns the placements that were rejected or never placed.
func (r *Result) Skipped() []placement.Placement {
	var skipped []placement.Placement
	for _, p := range r.Placements {
		if p.Skipped {
			skipped = append(skipped, p)
		}
	}
	return skipped
}

// Pipeline wires the collaborators of a scheduling run.
type Pipeline struct {
	cfg      *config.Config
	cal      Calendar
	proposer propose.Proposer
	journal  *journal.Journal // optional

	// now is captured once per run; overridable in tests.
	now func() time.Time
}

// New creates a pipeline. journal may be nil to disable run recording.
func New(cfg *config.Config, cal Calendar, proposer propose.Proposer, j *journal.Journal) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		cal:      cal,
		proposer: proposer,
		journal:  j,
		now:      time.Now,
	}
}

// Run executes one scheduling run. The returned Result is populated as far
// as the run got, even on error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	loc := p.cfg.Location()
	now := p.now().In(loc)
	res := &Result{StartedAt: now}

	err := p.run(ctx, opts, now, loc, res)
	p.record(ctx, opts, res, err)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, opts Options, now time.Time, loc *time.Location, res *Result) error {
	tasks, err := p.loadTasks(now, res)
	if err != nil {
		return err
	}

	resolver := deps.NewResolver(tasks)
	ordered, err := resolver.Resolve()
	if err != nil {
		return err
	}
	res.Warnings = append(res.Warnings, resolver.Warnings()...)

	if err := p.cal.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to calendar server: %w", err)
	}
	if err := p.checkRequestedCalendars(tasks); err != nil {
		return err
	}

	// horizonEnd is the last included day; events are fetched through its end.
	horizonStart, horizonEnd := dateutil.Horizon(now, p.cfg.Schedule.HorizonDays)

	busy := p.fetchEvents(ctx, horizonStart, horizonEnd.AddDate(0, 0, 1), res)
	res.Busy = busy

	ordered, err = p.dropAlreadyScheduled(ordered, busy, res)
	if err != nil {
		return err
	}
	res.Tasks = ordered
	if len(ordered) == 0 {
		// Everything already on the calendar counts as success.
		return nil
	}

	finder := slots.NewFinder(
		p.cfg.Schedule.WorkStartHour,
		p.cfg.Schedule.WorkEndHour,
		p.cfg.Schedule.MinSlotMinutes,
		loc,
	)
	free := finder.Find(busy, horizonStart, horizonEnd, now)
	res.FreeSlots = free
	if len(free) == 0 {
		return ErrNoFreeSlots
	}

	proposed, err := p.proposer.Propose(ctx, propose.Request{
		Tasks:    ordered,
		DepInfo:  deps.NewResolver(ordered).DependencyInfo(),
		Slots:    free,
		Busy:     busy,
		Now:      now,
		Location: loc,
	})
	if err != nil {
		return fmt.Errorf("placement proposal: %w", err)
	}

	validator := placement.NewValidator(free, busy)
	validator.CheckProposedOverlap = p.cfg.Schedule.StrictValidation
	res.Placements = validator.Validate(proposed)

	if opts.DryRun {
		return nil
	}

	accepted := res.Accepted()
	if len(accepted) == 0 {
		return nil
	}
	if opts.Confirm != nil && !opts.Confirm(accepted) {
		res.Cancelled = true
		return nil
	}

	return p.createEvents(ctx, accepted, res)
}

// loadTasks parses the task directory and enforces the task invariants.
func (p *Pipeline) loadTasks(now time.Time, res *Result) ([]*task.Task, error) {
	parser := mdparse.New(p.cfg.Tasks.Dir, mdparse.Defaults{
		DurationMinutes: p.cfg.Tasks.DefaultDurationMinutes,
		ReminderMinutes: p.cfg.Tasks.DefaultReminderMinutes,
		Priority:        p.cfg.DefaultPriority(),
		TimePreference:  p.cfg.DefaultTimePreference(),
	}, now)

	tasks, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, parser.Warnings()...)

	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.DurationMinutes > p.cfg.Schedule.MaxTaskMinutes {
			return nil, fmt.Errorf("task %q duration %dm exceeds the configured maximum of %dm",
				t.Title, t.DurationMinutes, p.cfg.Schedule.MaxTaskMinutes)
		}
	}
	if err := task.CheckUniqueTitles(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// checkRequestedCalendars fails fast when a task targets a calendar the
// server does not have.
func (p *Pipeline) checkRequestedCalendars(tasks []*task.Task) error {
	seen := make(map[string]bool)
	for _, t := range tasks {
		if t.Calendar == "" || seen[t.Calendar] {
			continue
		}
		seen[t.Calendar] = true
		if !p.cal.HasCalendar(t.Calendar) {
			return fmt.Errorf("calendar %q requested by task %q not found, available: %s",
				t.Calendar, t.Title, strings.Join(p.cal.Calendars(), ", "))
		}
	}
	return nil
}

// fetchEvents merges the events of every discovered calendar. A calendar
// that cannot be queried degrades to a warning.
func (p *Pipeline) fetchEvents(ctx context.Context, start, end time.Time, res *Result) []interval.Busy {
	var busy []interval.Busy
	for _, name := range p.cal.Calendars() {
		events, err := p.cal.Events(ctx, start, end, name)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("could not get events from calendar %q: %v", name, err))
			continue
		}
		busy = append(busy, events...)
	}
	return busy
}

// dropAlreadyScheduled removes tasks whose title already appears as an event
// and re-resolves the remaining set so the order stays consistent.
func (p *Pipeline) dropAlreadyScheduled(ordered []*task.Task, busy []interval.Busy, res *Result) ([]*task.Task, error) {
	existing := make(map[string]bool, len(busy))
	for _, b := range busy {
		existing[strings.ToLower(strings.TrimSpace(b.Title))] = true
	}

	var remaining []*task.Task
	for _, t := range ordered {
		if existing[strings.ToLower(strings.TrimSpace(t.Title))] {
			res.SkippedExisting = append(res.SkippedExisting, t.Title)
			continue
		}
		remaining = append(remaining, t)
	}

	if len(remaining) == len(ordered) {
		return ordered, nil
	}
	return deps.NewResolver(remaining).Resolve()
}

// createEvents writes the accepted placements to the calendar. Per-event
// failures degrade to warnings so one bad event does not abort the rest.
func (p *Pipeline) createEvents(ctx context.Context, accepted []placement.Placement, res *Result) error {
	byTitle := make(map[string]*task.Task, len(res.Tasks))
	for _, t := range res.Tasks {
		byTitle[t.Title] = t
	}

	for _, pl := range accepted {
		event := caldav.Event{
			Summary:     pl.Title,
			Start:       pl.Start,
			End:         pl.End,
			Description: "Scheduled by autoplan\n\n" + pl.Reason,
		}
		if t, ok := byTitle[pl.Title]; ok {
			event.Calendar = t.Calendar
			event.ReminderMinutes = t.ReminderMinutes
			event.Link = t.Link
		}

		created, err := p.cal.CreateEvent(ctx, event)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("failed to create event for %q: %v", pl.Title, err))
			continue
		}
		res.Created = append(res.Created, created)
	}
	return nil
}

// record writes the run to the journal, best effort.
func (p *Pipeline) record(ctx context.Context, opts Options, res *Result, runErr error) {
	if p.journal == nil {
		return
	}

	run := journal.Run{
		StartedAt:  res.StartedAt,
		DryRun:     opts.DryRun,
		TasksTotal: len(res.Tasks) + len(res.SkippedExisting),
		Scheduled:  len(res.Accepted()),
		Skipped:    len(res.Skipped()),
		FreeSlots:  len(res.FreeSlots),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	entries := make([]journal.Entry, 0, len(res.Placements))
	for _, pl := range res.Placements {
		e := journal.Entry{Title: pl.Title, Skipped: pl.Skipped, Reason: pl.Reason}
		if !pl.Skipped {
			start, end := pl.Start, pl.End
			e.Start, e.End = &start, &end
		}
		entries = append(entries, e)
	}

	if _, err := p.journal.RecordRun(ctx, run, entries); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("could not record run: %v", err))
	}
}
