// Package mdparse reads tasks from a directory of markdown files. One file
// is one task: the filename (without .md) is the title, the body carries
// metadata in a structured shorthand, natural language, or a mix of both.
//
// Structured shorthand:
//
//	c: calendar-name
//	r: 30m
//	p: high
//	t: morning
//	d: Other task, Another task
//	dur: 2h or 2-4h
//	due: 2026-01-20 or tomorrow
//	l: https://example.com/meeting
//
// Natural language:
//
//	morning, remind 30m, cal work, depends on Other task, time 2h,
//	link https://example.com/meeting
package mdparse

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/me/autoplan/internal/dateutil"
	"github.com/me/autoplan/internal/task"
)

var structuredPatterns = map[string]*regexp.Regexp{
	"calendar": regexp.MustCompile(`(?i)c:\s*([a-zA-Z0-9_-]+)`),
	"reminder": regexp.MustCompile(`(?i)r:\s*([\d\s,hm.]+)`),
	"priority": regexp.MustCompile(`(?i)p:\s*(high|medium|low)`),
	"time":     regexp.MustCompile(`(?i)t:\s*(morning|afternoon|evening|anytime)`),
	"depends":  regexp.MustCompile(`(?i)d:\s*(.+)`),
	"duration": regexp.MustCompile(`(?i)dur:\s*(.+)`),
	"due":      regexp.MustCompile(`(?i)due:\s*([a-zA-Z0-9-]+)`),
	"link":     regexp.MustCompile(`(?i)l:\s*(https?://[^\s,]+)`),
}

var naturalPatterns = map[string]*regexp.Regexp{
	"calendar": regexp.MustCompile(`(?i)cal\s+([a-zA-Z0-9_-]+)`),
	"reminder": regexp.MustCompile(`(?i)remind\s+([\d\s,hrandm]+)`),
	"priority": regexp.MustCompile(`(?i)\b(high|medium|low)(?:\s+priority)?\b`),
	"time":     regexp.MustCompile(`(?i)\b(morning|afternoon|evening|anytime)\b`),
	"depends":  regexp.MustCompile(`(?i)depends\s+on\s+(.+?)(?:,|\n|$)`),
	// The "time" keyword keeps durations apart from reminder values.
	"duration": regexp.MustCompile(`(?i)time\s+(\d+(?:\.\d+)?(?:-\d+(?:\.\d+)?)?[hm])\b`),
	"link":     regexp.MustCompile(`(?i)(?:link\s+)?(https?://[^\s,]+)`),
}

var (
	durationRangeRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)-(\d+(?:\.\d+)?)\s*([hm])`)
	durationFixedRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*([hm])`)
	reminderHourRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*h(?:ours?|r)?`)
	reminderMinRe   = regexp.MustCompile(`(?i)(\d+)\s*m(?:in(?:utes?)?)?`)
)

// Defaults fill in metadata a task file leaves out.
type Defaults struct {
	DurationMinutes int // 0 means no default; such files are skipped
	ReminderMinutes int
	Priority        task.Priority
	TimePreference  task.TimePreference
}

// Parser reads a task directory.
type Parser struct {
	dir      string
	defaults Defaults
	now      time.Time
	warnings []string
}

// New creates a parser. now anchors relative target dates like "tomorrow".
func New(dir string, defaults Defaults, now time.Time) *Parser {
	if defaults.Priority == "" {
		defaults.Priority = task.PriorityMedium
	}
	if defaults.TimePreference == "" {
		defaults.TimePreference = task.PreferAnytime
	}
	return &Parser{dir: dir, defaults: defaults, now: now}
}

// Warnings returns the non-fatal issues collected by the last Parse call.
func (p *Parser) Warnings() []string {
	return p.warnings
}

// Parse reads every .md file in the directory, sorted by filename. Files
// that cannot yield a schedulable task are skipped with a warning.
func (p *Parser) Parse() ([]*task.Task, error) {
	p.warnings = nil

	info, err := os.Stat(p.dir)
	if err != nil {
		return nil, fmt.Errorf("task directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("task path is not a directory: %s", p.dir)
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("reading task directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var tasks []*task.Task
	for _, name := range names {
		t, err := p.parseFile(filepath.Join(p.dir, name))
		if err != nil {
			return nil, err
		}
		if t != nil {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (p *Parser) parseFile(path string) (*task.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	content := strings.TrimSpace(string(raw))
	name := filepath.Base(path)
	title := strings.TrimSuffix(name, ".md")

	duration := p.defaults.DurationMinutes
	var durRange *task.DurationRange
	if value := extractField(content, "duration"); value != "" {
		minutes, rng, ok := parseDuration(value)
		if ok {
			duration = minutes
			durRange = rng
		} else {
			p.warnf("%s: invalid duration %q, using default", name, value)
		}
	}
	if duration <= 0 {
		p.warnf("%s: missing duration and no default configured, skipping", name)
		return nil, nil
	}

	priority := p.defaults.Priority
	if value := extractField(content, "priority"); value != "" {
		priority, _ = task.ParsePriority(value)
	}

	preference := p.defaults.TimePreference
	if value := extractField(content, "time"); value != "" {
		preference, _ = task.ParseTimePreference(value)
	}

	reminder := p.defaults.ReminderMinutes
	if value := extractField(content, "reminder"); value != "" {
		if minutes, ok := parseReminder(value); ok {
			reminder = minutes
		} else {
			p.warnf("%s: invalid reminder %q, using default", name, value)
		}
	}

	var targetDate *time.Time
	if value := extractField(content, "due"); value != "" {
		date, err := dateutil.ParseRelativeDate(value, p.now)
		if err != nil {
			p.warnf("%s: invalid target date %q: %v", name, value, err)
		} else {
			targetDate = &date
		}
	}

	var dependencies []string
	if value := extractField(content, "depends"); value != "" {
		for _, dep := range strings.Split(value, ",") {
			if dep = strings.TrimSpace(dep); dep != "" {
				dependencies = append(dependencies, dep)
			}
		}
	}

	return &task.Task{
		Title:           title,
		DurationMinutes: duration,
		Range:           durRange,
		Priority:        priority,
		TargetDate:      targetDate,
		TimePreference:  preference,
		Dependencies:    dependencies,
		ReminderMinutes: reminder,
		Link:            extractField(content, "link"),
		Calendar:        strings.ToLower(extractField(content, "calendar")),
		Notes:           content,
	}, nil
}

func (p *Parser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// extractField tries the structured shorthand first, then the natural
// language form.
func extractField(content, field string) string {
	if re, ok := structuredPatterns[field]; ok {
		if m := re.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if re, ok := naturalPatterns[field]; ok {
		if m := re.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// parseDuration handles "2h", "120m", "2.5h" and ranges like "2-4h" or
// "120-240m". For ranges the returned minutes is the range minimum.
func parseDuration(value string) (int, *task.DurationRange, bool) {
	value = strings.TrimSpace(value)

	if m := durationRangeRe.FindStringSubmatch(value); m != nil {
		minVal, _ := strconv.ParseFloat(m[1], 64)
		maxVal, _ := strconv.ParseFloat(m[2], 64)
		factor := 1.0
		if strings.EqualFold(m[3], "h") {
			factor = 60
		}
		rng := &task.DurationRange{
			Min: int(minVal * factor),
			Max: int(maxVal * factor),
		}
		if rng.Min <= 0 || rng.Min > rng.Max {
			return 0, nil, false
		}
		return rng.Min, rng, true
	}

	if m := durationFixedRe.FindStringSubmatch(value); m != nil {
		val, _ := strconv.ParseFloat(m[1], 64)
		minutes := int(val)
		if strings.EqualFold(m[2], "h") {
			minutes = int(val * 60)
		}
		if minutes <= 0 {
			return 0, nil, false
		}
		return minutes, nil, true
	}

	return 0, nil, false
}

// parseReminder handles "30m", "2h", "1hr" and lists like "1h, 30m" (first
// value wins).
func parseReminder(value string) (int, bool) {
	first := value
	for _, sep := range []string{",", " and "} {
		if i := strings.Index(first, sep); i >= 0 {
			first = first[:i]
		}
	}
	first = strings.TrimSpace(first)

	if m := reminderHourRe.FindStringSubmatch(first); m != nil {
		hours, _ := strconv.ParseFloat(m[1], 64)
		return int(hours * 60), true
	}
	if m := reminderMinRe.FindStringSubmatch(first); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		return minutes, true
	}
	return 0, false
}
