package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/mdparse"
	"github.com/me/autoplan/internal/task"
)

func (a *App) tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks parsed from the todo directory",
		Long: `Parse the task files and show what the scheduler would work with,
without touching the calendar.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tasks, warnings, err := a.loadTasks()
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Printf("%s %s\n", formatWarn("!"), w)
			}

			if len(tasks) == 0 {
				fmt.Println("No tasks found.")
				return nil
			}

			fmt.Printf("%s (%d)\n", formatHeader("Tasks"), len(tasks))
			for _, t := range tasks {
				fmt.Printf("  %s\n", formatTask(t))
			}
			return nil
		},
	}
}

// loadTasks parses the task directory with the configured defaults.
func (a *App) loadTasks() ([]*task.Task, []string, error) {
	if a.config.Tasks.Dir == "" {
		return nil, nil, errors.New("tasks.dir is not configured")
	}

	parser := mdparse.New(a.config.Tasks.Dir, mdparse.Defaults{
		DurationMinutes: a.config.Tasks.DefaultDurationMinutes,
		ReminderMinutes: a.config.Tasks.DefaultReminderMinutes,
		Priority:        a.config.DefaultPriority(),
		TimePreference:  a.config.DefaultTimePreference(),
	}, time.Now().In(a.config.Location()))

	tasks, err := parser.Parse()
	if err != nil {
		return nil, nil, err
	}
	if err := task.CheckUniqueTitles(tasks); err != nil {
		return nil, nil, err
	}
	return tasks, parser.Warnings(), nil
}

func formatTask(t *task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-30s ", t.Title)

	if t.Range != nil {
		fmt.Fprintf(&b, "%d-%dm", t.Range.Min, t.Range.Max)
	} else {
		fmt.Fprintf(&b, "%dm", t.DurationMinutes)
	}
	fmt.Fprintf(&b, "  %s", t.Priority)

	var extra []string
	if t.TimePreference != task.PreferAnytime {
		extra = append(extra, string(t.TimePreference))
	}
	if t.TargetDate != nil {
		extra = append(extra, "due "+t.TargetDate.Format("2006-01-02"))
	}
	if len(t.Dependencies) > 0 {
		extra = append(extra, "after "+strings.Join(t.Dependencies, ", "))
	}
	if t.Calendar != "" {
		extra = append(extra, "calendar "+t.Calendar)
	}
	if len(extra) > 0 {
		fmt.Fprintf(&b, "  %s", formatMuted(strings.Join(extra, "; ")))
	}
	return b.String()
}
