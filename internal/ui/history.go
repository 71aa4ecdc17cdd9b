package ui

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/journal"
)

func (a *App) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past scheduling runs",
		Long: `Without arguments, list the most recent runs. With a run id, show the
per-task outcomes recorded for that run.`,
		Example: `  autoplan history
  autoplan history 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(a.config.Storage.DBPath)
			if err != nil {
				return fmt.Errorf("opening run journal: %w", err)
			}
			defer j.Close()

			if len(args) == 1 {
				runID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q", args[0])
				}
				return showRunEntries(cmd, j, runID)
			}
			return showRecentRuns(cmd, j, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")

	return cmd
}

func showRecentRuns(cmd *cobra.Command, j *journal.Journal, limit int) error {
	runs, err := j.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Println(formatHeader("Recent runs:"))
	for _, r := range runs {
		line := fmt.Sprintf("  #%-4d %s  %d task(s), %d scheduled, %d skipped, %d free slot(s)",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.TasksTotal, r.Scheduled, r.Skipped, r.FreeSlots)
		if r.DryRun {
			line += formatMuted("  [dry run]")
		}
		if r.Error != "" {
			line += formatWarn("  error: " + r.Error)
		}
		fmt.Println(line)
	}
	return nil
}

func showRunEntries(cmd *cobra.Command, j *journal.Journal, runID int64) error {
	entries, err := j.RunEntries(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("listing run entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("No entries recorded for run #%d.\n", runID)
		return nil
	}

	fmt.Println(formatHeader(fmt.Sprintf("Run #%d:", runID)))
	for _, e := range entries {
		if e.Skipped {
			fmt.Printf("  %s %s\n", formatMuted("x"), formatMuted(fmt.Sprintf("%s: %s", e.Title, e.Reason)))
			continue
		}
		window := ""
		if e.Start != nil && e.End != nil {
			window = fmt.Sprintf("%s %s-%s",
				e.Start.Local().Format("Mon Jan 2"),
				e.Start.Local().Format("15:04"),
				e.End.Local().Format("15:04"))
		}
		fmt.Printf("  %s %-30s %s\n", formatOK("+"), e.Title, window)
	}
	return nil
}
