package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/pipeline"
	"github.com/me/autoplan/internal/placement"
)

func (a *App) scheduleCmd() *cobra.Command {
	var (
		dryRun bool
		yes    bool
		greedy bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Plan pending tasks and create calendar events",
		Long: `Read the task directory, compute free slots on the calendar, propose a
placement for every task, and create the accepted events.

Tasks whose title already appears as an event are skipped. Unless
--yes is given (or run.auto_confirm is set), the proposal is shown and
confirmed before any event is created.`,
		Example: `  autoplan schedule
  autoplan schedule --dry-run
  autoplan schedule --greedy --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, j, err := a.buildPipeline(greedy)
			if err != nil {
				return err
			}
			defer j.Close()

			opts := pipeline.Options{DryRun: dryRun}
			if !yes && !a.config.Run.AutoConfirm {
				opts.Confirm = confirmPlacements
			}

			res, err := p.Run(cmd.Context(), opts)
			displayResult(res, dryRun)
			return ignoreEmptyRun(err)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the proposed schedule without creating events")
	cmd.Flags().BoolVar(&yes, "yes", false, "Create events without asking for confirmation")
	cmd.Flags().BoolVar(&greedy, "greedy", false, "Use the deterministic earliest-fit proposer instead of the LLM")

	return cmd
}

// ignoreEmptyRun turns the "nothing to do" outcomes into a clean exit.
func ignoreEmptyRun(err error) error {
	if errors.Is(err, pipeline.ErrNoTasks) {
		fmt.Println("No tasks found. Add markdown files to the todo directory.")
		return nil
	}
	if errors.Is(err, pipeline.ErrNoFreeSlots) {
		fmt.Println("No free slots in the scheduling horizon. Nothing was scheduled.")
		return nil
	}
	return err
}

func confirmPlacements(accepted []placement.Placement) bool {
	fmt.Println()
	fmt.Println(formatHeader("Proposed schedule:"))
	fmt.Println(rule())
	for _, pl := range accepted {
		fmt.Printf("  %s\n", formatPlacement(pl))
	}
	fmt.Println(rule())
	return promptYesNo(fmt.Sprintf("Create %d event(s)?", len(accepted)))
}

// rule returns a horizontal divider sized to the terminal.
func rule() string {
	width := termWidth()
	if width > 60 {
		width = 60
	}
	return strings.Repeat("-", width)
}

// displayResult prints the outcome of one run.
func displayResult(res *pipeline.Result, dryRun bool) {
	if res == nil {
		return
	}

	for _, w := range res.Warnings {
		fmt.Printf("%s %s\n", formatWarn("!"), w)
	}

	for _, title := range res.SkippedExisting {
		fmt.Printf("%s %s\n", formatMuted("="), formatMuted(title+" (already on the calendar)"))
	}

	if len(res.Placements) == 0 {
		if len(res.SkippedExisting) > 0 && len(res.Tasks) == 0 {
			fmt.Println("All tasks are already on the calendar.")
		}
		return
	}

	fmt.Println()
	for _, pl := range res.Placements {
		if pl.Skipped {
			fmt.Printf("%s %s\n", formatMuted("x"), formatMuted(fmt.Sprintf("%s: %s", pl.Title, pl.Reason)))
			continue
		}
		fmt.Printf("%s %s\n", formatOK("+"), formatPlacement(pl))
	}

	fmt.Println()
	switch {
	case res.Cancelled:
		fmt.Println("Cancelled. No events were created.")
	case dryRun:
		fmt.Printf("Dry run: %d placement(s) validated, no events created.\n", len(res.Accepted()))
	default:
		fmt.Printf("Created %d event(s), skipped %d task(s).\n", len(res.Created), len(res.Skipped()))
	}
}

func formatPlacement(pl placement.Placement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-30s %s %s-%s (%dm)",
		pl.Title,
		pl.Start.Format("Mon Jan 2"),
		pl.Start.Format("15:04"),
		pl.End.Format("15:04"),
		pl.DurationMinutes,
	)
	if pl.Reason != "" {
		fmt.Fprintf(&b, "  %s", formatMuted(pl.Reason))
	}
	return b.String()
}
