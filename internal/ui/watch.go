package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/pipeline"
)

func (a *App) watchCmd() *cobra.Command {
	var (
		interval time.Duration
		greedy   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the scheduler periodically",
		Long: `Run a scheduling pass immediately and then repeat at a fixed interval
until interrupted. Watch mode never prompts: every validated placement
is created.

The interval defaults to run.watch_interval from the config.`,
		Example: `  autoplan watch
  autoplan watch --interval 30m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, j, err := a.buildPipeline(greedy)
			if err != nil {
				return err
			}
			defer j.Close()

			if interval <= 0 {
				interval = a.config.WatchInterval()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Scheduling every %s. Press Ctrl-C to stop.\n", interval)
			runWatchPass(ctx, p)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					fmt.Println("\nStopped.")
					return nil
				case <-ticker.C:
					runWatchPass(ctx, p)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between runs (from config if not set)")
	cmd.Flags().BoolVar(&greedy, "greedy", false, "Use the deterministic earliest-fit proposer instead of the LLM")

	return cmd
}

// runWatchPass executes one pass. Failures are reported but never stop the
// watch loop.
func runWatchPass(ctx context.Context, p *pipeline.Pipeline) {
	if ctx.Err() != nil {
		return
	}

	fmt.Printf("\n%s %s\n", formatHeader("Run"), time.Now().Format("2006-01-02 15:04:05"))

	res, err := p.Run(ctx, pipeline.Options{})
	displayResult(res, false)

	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrNoTasks):
		fmt.Println("No tasks found.")
	case errors.Is(err, pipeline.ErrNoFreeSlots):
		fmt.Println("No free slots in the scheduling horizon.")
	default:
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
	}
}
