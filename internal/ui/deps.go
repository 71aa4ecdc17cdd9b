package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/deps"
)

func (a *App) depsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Show the resolved task order",
		Long: `Resolve task dependencies and show the order the scheduler will use.
Dependencies are matched against task titles, tolerating small typos.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tasks, warnings, err := a.loadTasks()
			if err != nil {
				return err
			}

			resolver := deps.NewResolver(tasks)
			ordered, err := resolver.Resolve()

			var cycleErr *deps.CircularDependencyError
			if errors.As(err, &cycleErr) {
				fmt.Printf("%s circular dependency: %s\n", formatWarn("!"), strings.Join(cycleErr.Cycle, " -> "))
				return err
			}
			if err != nil {
				return err
			}

			warnings = append(warnings, resolver.Warnings()...)
			for _, w := range warnings {
				fmt.Printf("%s %s\n", formatWarn("!"), w)
			}

			if len(ordered) == 0 {
				fmt.Println("No tasks found.")
				return nil
			}

			info := resolver.DependencyInfo()
			fmt.Println(formatHeader("Scheduling order:"))
			for i, t := range ordered {
				line := fmt.Sprintf("%2d. %s", i+1, t.Title)
				if in, ok := info[t.Title]; ok && len(in.MustFollow) > 0 {
					line += formatMuted("  (after " + strings.Join(in.MustFollow, ", ") + ")")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
