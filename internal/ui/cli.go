// Package ui implements the command line interface.
package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/caldav"
	"github.com/me/autoplan/internal/config"
	"github.com/me/autoplan/internal/journal"
	"github.com/me/autoplan/internal/llm"
	"github.com/me/autoplan/internal/pipeline"
	"github.com/me/autoplan/internal/propose"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config  *config.Config
	root    *cobra.Command
	noColor bool
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg}

	a.root = &cobra.Command{
		Use:   "autoplan",
		Short: "Schedule markdown tasks onto your CalDAV calendar",
		Long: `Autoplan reads task files from a todo directory, finds free slots on
your CalDAV calendar, asks an LLM to place the tasks, and creates the
resulting events.

Task files are plain markdown, one task per file. The filename is the
task title; the body describes the task:

  dur: 2h
  p: high
  t: morning
  d: Write outline
  due: next-friday`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				DisableColor()
			}
		},
		SilenceUsage: true,
	}

	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.scheduleCmd())
	a.root.AddCommand(a.watchCmd())
	a.root.AddCommand(a.tasksCmd())
	a.root.AddCommand(a.depsCmd())
	a.root.AddCommand(a.slotsCmd())
	a.root.AddCommand(a.calendarsCmd())
	a.root.AddCommand(a.historyCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("autoplan %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// calendarClient builds the CalDAV client from the config.
func (a *App) calendarClient() (*caldav.Client, error) {
	cal, err := caldav.NewClient(
		a.config.CalDAV.URL,
		a.config.CalDAV.Username,
		a.config.CalDAV.Password,
		a.config.CalDAV.DefaultCalendar,
		a.config.Location(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating calendar client: %w", err)
	}
	return cal, nil
}

// buildProposer picks the placement strategy. The greedy proposer needs no
// LLM and is fully deterministic.
func (a *App) buildProposer(useGreedy bool) (propose.Proposer, error) {
	if useGreedy {
		return propose.NewGreedy(), nil
	}

	client, err := llm.NewClient(a.config.LLM.Provider, a.config.LLM.Model, a.config.LLM.BaseURL, a.config.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	return propose.NewLLMProposer(client), nil
}

// buildPipeline wires a full scheduling pipeline. The caller owns the
// returned journal and must close it.
func (a *App) buildPipeline(useGreedy bool) (*pipeline.Pipeline, *journal.Journal, error) {
	if err := a.config.RequireCalDAV(); err != nil {
		return nil, nil, err
	}

	cal, err := a.calendarClient()
	if err != nil {
		return nil, nil, err
	}

	proposer, err := a.buildProposer(useGreedy)
	if err != nil {
		return nil, nil, err
	}

	j, err := journal.Open(a.config.Storage.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening run journal: %w", err)
	}

	return pipeline.New(a.config, cal, proposer, j), j, nil
}

func promptYesNo(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
