package ui

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/autoplan/internal/config"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

The CalDAV password is never stored interactively; set it in the
config file, or through AUTOPLAN_CALDAV_PASSWORD (or the _FILE
variant pointing at a mounted secret).`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInteractive()
		},
	}
}

func runConfigInteractive() error {
	configPath := config.DefaultConfigPath()
	fmt.Printf("Config file: %s\n\n", configPath)

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, fileErr := os.Stat(configPath); os.IsNotExist(fileErr) {
		fmt.Println("No config file found. Creating with default values...")
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Created %s\n\n", configPath)
	}

	printConfig(cfg)

	if !promptYesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)

	cfg.CalDAV.URL = promptValue(reader, "CalDAV URL", cfg.CalDAV.URL)
	cfg.CalDAV.Username = promptValue(reader, "CalDAV username", cfg.CalDAV.Username)
	cfg.CalDAV.DefaultCalendar = promptValue(reader, "Default calendar", cfg.CalDAV.DefaultCalendar)
	cfg.Tasks.Dir = promptValue(reader, "Task directory", cfg.Tasks.Dir)
	cfg.Schedule.WorkStartHour = promptInt(reader, "Work start hour", cfg.Schedule.WorkStartHour)
	cfg.Schedule.WorkEndHour = promptInt(reader, "Work end hour", cfg.Schedule.WorkEndHour)
	cfg.Schedule.Timezone = promptValue(reader, "Timezone", cfg.Schedule.Timezone)
	cfg.Schedule.HorizonDays = promptInt(reader, "Horizon days", cfg.Schedule.HorizonDays)
	cfg.LLM.Provider = promptValue(reader, "LLM provider", cfg.LLM.Provider)
	cfg.LLM.Model = promptValue(reader, "LLM model", cfg.LLM.Model)
	cfg.LLM.BaseURL = promptValue(reader, "LLM base URL (Ollama/LM Studio)", cfg.LLM.BaseURL)
	cfg.Storage.DBPath = promptValue(reader, "Database path", cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("\nConfiguration saved!")
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current configuration:")
	fmt.Println(strings.Repeat("-", 22))
	fmt.Println("[caldav]")
	fmt.Printf("  url                       = %s\n", cfg.CalDAV.URL)
	fmt.Printf("  username                  = %s\n", cfg.CalDAV.Username)
	fmt.Printf("  default_calendar          = %s\n", cfg.CalDAV.DefaultCalendar)
	fmt.Println("\n[schedule]")
	fmt.Printf("  work_start_hour           = %d\n", cfg.Schedule.WorkStartHour)
	fmt.Printf("  work_end_hour             = %d\n", cfg.Schedule.WorkEndHour)
	fmt.Printf("  min_slot_minutes          = %d\n", cfg.Schedule.MinSlotMinutes)
	fmt.Printf("  max_task_duration_minutes = %d\n", cfg.Schedule.MaxTaskMinutes)
	fmt.Printf("  timezone                  = %s\n", cfg.Schedule.Timezone)
	fmt.Printf("  horizon_days              = %d\n", cfg.Schedule.HorizonDays)
	fmt.Printf("  strict_validation         = %t\n", cfg.Schedule.StrictValidation)
	fmt.Println("\n[tasks]")
	fmt.Printf("  dir                       = %s\n", cfg.Tasks.Dir)
	fmt.Printf("  default_duration_minutes  = %d\n", cfg.Tasks.DefaultDurationMinutes)
	fmt.Printf("  default_priority          = %s\n", cfg.Tasks.DefaultPriority)
	fmt.Printf("  default_time_preference   = %s\n", cfg.Tasks.DefaultTimePreference)
	fmt.Println("\n[llm]")
	fmt.Printf("  provider                  = %s\n", cfg.LLM.Provider)
	fmt.Printf("  model                     = %s\n", cfg.LLM.Model)
	fmt.Printf("  base_url                  = %s\n", cfg.LLM.BaseURL)
	fmt.Println("\n[storage]")
	fmt.Printf("  db_path                   = %s\n", cfg.Storage.DBPath)
	fmt.Println("\n[run]")
	fmt.Printf("  auto_confirm              = %t\n", cfg.Run.AutoConfirm)
	fmt.Printf("  watch_interval            = %s\n", cfg.Run.WatchInterval)
}

func promptValue(reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Printf("  %s: ", label)
	} else {
		fmt.Printf("  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	for {
		input := promptValue(reader, label, strconv.Itoa(current))
		n, err := strconv.Atoi(input)
		if err != nil {
			fmt.Printf("  Not a number: %q\n", input)
			continue
		}
		return n
	}
}
