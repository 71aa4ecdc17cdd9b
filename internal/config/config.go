// Package config handles configuration loading from files, defaults, and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/me/autoplan/internal/task"
)

// Config holds the application configuration.
type Config struct {
	CalDAV   CalDAVConfig   `toml:"caldav"`
	Schedule ScheduleConfig `toml:"schedule"`
	Tasks    TasksConfig    `toml:"tasks"`
	LLM      LLMConfig      `toml:"llm"`
	Storage  StorageConfig  `toml:"storage"`
	Run      RunConfig      `toml:"run"`
}

// CalDAVConfig holds calendar server settings.
type CalDAVConfig struct {
	URL             string `toml:"url"`
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	DefaultCalendar string `toml:"default_calendar"`
}

// ScheduleConfig holds the scheduling window and validation settings.
type ScheduleConfig struct {
	WorkStartHour    int    `toml:"work_start_hour"`
	WorkEndHour      int    `toml:"work_end_hour"`
	MinSlotMinutes   int    `toml:"min_slot_minutes"`
	MaxTaskMinutes   int    `toml:"max_task_duration_minutes"`
	Timezone         string `toml:"timezone"`
	HorizonDays      int    `toml:"horizon_days"`
	StrictValidation bool   `toml:"strict_validation"` // also reject overlaps among newly proposed placements
}

// TasksConfig holds the task source directory and per-task defaults.
type TasksConfig struct {
	Dir                    string `toml:"dir"`
	DefaultDurationMinutes int    `toml:"default_duration_minutes"`
	DefaultReminderMinutes int    `toml:"default_reminder_minutes"`
	DefaultPriority        string `toml:"default_priority"`
	DefaultTimePreference  string `toml:"default_time_preference"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider string `toml:"provider"` // "anthropic", "ollama", "openai"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

// StorageConfig holds the run journal settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// RunConfig holds execution settings.
type RunConfig struct {
	AutoConfirm   bool   `toml:"auto_confirm"`
	WatchInterval string `toml:"watch_interval"` // Go duration, e.g. "15m"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			WorkStartHour:  9,
			WorkEndHour:    17,
			MinSlotMinutes: 15,
			MaxTaskMinutes: 240,
			Timezone:       "UTC",
			HorizonDays:    7,
		},
		Tasks: TasksConfig{
			DefaultPriority:       "medium",
			DefaultTimePreference: "anytime",
		},
		LLM: LLMConfig{
			Provider: "anthropic",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Run: RunConfig{
			WatchInterval: "15m",
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "autoplan.db"
	}
	return filepath.Join(home, ".local", "share", "autoplan", "autoplan.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "autoplan", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and
// env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path. It starts with
// defaults, overlays the file if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Tasks.Dir = expandPath(cfg.Tasks.Dir)
	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Credentials also
// accept the _FILE suffix convention for mounted secrets.
func applyEnvOverrides(cfg *Config) {
	if v := getSecret("AUTOPLAN_CALDAV_URL"); v != "" {
		cfg.CalDAV.URL = v
	}
	if v := getSecret("AUTOPLAN_CALDAV_USERNAME"); v != "" {
		cfg.CalDAV.Username = v
	}
	if v := getSecret("AUTOPLAN_CALDAV_PASSWORD"); v != "" {
		cfg.CalDAV.Password = v
	}
	if v := os.Getenv("AUTOPLAN_DEFAULT_CALENDAR"); v != "" {
		cfg.CalDAV.DefaultCalendar = v
	}

	if v := os.Getenv("AUTOPLAN_TODO_DIR"); v != "" {
		cfg.Tasks.Dir = v
	}
	if v := os.Getenv("AUTOPLAN_WORK_START_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.WorkStartHour = n
		}
	}
	if v := os.Getenv("AUTOPLAN_WORK_END_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.WorkEndHour = n
		}
	}
	if v := os.Getenv("AUTOPLAN_TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := os.Getenv("AUTOPLAN_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.HorizonDays = n
		}
	}

	if v := os.Getenv("AUTOPLAN_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("AUTOPLAN_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AUTOPLAN_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := getSecret("AUTOPLAN_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("AUTOPLAN_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
}

// getSecret reads an environment variable directly, or from the file named
// by its _FILE counterpart.
func getSecret(envVar string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if path := os.Getenv(envVar + "_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}
	return ""
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks the configuration shape. Connection credentials are
// checked separately by RequireCalDAV so offline commands still work.
func (c *Config) Validate() error {
	if c.Schedule.WorkStartHour < 0 || c.Schedule.WorkStartHour > 23 {
		return fmt.Errorf("work_start_hour must be 0-23, got %d", c.Schedule.WorkStartHour)
	}
	if c.Schedule.WorkEndHour < 1 || c.Schedule.WorkEndHour > 24 {
		return fmt.Errorf("work_end_hour must be 1-24, got %d", c.Schedule.WorkEndHour)
	}
	if c.Schedule.WorkStartHour >= c.Schedule.WorkEndHour {
		return errors.New("work_start_hour must be before work_end_hour")
	}
	if c.Schedule.MinSlotMinutes <= 0 {
		return errors.New("min_slot_minutes must be positive")
	}
	if c.Schedule.MaxTaskMinutes <= 0 {
		return errors.New("max_task_duration_minutes must be positive")
	}
	if c.Schedule.HorizonDays < 1 {
		return errors.New("horizon_days must be at least 1")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}
	if _, err := task.ParsePriority(c.Tasks.DefaultPriority); err != nil {
		return fmt.Errorf("default_priority: %w", err)
	}
	if _, err := task.ParseTimePreference(c.Tasks.DefaultTimePreference); err != nil {
		return fmt.Errorf("default_time_preference: %w", err)
	}
	if c.Run.WatchInterval != "" {
		if _, err := time.ParseDuration(c.Run.WatchInterval); err != nil {
			return fmt.Errorf("invalid watch_interval %q: %w", c.Run.WatchInterval, err)
		}
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	return nil
}

// RequireCalDAV checks the settings needed to reach the calendar server.
func (c *Config) RequireCalDAV() error {
	var missing []string
	if c.CalDAV.URL == "" {
		missing = append(missing, "caldav.url")
	}
	if c.CalDAV.Username == "" {
		missing = append(missing, "caldav.username")
	}
	if c.CalDAV.Password == "" {
		missing = append(missing, "caldav.password")
	}
	if c.Tasks.Dir == "" {
		missing = append(missing, "tasks.dir")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location returns the configured scheduling timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WatchInterval returns the periodic run interval, defaulting to 15 minutes.
func (c *Config) WatchInterval() time.Duration {
	d, err := time.ParseDuration(c.Run.WatchInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// DefaultPriority returns the parsed per-task default priority.
func (c *Config) DefaultPriority() task.Priority {
	p, err := task.ParsePriority(c.Tasks.DefaultPriority)
	if err != nil {
		return task.PriorityMedium
	}
	return p
}

// DefaultTimePreference returns the parsed per-task default time preference.
func (c *Config) DefaultTimePreference() task.TimePreference {
	p, err := task.ParseTimePreference(c.Tasks.DefaultTimePreference)
	if err != nil {
		return task.PreferAnytime
	}
	return p
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
