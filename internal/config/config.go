// Package config loads the daemon configuration from file, environment, and
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/humorloos/feierabend/internal/reconcile"
	"github.com/humorloos/feierabend/internal/schedule"
)

// Config holds all daemon settings.
type Config struct {
	// Account selects the stored OAuth token to use.
	Account string `mapstructure:"account"`

	// StateDir is where watch registrations and sync tokens are persisted.
	StateDir string `mapstructure:"state_dir"`

	// WebhookAddress is the public HTTPS URL Google delivers notifications
	// to. Required for registering watch channels.
	WebhookAddress string `mapstructure:"webhook_address"`

	// ListenAddr is the bind address of the webhook server.
	ListenAddr string `mapstructure:"listen_addr"`

	// MetricsAddr is the bind address of the metrics and health server.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// Cutoff is the end of the working day in "15:04" form. Free windows
	// never extend past it.
	Cutoff string `mapstructure:"cutoff"`

	// MinWindow is the smallest gap worth scheduling into.
	MinWindow time.Duration `mapstructure:"min_window"`

	// Precision is the rounding granularity when deciding whether two
	// events are consecutive.
	Precision time.Duration `mapstructure:"precision"`

	// WorkCalendar is the calendar whose events are made transparent.
	WorkCalendar string `mapstructure:"work_calendar"`

	// IgnoreCalendars are calendar names never watched or scheduled into.
	IgnoreCalendars []string `mapstructure:"ignore_calendars"`

	// SplitColorID is the event color that triggers splitting.
	SplitColorID string `mapstructure:"split_color_id"`

	// ProjectMarker flags project events in titles.
	ProjectMarker string `mapstructure:"project_marker"`

	// SwitchMarker flags events to move to another calendar.
	SwitchMarker string `mapstructure:"switch_marker"`

	// WatchTTL is the lifetime requested for watch channels.
	WatchTTL time.Duration `mapstructure:"watch_ttl"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`
}

// Load reads the configuration from an optional config file (.feierabend.yaml
// in the working directory or home directory), FEIERABEND_* environment
// variables, and built-in defaults, in that order of precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FEIERABEND")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".feierabend")
		v.AddConfigPath("./")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("account", "default")
	v.SetDefault("state_dir", filepath.Join(home, ".feierabend"))
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("cutoff", "20:00")
	v.SetDefault("min_window", 15*time.Minute)
	v.SetDefault("precision", 15*time.Minute)
	v.SetDefault("work_calendar", "Arbeit")
	v.SetDefault("split_color_id", "8")
	v.SetDefault("project_marker", "-p")
	v.SetDefault("switch_marker", "-m")
	v.SetDefault("watch_ttl", 7*24*time.Hour)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Validate checks the settings that would otherwise fail deep inside a pass.
func (c *Config) Validate() error {
	if _, err := schedule.ParseClock(c.Cutoff); err != nil {
		return fmt.Errorf("invalid cutoff %q: %w", c.Cutoff, err)
	}
	if c.MinWindow < 0 {
		return fmt.Errorf("min_window must not be negative")
	}
	if c.Precision <= 0 {
		return fmt.Errorf("precision must be positive")
	}
	if c.WatchTTL <= 0 {
		return fmt.Errorf("watch_ttl must be positive")
	}
	return nil
}

// Policy returns the scheduling policy described by the configuration.
func (c *Config) Policy() schedule.Policy {
	cutoff, err := schedule.ParseClock(c.Cutoff)
	if err != nil {
		cutoff = schedule.DefaultPolicy().Cutoff
	}
	return schedule.Policy{
		Cutoff:    cutoff,
		MinWindow: c.MinWindow,
		Precision: c.Precision,
	}
}

// Reconcile returns the dispatch configuration for the reconciliation engine.
func (c *Config) Reconcile() reconcile.Config {
	return reconcile.Config{
		ProjectMarker: c.ProjectMarker,
		SwitchMarker:  c.SwitchMarker,
		SplitColorID:  c.SplitColorID,
		WorkCalendar:  c.WorkCalendar,
		Policy:        c.Policy(),
	}
}

// WatchStateDir is where watch registrations live below the state directory.
func (c *Config) WatchStateDir() string {
	return filepath.Join(c.StateDir, "watches")
}
