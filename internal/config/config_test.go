package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humorloos/feierabend/internal/schedule"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Account)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "20:00", cfg.Cutoff)
	assert.Equal(t, 15*time.Minute, cfg.MinWindow)
	assert.Equal(t, 15*time.Minute, cfg.Precision)
	assert.Equal(t, "Arbeit", cfg.WorkCalendar)
	assert.Equal(t, "8", cfg.SplitColorID)
	assert.Equal(t, "-p", cfg.ProjectMarker)
	assert.Equal(t, "-m", cfg.SwitchMarker)
	assert.Equal(t, 7*24*time.Hour, cfg.WatchTTL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
cutoff: "18:30"
work_calendar: Work
min_window: 30m
ignore_calendars:
  - Geburtstage
  - Feiertage
`), 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "18:30", cfg.Cutoff)
	assert.Equal(t, "Work", cfg.WorkCalendar)
	assert.Equal(t, 30*time.Minute, cfg.MinWindow)
	assert.Equal(t, []string{"Geburtstage", "Feiertage"}, cfg.IgnoreCalendars)
	// Unset keys keep their defaults.
	assert.Equal(t, "-p", cfg.ProjectMarker)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FEIERABEND_CUTOFF", "19:00")
	t.Setenv("FEIERABEND_ACCOUNT", "work")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "19:00", cfg.Cutoff)
	assert.Equal(t, "work", cfg.Account)
}

func TestLoadRejectsBadCutoff(t *testing.T) {
	t.Setenv("FEIERABEND_CUTOFF", "25:99")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestPolicy(t *testing.T) {
	cfg := &Config{Cutoff: "18:30", MinWindow: 10 * time.Minute, Precision: 5 * time.Minute}
	pol := cfg.Policy()
	assert.Equal(t, schedule.Clock{Hour: 18, Minute: 30}, pol.Cutoff)
	assert.Equal(t, 10*time.Minute, pol.MinWindow)
	assert.Equal(t, 5*time.Minute, pol.Precision)
}

func TestReconcileConfig(t *testing.T) {
	cfg := &Config{
		Cutoff:        "20:00",
		MinWindow:     15 * time.Minute,
		Precision:     15 * time.Minute,
		WorkCalendar:  "Arbeit",
		SplitColorID:  "8",
		ProjectMarker: "-p",
		SwitchMarker:  "-m",
	}
	rc := cfg.Reconcile()
	assert.Equal(t, "-p", rc.ProjectMarker)
	assert.Equal(t, "-m", rc.SwitchMarker)
	assert.Equal(t, "8", rc.SplitColorID)
	assert.Equal(t, "Arbeit", rc.WorkCalendar)
	assert.Equal(t, schedule.Clock{Hour: 20}, rc.Policy.Cutoff)
}

func TestWatchStateDir(t *testing.T) {
	cfg := &Config{StateDir: "/var/lib/feierabend"}
	assert.Equal(t, "/var/lib/feierabend/watches", cfg.WatchStateDir())
}
