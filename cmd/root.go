// Package cmd contains the CLI commands of the feierabend daemon.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the feierabend application
var rootCmd = &cobra.Command{
	Use:   "feierabend",
	Short: "Keeps your Google Calendar honest about when the day ends",
	Long: `feierabend watches your Google Calendars and reshapes events as they change:

  - Events flagged with the split color are cut at the end of the working day
    or at the next interrupting event; the cut-off time reappears in the next
    free windows.
  - Events titled with the switch marker move to the named calendar.
  - Project events share a single description across all their blocks.
  - Work calendar events are made transparent so they do not block
    availability elsewhere.

It can run as a webhook daemon driven by calendar push notifications, or as a
CLI for one-off scheduling.`,
	SilenceUsage: true,
}

// configFile is the optional path to a config file, shared by all commands.
var configFile string

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "feierabend version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the config file (default: .feierabend.yaml in cwd or home)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newHoursCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
