package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/config"
	"github.com/humorloos/feierabend/internal/logging"
	"github.com/humorloos/feierabend/internal/reconcile"
	"github.com/humorloos/feierabend/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	var (
		summary      string
		description  string
		location     string
		colorID      string
		duration     time.Duration
		from         string
		calendarName string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Place a duration into the next free calendar windows",
		Long: `Find the next free windows across all owned calendars and fill them with
events until the requested duration is covered. Windows end at the daily
cutoff and gaps smaller than the minimum window are skipped.

With --dry-run the chosen windows are printed without creating anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if summary == "" {
				return fmt.Errorf("--summary is required")
			}
			if duration <= 0 {
				return fmt.Errorf("--duration must be positive")
			}

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			log := logging.Setup(cfg.LogLevel, cfg.LogFormat)
			ctx := cmd.Context()

			client, err := calendar.NewClientForAccount(ctx, cfg.Account, cfg.IgnoreCalendars)
			if err != nil {
				return err
			}

			loc, err := client.Timezone(ctx)
			if err != nil {
				return err
			}
			start := time.Now().In(loc)
			if from != "" {
				start, err = time.ParseInLocation("2006-01-02 15:04", from, loc)
				if err != nil {
					return fmt.Errorf("invalid --from (want \"2006-01-02 15:04\"): %w", err)
				}
			}

			targetID := "primary"
			if calendarName != "" {
				id, ok, err := client.CalendarIDByName(ctx, calendarName)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("unknown calendar %q", calendarName)
				}
				targetID = id
			}

			alloc := &schedule.Allocator{
				Source: reconcile.NewBusySource(client, ""),
				Policy: cfg.Policy(),
			}
			slots, err := alloc.Allocate(ctx, start, duration)
			var partial *schedule.PartialAllocationError
			if errors.As(err, &partial) {
				log.Warn("could not place the full duration",
					"requested", partial.Requested, "allocated", partial.Allocated)
			} else if err != nil {
				return err
			}

			for _, slot := range slots {
				fmt.Printf("%s - %s  %s\n",
					slot.Start.Format("Mon 2006-01-02 15:04"),
					slot.End.Format("15:04"),
					summary)
				if dryRun {
					continue
				}
				draft := calendar.Draft{
					Summary:     summary,
					Description: description,
					Location:    location,
					ColorID:     colorID,
					Start:       slot.Start,
					End:         slot.End,
				}
				if err := client.CreateEvent(ctx, targetID, draft); err != nil {
					return err
				}
			}
			if partial != nil {
				return fmt.Errorf("only %s of %s could be scheduled", partial.Allocated, partial.Requested)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "Title of the created events")
	cmd.Flags().StringVar(&description, "description", "", "Description of the created events")
	cmd.Flags().StringVar(&location, "location", "", "Location of the created events")
	cmd.Flags().StringVar(&colorID, "color", "7", "Color id of the created events (empty for the calendar default)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Total duration to schedule, e.g. 4h30m")
	cmd.Flags().StringVar(&from, "from", "", "Earliest start in \"2006-01-02 15:04\" local time (default: now)")
	cmd.Flags().StringVar(&calendarName, "calendar", "", "Calendar to create the events in (default: primary)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only print the chosen windows")

	return cmd
}
