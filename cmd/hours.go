package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/config"
	"github.com/humorloos/feierabend/internal/schedule"
)

func newHoursCmd() *cobra.Command {
	var (
		from         string
		to           string
		calendarName string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Export a per-day working hours report as CSV",
		Long: `Derive, for every day with work calendar events, when work started, when it
ended, and how much pause lay between the blocks, and write the result as a
time tracking CSV (datum,von,bis,pause).

Events closer together than the configured precision count as one block.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			client, err := calendar.NewClientForAccount(ctx, cfg.Account, cfg.IgnoreCalendars)
			if err != nil {
				return err
			}
			loc, err := client.Timezone(ctx)
			if err != nil {
				return err
			}

			now := time.Now().In(loc)
			rangeStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
			if from != "" {
				rangeStart, err = time.ParseInLocation("2006-01-02", from, loc)
				if err != nil {
					return fmt.Errorf("invalid --from (want \"2006-01-02\"): %w", err)
				}
			}
			rangeEnd := rangeStart.AddDate(0, 1, 0)
			if to != "" {
				rangeEnd, err = time.ParseInLocation("2006-01-02", to, loc)
				if err != nil {
					return fmt.Errorf("invalid --to (want \"2006-01-02\"): %w", err)
				}
			}

			name := calendarName
			if name == "" {
				name = cfg.WorkCalendar
			}
			id, ok, err := client.CalendarIDByName(ctx, name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("unknown calendar %q", name)
			}

			events, err := client.EventsBetween(ctx, id, rangeStart, rangeEnd)
			if err != nil {
				return err
			}
			var busy []schedule.Interval
			for _, ev := range events {
				if !ev.Timed() {
					continue
				}
				busy = append(busy, schedule.Interval{Start: ev.Start, End: ev.End})
			}

			days, err := schedule.WorkingHours(busy, cfg.Precision)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeHoursCSV(w, days)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day of the report in \"2006-01-02\" (default: first of the current month)")
	cmd.Flags().StringVar(&to, "to", "", "Day the report ends before, in \"2006-01-02\" (default: one month after --from)")
	cmd.Flags().StringVar(&calendarName, "calendar", "", "Calendar to report on (default: the work calendar)")
	cmd.Flags().StringVar(&out, "out", "", "Write the CSV to this file instead of stdout")

	return cmd
}

// writeHoursCSV writes one row per day: date, start and end clock times, and
// the pause in minutes.
func writeHoursCSV(w io.Writer, days []schedule.DayHours) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"datum", "von", "bis", "pause"}); err != nil {
		return err
	}
	for _, day := range days {
		row := []string{
			day.Day.Format("02.01.2006"),
			day.Start.Format("15:04"),
			day.End.Format("15:04"),
			strconv.Itoa(int(day.Pause.Minutes())),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
