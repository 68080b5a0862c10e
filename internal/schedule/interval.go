package schedule

import (
	"fmt"
	"time"
)

// Interval is a (start, end) pair of timed instants in a single location.
// Intervals are half-open: an interval ending exactly when another begins
// does not overlap it. Every interval must satisfy start < end.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Width returns the duration covered by the interval.
func (iv Interval) Width() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) validate() error {
	if !iv.Start.Before(iv.End) {
		return &PreconditionError{
			Reason: fmt.Sprintf("interval end %s is not after start %s", iv.End.Format(time.RFC3339), iv.Start.Format(time.RFC3339)),
		}
	}
	return nil
}

// Clock is a time of day, used for the daily cutoff ("Feierabend") after
// which no free windows may be placed.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a "15:04" style time of day.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("failed to parse clock time %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On returns the instant of the clock time on the day of t, in t's location.
func (c Clock) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// String returns the clock in "15:04" form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Policy bundles the knobs of the window finder.
type Policy struct {
	// Cutoff is the daily time of day after which no window may extend.
	Cutoff Clock

	// MinWindow discards windows that are not strictly wider than this.
	// Sub-threshold gaps between meetings are not worth surfacing.
	MinWindow time.Duration

	// Precision is the granularity the cursor is rounded up to when testing
	// whether the next busy interval is consecutive. This absorbs odd
	// meeting end times (a 10:50 end still counts as back-to-back with an
	// 11:00 start at 15 minute precision).
	Precision time.Duration
}

// DefaultPolicy returns the stock policy: cutoff at 20:00, 15 minute
// minimum window, 15 minute consecutiveness precision.
func DefaultPolicy() Policy {
	return Policy{
		Cutoff:    Clock{Hour: 20},
		MinWindow: 15 * time.Minute,
		Precision: 15 * time.Minute,
	}
}

// ceilTo rounds t up to the next multiple of precision.
func ceilTo(t time.Time, precision time.Duration) time.Time {
	if precision <= 0 {
		return t
	}
	rounded := t.Truncate(precision)
	if rounded.Before(t) {
		rounded = rounded.Add(precision)
	}
	return rounded
}

// nextDayStart returns midnight of the day after t, in t's location.
func nextDayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
