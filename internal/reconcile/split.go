package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/logging"
	"github.com/humorloos/feierabend/internal/schedule"
)

// Splitter shortens or moves a flagged event and recreates the cut-off time
// in the next free windows.
type Splitter struct {
	API    API
	Config Config
	Log    *slog.Logger
}

// SplitOrMove decides what to do with a flagged event:
//
//   - If the event runs past the daily cutoff it is shortened to end there.
//   - Otherwise, if another timed event interrupts it, it is shortened to end
//     when the interruption begins; an interruption at the very start moves
//     the whole event instead.
//   - If nothing interferes the event is left alone.
//
// The cut-off remainder is recreated in the next free windows of the same
// calendar. Replacements are created before the original is deleted, and if
// the remainder cannot be placed in full no edit happens at all, so no event
// time is ever lost.
func (s *Splitter) SplitOrMove(ctx context.Context, calendarID string, ev calendar.Event) error {
	cutoff := s.Config.Policy.Cutoff.On(ev.End)

	var split time.Time
	if ev.End.After(cutoff) {
		split = cutoff
	} else {
		interruption, found, err := s.earliestInterruption(ctx, ev)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		split = interruption
		if split.Before(ev.Start) {
			split = ev.Start
		}
	}

	remaining := ev.End.Sub(split)
	source := &busyAcross{api: s.API, exclude: ev.ID}
	alloc := &schedule.Allocator{Source: source, Policy: s.Config.Policy}
	slots, err := alloc.Allocate(ctx, split, remaining)
	if err != nil {
		return fmt.Errorf("failed to place remainder of %q: %w", ev.Summary, err)
	}

	move := split.Equal(ev.Start)
	if s.Log != nil {
		s.Log.Info("splitting event", logging.Operation("split"),
			"summary", ev.Summary, "split_at", split, "remainder", remaining,
			"slots", len(slots), "move", move)
	}

	if move {
		for _, slot := range slots {
			if err := s.API.CreateEvent(ctx, calendarID, s.draft(ev, slot, true)); err != nil {
				return err
			}
		}
		return s.API.DeleteEvent(ctx, calendarID, ev.ID)
	}

	if err := s.API.TruncateEvent(ctx, calendarID, ev.ID, split); err != nil {
		return err
	}
	for _, slot := range slots {
		if err := s.API.CreateEvent(ctx, calendarID, s.draft(ev, slot, false)); err != nil {
			return err
		}
	}
	return nil
}

// earliestInterruption returns the start of the earliest timed event on any
// watched calendar that overlaps ev, excluding ev itself.
func (s *Splitter) earliestInterruption(ctx context.Context, ev calendar.Event) (time.Time, bool, error) {
	calendars, err := s.API.Calendars(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to list calendars: %w", err)
	}

	var earliest time.Time
	found := false
	for _, info := range calendars {
		events, err := s.API.EventsBetween(ctx, info.ID, ev.Start, ev.End)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("failed to list events of %s: %w", info.Summary, err)
		}
		for _, other := range events {
			if other.ID == ev.ID || !other.Timed() {
				continue
			}
			if !found || other.Start.Before(earliest) {
				earliest = other.Start
				found = true
			}
		}
	}
	return earliest, found, nil
}

// draft builds a replacement event for one slot. Moved events keep their
// color; truncated remainders lose it so they are not split again.
func (s *Splitter) draft(ev calendar.Event, slot schedule.Interval, keepColor bool) calendar.Draft {
	d := calendar.Draft{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       slot.Start,
		End:         slot.End,
	}
	if keepColor {
		d.ColorID = ev.ColorID
	}
	return d
}

// NewBusySource returns a schedule.BusySource that aggregates the timed
// events of all watched calendars. excludeEventID may be empty.
func NewBusySource(api API, excludeEventID string) schedule.BusySource {
	return &busyAcross{api: api, exclude: excludeEventID}
}

// busyAcross aggregates the timed events of all watched calendars into busy
// intervals, leaving out one excluded event.
type busyAcross struct {
	api     API
	exclude string
}

func (b *busyAcross) BusyIntervals(ctx context.Context, from, to time.Time) ([]schedule.Interval, error) {
	calendars, err := b.api.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	var intervals []schedule.Interval
	for _, info := range calendars {
		events, err := b.api.EventsBetween(ctx, info.ID, from, to)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			if ev.ID == b.exclude || !ev.Timed() {
				continue
			}
			intervals = append(intervals, schedule.Interval{Start: ev.Start, End: ev.End})
		}
	}
	return intervals, nil
}
