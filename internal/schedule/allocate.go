package schedule

import (
	"context"
	"time"
)

const (
	// DefaultStep is how much busy data the allocator pulls per round.
	DefaultStep = 7 * 24 * time.Hour

	// DefaultHorizon bounds the search so an impossible requirement does
	// not turn into an endless walk into the future.
	DefaultHorizon = 26 * 7 * 24 * time.Hour
)

// BusySource supplies the busy intervals of one or more calendars for a
// time range. Implementations fetch data lazily so allocation runs can span
// arbitrarily long horizons with bounded memory.
type BusySource interface {
	BusyIntervals(ctx context.Context, from, to time.Time) ([]Interval, error)
}

// Allocator carves a required duration out of the free windows left open by
// a BusySource, in chronological order.
type Allocator struct {
	Source BusySource
	Policy Policy

	// Step is the range of busy data fetched per round. Zero means
	// DefaultStep (one week).
	Step time.Duration

	// Horizon bounds how far past the start the search may reach before
	// giving up with a PartialAllocationError. Zero means DefaultHorizon.
	Horizon time.Duration
}

// Allocate returns slots whose total width equals required, walking free
// windows from start onwards. A window wider than the remaining requirement
// is only consumed up to that requirement, so the result never
// over-allocates. If the horizon is exhausted first, the slots found so far
// are returned together with a *PartialAllocationError.
func (a *Allocator) Allocate(ctx context.Context, start time.Time, required time.Duration) ([]Interval, error) {
	if required <= 0 {
		return nil, nil
	}
	step := a.Step
	if step <= 0 {
		step = DefaultStep
	}
	horizon := a.Horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	var slots []Interval
	remaining := required
	deadline := start.Add(horizon)
	for from := start; remaining > 0 && from.Before(deadline); from = from.Add(step) {
		if err := ctx.Err(); err != nil {
			return slots, err
		}
		to := from.Add(step)
		busy, err := a.Source.BusyIntervals(ctx, from, to)
		if err != nil {
			return slots, err
		}
		windows, err := FreeWindows(busy, from, to, a.Policy)
		if err != nil {
			return slots, err
		}
		for _, w := range windows {
			if width := w.Width(); width < remaining {
				slots = append(slots, w)
				remaining -= width
			} else {
				slots = append(slots, Interval{Start: w.Start, End: w.Start.Add(remaining)})
				remaining = 0
				break
			}
		}
	}
	if remaining > 0 {
		return slots, &PartialAllocationError{Requested: required, Allocated: required - remaining}
	}
	return slots, nil
}
