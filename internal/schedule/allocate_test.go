package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcSource adapts a function to the BusySource interface.
type funcSource func(from, to time.Time) ([]Interval, error)

func (f funcSource) BusyIntervals(_ context.Context, from, to time.Time) ([]Interval, error) {
	return f(from, to)
}

// busyOn returns the intervals that fall inside [from, to).
func busyOn(all []Interval) funcSource {
	return func(from, to time.Time) ([]Interval, error) {
		var out []Interval
		for _, iv := range all {
			if iv.Start.Before(to) && from.Before(iv.End) {
				out = append(out, iv)
			}
		}
		return out, nil
	}
}

func TestAllocateSingleWindow(t *testing.T) {
	// 11:30-20:00 is free on the first day; two hours fit as a prefix.
	src := busyOn([]Interval{iv(0, "09:00", 0, "11:30")})
	a := &Allocator{Source: src, Policy: DefaultPolicy()}

	slots, err := a.Allocate(context.Background(), at(0, "09:00"), 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []Interval{iv(0, "11:30", 0, "13:30")}, slots)
}

func TestAllocateSpansDays(t *testing.T) {
	// Only 19:00-20:00 is free each day, so ten hours need ten days.
	src := funcSource(func(from, to time.Time) ([]Interval, error) {
		var out []Interval
		for d := from; d.Before(to); d = nextDayStart(d) {
			out = append(out, Interval{
				Start: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()),
				End:   time.Date(d.Year(), d.Month(), d.Day(), 19, 0, 0, 0, d.Location()),
			})
		}
		return out, nil
	})
	a := &Allocator{Source: src, Policy: DefaultPolicy()}

	slots, err := a.Allocate(context.Background(), at(0, "00:00"), 10*time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 10)

	var total time.Duration
	for _, s := range slots {
		total += s.Width()
	}
	assert.Equal(t, 10*time.Hour, total)
}

func TestAllocateNeverExceedsRequirement(t *testing.T) {
	src := busyOn(nil)
	a := &Allocator{Source: src, Policy: DefaultPolicy()}

	slots, err := a.Allocate(context.Background(), at(0, "09:00"), 90*time.Minute)
	require.NoError(t, err)

	var total time.Duration
	for _, s := range slots {
		total += s.Width()
	}
	assert.Equal(t, 90*time.Minute, total)
}

func TestAllocatePartialWithinHorizon(t *testing.T) {
	// Every day is fully booked until the cutoff; nothing can be placed.
	src := funcSource(func(from, to time.Time) ([]Interval, error) {
		var out []Interval
		for d := from; d.Before(to); d = nextDayStart(d) {
			out = append(out, Interval{
				Start: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()),
				End:   time.Date(d.Year(), d.Month(), d.Day(), 20, 0, 0, 0, d.Location()),
			})
		}
		return out, nil
	})
	a := &Allocator{Source: src, Policy: DefaultPolicy(), Horizon: 2 * DefaultStep}

	slots, err := a.Allocate(context.Background(), at(0, "00:00"), 4*time.Hour)
	var perr *PartialAllocationError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, slots)
	assert.Equal(t, 4*time.Hour, perr.Requested)
	assert.Equal(t, time.Duration(0), perr.Allocated)
}

func TestAllocateZeroRequirement(t *testing.T) {
	a := &Allocator{Source: busyOn(nil), Policy: DefaultPolicy()}
	slots, err := a.Allocate(context.Background(), at(0, "09:00"), 0)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAllocateSourceError(t *testing.T) {
	boom := errors.New("remote unavailable")
	src := funcSource(func(from, to time.Time) ([]Interval, error) { return nil, boom })
	a := &Allocator{Source: src, Policy: DefaultPolicy()}

	_, err := a.Allocate(context.Background(), at(0, "09:00"), time.Hour)
	require.ErrorIs(t, err, boom)
}
