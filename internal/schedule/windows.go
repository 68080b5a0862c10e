package schedule

import (
	"sort"
	"time"
)

// FreeWindows computes the ordered free windows between rangeStart and
// rangeEnd that are left open by the given busy intervals, clipped at the
// daily cutoff of the policy.
//
// The busy intervals may overlap, nest, and touch; they are walked in
// ascending start order with a cursor that always sits at the end of the
// latest-ending interval absorbed so far. An interval counts as consecutive
// when it starts at or before the cursor (rounded up to the policy
// precision) and ends after it, so a chain of adjacent or overlapping
// meetings is skipped in one sweep. A gap between the cursor and the next
// interval becomes a window unless it is narrower than the minimum width.
// Gaps that reach past the cutoff are clipped there and the scan resumes at
// midnight of the following day; days without any busy interval contribute
// one window from midnight to the cutoff.
func FreeWindows(busy []Interval, rangeStart, rangeEnd time.Time, pol Policy) ([]Interval, error) {
	if !rangeStart.Before(rangeEnd) {
		return nil, &PreconditionError{Reason: "range end is not after range start"}
	}
	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	for _, iv := range sorted {
		if err := iv.validate(); err != nil {
			return nil, err
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var windows []Interval
	cursor := rangeStart
	i := 0
	for cursor.Before(rangeEnd) {
		cutoff := pol.Cutoff.On(cursor)
		if !cursor.Before(cutoff) {
			// Already past today's cutoff: the day is over, resume
			// tomorrow. The day move is unconditional so the scan can
			// never stall on one day.
			cursor = nextDayStart(cursor)
			continue
		}

		// Absorb every busy interval that overlaps or touches the cursor,
		// keeping the latest end seen. Nested and overlapping events are
		// skipped in one step; intervals fully behind the cursor are
		// consumed without moving it.
		absorbed := false
		for i < len(sorted) && !sorted[i].Start.After(ceilTo(cursor, pol.Precision)) {
			if sorted[i].End.After(cursor) {
				cursor = sorted[i].End
				absorbed = true
			}
			i++
		}
		if absorbed {
			// The new cursor may have crossed the cutoff or made further
			// intervals consecutive; re-evaluate from the top.
			continue
		}

		gapEnd := rangeEnd
		if i < len(sorted) && sorted[i].Start.Before(gapEnd) {
			gapEnd = sorted[i].Start
		}
		rollover := false
		if gapEnd.After(cutoff) {
			gapEnd = cutoff
			rollover = true
		}
		if gapEnd.Sub(cursor) > pol.MinWindow {
			windows = append(windows, Interval{Start: cursor, End: gapEnd})
		}
		if rollover {
			cursor = nextDayStart(cursor)
		} else {
			cursor = gapEnd
		}
	}
	return windows, nil
}
