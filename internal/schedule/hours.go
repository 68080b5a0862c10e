package schedule

import (
	"sort"
	"time"
)

// DayHours summarizes the attendance of one day: when the first block of
// busy time started, when the last one ended, and how much pause lay
// between the blocks.
type DayHours struct {
	// Day is midnight of the summarized day, in the intervals' location.
	Day time.Time

	// Start is the start of the first busy interval of the day.
	Start time.Time

	// End is the end of the last busy interval of the day.
	End time.Time

	// Pause is the total gap time between non-consecutive blocks.
	Pause time.Duration
}

// WorkingHours derives a per-day attendance summary from busy intervals.
// Intervals are grouped by the day they start on and walked in start order.
// An interval extends the current block when it starts at or before the
// block's end rounded up to the precision, same as the consecutiveness test
// of FreeWindows; otherwise it opens a new block and the gap since the
// rounded-up end of the previous block counts as pause. Days without any
// interval produce no entry.
func WorkingHours(busy []Interval, precision time.Duration) ([]DayHours, error) {
	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	for _, iv := range sorted {
		if err := iv.validate(); err != nil {
			return nil, err
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var days []DayHours
	for i := 0; i < len(sorted); {
		day := dayStart(sorted[i].Start)
		entry := DayHours{Day: day, Start: sorted[i].Start, End: sorted[i].End}
		i++
		for i < len(sorted) && dayStart(sorted[i].Start).Equal(day) {
			iv := sorted[i]
			i++
			if !iv.Start.After(ceilTo(entry.End, precision)) {
				// Consecutive or overlapping: the block keeps running.
				if iv.End.After(entry.End) {
					entry.End = iv.End
				}
				continue
			}
			entry.Pause += iv.Start.Sub(ceilTo(entry.End, precision))
			entry.End = iv.End
		}
		days = append(days, entry)
	}
	return days, nil
}

// dayStart returns midnight of the day of t, in t's location.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
