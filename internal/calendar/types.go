package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Event is a simplified view of a calendar event with its timestamps parsed
// into the account timezone.
type Event struct {
	ID           string
	Summary      string
	Description  string
	Location     string
	ColorID      string
	Transparency string
	Status       string
	Start        time.Time
	End          time.Time
	AllDay       bool
	Updated      time.Time
}

// Timed reports whether the event occupies a concrete time range, as opposed
// to an all-day entry or an event without parseable timestamps.
func (e Event) Timed() bool {
	return !e.AllDay && !e.Start.IsZero() && !e.End.IsZero()
}

// Draft holds the fields of an event about to be created.
type Draft struct {
	Summary     string
	Description string
	Location    string
	ColorID     string
	Start       time.Time
	End         time.Time
}

func (d Draft) body() *calendar.Event {
	return &calendar.Event{
		Summary:     d.Summary,
		Description: d.Description,
		Location:    d.Location,
		ColorId:     d.ColorID,
		Start:       &calendar.EventDateTime{DateTime: d.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: d.End.Format(time.RFC3339)},
	}
}

// Info describes an entry of the user's calendar list.
type Info struct {
	ID         string
	Summary    string
	TimeZone   string
	AccessRole string
	Primary    bool
}

// toEvent converts a wire event, parsing timestamps into loc.
func toEvent(event *calendar.Event, loc *time.Location) Event {
	if event == nil {
		return Event{}
	}
	ev := Event{
		ID:           event.Id,
		Summary:      event.Summary,
		Description:  event.Description,
		Location:     event.Location,
		ColorID:      event.ColorId,
		Transparency: event.Transparency,
		Status:       event.Status,
	}
	if event.Updated != "" {
		if t, err := time.Parse(time.RFC3339, event.Updated); err == nil {
			ev.Updated = t
		}
	}
	var allDay bool
	ev.Start, allDay = parseEventTime(event.Start, loc)
	ev.AllDay = allDay
	ev.End, _ = parseEventTime(event.End, loc)
	return ev
}

// parseEventTime handles the two encodings of calendar timestamps: RFC3339
// for timed events and a bare date for all-day events.
func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.In(loc), false
		}
		return time.Time{}, false
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", edt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toInfo(entry *calendar.CalendarListEntry) Info {
	if entry == nil {
		return Info{}
	}
	return Info{
		ID:         entry.Id,
		Summary:    entry.Summary,
		TimeZone:   entry.TimeZone,
		AccessRole: entry.AccessRole,
		Primary:    entry.Primary,
	}
}
