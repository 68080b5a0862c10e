package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
)

func TestToEventTimed(t *testing.T) {
	loc := time.FixedZone("CET", 60*60)
	ev := toEvent(&calendar.Event{
		Id:           "ev1",
		Summary:      "Deep Work -p",
		Description:  "focus block",
		Location:     "home office",
		ColorId:      "8",
		Transparency: "opaque",
		Status:       "confirmed",
		Updated:      "2021-09-01T08:30:00Z",
		Start:        &calendar.EventDateTime{DateTime: "2021-09-01T09:00:00Z"},
		End:          &calendar.EventDateTime{DateTime: "2021-09-01T11:00:00Z"},
	}, loc)

	assert.Equal(t, "ev1", ev.ID)
	assert.Equal(t, "Deep Work -p", ev.Summary)
	assert.Equal(t, "8", ev.ColorID)
	assert.Equal(t, "confirmed", ev.Status)
	assert.True(t, ev.Timed())
	assert.False(t, ev.AllDay)

	// Timestamps land in the account timezone.
	assert.Equal(t, loc, ev.Start.Location())
	assert.Equal(t, time.Date(2021, 9, 1, 10, 0, 0, 0, loc), ev.Start)
	assert.Equal(t, time.Date(2021, 9, 1, 12, 0, 0, 0, loc), ev.End)
	assert.Equal(t, time.Date(2021, 9, 1, 8, 30, 0, 0, time.UTC), ev.Updated.UTC())
}

func TestToEventAllDay(t *testing.T) {
	loc := time.FixedZone("CET", 60*60)
	ev := toEvent(&calendar.Event{
		Id:     "ev2",
		Status: "confirmed",
		Start:  &calendar.EventDateTime{Date: "2021-09-01"},
		End:    &calendar.EventDateTime{Date: "2021-09-02"},
	}, loc)

	assert.True(t, ev.AllDay)
	assert.False(t, ev.Timed())
	assert.Equal(t, time.Date(2021, 9, 1, 0, 0, 0, 0, loc), ev.Start)
}

func TestToEventNil(t *testing.T) {
	ev := toEvent(nil, time.UTC)
	assert.Equal(t, Event{}, ev)
	assert.False(t, ev.Timed())
}

func TestToEventMissingTimes(t *testing.T) {
	ev := toEvent(&calendar.Event{Id: "ev3", Status: "confirmed"}, time.UTC)
	assert.False(t, ev.Timed())
	assert.True(t, ev.Start.IsZero())
}

func TestDraftBody(t *testing.T) {
	loc := time.FixedZone("CET", 60*60)
	d := Draft{
		Summary:     "Projektzeit",
		Description: "carry-over",
		ColorID:     "8",
		Start:       time.Date(2021, 9, 1, 18, 0, 0, 0, loc),
		End:         time.Date(2021, 9, 1, 20, 0, 0, 0, loc),
	}
	body := d.body()
	require.NotNil(t, body.Start)
	require.NotNil(t, body.End)
	assert.Equal(t, "Projektzeit", body.Summary)
	assert.Equal(t, "8", body.ColorId)
	assert.Equal(t, "2021-09-01T18:00:00+01:00", body.Start.DateTime)
	assert.Equal(t, "2021-09-01T20:00:00+01:00", body.End.DateTime)
}

func TestToInfo(t *testing.T) {
	info := toInfo(&calendar.CalendarListEntry{
		Id:         "cal1",
		Summary:    "Arbeit",
		TimeZone:   "Europe/Berlin",
		AccessRole: "owner",
		Primary:    true,
	})
	assert.Equal(t, Info{
		ID:         "cal1",
		Summary:    "Arbeit",
		TimeZone:   "Europe/Berlin",
		AccessRole: "owner",
		Primary:    true,
	}, info)

	assert.Equal(t, Info{}, toInfo(nil))
}
