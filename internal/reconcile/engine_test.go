package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/watchstore"
)

var cet = time.FixedZone("CET", 60*60)

func ts(day, hour, minute int) time.Time {
	return time.Date(2021, time.September, day, hour, minute, 0, 0, cet)
}

func newEngine(api API, store WatchStore) *Engine {
	return NewEngine(api, store, DefaultConfig(), nil, nil)
}

func storeWith(regs ...watchstore.Registration) *fakeStore {
	s := &fakeStore{regs: make(map[string]watchstore.Registration)}
	for _, reg := range regs {
		s.regs[reg.ChannelID] = reg
	}
	return s
}

func TestRunIgnoresUnknownChannel(t *testing.T) {
	api := &fakeAPI{}
	e := newEngine(api, storeWith())

	require.NoError(t, e.Run(context.Background(), "unknown"))
	assert.Empty(t, api.ops)
}

func TestRunCommitsSyncToken(t *testing.T) {
	api := &fakeAPI{nextToken: "tok-2"}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", SyncToken: "tok-1"})
	e := newEngine(api, store)

	require.NoError(t, e.Run(context.Background(), "chan-1"))
	assert.Equal(t, "tok-2", store.regs["chan-1"].SyncToken)
}

func TestRunResetsExpiredSyncToken(t *testing.T) {
	gone := fmt.Errorf("failed to list changed events: %w", &googleapi.Error{Code: 410})
	api := &fakeAPI{changedErr: gone}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", SyncToken: "stale"})
	e := newEngine(api, store)

	require.NoError(t, e.Run(context.Background(), "chan-1"))
	assert.Empty(t, store.regs["chan-1"].SyncToken)
	assert.Empty(t, api.ops)
}

func TestRunSetsWorkEventsTransparent(t *testing.T) {
	api := &fakeAPI{
		changed: []calendar.Event{
			{ID: "ev1", Summary: "Meeting", Status: "confirmed"},
			{ID: "ev2", Summary: "Focus", Status: "confirmed", Transparency: "transparent"},
		},
		nextToken: "tok-2",
	}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", Name: "Arbeit"})
	e := newEngine(api, store)

	require.NoError(t, e.Run(context.Background(), "chan-1"))

	transparent := api.opsOfKind("transparent")
	require.Len(t, transparent, 1)
	assert.Equal(t, "ev1", transparent[0].eventID)
}

func TestRunLeavesOtherCalendarsOpaque(t *testing.T) {
	api := &fakeAPI{
		changed:   []calendar.Event{{ID: "ev1", Summary: "Meeting", Status: "confirmed"}},
		nextToken: "tok-2",
	}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", Name: "Privat"})
	e := newEngine(api, store)

	require.NoError(t, e.Run(context.Background(), "chan-1"))
	assert.Empty(t, api.opsOfKind("transparent"))
}

func TestRunPropagatesEachProjectOnce(t *testing.T) {
	// Two changed events of the same project must trigger a single
	// propagation run.
	api := &fakeAPI{
		changed: []calendar.Event{
			{ID: "ev1", Summary: "Website -p", Description: "new notes"},
			{ID: "ev2", Summary: "Website -p", Description: "new notes"},
		},
		nextToken: "tok-2",
		events: map[string][]calendar.Event{
			"cal-1": {
				{ID: "ev1", Summary: "Website -p", Description: "new notes"},
				{ID: "ev2", Summary: "Website -p", Description: "new notes"},
				{ID: "ev3", Summary: "Website -p", Description: "old notes"},
			},
		},
	}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", Name: "Privat"})
	e := newEngine(api, store)

	require.NoError(t, e.Run(context.Background(), "chan-1"))

	updates := api.opsOfKind("updateDescription")
	require.Len(t, updates, 1)
	assert.Equal(t, "ev3", updates[0].eventID)
	assert.Equal(t, "new notes", updates[0].description)
}

func TestRunContinuesAfterEventFailure(t *testing.T) {
	api := &fakeAPI{
		changed: []calendar.Event{
			{ID: "ev1", Summary: "Website -p", Description: "notes"},
			{ID: "ev2", Summary: "Meeting"},
		},
		nextToken: "tok-2",
		events: map[string][]calendar.Event{
			"cal-1": {
				{ID: "ev1", Summary: "Website -p", Description: "notes"},
				{ID: "ev3", Summary: "Website -p", Description: "stale"},
			},
		},
		updateErr: fmt.Errorf("backend unavailable"),
	}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", Name: "Arbeit"})
	e := newEngine(api, store)

	err := e.Run(context.Background(), "chan-1")
	require.Error(t, err)

	// The failing propagation must not stop the other event from being
	// processed, and the token is still committed so the pass is not
	// replayed forever.
	assert.Len(t, api.opsOfKind("transparent"), 2)
	assert.Equal(t, "tok-2", store.regs["chan-1"].SyncToken)
}

func TestRunSkipsVanishedEvents(t *testing.T) {
	api := &fakeAPI{
		changed: []calendar.Event{
			{ID: "ev1", Summary: "Website -p", Description: "notes"},
			{ID: "ev2", Summary: "Meeting"},
		},
		nextToken: "tok-2",
		events: map[string][]calendar.Event{
			"cal-1": {
				{ID: "ev1", Summary: "Website -p", Description: "notes"},
				{ID: "ev3", Summary: "Website -p", Description: "stale"},
			},
		},
		updateErr: fmt.Errorf("failed to update project event ev3: %w", &googleapi.Error{Code: 404}),
	}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", Name: "Arbeit"})
	e := newEngine(api, store)

	// A sibling deleted between listing and patching is no pass failure:
	// there is nothing left to reconcile.
	require.NoError(t, e.Run(context.Background(), "chan-1"))
	assert.Len(t, api.opsOfKind("transparent"), 2)
	assert.Equal(t, "tok-2", store.regs["chan-1"].SyncToken)
}

func TestSwitchCalendarMovesEvent(t *testing.T) {
	api := &fakeAPI{
		changed: []calendar.Event{
			{
				ID:      "ev1",
				Summary: "Zahnarzt -m Privat",
				Start:   ts(1, 14, 0),
				End:     ts(1, 15, 0),
			},
		},
		nextToken: "tok-2",
		calendars: []calendar.Info{
			{ID: "cal-1", Summary: "Arbeit"},
			{ID: "cal-2", Summary: "Privat"},
		},
	}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", Name: "Privat"})
	e := newEngine(api, store)

	require.NoError(t, e.Run(context.Background(), "chan-1"))

	require.Len(t, api.ops, 2)
	assert.Equal(t, "create", api.ops[0].kind)
	assert.Equal(t, "cal-2", api.ops[0].calendarID)
	assert.Equal(t, "Zahnarzt", api.ops[0].draft.Summary)
	assert.Equal(t, ts(1, 14, 0), api.ops[0].draft.Start)
	assert.Equal(t, "delete", api.ops[1].kind)
	assert.Equal(t, "cal-1", api.ops[1].calendarID)
	assert.Equal(t, "ev1", api.ops[1].eventID)
}

func TestSwitchCalendarUnknownTarget(t *testing.T) {
	api := &fakeAPI{
		changed: []calendar.Event{
			{ID: "ev1", Summary: "Zahnarzt -m Nirgendwo", Start: ts(1, 14, 0), End: ts(1, 15, 0)},
		},
		nextToken: "tok-2",
		calendars: []calendar.Info{{ID: "cal-1", Summary: "Arbeit"}},
	}
	store := storeWith(watchstore.Registration{ChannelID: "chan-1", CalendarID: "cal-1", Name: "Privat"})
	e := newEngine(api, store)

	require.Error(t, e.Run(context.Background(), "chan-1"))
	assert.Empty(t, api.opsOfKind("create"))
	assert.Empty(t, api.opsOfKind("delete"))
}

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"Website", "-p"}, splitArgs("Website -p"))
	assert.Equal(t, []string{"Termin", "-m", "Privater Kalender"}, splitArgs(`Termin -m "Privater Kalender"`))
	// Unbalanced quotes fall back to whitespace splitting.
	assert.Equal(t, []string{`Bob's`, "Termin"}, splitArgs(`Bob's Termin`))
}
