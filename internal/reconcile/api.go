package reconcile

import (
	"context"
	"time"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/schedule"
	"github.com/humorloos/feierabend/internal/watchstore"
)

// API is the slice of the calendar client the engine needs. *calendar.Client
// implements it; tests substitute a fake.
type API interface {
	// ChangedEvents returns the confirmed events changed since the sync
	// token, most recently modified first, plus the next token.
	// Implementations must keep that ordering: it is what makes the newest
	// description win when several events of one project changed in a pass.
	ChangedEvents(ctx context.Context, calendarID, syncToken string) ([]calendar.Event, string, error)
	SearchEvents(ctx context.Context, calendarID, query string) ([]calendar.Event, error)
	EventsBetween(ctx context.Context, calendarID string, from, to time.Time) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, calendarID string, draft calendar.Draft) error
	UpdateDescription(ctx context.Context, calendarID, eventID, description string) error
	SetTransparent(ctx context.Context, calendarID, eventID string) error
	TruncateEvent(ctx context.Context, calendarID, eventID string, end time.Time) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	Calendars(ctx context.Context) ([]calendar.Info, error)
	CalendarIDByName(ctx context.Context, name string) (string, bool, error)
}

// WatchStore is the slice of the watch registration store the engine needs.
type WatchStore interface {
	Registration(channelID string) (watchstore.Registration, bool, error)
	SetSyncToken(channelID, token string) error
}

// Config carries the markers and policy that drive event dispatch.
type Config struct {
	// ProjectMarker flags an event as belonging to a project whose
	// description is shared across all events with the same title.
	ProjectMarker string

	// SwitchMarker flags an event for moving to the calendar named by the
	// following word in the title.
	SwitchMarker string

	// SplitColorID is the event color that triggers splitting or moving.
	SplitColorID string

	// WorkCalendar is the name of the calendar whose events are made
	// transparent so they do not block availability elsewhere.
	WorkCalendar string

	Policy schedule.Policy
}

// DefaultConfig returns the dispatch configuration used in production.
func DefaultConfig() Config {
	return Config{
		ProjectMarker: "-p",
		SwitchMarker:  "-m",
		SplitColorID:  "8",
		WorkCalendar:  "Arbeit",
		Policy:        schedule.DefaultPolicy(),
	}
}
