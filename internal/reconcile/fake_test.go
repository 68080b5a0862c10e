package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/watchstore"
)

// op records one mutating call against the fake API, in call order.
type op struct {
	kind        string
	calendarID  string
	eventID     string
	draft       calendar.Draft
	end         time.Time
	description string
}

type fakeAPI struct {
	changed    []calendar.Event
	nextToken  string
	changedErr error

	calendars []calendar.Info
	events    map[string][]calendar.Event

	searchErr error
	updateErr error

	ops []op
}

func (f *fakeAPI) ChangedEvents(_ context.Context, _, _ string) ([]calendar.Event, string, error) {
	if f.changedErr != nil {
		return nil, "", f.changedErr
	}
	return f.changed, f.nextToken, nil
}

func (f *fakeAPI) SearchEvents(_ context.Context, calendarID, query string) ([]calendar.Event, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []calendar.Event
	for _, ev := range f.events[calendarID] {
		if strings.Contains(ev.Summary, query) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeAPI) EventsBetween(_ context.Context, calendarID string, from, to time.Time) ([]calendar.Event, error) {
	var out []calendar.Event
	for _, ev := range f.events[calendarID] {
		if ev.Start.Before(to) && from.Before(ev.End) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateEvent(_ context.Context, calendarID string, draft calendar.Draft) error {
	f.ops = append(f.ops, op{kind: "create", calendarID: calendarID, draft: draft})
	return nil
}

func (f *fakeAPI) UpdateDescription(_ context.Context, calendarID, eventID, description string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.ops = append(f.ops, op{kind: "updateDescription", calendarID: calendarID, eventID: eventID, description: description})
	return nil
}

func (f *fakeAPI) SetTransparent(_ context.Context, calendarID, eventID string) error {
	f.ops = append(f.ops, op{kind: "transparent", calendarID: calendarID, eventID: eventID})
	return nil
}

func (f *fakeAPI) TruncateEvent(_ context.Context, calendarID, eventID string, end time.Time) error {
	f.ops = append(f.ops, op{kind: "truncate", calendarID: calendarID, eventID: eventID, end: end})
	return nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	f.ops = append(f.ops, op{kind: "delete", calendarID: calendarID, eventID: eventID})
	return nil
}

func (f *fakeAPI) Calendars(_ context.Context) ([]calendar.Info, error) {
	return f.calendars, nil
}

func (f *fakeAPI) CalendarIDByName(_ context.Context, name string) (string, bool, error) {
	for _, info := range f.calendars {
		if info.Summary == name {
			return info.ID, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeAPI) opsOfKind(kind string) []op {
	var out []op
	for _, o := range f.ops {
		if o.kind == kind {
			out = append(out, o)
		}
	}
	return out
}

type fakeStore struct {
	regs map[string]watchstore.Registration
}

func (s *fakeStore) Registration(channelID string) (watchstore.Registration, bool, error) {
	reg, ok := s.regs[channelID]
	return reg, ok, nil
}

func (s *fakeStore) SetSyncToken(channelID, token string) error {
	reg := s.regs[channelID]
	reg.SyncToken = token
	s.regs[channelID] = reg
	return nil
}
