package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/instrumentation"
	"github.com/humorloos/feierabend/internal/logging"
)

// Engine runs reconciliation passes for watched calendars.
type Engine struct {
	api     API
	store   WatchStore
	cfg     Config
	log     *slog.Logger
	metrics *instrumentation.Metrics

	propagator *Propagator
	splitter   *Splitter
}

// NewEngine wires an engine from its dependencies. metrics may be nil.
func NewEngine(api API, store WatchStore, cfg Config, log *slog.Logger, metrics *instrumentation.Metrics) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		api:        api,
		store:      store,
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
		propagator: &Propagator{API: api, Marker: cfg.ProjectMarker, Log: log},
		splitter:   &Splitter{API: api, Config: cfg, Log: log},
	}
}

// Run executes one reconciliation pass for the calendar watched by the given
// channel. Unknown channels are ignored. The next sync token is committed
// only after every changed event was dispatched, so an aborted pass is
// replayed in full on the next notification.
func (e *Engine) Run(ctx context.Context, channelID string) error {
	started := time.Now()
	err := e.run(ctx, channelID)
	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	e.metrics.RecordPass(status, time.Since(started))
	e.log.Debug("reconciliation pass finished",
		logging.ChannelID(channelID), logging.Status(status),
		slog.Duration(logging.KeyDuration, time.Since(started)))
	return err
}

func (e *Engine) run(ctx context.Context, channelID string) error {
	reg, ok, err := e.store.Registration(channelID)
	if err != nil {
		return fmt.Errorf("failed to load registration: %w", err)
	}
	if !ok {
		e.log.Debug("ignoring notification for unknown channel", logging.ChannelID(channelID))
		return nil
	}
	log := logging.WithCalendar(e.log, reg.Name)

	events, nextToken, err := e.api.ChangedEvents(ctx, reg.CalendarID, reg.SyncToken)
	if err != nil {
		if calendar.IsInvalidSyncToken(err) {
			// The stored token expired; clear it so the next pass does a
			// full fetch.
			log.Warn("sync token expired, forcing full resync", logging.ChannelID(channelID))
			return e.store.SetSyncToken(channelID, "")
		}
		return fmt.Errorf("failed to fetch changed events: %w", err)
	}

	log.Info("reconciling calendar", "changed_events", len(events))

	// Each project is propagated at most once per pass, no matter how many
	// of its events changed.
	updatedProjects := make(map[string]bool)
	var failed int
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.dispatch(ctx, reg.CalendarID, reg.Name, ev, updatedProjects); err != nil {
			if calendar.IsNotFound(err) {
				// The event was deleted between listing and editing; there
				// is nothing left to reconcile.
				log.Debug("event vanished before reconciliation",
					"event_id", ev.ID, logging.Err(err))
				continue
			}
			failed++
			log.Error("failed to reconcile event",
				"event_id", ev.ID, "summary", ev.Summary, logging.Err(err))
		}
	}

	if err := e.store.SetSyncToken(channelID, nextToken); err != nil {
		return fmt.Errorf("failed to commit sync token: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d events failed to reconcile", failed, len(events))
	}
	return nil
}

// dispatch applies every rule that matches one changed event.
func (e *Engine) dispatch(ctx context.Context, calendarID, calendarName string, ev calendar.Event, updatedProjects map[string]bool) error {
	args := splitArgs(ev.Summary)
	var errs []error

	if slices.Contains(args, e.cfg.ProjectMarker) && !updatedProjects[ev.Summary] {
		updatedProjects[ev.Summary] = true
		err := e.propagator.Propagate(ctx, calendarID, ev)
		e.recordAction("propagate", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("propagate: %w", err))
		}
	}

	if ev.ColorID == e.cfg.SplitColorID && ev.Timed() {
		err := e.splitter.SplitOrMove(ctx, calendarID, ev)
		e.recordAction("split", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("split: %w", err))
		}
	}

	if slices.Contains(args, e.cfg.SwitchMarker) && ev.Timed() {
		err := e.switchCalendar(ctx, calendarID, args, ev)
		e.recordAction("switch", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("switch: %w", err))
		}
	}

	if calendarName == e.cfg.WorkCalendar && ev.Transparency == "" {
		err := e.api.SetTransparent(ctx, calendarID, ev.ID)
		e.recordAction("transparent", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("transparent: %w", err))
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// switchCalendar recreates the event in the calendar named after the switch
// marker and removes it from the source. The replacement is created first so
// the event is never lost half way.
func (e *Engine) switchCalendar(ctx context.Context, sourceCalendarID string, args []string, ev calendar.Event) error {
	idx := slices.Index(args, e.cfg.SwitchMarker)
	if idx < 0 || idx+1 >= len(args) {
		return fmt.Errorf("no target calendar after %s in %q", e.cfg.SwitchMarker, ev.Summary)
	}
	targetName := args[idx+1]
	rest := make([]string, 0, len(args)-2)
	rest = append(rest, args[:idx]...)
	rest = append(rest, args[idx+2:]...)

	targetID, ok, err := e.api.CalendarIDByName(ctx, targetName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown calendar %q", targetName)
	}

	draft := calendar.Draft{
		Summary:     strings.Join(rest, " "),
		Description: ev.Description,
		Location:    ev.Location,
		ColorID:     ev.ColorID,
		Start:       ev.Start,
		End:         ev.End,
	}
	if err := e.api.CreateEvent(ctx, targetID, draft); err != nil {
		return err
	}
	return e.api.DeleteEvent(ctx, sourceCalendarID, ev.ID)
}

func (e *Engine) recordAction(action string, err error) {
	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	e.metrics.RecordAction(action, status)
}

// splitArgs tokenizes an event title shell-style so quoted words stay
// together; titles with unbalanced quotes fall back to whitespace splitting.
func splitArgs(summary string) []string {
	args, err := shellquote.Split(summary)
	if err != nil {
		return strings.Fields(summary)
	}
	return args
}
