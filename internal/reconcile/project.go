package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/logging"
)

// Propagator copies the description of a changed project event to all other
// events with the same title, so every block of a project carries its latest
// notes.
type Propagator struct {
	API    API
	Marker string
	Log    *slog.Logger
}

// Propagate finds the siblings of ev by title and aligns their descriptions
// with the changed event. Propagation is idempotent: siblings already
// carrying the description are left untouched.
func (p *Propagator) Propagate(ctx context.Context, calendarID string, ev calendar.Event) error {
	query := strings.TrimSpace(strings.TrimSuffix(ev.Summary, p.Marker))
	siblings, err := p.API.SearchEvents(ctx, calendarID, query)
	if err != nil {
		return fmt.Errorf("failed to find project events: %w", err)
	}

	var updated int
	for _, sibling := range siblings {
		if sibling.ID == ev.ID || sibling.Summary != ev.Summary || sibling.Description == ev.Description {
			continue
		}
		if err := p.API.UpdateDescription(ctx, calendarID, sibling.ID, ev.Description); err != nil {
			return fmt.Errorf("failed to update project event %s: %w", sibling.ID, err)
		}
		updated++
	}
	if p.Log != nil && updated > 0 {
		p.Log.Info("propagated project description", logging.Operation("propagate"),
			"project", ev.Summary, "updated_events", updated)
	}
	return nil
}
