package calendar

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/humorloos/feierabend/internal/google"
)

const (
	// listPageSize is the page size for event listings. The API caps it at
	// 2500; using the cap keeps pagination round trips to a minimum.
	listPageSize = 2500

	maxAttempts = 4
)

// Client wraps the Google Calendar service for one account.
type Client struct {
	svc     *calendar.Service
	account string
	ignore  map[string]bool

	mu        sync.Mutex
	loc       *time.Location
	calendars []Info
}

// NewClientForAccountWithProvider creates a Calendar client authenticated via
// the given token provider. Calendars whose summary appears in ignore are
// hidden from Calendars and CalendarIDByName.
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider, ignore []string) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	conf := google.GetOAuthConfig()
	tokenSource := conf.TokenSource(ctx, token)
	client := oauth2.NewClient(ctx, tokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	ignoreSet := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignoreSet[name] = true
	}

	return &Client{
		svc:     svc,
		account: account,
		ignore:  ignoreSet,
	}, nil
}

// NewClientForAccount creates a Calendar client using the default file-based
// token provider.
func NewClientForAccount(ctx context.Context, account string, ignore []string) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, account, google.NewFileTokenProvider(), ignore)
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// withRetry runs op with exponential backoff, retrying only transient
// failures. Permanent errors are returned unwrapped on the first attempt.
func withRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxAttempts))
}

// Timezone returns the timezone of the primary calendar, memoized for the
// lifetime of the client.
func (c *Client) Timezone(ctx context.Context) (*time.Location, error) {
	c.mu.Lock()
	if c.loc != nil {
		loc := c.loc
		c.mu.Unlock()
		return loc, nil
	}
	c.mu.Unlock()

	entry, err := withRetry(ctx, func() (*calendar.CalendarListEntry, error) {
		return c.svc.CalendarList.Get("primary").Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get primary calendar: %w", err)
	}
	loc, err := time.LoadLocation(entry.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar timezone %q: %w", entry.TimeZone, err)
	}

	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()
	return loc, nil
}

// Calendars returns the calendars the account owns, excluding the ignored
// ones. The list is memoized; call InvalidateCalendars after creating or
// removing calendars.
func (c *Client) Calendars(ctx context.Context) ([]Info, error) {
	c.mu.Lock()
	if c.calendars != nil {
		cached := c.calendars
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	list, err := withRetry(ctx, func() (*calendar.CalendarList, error) {
		return c.svc.CalendarList.List().Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var calendars []Info
	for _, entry := range list.Items {
		info := toInfo(entry)
		if info.AccessRole != "owner" || c.ignore[info.Summary] {
			continue
		}
		calendars = append(calendars, info)
	}

	c.mu.Lock()
	c.calendars = calendars
	c.mu.Unlock()
	return calendars, nil
}

// InvalidateCalendars drops the memoized calendar list.
func (c *Client) InvalidateCalendars() {
	c.mu.Lock()
	c.calendars = nil
	c.mu.Unlock()
}

// CalendarIDByName resolves a calendar summary to its ID. The second return
// value is false when no owned calendar carries that summary.
func (c *Client) CalendarIDByName(ctx context.Context, name string) (string, bool, error) {
	calendars, err := c.Calendars(ctx)
	if err != nil {
		return "", false, err
	}
	for _, info := range calendars {
		if info.Summary == name {
			return info.ID, true, nil
		}
	}
	return "", false, nil
}

// ChangedEvents fetches the events changed since syncToken and the token for
// the next round. An empty syncToken performs a full fetch. Only confirmed
// events are returned, most recently updated first.
func (c *Client) ChangedEvents(ctx context.Context, calendarID, syncToken string) ([]Event, string, error) {
	loc, err := c.Timezone(ctx)
	if err != nil {
		return nil, "", err
	}

	var events []Event
	nextToken := ""
	pageToken := ""
	for {
		result, err := withRetry(ctx, func() (*calendar.Events, error) {
			call := c.svc.Events.List(calendarID).
				MaxResults(listPageSize).
				SingleEvents(true).
				Context(ctx)
			if syncToken != "" {
				call = call.SyncToken(syncToken)
			}
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			return call.Do()
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to list changed events: %w", err)
		}
		for _, item := range result.Items {
			ev := toEvent(item, loc)
			if ev.Status != "confirmed" {
				continue
			}
			events = append(events, ev)
		}
		if result.NextPageToken == "" {
			nextToken = result.NextSyncToken
			break
		}
		pageToken = result.NextPageToken
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Updated.After(events[j].Updated)
	})
	return events, nextToken, nil
}

// EventsBetween lists the confirmed events of a calendar within [from, to),
// with recurring events expanded into their instances.
func (c *Client) EventsBetween(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	loc, err := c.Timezone(ctx)
	if err != nil {
		return nil, err
	}

	var events []Event
	pageToken := ""
	for {
		result, err := withRetry(ctx, func() (*calendar.Events, error) {
			call := c.svc.Events.List(calendarID).
				TimeMin(from.Format(time.RFC3339)).
				TimeMax(to.Format(time.RFC3339)).
				MaxResults(listPageSize).
				SingleEvents(true).
				OrderBy("startTime").
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			return call.Do()
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		for _, item := range result.Items {
			ev := toEvent(item, loc)
			if ev.Status != "confirmed" {
				continue
			}
			events = append(events, ev)
		}
		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}
	return events, nil
}

// SearchEvents lists the confirmed events of a calendar matching a free-text
// query.
func (c *Client) SearchEvents(ctx context.Context, calendarID, query string) ([]Event, error) {
	loc, err := c.Timezone(ctx)
	if err != nil {
		return nil, err
	}

	var events []Event
	pageToken := ""
	for {
		result, err := withRetry(ctx, func() (*calendar.Events, error) {
			call := c.svc.Events.List(calendarID).
				Q(query).
				MaxResults(listPageSize).
				SingleEvents(true).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			return call.Do()
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search events: %w", err)
		}
		for _, item := range result.Items {
			ev := toEvent(item, loc)
			if ev.Status != "confirmed" {
				continue
			}
			events = append(events, ev)
		}
		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}
	return events, nil
}

// CreateEvent inserts a new event into a calendar.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, draft Draft) error {
	_, err := withRetry(ctx, func() (*calendar.Event, error) {
		return c.svc.Events.Insert(calendarID, draft.body()).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// UpdateDescription patches only the description of an event.
func (c *Client) UpdateDescription(ctx context.Context, calendarID, eventID, description string) error {
	patch := &calendar.Event{
		Description:     description,
		ForceSendFields: []string{"Description"},
	}
	_, err := withRetry(ctx, func() (*calendar.Event, error) {
		return c.svc.Events.Patch(calendarID, eventID, patch).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to update event description: %w", err)
	}
	return nil
}

// SetTransparent marks an event as not blocking availability.
func (c *Client) SetTransparent(ctx context.Context, calendarID, eventID string) error {
	patch := &calendar.Event{Transparency: "transparent"}
	_, err := withRetry(ctx, func() (*calendar.Event, error) {
		return c.svc.Events.Patch(calendarID, eventID, patch).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to set event transparency: %w", err)
	}
	return nil
}

// TruncateEvent moves the end of an event to the given time and clears its
// color so a shortened event is not picked up for splitting again.
func (c *Client) TruncateEvent(ctx context.Context, calendarID, eventID string, end time.Time) error {
	patch := &calendar.Event{
		End:             &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ColorId:         "",
		ForceSendFields: []string{"ColorId"},
	}
	_, err := withRetry(ctx, func() (*calendar.Event, error) {
		return c.svc.Events.Patch(calendarID, eventID, patch).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to truncate event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event from a calendar.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	_, err := withRetry(ctx, func() (struct{}, error) {
		return struct{}{}, c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// WatchEvents opens a push notification channel for a calendar. The returned
// resource ID is needed to stop the channel later; the expiration tells when
// the channel has to be renewed.
func (c *Client) WatchEvents(ctx context.Context, calendarID, channelID, address string, ttl time.Duration) (string, time.Time, error) {
	channel := &calendar.Channel{
		Id:      channelID,
		Type:    "web_hook",
		Address: address,
		Params:  map[string]string{"ttl": fmt.Sprintf("%d", int64(ttl.Seconds()))},
	}
	created, err := withRetry(ctx, func() (*calendar.Channel, error) {
		return c.svc.Events.Watch(calendarID, channel).Context(ctx).Do()
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to watch calendar %s: %w", calendarID, err)
	}
	expiration := time.UnixMilli(created.Expiration)
	return created.ResourceId, expiration, nil
}

// StopChannel closes a push notification channel.
func (c *Client) StopChannel(ctx context.Context, channelID, resourceID string) error {
	channel := &calendar.Channel{
		Id:         channelID,
		ResourceId: resourceID,
	}
	_, err := withRetry(ctx, func() (struct{}, error) {
		return struct{}{}, c.svc.Channels.Stop(channel).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to stop channel %s: %w", channelID, err)
	}
	return nil
}
