// Package watchstore persists calendar watch channel registrations and their
// incremental sync tokens across daemon restarts.
package watchstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

// Registration records one push notification channel and the sync state of
// the calendar it watches.
type Registration struct {
	ChannelID  string    `json:"channelId"`
	CalendarID string    `json:"calendarId"`
	Name       string    `json:"name"`
	ResourceID string    `json:"resourceId"`
	SyncToken  string    `json:"syncToken"`
	Expiration time.Time `json:"expiration"`
}

// Store is the persistence contract for watch registrations.
type Store interface {
	Put(reg Registration) error
	Registration(channelID string) (Registration, bool, error)
	All(ctx context.Context) ([]Registration, error)
	SetSyncToken(channelID, token string) error
	Delete(channelID string) error
}

// Load creates a Store backed by diskv under the given base path.
func Load(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("watchstore: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("watchstore: ensure base path: %w", err)
	}
	return &store{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}, nil
}

type store struct {
	d *diskv.Diskv
}

func (s *store) Put(reg Registration) error {
	if reg.ChannelID == "" {
		return errors.New("watchstore: channel id required")
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return s.d.Write(reg.ChannelID, data)
}

func (s *store) Registration(channelID string) (Registration, bool, error) {
	data, err := s.d.Read(channelID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Registration{}, false, nil
		}
		return Registration{}, false, err
	}
	var reg Registration
	if err := json.Unmarshal(data, &reg); err != nil {
		return Registration{}, false, fmt.Errorf("watchstore: decode %s: %w", channelID, err)
	}
	return reg, true, nil
}

func (s *store) All(ctx context.Context) ([]Registration, error) {
	var regs []Registration
	for key := range s.d.Keys(ctx.Done()) {
		reg, ok, err := s.Registration(key)
		if err != nil {
			return nil, err
		}
		if ok {
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func (s *store) SetSyncToken(channelID, token string) error {
	reg, ok, err := s.Registration(channelID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("watchstore: unknown channel %s", channelID)
	}
	reg.SyncToken = token
	return s.Put(reg)
}

func (s *store) Delete(channelID string) error {
	return s.d.Erase(channelID)
}
