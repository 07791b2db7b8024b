package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// CalendarService serves calendar reads from the local cache and routes
// mutations through the remote account, patching the cache on success.
type CalendarService struct {
	gw        *Gateway
	cache     driven.CacheStore
	states    driven.SyncStateStore
	accountID string
	now       func() time.Time
}

// NewCalendarService creates a CalendarService for the given account.
func NewCalendarService(gw *Gateway, cache driven.CacheStore, states driven.SyncStateStore, accountID string) *CalendarService {
	return &CalendarService{gw: gw, cache: cache, states: states, accountID: accountID, now: time.Now}
}

// Events returns events overlapping [from, to), sorted by start time.
// With live set, or when the domain has never synced, the events are
// fetched from the remote account; a synced-but-empty snapshot is served
// as-is.
func (s *CalendarService) Events(ctx context.Context, from, to time.Time, live bool) ([]model.Event, error) {
	if live {
		return s.gw.ListEvents(ctx, s.accountID, from, to)
	}

	cached, err := readCached[model.Event](ctx, s.cache, model.DomainCalendar)
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 && !hasSynced(ctx, s.states, model.DomainCalendar) {
		return s.gw.ListEvents(ctx, s.accountID, from, to)
	}

	events := make([]model.Event, 0, len(cached))
	for _, ev := range cached {
		if ev.End.After(from) && ev.Start.Before(to) {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

// Event looks up a single event by ID, preferring the cache.
func (s *CalendarService) Event(ctx context.Context, eventID string) (*model.Event, error) {
	cached, err := readCached[model.Event](ctx, s.cache, model.DomainCalendar)
	if err != nil {
		return nil, err
	}
	for _, ev := range cached {
		if ev.ID == eventID {
			return &ev, nil
		}
	}
	return nil, fmt.Errorf("event %q not found", eventID)
}

// Add creates an event in the remote account and caches it.
func (s *CalendarService) Add(ctx context.Context, ev model.Event) (*model.Event, error) {
	if ev.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if !ev.End.After(ev.Start) {
		return nil, fmt.Errorf("event end must be after start")
	}

	created, err := s.gw.CreateEvent(ctx, s.accountID, ev)
	if err != nil {
		return nil, err
	}
	upsertCached(ctx, s.cache, model.DomainCalendar, created.ID, created, s.now)
	return created, nil
}

// Delete removes an event from the remote account and the cache.
func (s *CalendarService) Delete(ctx context.Context, eventID string) error {
	if err := s.gw.DeleteEvent(ctx, s.accountID, eventID); err != nil {
		return err
	}
	deleteCached(ctx, s.cache, model.DomainCalendar, eventID)
	return nil
}
