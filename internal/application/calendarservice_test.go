package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icloudctl/internal/domain/model"
)

func seedCache[T any](t *testing.T, cache *mockCacheStore, domain model.Domain, items []T, id func(T) string) {
	t.Helper()
	for _, item := range items {
		payload, err := json.Marshal(item)
		require.NoError(t, err)
		require.NoError(t, cache.UpsertSingle(context.Background(), model.CachedEntity{
			Domain:   domain,
			EntityID: id(item),
			Payload:  payload,
			SyncedAt: time.Now(),
		}))
	}
}

func newTestCalendarService(t *testing.T, client *mockCloudClient) (*CalendarService, *mockCacheStore, *mockSyncStateStore) {
	t.Helper()
	sm, creds, sessions := newTestSessionManager(client)
	seedRenewableAccount(t, creds, sessions)
	cache := newMockCacheStore()
	states := newMockSyncStateStore()
	return NewCalendarService(NewGateway(client, sm), cache, states, "user@example.com"), cache, states
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	require.NoError(t, err)
	return parsed
}

func TestCalendarEvents_CachedRangeFilter(t *testing.T) {
	client := &mockCloudClient{
		listEvents: func(_ context.Context, _ *model.Session, _, _ time.Time) ([]model.Event, error) {
			t.Fatal("cached reads must not hit the network")
			return nil, nil
		},
	}
	svc, cache, _ := newTestCalendarService(t, client)

	seedCache(t, cache, model.DomainCalendar, []model.Event{
		{ID: "before", Title: "old", Start: day(t, "2026-08-01 09:00"), End: day(t, "2026-08-01 10:00")},
		{ID: "inside", Title: "standup", Start: day(t, "2026-08-10 09:00"), End: day(t, "2026-08-10 09:15")},
		{ID: "spanning", Title: "offsite", Start: day(t, "2026-08-09 08:00"), End: day(t, "2026-08-11 18:00")},
		{ID: "after", Title: "future", Start: day(t, "2026-09-01 09:00"), End: day(t, "2026-09-01 10:00")},
	}, func(ev model.Event) string { return ev.ID })

	events, err := svc.Events(context.Background(), day(t, "2026-08-10 00:00"), day(t, "2026-08-11 00:00"), false)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "spanning", events[0].ID, "sorted by start time")
	assert.Equal(t, "inside", events[1].ID)
}

func TestCalendarEvents_LiveBypassesCache(t *testing.T) {
	remote := []model.Event{{ID: "live1", Title: "from remote"}}
	client := &mockCloudClient{
		listEvents: func(_ context.Context, _ *model.Session, _, _ time.Time) ([]model.Event, error) {
			return remote, nil
		},
	}
	svc, cache, _ := newTestCalendarService(t, client)
	seedCache(t, cache, model.DomainCalendar,
		[]model.Event{{ID: "stale", Start: time.Now(), End: time.Now().Add(time.Hour)}},
		func(ev model.Event) string { return ev.ID })

	events, err := svc.Events(context.Background(), time.Now(), time.Now().Add(time.Hour), true)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "live1", events[0].ID)
}

func TestCalendarEvents_EmptyCacheFallsThroughToRemote(t *testing.T) {
	calls := 0
	client := &mockCloudClient{
		listEvents: func(_ context.Context, _ *model.Session, _, _ time.Time) ([]model.Event, error) {
			calls++
			return []model.Event{{ID: "e1"}}, nil
		},
	}
	svc, _, _ := newTestCalendarService(t, client)

	events, err := svc.Events(context.Background(), time.Now(), time.Now().Add(time.Hour), false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, events, 1)
}

func TestCalendarEvents_SyncedEmptyDomainSkipsRemote(t *testing.T) {
	client := &mockCloudClient{
		listEvents: func(_ context.Context, _ *model.Session, _, _ time.Time) ([]model.Event, error) {
			t.Fatal("a synced-but-empty snapshot must be served without a network call")
			return nil, nil
		},
	}
	svc, _, states := newTestCalendarService(t, client)
	require.NoError(t, states.RecordSuccess(context.Background(), model.DomainCalendar, 0))

	events, err := svc.Events(context.Background(), time.Now(), time.Now().Add(time.Hour), false)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCalendarAdd_ValidatesAndCaches(t *testing.T) {
	client := &mockCloudClient{
		createEvent: func(_ context.Context, _ *model.Session, ev model.Event) (*model.Event, error) {
			ev.ID = "created-1"
			return &ev, nil
		},
	}
	svc, cache, _ := newTestCalendarService(t, client)

	_, err := svc.Add(context.Background(), model.Event{Start: time.Now(), End: time.Now().Add(time.Hour)})
	assert.ErrorContains(t, err, "title is required")

	now := time.Now()
	_, err = svc.Add(context.Background(), model.Event{Title: "x", Start: now, End: now})
	assert.ErrorContains(t, err, "end must be after start")

	created, err := svc.Add(context.Background(), model.Event{
		Title: "dentist",
		Start: day(t, "2026-09-01 10:00"),
		End:   day(t, "2026-09-01 11:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ID)

	cached, err := cache.ReadDomain(context.Background(), model.DomainCalendar)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "created-1", cached[0].EntityID)
}

func TestCalendarDelete_RemovesFromCache(t *testing.T) {
	svc, cache, _ := newTestCalendarService(t, &mockCloudClient{})
	seedCache(t, cache, model.DomainCalendar,
		[]model.Event{{ID: "e1"}, {ID: "e2"}},
		func(ev model.Event) string { return ev.ID })

	require.NoError(t, svc.Delete(context.Background(), "e1"))

	cached, err := cache.ReadDomain(context.Background(), model.DomainCalendar)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "e2", cached[0].EntityID)
}
