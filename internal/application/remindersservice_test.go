package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icloudctl/internal/domain/model"
)

func newTestRemindersService(t *testing.T, client *mockCloudClient) (*RemindersService, *mockCacheStore, *mockSyncStateStore) {
	t.Helper()
	sm, creds, sessions := newTestSessionManager(client)
	seedRenewableAccount(t, creds, sessions)
	cache := newMockCacheStore()
	states := newMockSyncStateStore()
	return NewRemindersService(NewGateway(client, sm), cache, states, "user@example.com"), cache, states
}

func reminderID(r model.Reminder) string { return r.ID }

func TestRemindersList_HidesCompletedByDefault(t *testing.T) {
	svc, cache, _ := newTestRemindersService(t, &mockCloudClient{})
	seedCache(t, cache, model.DomainReminders, []model.Reminder{
		{ID: "r1", List: "Home", Title: "buy milk"},
		{ID: "r2", List: "Home", Title: "done thing", Completed: true},
		{ID: "r3", List: "Work", Title: "review doc", Priority: model.PriorityHigh},
	}, reminderID)

	open, err := svc.List(context.Background(), false, false)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "r1", open[0].ID, "sorted by list then title")
	assert.Equal(t, "r3", open[1].ID)

	all, err := svc.List(context.Background(), true, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRemindersList_LiveFetchesRemote(t *testing.T) {
	client := &mockCloudClient{
		listReminders: func(_ context.Context, _ *model.Session, includeCompleted bool) ([]model.Reminder, error) {
			assert.True(t, includeCompleted)
			return []model.Reminder{{ID: "remote"}}, nil
		},
	}
	svc, cache, _ := newTestRemindersService(t, client)
	seedCache(t, cache, model.DomainReminders, []model.Reminder{{ID: "cached"}}, reminderID)

	reminders, err := svc.List(context.Background(), true, true)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "remote", reminders[0].ID)
}

func TestRemindersList_SyncedEmptyDomainSkipsRemote(t *testing.T) {
	client := &mockCloudClient{
		listReminders: func(_ context.Context, _ *model.Session, _ bool) ([]model.Reminder, error) {
			t.Fatal("a synced-but-empty snapshot must be served without a network call")
			return nil, nil
		},
	}
	svc, _, states := newTestRemindersService(t, client)
	require.NoError(t, states.RecordSuccess(context.Background(), model.DomainReminders, 0))

	reminders, err := svc.List(context.Background(), true, false)
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestRemindersAdd_RequiresTitle(t *testing.T) {
	svc, _, _ := newTestRemindersService(t, &mockCloudClient{})

	_, err := svc.Add(context.Background(), model.Reminder{List: "Home"})
	assert.ErrorContains(t, err, "title is required")
}

func TestRemindersComplete_PatchesCache(t *testing.T) {
	completed := ""
	client := &mockCloudClient{
		completeReminder: func(_ context.Context, _ *model.Session, reminderID string) error {
			completed = reminderID
			return nil
		},
	}
	svc, cache, _ := newTestRemindersService(t, client)
	seedCache(t, cache, model.DomainReminders, []model.Reminder{{ID: "r1", Title: "buy milk"}}, reminderID)

	require.NoError(t, svc.Complete(context.Background(), "r1"))
	assert.Equal(t, "r1", completed)

	reminders, err := readCached[model.Reminder](context.Background(), cache, model.DomainReminders)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.True(t, reminders[0].Completed)
	assert.False(t, reminders[0].CompletedAt.IsZero())
}

func TestRemindersDelete_RemovesFromCache(t *testing.T) {
	svc, cache, _ := newTestRemindersService(t, &mockCloudClient{})
	seedCache(t, cache, model.DomainReminders, []model.Reminder{{ID: "r1"}}, reminderID)

	require.NoError(t, svc.Delete(context.Background(), "r1"))

	cached, err := cache.ReadDomain(context.Background(), model.DomainReminders)
	require.NoError(t, err)
	assert.Empty(t, cached)
}
