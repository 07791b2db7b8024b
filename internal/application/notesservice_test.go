package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icloudctl/internal/domain/model"
)

func newTestNotesService(t *testing.T, client *mockCloudClient) (*NotesService, *mockCacheStore, *mockSyncStateStore) {
	t.Helper()
	sm, creds, sessions := newTestSessionManager(client)
	seedRenewableAccount(t, creds, sessions)
	cache := newMockCacheStore()
	states := newMockSyncStateStore()
	return NewNotesService(NewGateway(client, sm), cache, states, "user@example.com"), cache, states
}

func noteID(n model.Note) string { return n.ID }

func TestNotesList_SortedByModifiedDesc(t *testing.T) {
	now := time.Now()
	svc, cache, _ := newTestNotesService(t, &mockCloudClient{})
	seedCache(t, cache, model.DomainNotes, []model.Note{
		{ID: "old", Subject: "old", ModifiedAt: now.Add(-48 * time.Hour)},
		{ID: "new", Subject: "new", ModifiedAt: now},
		{ID: "mid", Subject: "mid", ModifiedAt: now.Add(-time.Hour)},
	}, noteID)

	notes, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{notes[0].ID, notes[1].ID, notes[2].ID})
}

func TestNotesShow_NotFound(t *testing.T) {
	svc, cache, _ := newTestNotesService(t, &mockCloudClient{})
	seedCache(t, cache, model.DomainNotes, []model.Note{{ID: "n1", Subject: "ideas"}}, noteID)

	note, err := svc.Show(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "ideas", note.Subject)

	_, err = svc.Show(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestNotesList_SyncedEmptyDomainSkipsRemote(t *testing.T) {
	client := &mockCloudClient{
		listNotes: func(_ context.Context, _ *model.Session) ([]model.Note, error) {
			t.Fatal("a synced-but-empty snapshot must be served without a network call")
			return nil, nil
		},
	}
	svc, _, states := newTestNotesService(t, client)
	require.NoError(t, states.RecordSuccess(context.Background(), model.DomainNotes, 0))

	notes, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNotesCreate_RequiresSubject(t *testing.T) {
	svc, _, _ := newTestNotesService(t, &mockCloudClient{})

	_, err := svc.Create(context.Background(), model.Note{Body: "no subject"})
	assert.ErrorContains(t, err, "subject is required")
}

func TestNotesSearch_RemoteFirst(t *testing.T) {
	client := &mockCloudClient{
		searchNotes: func(_ context.Context, _ *model.Session, query string) ([]model.Note, error) {
			assert.Equal(t, "grocery", query)
			return []model.Note{{ID: "n1", Subject: "grocery list"}}, nil
		},
	}
	svc, _, _ := newTestNotesService(t, client)

	notes, err := svc.Search(context.Background(), "grocery")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "n1", notes[0].ID)
}

func TestNotesSearch_FallsBackToCacheWhenRemoteDown(t *testing.T) {
	client := &mockCloudClient{
		searchNotes: func(_ context.Context, _ *model.Session, _ string) ([]model.Note, error) {
			return nil, model.NewRemoteError(model.RemoteTransient, errors.New("service down"))
		},
	}
	svc, cache, _ := newTestNotesService(t, client)
	seedCache(t, cache, model.DomainNotes, []model.Note{
		{ID: "n1", Subject: "Grocery list", Body: "milk, eggs"},
		{ID: "n2", Subject: "meeting notes", Body: "q3 plans"},
	}, noteID)

	notes, err := svc.Search(context.Background(), "grocery")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "n1", notes[0].ID, "case-insensitive match against cached subjects")
}

func TestNotesSearch_EmptyQueryRejected(t *testing.T) {
	svc, _, _ := newTestNotesService(t, &mockCloudClient{})

	_, err := svc.Search(context.Background(), "")
	assert.ErrorContains(t, err, "query is required")
}
