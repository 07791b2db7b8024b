package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icloudctl/internal/domain/model"
)

func makeSession(accountID string) *model.Session {
	return &model.Session{
		AccountID:    accountID,
		SessionToken: "ds-web-auth-token",
		Cookies: []model.SessionCookie{
			{Name: "X-APPLE-WEBAUTH-TOKEN", Value: "v=2:cookie", Domain: ".icloud.com", Path: "/"},
		},
		WebServices: map[string]string{
			"calendar": "https://p42-calendarws.icloud.com",
		},
		IssuedAt:  time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
		Trusted:   true,
	}
}

func TestSessionRepo_SaveLoadRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db, testKey())
	ctx := context.Background()

	sess := makeSession("user@example.com")
	require.NoError(t, repo.Save(ctx, sess))

	got, err := repo.Load(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.SessionToken, got.SessionToken)
	assert.Equal(t, sess.Cookies, got.Cookies)
	assert.Equal(t, sess.WebServices, got.WebServices)
	assert.True(t, got.Trusted)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSessionRepo_LoadMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db, testKey())

	got, err := repo.Load(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepo_SaveReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db, testKey())
	ctx := context.Background()

	first := makeSession("user@example.com")
	require.NoError(t, repo.Save(ctx, first))

	second := makeSession("user@example.com")
	second.SessionToken = "renewed-token"
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Load(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "renewed-token", got.SessionToken)
}

func TestSessionRepo_DeleteIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, makeSession("user@example.com")))
	require.NoError(t, repo.Delete(ctx, "user@example.com"))
	require.NoError(t, repo.Delete(ctx, "user@example.com"))

	got, err := repo.Load(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepo_BlobIsEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, makeSession("user@example.com")))

	var stored string
	err := db.Reader.QueryRowContext(ctx,
		`SELECT blob FROM sessions WHERE account_id = ?`, "user@example.com").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "ds-web-auth-token")
}
