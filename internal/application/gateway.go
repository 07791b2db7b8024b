package application

import (
	"context"
	"errors"
	"time"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// Gateway is the session-aware face of the remote API. Every operation
// obtains a valid session from the SessionManager first; on an Unauthorized
// failure mid-call it renews once silently and retries, then surfaces the
// error. RateLimited and Transient errors pass through untouched — retry
// policy belongs to the caller (the sync engine retries, user-initiated
// mutations do not).
type Gateway struct {
	client driven.CloudClient
	sm     *SessionManager
}

// NewGateway creates a Gateway over the given client and session manager.
func NewGateway(client driven.CloudClient, sm *SessionManager) *Gateway {
	return &Gateway{client: client, sm: sm}
}

// call runs fn with a valid session, renewing once on Unauthorized.
func call[T any](ctx context.Context, g *Gateway, accountID string, fn func(*model.Session) (T, error)) (T, error) {
	var zero T

	sess, err := g.sm.GetSession(ctx, accountID)
	if err != nil {
		return zero, err
	}

	out, err := fn(sess)
	if !isUnauthorized(err) {
		return out, err
	}

	sess, renewErr := g.sm.Renew(ctx, accountID)
	if renewErr != nil {
		return zero, renewErr
	}
	return fn(sess)
}

// callErr is call for operations without a result value.
func callErr(ctx context.Context, g *Gateway, accountID string, fn func(*model.Session) error) error {
	_, err := call(ctx, g, accountID, func(sess *model.Session) (struct{}, error) {
		return struct{}{}, fn(sess)
	})
	return err
}

func isUnauthorized(err error) bool {
	var remoteErr *model.RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Kind == model.RemoteUnauthorized
}

// Calendar

func (g *Gateway) ListEvents(ctx context.Context, accountID string, from, to time.Time) ([]model.Event, error) {
	return call(ctx, g, accountID, func(sess *model.Session) ([]model.Event, error) {
		return g.client.ListEvents(ctx, sess, from, to)
	})
}

func (g *Gateway) CreateEvent(ctx context.Context, accountID string, ev model.Event) (*model.Event, error) {
	return call(ctx, g, accountID, func(sess *model.Session) (*model.Event, error) {
		return g.client.CreateEvent(ctx, sess, ev)
	})
}

func (g *Gateway) DeleteEvent(ctx context.Context, accountID, eventID string) error {
	return callErr(ctx, g, accountID, func(sess *model.Session) error {
		return g.client.DeleteEvent(ctx, sess, eventID)
	})
}

// Reminders

func (g *Gateway) ListReminders(ctx context.Context, accountID string, includeCompleted bool) ([]model.Reminder, error) {
	return call(ctx, g, accountID, func(sess *model.Session) ([]model.Reminder, error) {
		return g.client.ListReminders(ctx, sess, includeCompleted)
	})
}

func (g *Gateway) CreateReminder(ctx context.Context, accountID string, rem model.Reminder) (*model.Reminder, error) {
	return call(ctx, g, accountID, func(sess *model.Session) (*model.Reminder, error) {
		return g.client.CreateReminder(ctx, sess, rem)
	})
}

func (g *Gateway) CompleteReminder(ctx context.Context, accountID, reminderID string) error {
	return callErr(ctx, g, accountID, func(sess *model.Session) error {
		return g.client.CompleteReminder(ctx, sess, reminderID)
	})
}

func (g *Gateway) DeleteReminder(ctx context.Context, accountID, reminderID string) error {
	return callErr(ctx, g, accountID, func(sess *model.Session) error {
		return g.client.DeleteReminder(ctx, sess, reminderID)
	})
}

// Notes

func (g *Gateway) ListNotes(ctx context.Context, accountID string) ([]model.Note, error) {
	return call(ctx, g, accountID, func(sess *model.Session) ([]model.Note, error) {
		return g.client.ListNotes(ctx, sess)
	})
}

func (g *Gateway) CreateNote(ctx context.Context, accountID string, note model.Note) (*model.Note, error) {
	return call(ctx, g, accountID, func(sess *model.Session) (*model.Note, error) {
		return g.client.CreateNote(ctx, sess, note)
	})
}

func (g *Gateway) SearchNotes(ctx context.Context, accountID, query string) ([]model.Note, error) {
	return call(ctx, g, accountID, func(sess *model.Session) ([]model.Note, error) {
		return g.client.SearchNotes(ctx, sess, query)
	})
}

// Find My

func (g *Gateway) ListDevices(ctx context.Context, accountID string) ([]model.Device, error) {
	return call(ctx, g, accountID, func(sess *model.Session) ([]model.Device, error) {
		return g.client.ListDevices(ctx, sess)
	})
}

func (g *Gateway) PlaySound(ctx context.Context, accountID, deviceID string) error {
	return callErr(ctx, g, accountID, func(sess *model.Session) error {
		return g.client.PlaySound(ctx, sess, deviceID)
	})
}

func (g *Gateway) LostMode(ctx context.Context, accountID, deviceID, phone, message string) error {
	return callErr(ctx, g, accountID, func(sess *model.Session) error {
		return g.client.LostMode(ctx, sess, deviceID, phone, message)
	})
}
