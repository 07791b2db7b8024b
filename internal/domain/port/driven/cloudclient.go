// Package driven defines the driven ports (outbound dependencies) of the
// application layer: the iCloud web API client and the local persistence
// stores.
package driven

import (
	"context"
	"time"

	"icloudctl/internal/domain/model"
)

// CloudClient is the driven port for the iCloud web API. Every call takes an
// explicit *model.Session; the client holds no account state of its own.
// Failures are surfaced as *model.RemoteError, except the auth flow which
// uses *model.AuthError for credential and challenge failures.
type CloudClient interface {
	// SignIn performs primary authentication. When the account requires a
	// second-factor code it returns (session, true, nil); the returned
	// session then carries the challenge scope (session id + scnt) and must
	// be completed with SubmitCode before use. A non-empty trustToken from a
	// previous TrustDevice call lets the provider skip the challenge.
	SignIn(ctx context.Context, accountID, password, trustToken string) (sess *model.Session, needsCode bool, err error)

	// SubmitCode submits the 6-digit second-factor code for a pending
	// challenge and finalizes the session (cookies + web service URLs).
	SubmitCode(ctx context.Context, sess *model.Session, code string) error

	// TrustDevice asks the provider to trust this client and returns the
	// trust token to persist for silent renewals.
	TrustDevice(ctx context.Context, sess *model.Session) (string, error)

	// Validate is the lightweight probe confirming a session is still
	// accepted by the provider. It refreshes the session's web service URLs.
	Validate(ctx context.Context, sess *model.Session) error

	// Calendar

	ListEvents(ctx context.Context, sess *model.Session, from, to time.Time) ([]model.Event, error)
	CreateEvent(ctx context.Context, sess *model.Session, ev model.Event) (*model.Event, error)
	DeleteEvent(ctx context.Context, sess *model.Session, eventID string) error

	// Reminders

	ListReminders(ctx context.Context, sess *model.Session, includeCompleted bool) ([]model.Reminder, error)
	CreateReminder(ctx context.Context, sess *model.Session, rem model.Reminder) (*model.Reminder, error)
	CompleteReminder(ctx context.Context, sess *model.Session, reminderID string) error
	DeleteReminder(ctx context.Context, sess *model.Session, reminderID string) error

	// Notes

	ListNotes(ctx context.Context, sess *model.Session) ([]model.Note, error)
	CreateNote(ctx context.Context, sess *model.Session, note model.Note) (*model.Note, error)
	SearchNotes(ctx context.Context, sess *model.Session, query string) ([]model.Note, error)

	// Find My

	ListDevices(ctx context.Context, sess *model.Session) ([]model.Device, error)
	PlaySound(ctx context.Context, sess *model.Session, deviceID string) error
	LostMode(ctx context.Context, sess *model.Session, deviceID, phone, message string) error
}
