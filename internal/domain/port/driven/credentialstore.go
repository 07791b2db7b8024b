package driven

import (
	"context"
	"errors"

	"icloudctl/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore and SessionStore
// operations when ICLOUDCTL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set ICLOUDCTL_SECRET_KEY")

// CredentialStore is the driven port for encrypted secret persistence.
// The adapter layer owns encryption/decryption; this interface operates on
// plaintext values at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces the named secret for an account.
	Set(ctx context.Context, accountID, name, plaintext string) error

	// Get retrieves the named secret. Returns ("", nil) when no such secret
	// exists.
	Get(ctx context.Context, accountID, name string) (string, error)

	// Delete removes the named secret. Deleting an absent secret succeeds.
	Delete(ctx context.Context, accountID, name string) error

	// DeleteAccount removes every secret stored for an account.
	DeleteAccount(ctx context.Context, accountID string) error
}

// SessionStore is the driven port for persisted session blobs, one per
// account id.
type SessionStore interface {
	// Save stores or replaces the session for its account id.
	Save(ctx context.Context, sess *model.Session) error

	// Load returns the persisted session for an account, or (nil, nil) when
	// none exists.
	Load(ctx context.Context, accountID string) (*model.Session, error)

	// Delete removes the persisted session. Idempotent.
	Delete(ctx context.Context, accountID string) error
}
