package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo persists one session blob per account id. The blob is the
// JSON-encoded model.Session, encrypted with the same AES-256-GCM scheme as
// credentials since it carries live auth tokens and cookies.
type SessionRepo struct {
	db      *DB
	crypter crypter
}

// NewSessionRepo creates a new SessionRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable session persistence.
func NewSessionRepo(db *DB, key []byte) *SessionRepo {
	return &SessionRepo{db: db, crypter: newCrypter(key)}
}

// Save stores or replaces the session for its account id.
func (r *SessionRepo) Save(ctx context.Context, sess *model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.AccountID, err)
	}

	encrypted, err := r.crypter.encrypt(string(raw))
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO sessions (account_id, blob, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, sess.AccountID, encrypted); err != nil {
		return fmt.Errorf("save session %s: %w", sess.AccountID, err)
	}
	return nil
}

// Load returns the persisted session for an account, or (nil, nil) when none
// exists.
func (r *SessionRepo) Load(ctx context.Context, accountID string) (*model.Session, error) {
	if r.crypter.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT blob FROM sessions WHERE account_id = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, accountID).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", accountID, err)
	}

	raw, err := r.crypter.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt session %s: %w", accountID, err)
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", accountID, err)
	}
	return &sess, nil
}

// Delete removes the persisted session. Idempotent.
func (r *SessionRepo) Delete(ctx context.Context, accountID string) error {
	const query = `DELETE FROM sessions WHERE account_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("delete session %s: %w", accountID, err)
	}
	return nil
}
