package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"icloudctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Secret values are encrypted with AES-256-GCM before write and decrypted
// after read, so a plaintext secret never lives on disk.
type CredentialRepo struct {
	db      *DB
	crypter crypter
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable secret storage (all operations will return
// driven.ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, crypter: newCrypter(key)}
}

// Set stores or replaces the named secret for an account.
func (r *CredentialRepo) Set(ctx context.Context, accountID, name, plaintext string) error {
	encrypted, err := r.crypter.encrypt(plaintext)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO credentials (account_id, name, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`
	_, err = r.db.Writer.ExecContext(ctx, query, accountID, name, encrypted)
	if err != nil {
		return fmt.Errorf("set credential %s/%s: %w", accountID, name, err)
	}
	return nil
}

// Get retrieves the named plaintext secret for an account.
// Returns ("", nil) if no such secret exists.
func (r *CredentialRepo) Get(ctx context.Context, accountID, name string) (string, error) {
	if r.crypter.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM credentials WHERE account_id = ? AND name = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, accountID, name).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get credential %s/%s: %w", accountID, name, err)
	}

	plaintext, err := r.crypter.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt credential %s/%s: %w", accountID, name, err)
	}
	return plaintext, nil
}

// Delete removes the named secret for an account. Deleting an absent secret
// succeeds.
func (r *CredentialRepo) Delete(ctx context.Context, accountID, name string) error {
	const query = `DELETE FROM credentials WHERE account_id = ? AND name = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, accountID, name); err != nil {
		return fmt.Errorf("delete credential %s/%s: %w", accountID, name, err)
	}
	return nil
}

// DeleteAccount removes every secret stored for an account.
func (r *CredentialRepo) DeleteAccount(ctx context.Context, accountID string) error {
	const query = `DELETE FROM credentials WHERE account_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("delete credentials for %s: %w", accountID, err)
	}
	return nil
}
