// Package application contains use-case orchestration services: session
// management, the sync engine, the daemon controller, and the per-domain
// services consumed by the CLI.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// SecretPrompt supplies interactive secrets during login. The CLI implements
// it with terminal prompts; tests use a scripted provider.
type SecretPrompt interface {
	// Password returns the account's primary secret.
	Password(accountID string) (string, error)
	// SecurityCode returns the 6-digit second-factor code after the provider
	// has pushed a challenge to the user's trusted devices.
	SecurityCode() (string, error)
}

// SessionManager owns the authenticated session lifecycle: interactive login
// with the second-factor challenge, persistence, and silent renewal via the
// stored trust token. At most one live session per account id is held in
// process; renewal is attempted at most once per GetSession call and
// deduplicated across goroutines.
type SessionManager struct {
	client   driven.CloudClient
	creds    driven.CredentialStore
	sessions driven.SessionStore

	mu   sync.Mutex
	live map[string]*model.Session

	renewGroup singleflight.Group
	now        func() time.Time
}

// NewSessionManager creates a SessionManager over the given client and
// stores.
func NewSessionManager(client driven.CloudClient, creds driven.CredentialStore, sessions driven.SessionStore) *SessionManager {
	return &SessionManager{
		client:   client,
		creds:    creds,
		sessions: sessions,
		live:     make(map[string]*model.Session),
		now:      time.Now,
	}
}

// Login establishes an authenticated session. A valid persisted session is
// probed and reused without prompting; otherwise primary authentication runs
// and, when the account requires it, the second-factor challenge is completed
// through the prompt. The resulting session, password and trust token are
// persisted for unattended renewal.
func (m *SessionManager) Login(ctx context.Context, accountID string, prompt SecretPrompt) (*model.Session, error) {
	if sess, err := m.sessions.Load(ctx, accountID); err == nil && sess != nil {
		if err := m.client.Validate(ctx, sess); err == nil {
			slog.Info("reusing persisted session", "account", accountID)
			m.store(ctx, sess)
			return sess, nil
		}
		slog.Info("persisted session no longer valid, re-authenticating", "account", accountID)
	}

	password, err := m.creds.Get(ctx, accountID, model.CredentialPassword)
	if err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return nil, fmt.Errorf("read stored password: %w", err)
	}
	if password == "" {
		if password, err = prompt.Password(accountID); err != nil {
			return nil, model.NewAuthError(model.AuthInvalidCredentials, err)
		}
	}

	trustToken, err := m.creds.Get(ctx, accountID, model.CredentialTrustToken)
	if err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return nil, fmt.Errorf("read trust token: %w", err)
	}

	sess, needsCode, err := m.client.SignIn(ctx, accountID, password, trustToken)
	if err != nil {
		return nil, err
	}

	if needsCode {
		code, err := prompt.SecurityCode()
		if err != nil {
			return nil, model.NewAuthError(model.AuthChallengeTimeout, err)
		}
		if err := m.client.SubmitCode(ctx, sess, code); err != nil {
			return nil, err
		}
		if trustToken, err = m.client.TrustDevice(ctx, sess); err != nil {
			return nil, err
		}
	}

	if err := m.creds.Set(ctx, accountID, model.CredentialPassword, password); err != nil {
		slog.Warn("could not persist password", "account", accountID, "error", err)
	}
	if trustToken != "" {
		if err := m.creds.Set(ctx, accountID, model.CredentialTrustToken, trustToken); err != nil {
			slog.Warn("could not persist trust token", "account", accountID, "error", err)
		}
	}

	m.store(ctx, sess)
	slog.Info("login complete", "account", accountID, "trusted", sess.Trusted)
	return sess, nil
}

// GetSession returns the current session if unexpired; an expired session is
// transparently renewed once using the persisted password and trust token.
// Renewal failure surfaces AuthError{SessionExpired}: the caller must fall
// back to an interactive Login.
func (m *SessionManager) GetSession(ctx context.Context, accountID string) (*model.Session, error) {
	m.mu.Lock()
	sess := m.live[accountID]
	m.mu.Unlock()

	if sess == nil {
		loaded, err := m.sessions.Load(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		sess = loaded
	}

	if sess != nil && !sess.Expired(m.now()) {
		m.mu.Lock()
		m.live[accountID] = sess
		m.mu.Unlock()
		return sess, nil
	}

	return m.Renew(ctx, accountID)
}

// Renew re-authenticates silently with the persisted password and trust
// token, replacing the live and persisted session. Concurrent renewals for
// the same account collapse into one network attempt.
func (m *SessionManager) Renew(ctx context.Context, accountID string) (*model.Session, error) {
	v, err, _ := m.renewGroup.Do(accountID, func() (any, error) {
		password, err := m.creds.Get(ctx, accountID, model.CredentialPassword)
		if err != nil || password == "" {
			return nil, model.NewAuthError(model.AuthSessionExpired,
				fmt.Errorf("no stored password for %s", accountID))
		}
		trustToken, err := m.creds.Get(ctx, accountID, model.CredentialTrustToken)
		if err != nil || trustToken == "" {
			return nil, model.NewAuthError(model.AuthSessionExpired,
				fmt.Errorf("no trust token for %s", accountID))
		}

		sess, needsCode, err := m.client.SignIn(ctx, accountID, password, trustToken)
		if err != nil {
			return nil, model.NewAuthError(model.AuthSessionExpired, err)
		}
		if needsCode {
			// The provider no longer honors the trust token; only an
			// interactive login can complete the challenge.
			return nil, model.NewAuthError(model.AuthSessionExpired,
				fmt.Errorf("provider requires a new second-factor challenge"))
		}

		m.store(ctx, sess)
		slog.Info("session renewed", "account", accountID)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Session), nil
}

// Logout deletes the persisted session and all stored credentials for the
// account. Idempotent: logging out an already logged-out account succeeds.
func (m *SessionManager) Logout(ctx context.Context, accountID string) error {
	m.mu.Lock()
	delete(m.live, accountID)
	m.mu.Unlock()

	if err := m.sessions.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := m.creds.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	slog.Info("logged out", "account", accountID)
	return nil
}

// Status reports the account's authentication state without touching the
// network.
func (m *SessionManager) Status(ctx context.Context, accountID string) (model.AuthStatus, error) {
	st := model.AuthStatus{AccountID: accountID}

	if password, err := m.creds.Get(ctx, accountID, model.CredentialPassword); err == nil && password != "" {
		st.PasswordStored = true
	}

	sess, err := m.sessions.Load(ctx, accountID)
	if err != nil || sess == nil {
		return st, nil
	}
	st.SessionCached = true
	st.TrustedDevice = sess.Trusted
	st.Authenticated = !sess.Expired(m.now())
	return st, nil
}

// store caches the session in-process and persists it; persistence failures
// are logged, not fatal, since the in-memory session remains usable.
func (m *SessionManager) store(ctx context.Context, sess *model.Session) {
	m.mu.Lock()
	m.live[sess.AccountID] = sess
	m.mu.Unlock()

	if err := m.sessions.Save(ctx, sess); err != nil {
		slog.Warn("could not persist session", "account", sess.AccountID, "error", err)
	}
}
