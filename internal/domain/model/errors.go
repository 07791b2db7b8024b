package model

import "fmt"

// AuthKind classifies authentication failures.
type AuthKind string

const (
	AuthInvalidCredentials AuthKind = "invalid_credentials"
	AuthChallengeRejected  AuthKind = "challenge_rejected"
	AuthChallengeTimeout   AuthKind = "challenge_timeout"
	AuthNetworkError       AuthKind = "network_error"
	AuthSessionExpired     AuthKind = "session_expired"
)

// AuthError is returned by session management operations. Kind tells the
// caller what remediation applies: expired sessions and rejected challenges
// require a new interactive login.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError wraps err with an authentication failure kind.
func NewAuthError(kind AuthKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// RemoteKind classifies remote API call failures.
type RemoteKind string

const (
	RemoteUnauthorized RemoteKind = "unauthorized"
	RemoteNotFound     RemoteKind = "not_found"
	RemoteRateLimited  RemoteKind = "rate_limited"
	RemoteTransient    RemoteKind = "transient"
	RemoteMalformed    RemoteKind = "malformed"
)

// RemoteError is surfaced by the remote gateway. Only RateLimited and
// Transient kinds are safe to retry.
type RemoteError struct {
	Kind RemoteKind
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("remote: %s", e.Kind)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Retryable reports whether the failure may succeed on a later attempt.
func (e *RemoteError) Retryable() bool {
	return e.Kind == RemoteRateLimited || e.Kind == RemoteTransient
}

// NewRemoteError wraps err with a remote failure kind.
func NewRemoteError(kind RemoteKind, err error) *RemoteError {
	return &RemoteError{Kind: kind, Err: err}
}

// CacheKind classifies local cache store failures.
type CacheKind string

const (
	CacheCorrupt    CacheKind = "corrupt"
	CacheUnwritable CacheKind = "unwritable"
)

// CacheError is returned by the local cache store. Corrupt reads are
// recoverable (the domain is treated as empty); Unwritable is fatal to a
// running daemon.
type CacheError struct {
	Kind CacheKind
	Err  error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cache: %s", e.Kind)
}

func (e *CacheError) Unwrap() error { return e.Err }

// NewCacheError wraps err with a cache failure kind.
func NewCacheError(kind CacheKind, err error) *CacheError {
	return &CacheError{Kind: kind, Err: err}
}

// DaemonKind classifies daemon lifecycle failures.
type DaemonKind string

const (
	DaemonAlreadyRunning DaemonKind = "already_running"
	DaemonNotRunning     DaemonKind = "not_running"
)

// DaemonError is returned by daemon start/stop operations.
type DaemonError struct {
	Kind DaemonKind
	Err  error
}

func (e *DaemonError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("daemon: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("daemon: %s", e.Kind)
}

func (e *DaemonError) Unwrap() error { return e.Err }

// NewDaemonError wraps err with a daemon failure kind.
func NewDaemonError(kind DaemonKind, err error) *DaemonError {
	return &DaemonError{Kind: kind, Err: err}
}
