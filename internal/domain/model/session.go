package model

import "time"

// SessionCookie is a serializable subset of an HTTP cookie carried by an
// authenticated session.
type SessionCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// Session is an authenticated, time-bounded credential for the iCloud web
// API. It is persisted as an encrypted blob keyed by account id and passed
// explicitly to every gateway call; there is no process-global session.
type Session struct {
	AccountID string `json:"account_id"`

	// SessionToken is the dsWebAuthToken issued by the auth endpoint.
	SessionToken string `json:"session_token"`
	// SessionID and Scnt are the X-Apple-ID-Session-Id / scnt pair that
	// scope a pending second-factor challenge.
	SessionID string `json:"session_id,omitempty"`
	Scnt      string `json:"scnt,omitempty"`

	Cookies []SessionCookie `json:"cookies,omitempty"`

	// WebServices maps a domain service name ("calendar", "reminders",
	// "notes", "findme") to its per-account base URL, as returned by the
	// setup endpoint after login.
	WebServices map[string]string `json:"web_services,omitempty"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"` // zero when the provider did not report one
	Trusted   bool      `json:"trusted"`
}

// Expired reports whether the session is past its expiry. Sessions with an
// unknown expiry are treated as live; the gateway's probe call is the
// authority for those.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// AuthStatus summarizes a user's authentication state for display.
type AuthStatus struct {
	AccountID      string
	Authenticated  bool
	PasswordStored bool
	SessionCached  bool
	TrustedDevice  bool
}
