package model

import "time"

// Credential holds one secret for an account. Name identifies the secret
// type within the account ("password", "trust_token"). Values live in the
// store encrypted; this struct carries plaintext only across the domain
// boundary and must not be retained.
type Credential struct {
	AccountID string
	Name      string
	Value     string
	UpdatedAt time.Time
}

// Credential name constants.
const (
	CredentialPassword   = "password"
	CredentialTrustToken = "trust_token"
)
