package model

import "time"

// TokenPurpose scopes a one-time token.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
	PurposeMagicLink         TokenPurpose = "magic_link"
)

// OneTimeToken is a single-use, time-boxed secret bound to an email address.
// At most one token exists per (purpose, email).
type OneTimeToken struct {
	Purpose   TokenPurpose
	Email     string
	Value     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at now.
// A token is still valid at exactly its expiry instant.
func (t *OneTimeToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
