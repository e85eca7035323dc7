package models

import "time"

// TokenState is derived from the clock and never stored.
type TokenState string

const (
	TokenActive  TokenState = "active"
	TokenExpired TokenState = "expired"
)

// AccessToken is a bearer credential owned by exactly one user.
//
// Secret and ExpiresAt are fixed when the token is created; the row is
// never updated afterwards, only deleted on revocation.
type AccessToken struct {
	ID        string
	UserID    string
	Secret    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsActive reports whether the token is still valid at now. A token whose
// expiry equals now is already expired.
func (t *AccessToken) IsActive(now time.Time) bool {
	return t.ExpiresAt.After(now)
}

// State returns TokenActive or TokenExpired for now.
func (t *AccessToken) State(now time.Time) TokenState {
	if t.IsActive(now) {
		return TokenActive
	}
	return TokenExpired
}

// ExpiresIn returns the whole seconds left before expiry, rounded down,
// and 0 once the token has expired.
func (t *AccessToken) ExpiresIn(now time.Time) int64 {
	d := t.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Redacted returns a copy with the secret cleared, for listings.
func (t AccessToken) Redacted() AccessToken {
	t.Secret = ""
	return t
}
