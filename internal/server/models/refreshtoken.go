package models

import "time"

// RefreshToken is the single durable refresh credential of a user.
type RefreshToken struct {
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token can no longer be exchanged at now.
// A token is already expired at the exact instant of Expires.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.Expires)
}
