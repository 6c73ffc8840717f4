package common

import "time"

// Identity is the decoded, verified view of an access token.
type Identity struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
