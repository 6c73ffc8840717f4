package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the server.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
