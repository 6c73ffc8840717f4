// Package common defines shared constants, sentinel errors and the identity
// snapshot used across client and server layers of SessionKeeper. Callers
// should use errors.Is to match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("already exists")
	ErrorValidation   = errors.New("validation error")

	// ErrorUnavailable marks a store or cache that was unreachable or timed out.
	// Callers may retry the whole operation.
	ErrorUnavailable = errors.New("backend unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
