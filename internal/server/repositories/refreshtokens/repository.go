// Package refreshtokens declares the storage contract for refresh tokens and
// its PostgreSQL implementation. A user owns at most one refresh token row.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository manages the single refresh token row of each user.
type Repository interface {
	// Upsert stores token for userID, replacing any existing row of that user.
	// Concurrent upserts for one user resolve as last writer wins.
	Upsert(ctx context.Context, userID string, token string, expires time.Time) error

	// Find looks up a row by its opaque token value.
	// Returns common.ErrorNotFound when absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Rotate replaces oldToken with newToken for userID, but only if oldToken
	// is still the stored value. Returns common.ErrorNotFound otherwise.
	Rotate(ctx context.Context, userID string, oldToken string, newToken string, expires time.Time) error

	// Delete removes a row by token value. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser removes the row of userID. Deleting a missing row is not an error.
	DeleteByUser(ctx context.Context, userID string) error
}
