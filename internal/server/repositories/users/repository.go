// Package users declares and implements storage of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository stores user accounts. Lookups return common.ErrorNotFound for
// unknown users; Create returns common.ErrorConflict for a taken username.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
