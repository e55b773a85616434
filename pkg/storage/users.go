package storage

import (
	"context"

	"github.com/chris/teller-queue/pkg/models"
)

// UserStore defines the interface for station and administrator accounts.
type UserStore interface {
	// FindUserByUsername retrieves a user by username.
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	// InsertUser persists a new user and returns it with its assigned ID.
	InsertUser(ctx context.Context, user *models.User) (*models.User, error)

	// UpdateUser rewrites every field of the user with user.ID. A username
	// held by another user yields ErrDuplicateUsername.
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
}
