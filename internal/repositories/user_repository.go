package repositories

import (
	"context"

	"growup/internal/models"
)

// UserRepository defines the interface for user data access.
// Create returns errs.ErrDuplicateEmail or errs.ErrDuplicateUsername when a
// unique key is already taken; lookups return errs.ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
