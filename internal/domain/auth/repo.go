package auth

import (
	"context"

	"taller/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user with its role assignments.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user with roles loaded.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves a user with roles loaded.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates user data (login bookkeeping, activation, roles).
	Update(ctx context.Context, user *User) error

	// List retrieves users with filtering.
	List(ctx context.Context, filter UserFilter) ([]User, int64, error)

	// Exists checks if an email is already registered.
	Exists(ctx context.Context, email string) (bool, error)
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	IsActive *bool
	Role     string
	Limit    int
	Offset   int
}
