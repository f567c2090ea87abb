package settings

import (
	"context"
)

// Repository defines the interface for settings persistence.
type Repository interface {
	// Get retrieves a single setting by key.
	Get(ctx context.Context, key string) (*Setting, error)

	// GetByPrefix retrieves all settings whose key starts with prefix.
	GetByPrefix(ctx context.Context, prefix string) ([]*Setting, error)

	// List retrieves all settings ordered by key.
	List(ctx context.Context) ([]*Setting, error)

	// Upsert inserts or replaces a setting.
	Upsert(ctx context.Context, s *Setting) error

	// Delete removes a setting. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
