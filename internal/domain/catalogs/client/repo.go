package client

import (
	"context"

	"taller/internal/domain"
)

// Repository defines the interface for Client persistence.
type Repository interface {
	domain.CatalogRepository[*Client]

	// FindByRUC retrieves a client by taxpayer number.
	FindByRUC(ctx context.Context, ruc string) (*Client, error)
}
