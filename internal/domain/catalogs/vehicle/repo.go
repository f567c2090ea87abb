package vehicle

import (
	"context"

	"taller/internal/core/id"
	"taller/internal/domain"
)

// Repository defines the interface for Vehicle persistence.
type Repository interface {
	domain.CatalogRepository[*Vehicle]

	// FindByPlate retrieves a vehicle by normalized license plate.
	FindByPlate(ctx context.Context, plate string) (*Vehicle, error)

	// ListByClient retrieves all vehicles of a client.
	ListByClient(ctx context.Context, clientID id.ID, filter domain.ListFilter) (domain.ListResult[*Vehicle], error)
}
