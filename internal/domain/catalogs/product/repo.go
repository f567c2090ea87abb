package product

import (
	"context"

	"taller/internal/core/id"
	"taller/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves a product by supplier article number.
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// GetForUpdate retrieves a product with a row lock. Must be called
	// inside a transaction; used by the stock register.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// UpdatePrices persists only the computed price columns and margin,
	// without touching the optimistic-lock version. Used by bulk
	// recalculation so it cannot conflict with concurrent catalog edits.
	UpdatePrices(ctx context.Context, p *Product) error

	// UpdateStock persists only the stock column. Callers hold the row
	// lock via GetForUpdate.
	UpdateStock(ctx context.Context, p *Product) error

	// FindLowStock retrieves active products with stock at or below minimum.
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}
