package orders

import (
	"context"
	"time"

	"taller/internal/core/id"
	"taller/internal/core/types"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status     *Status
	ClientID   *id.ID
	VehicleID  *id.ID
	MechanicID *id.ID
	FromDate   *time.Time
	ToDate     *time.Time
	Search     string

	Limit  int
	Offset int
}

// ProfitabilityRow is one order in the profitability report.
type ProfitabilityRow struct {
	OrderID id.ID        `db:"order_id" json:"orderId"`
	Number  string       `db:"number" json:"number"`
	Date    time.Time    `db:"date" json:"date"`
	Total   types.Amount `db:"total" json:"total"`
	Utility types.Amount `db:"utility" json:"utility"`
}

// Repository defines the interface for service order persistence.
// Line mutations and total updates are expected to run inside a caller
// transaction; the repository picks the querier from context.
type Repository interface {
	// Create inserts the order header.
	Create(ctx context.Context, o *ServiceOrder) error

	// GetByID retrieves the order with all its lines.
	GetByID(ctx context.Context, id id.ID) (*ServiceOrder, error)

	// GetByNumber retrieves the order with all its lines.
	GetByNumber(ctx context.Context, number string) (*ServiceOrder, error)

	// Update persists header fields with optimistic locking.
	Update(ctx context.Context, o *ServiceOrder) error

	// UpdateTotals persists only the derived total columns and labor
	// charge, bypassing the optimistic-lock version: totals follow from
	// the lines, they are not user edits.
	UpdateTotals(ctx context.Context, o *ServiceOrder) error

	// UpdateStatus transitions the order status guarded by the previous
	// status. Returns false when the order was not in `from` anymore,
	// which callers map to a conflict.
	UpdateStatus(ctx context.Context, orderID id.ID, from, to Status) (bool, error)

	// List retrieves orders (headers only) matching the filter.
	List(ctx context.Context, filter OrderFilter) ([]*ServiceOrder, int64, error)

	// ListProfitability aggregates completed orders for a period.
	ListProfitability(ctx context.Context, from, to time.Time) ([]ProfitabilityRow, error)

	// Service lines
	CreateServiceLine(ctx context.Context, l *ServiceLine) error
	UpdateServiceLine(ctx context.Context, l *ServiceLine) error
	DeleteServiceLine(ctx context.Context, orderID, lineID id.ID) error

	// Product lines
	CreateProductLine(ctx context.Context, l *ProductLine) error
	UpdateProductLine(ctx context.Context, l *ProductLine) error
	DeleteProductLine(ctx context.Context, orderID, lineID id.ID) error

	// External part lines
	CreateExternalPartLine(ctx context.Context, l *ExternalPartLine) error
	UpdateExternalPartLine(ctx context.Context, l *ExternalPartLine) error
	DeleteExternalPartLine(ctx context.Context, orderID, lineID id.ID) error
}
