package ledger

import (
	"context"
	"time"

	"taller/internal/core/id"
	"taller/internal/core/types"
)

// EntryFilter narrows ledger listings.
type EntryFilter struct {
	EntryType *EntryType
	Unit      *BusinessUnit
	FromDate  *time.Time
	ToDate    *time.Time
	OrderID   *id.ID

	Limit  int
	Offset int
}

// MonthlySummary aggregates one business unit for one month.
type MonthlySummary struct {
	Unit    BusinessUnit `db:"unit" json:"unit"`
	Year    int          `db:"year" json:"year"`
	Month   int          `db:"month" json:"month"`
	Income  types.Amount `db:"income" json:"income"`
	Expense types.Amount `db:"expense" json:"expense"`
	Net     types.Amount `db:"net" json:"net"`
}

// Repository defines the interface for ledger persistence.
type Repository interface {
	// Create inserts an entry.
	Create(ctx context.Context, e *AccountingEntry) error

	// GetByID retrieves an entry.
	GetByID(ctx context.Context, id id.ID) (*AccountingEntry, error)

	// Delete hard-deletes an entry.
	Delete(ctx context.Context, id id.ID) error

	// List retrieves entries matching the filter, newest first.
	List(ctx context.Context, filter EntryFilter) ([]*AccountingEntry, int64, error)

	// ListByOrder retrieves all entries linked to an order.
	ListByOrder(ctx context.Context, orderID id.ID) ([]*AccountingEntry, error)

	// GetMonthlySummary aggregates income/expense/net per business unit
	// for one calendar month.
	GetMonthlySummary(ctx context.Context, year, month int) ([]MonthlySummary, error)
}
