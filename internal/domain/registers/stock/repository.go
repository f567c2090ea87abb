// Package stock provides the stock movement register: an immutable journal
// of receipts and expenses, with the running balance maintained on the
// product row under pessimistic lock.
package stock

import (
	"context"
	"time"

	"taller/internal/core/entity"
	"taller/internal/core/id"
	"taller/internal/core/types"
)

// Repository defines operations for the stock register journal.
type Repository interface {
	// CreateMovement inserts a single movement record.
	CreateMovement(ctx context.Context, movement entity.StockMovement) error

	// DeleteMovementsByRecorderLine removes the movements recorded for one
	// document line. Returns the deleted records so balances can be
	// compensated.
	DeleteMovementsByRecorderLine(ctx context.Context, recorderLineID id.ID) ([]entity.StockMovement, error)

	// GetMovementsByRecorder retrieves all movements caused by a document.
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// GetMovementHistory returns movement history for a product.
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// GetTurnover calculates receipt and expense totals for a period.
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// TurnoverFilter for turnover queries.
type TurnoverFilter struct {
	ProductID *id.ID
	FromDate  time.Time
	ToDate    time.Time
}

// Turnover represents receipt/expense totals for a product and period.
type Turnover struct {
	ProductID id.ID          `json:"productId,omitempty"`
	Receipt   types.Quantity `json:"receipt"`
	Expense   types.Quantity `json:"expense"`
}
