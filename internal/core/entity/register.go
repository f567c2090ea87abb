// Package entity provides core domain entities.
package entity

import (
	"time"

	"taller/internal/core/id"
	"taller/internal/core/types"
)

// RecordType defines movement direction for the stock register.
type RecordType string

const (
	// RecordTypeReceipt increases stock
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases stock
	RecordTypeExpense RecordType = "expense"
)

// StockMovement is an immutable journal record of a stock change.
// Movements are never updated, only inserted and (on compensation) deleted.
type StockMovement struct {
	// LineID is the unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that caused this movement (service order,
	// manual adjustment, purchase receipt)
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type (e.g., "ServiceOrder", "Adjustment")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// RecorderLineID ties the movement to a specific line of the recorder,
	// so removing that line can compensate exactly this movement
	RecorderLineID id.ID `db:"recorder_line_id" json:"recorderLineId"`

	// Period is the business date for the movement
	Period time.Time `db:"period" json:"period"`

	// RecordType: receipt or expense
	RecordType RecordType `db:"record_type" json:"recordType"`

	// ProductID is the moved product (dimension)
	ProductID id.ID `db:"product_id" json:"productId"`

	// Quantity moved (resource, always positive; direction is RecordType)
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a new stock movement.
func NewStockMovement(
	recorderID id.ID,
	recorderType string,
	recorderLineID id.ID,
	period time.Time,
	recordType RecordType,
	productID id.ID,
	quantity types.Quantity,
) StockMovement {
	return StockMovement{
		LineID:         id.New(),
		RecorderID:     recorderID,
		RecorderType:   recorderType,
		RecorderLineID: recorderLineID,
		Period:         period,
		RecordType:     recordType,
		ProductID:      productID,
		Quantity:       quantity,
		CreatedAt:      time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign based on record type.
// Receipt = positive, Expense = negative.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
