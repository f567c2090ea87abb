// Package ledger provides the income/expense accounting book. Entries are
// written by the order completion projection and by manual operator input;
// they are immutable once created (hard delete only, for corrections).
package ledger

import (
	"context"
	"strings"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/core/types"
)

// EntryType is the direction of an accounting entry.
type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// BusinessUnit identifies which sub-business an entry belongs to.
type BusinessUnit string

const (
	UnitTaller      BusinessUnit = "taller"
	UnitRepuestos   BusinessUnit = "repuestos"
	UnitLubricantes BusinessUnit = "lubricantes"
)

// IsValidUnit reports whether u is a known business unit.
func IsValidUnit(u BusinessUnit) bool {
	switch u {
	case UnitTaller, UnitRepuestos, UnitLubricantes:
		return true
	}
	return false
}

// AccountingEntry is one immutable ledger record. Month and Year are
// derived from Date at creation time so monthly summaries group on plain
// integer columns.
type AccountingEntry struct {
	ID id.ID `db:"id" json:"id"`

	EntryType EntryType    `db:"entry_type" json:"entryType"`
	Unit      BusinessUnit `db:"unit" json:"unit"`

	Concept string       `db:"concept" json:"concept"`
	Amount  types.Amount `db:"amount" json:"amount"`

	Date  time.Time `db:"date" json:"date"`
	Month int       `db:"month" json:"month"`
	Year  int       `db:"year" json:"year"`

	// OrderID links projection entries back to the completed order.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	// ProductID links an entry to a product where applicable.
	ProductID *id.ID `db:"product_id" json:"productId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy *string   `db:"created_by" json:"createdBy,omitempty"`
}

// NewEntry creates an entry with derived month/year bucket.
func NewEntry(entryType EntryType, unit BusinessUnit, concept string, amount types.Amount, date time.Time) *AccountingEntry {
	return &AccountingEntry{
		ID:        id.New(),
		EntryType: entryType,
		Unit:      unit,
		Concept:   concept,
		Amount:    amount,
		Date:      date,
		Month:     int(date.Month()),
		Year:      date.Year(),
		CreatedAt: time.Now().UTC(),
	}
}

// Validate implements entity.Validatable interface.
func (e *AccountingEntry) Validate(ctx context.Context) error {
	if e.EntryType != EntryIncome && e.EntryType != EntryExpense {
		return apperror.NewValidation("invalid entry type").
			WithDetail("field", "entryType").
			WithDetail("value", string(e.EntryType))
	}

	if !IsValidUnit(e.Unit) {
		return apperror.NewValidation("invalid business unit").
			WithDetail("field", "unit").
			WithDetail("value", string(e.Unit))
	}

	if strings.TrimSpace(e.Concept) == "" {
		return apperror.NewValidation("concept is required").
			WithDetail("field", "concept")
	}

	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}

	if e.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}
