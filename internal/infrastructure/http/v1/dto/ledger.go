package dto

import (
	"time"

	"taller/internal/core/types"
	"taller/internal/domain/ledger"
)

// CreateEntryRequest is the request body for a manual ledger entry.
type CreateEntryRequest struct {
	EntryType ledger.EntryType    `json:"entryType" binding:"required"`
	Unit      ledger.BusinessUnit `json:"unit" binding:"required"`
	Concept   string              `json:"concept" binding:"required"`
	Amount    types.Amount        `json:"amount" binding:"required"`
	Date      time.Time           `json:"date" binding:"required"`
}

// EntryResponse is the response body for a ledger entry.
type EntryResponse struct {
	ID        string              `json:"id"`
	EntryType ledger.EntryType    `json:"entryType"`
	Unit      ledger.BusinessUnit `json:"unit"`
	Concept   string              `json:"concept"`
	Amount    types.Amount        `json:"amount"`
	Date      time.Time           `json:"date"`
	Month     int                 `json:"month"`
	Year      int                 `json:"year"`
	OrderID   *string             `json:"orderId,omitempty"`
	ProductID *string             `json:"productId,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	CreatedBy *string             `json:"createdBy,omitempty"`
}

// FromEntry creates response DTO from domain entity.
func FromEntry(e *ledger.AccountingEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:        e.ID.String(),
		EntryType: e.EntryType,
		Unit:      e.Unit,
		Concept:   e.Concept,
		Amount:    e.Amount,
		Date:      e.Date,
		Month:     e.Month,
		Year:      e.Year,
		CreatedAt: e.CreatedAt,
		CreatedBy: e.CreatedBy,
	}
	if e.OrderID != nil {
		s := e.OrderID.String()
		resp.OrderID = &s
	}
	if e.ProductID != nil {
		s := e.ProductID.String()
		resp.ProductID = &s
	}
	return resp
}

// FromEntries maps a list of entries.
func FromEntries(items []*ledger.AccountingEntry) []*EntryResponse {
	out := make([]*EntryResponse, len(items))
	for i, e := range items {
		out[i] = FromEntry(e)
	}
	return out
}
