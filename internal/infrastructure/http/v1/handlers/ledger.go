package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain/ledger"
	"taller/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves the accounting book: manual entries, listing and
// hard deletion for corrections. Projection entries are written by the
// order service, never through this surface.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /ledger/entries.
func (h *LedgerHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	items, total, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromEntries(items),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /ledger/entries/:id.
func (h *LedgerHandler) Get(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromEntry(e))
}

// Create handles POST /ledger/entries - manual entry.
func (h *LedgerHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.service.CreateManual(ctx, req.EntryType, req.Unit, req.Concept, req.Amount, req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromEntry(e))
}

// Delete handles DELETE /ledger/entries/:id. Entries are immutable, so
// corrections are delete-and-recreate.
func (h *LedgerHandler) Delete(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), entryID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListByOrder handles GET /orders/:id/ledger-entries.
func (h *LedgerHandler) ListByOrder(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	items, err := h.service.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromEntries(items)})
}

func (h *LedgerHandler) parseFilter(c *gin.Context) (ledger.EntryFilter, bool) {
	filter := ledger.EntryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if val := c.Query("entryType"); val != "" {
		t := ledger.EntryType(val)
		if t != ledger.EntryIncome && t != ledger.EntryExpense {
			h.Error(c, apperror.NewValidation("invalid entryType").WithDetail("value", val))
			return filter, false
		}
		filter.EntryType = &t
	}

	if val := c.Query("unit"); val != "" {
		u := ledger.BusinessUnit(val)
		if !ledger.IsValidUnit(u) {
			h.Error(c, apperror.NewValidation("invalid unit").WithDetail("value", val))
			return filter, false
		}
		filter.Unit = &u
	}

	if val := c.Query("orderId"); val != "" {
		parsed, err := id.Parse(val)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid orderId format"))
			return filter, false
		}
		filter.OrderID = &parsed
	}

	for param, dst := range map[string]**time.Time{
		"from": &filter.FromDate,
		"to":   &filter.ToDate,
	} {
		if val := c.Query(param); val != "" {
			parsed, err := time.Parse(time.RFC3339, val)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid "+param+" date (RFC3339 expected)"))
				return filter, false
			}
			*dst = &parsed
		}
	}

	return filter, true
}
