package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taller/internal/core/apperror"
	"taller/internal/core/entity"
	"taller/internal/core/id"
	"taller/internal/domain/registers/stock"
)

// StockHandler exposes read access to the stock movement register. Writes
// go through the documents that record them, never through this surface.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// MovementHistory handles GET /products/:id/stock-movements.
func (h *StockHandler) MovementHistory(c *gin.Context) {
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	filter := stock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if val := c.Query("recordType"); val != "" {
		rt := entity.RecordType(val)
		if rt != entity.RecordTypeReceipt && rt != entity.RecordTypeExpense {
			h.Error(c, apperror.NewValidation("invalid recordType").WithDetail("value", val))
			return
		}
		filter.RecordType = &rt
	}

	for param, dst := range map[string]**time.Time{
		"from": &filter.FromDate,
		"to":   &filter.ToDate,
	} {
		if val := c.Query(param); val != "" {
			parsed, err := time.Parse(time.RFC3339, val)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid "+param+" date (RFC3339 expected)"))
				return
			}
			*dst = &parsed
		}
	}

	items, err := h.service.GetMovementHistory(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Turnover handles GET /stock/turnover.
func (h *StockHandler) Turnover(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid from date (RFC3339 expected)"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid to date (RFC3339 expected)"))
		return
	}

	filter := stock.TurnoverFilter{FromDate: from, ToDate: to}

	if val := c.Query("productId"); val != "" {
		parsed, err := id.Parse(val)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &parsed
	}

	turnover, err := h.service.GetTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, turnover)
}
