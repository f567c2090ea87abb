package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taller/internal/core/apperror"
	"taller/internal/domain/reports"
)

// ReportsHandler serves the read-only reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// MonthlyLedger handles GET /reports/ledger-monthly.
func (h *ReportsHandler) MonthlyLedger(c *gin.Context) {
	now := time.Now()
	year := h.ParseIntQuery(c, "year", now.Year())
	month := h.ParseIntQuery(c, "month", int(now.Month()))

	report, err := h.service.GetMonthlyLedger(c.Request.Context(), year, month)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// LowStock handles GET /reports/low-stock.
func (h *ReportsHandler) LowStock(c *gin.Context) {
	filter := reports.LowStockReportFilter{
		Type:   c.Query("type"),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	report, err := h.service.GetLowStock(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Profitability handles GET /reports/profitability.
func (h *ReportsHandler) Profitability(c *gin.Context) {
	var filter reports.ProfitabilityReportFilter

	for param, dst := range map[string]*time.Time{
		"from": &filter.FromDate,
		"to":   &filter.ToDate,
	} {
		val := c.Query(param)
		if val == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, val)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid "+param+" date (RFC3339 expected)"))
			return
		}
		*dst = parsed
	}

	report, err := h.service.GetProfitability(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
