package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain/orders"
	"taller/internal/infrastructure/http/v1/dto"
	"taller/internal/infrastructure/storage/postgres"
	"taller/pkg/logger"
)

// OrderHandler serves the service order document: header CRUD, the status
// machine and the three line tables. Every line mutation responds with the
// full order so clients always see fresh totals.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
	audit   *postgres.AuditService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service, audit *postgres.AuditService) *OrderHandler {
	return &OrderHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
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
		Items:      dto.FromOrders(items),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// GetByNumber handles GET /orders/by-number/:number.
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	o, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o := req.ToEntity()
	if err := h.service.Create(ctx, o); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(o))
}

// Update handles PUT /orders/:id - header fields only.
func (h *OrderHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(o)

	if err := h.service.UpdateHeader(ctx, o); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// ChangeStatus handles POST /orders/:id/status. Completion projects the
// order into the ledger exactly once; cancellation restores stock.
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	o, err := h.service.ChangeStatus(ctx, orderID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Audit failures must not fail the request.
	auditErr := h.audit.LogChange(ctx, "service_order", orderID.String(),
		postgres.AuditActionStatusChange,
		map[string]any{"status": string(o.Status), "number": o.Number},
	)
	if auditErr != nil {
		logger.Warn(ctx, "failed to audit status change", "orderId", orderID, "error", auditErr)
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// SetLaborCharge handles PUT /orders/:id/labor-charge.
func (h *OrderHandler) SetLaborCharge(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.SetLaborChargeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.SetLaborCharge(c.Request.Context(), orderID, req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// --- Service lines ---

// AddServiceLine handles POST /orders/:id/service-lines.
func (h *OrderHandler) AddServiceLine(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.ServiceLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.AddServiceLine(c.Request.Context(), orderID, req.ToLine())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(o))
}

// UpdateServiceLine handles PUT /orders/:id/service-lines/:lineId.
func (h *OrderHandler) UpdateServiceLine(c *gin.Context) {
	orderID, lineID, ok := h.orderLineIDs(c)
	if !ok {
		return
	}

	var req dto.ServiceLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.UpdateServiceLine(c.Request.Context(), orderID, lineID, req.ToLine())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// RemoveServiceLine handles DELETE /orders/:id/service-lines/:lineId.
func (h *OrderHandler) RemoveServiceLine(c *gin.Context) {
	orderID, lineID, ok := h.orderLineIDs(c)
	if !ok {
		return
	}

	o, err := h.service.RemoveServiceLine(c.Request.Context(), orderID, lineID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// --- Product lines ---

// AddProductLine handles POST /orders/:id/product-lines. Stock is consumed
// in the same transaction as the line insert.
func (h *OrderHandler) AddProductLine(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.AddProductLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	o, err := h.service.AddProductLine(c.Request.Context(), orderID, productID, req.Quantity, req.Tier)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(o))
}

// UpdateProductLine handles PUT /orders/:id/product-lines/:lineId.
func (h *OrderHandler) UpdateProductLine(c *gin.Context) {
	orderID, lineID, ok := h.orderLineIDs(c)
	if !ok {
		return
	}

	var req dto.UpdateProductLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.UpdateProductLine(c.Request.Context(), orderID, lineID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// RemoveProductLine handles DELETE /orders/:id/product-lines/:lineId.
// Consumed stock is restored in the same transaction.
func (h *OrderHandler) RemoveProductLine(c *gin.Context) {
	orderID, lineID, ok := h.orderLineIDs(c)
	if !ok {
		return
	}

	o, err := h.service.RemoveProductLine(c.Request.Context(), orderID, lineID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// --- External part lines ---

// AddExternalPartLine handles POST /orders/:id/part-lines.
func (h *OrderHandler) AddExternalPartLine(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req dto.ExternalPartLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.AddExternalPartLine(c.Request.Context(), orderID, req.ToLine())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(o))
}

// UpdateExternalPartLine handles PUT /orders/:id/part-lines/:lineId.
func (h *OrderHandler) UpdateExternalPartLine(c *gin.Context) {
	orderID, lineID, ok := h.orderLineIDs(c)
	if !ok {
		return
	}

	var req dto.ExternalPartLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.UpdateExternalPartLine(c.Request.Context(), orderID, lineID, req.ToLine())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// RemoveExternalPartLine handles DELETE /orders/:id/part-lines/:lineId.
func (h *OrderHandler) RemoveExternalPartLine(c *gin.Context) {
	orderID, lineID, ok := h.orderLineIDs(c)
	if !ok {
		return
	}

	o, err := h.service.RemoveExternalPartLine(c.Request.Context(), orderID, lineID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOrder(o))
}

// --- helpers ---

func (h *OrderHandler) orderID(c *gin.Context) (id.ID, bool) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return orderID, false
	}
	return orderID, true
}

func (h *OrderHandler) orderLineIDs(c *gin.Context) (id.ID, id.ID, bool) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return orderID, orderID, false
	}
	lineID, err := id.Parse(c.Param("lineId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lineId format"))
		return orderID, lineID, false
	}
	return orderID, lineID, true
}

func (h *OrderHandler) parseFilter(c *gin.Context) (orders.OrderFilter, bool) {
	filter := orders.OrderFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if status := c.Query("status"); status != "" {
		s := orders.Status(status)
		if !orders.IsValidStatus(s) {
			h.Error(c, apperror.NewValidation("invalid status").WithDetail("value", status))
			return filter, false
		}
		filter.Status = &s
	}

	for param, dst := range map[string]**id.ID{
		"clientId":   &filter.ClientID,
		"vehicleId":  &filter.VehicleID,
		"mechanicId": &filter.MechanicID,
	} {
		if val := c.Query(param); val != "" {
			parsed, err := id.Parse(val)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid "+param+" format"))
				return filter, false
			}
			*dst = &parsed
		}
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
