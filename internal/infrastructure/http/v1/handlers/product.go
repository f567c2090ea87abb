package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taller/internal/domain"
	"taller/internal/domain/catalogs/product"
	"taller/internal/infrastructure/http/v1/dto"
	"taller/internal/infrastructure/storage/postgres"
	"taller/pkg/logger"
)

// ProductHandler extends the generic catalog handler with SKU lookup,
// low-stock listing and bulk price recalculation.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
	audit   *postgres.AuditService
}

// NewProductHandler wires the generic catalog handler with product mappers.
func NewProductHandler(
	base *BaseHandler,
	service *product.Service,
	audit *postgres.AuditService,
) *ProductHandler {
	config := CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "product",

		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(p *product.Product) any {
			return dto.FromProduct(p)
		},
	}

	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
		audit:          audit,
	}
}

// GetBySKU handles GET /products/by-sku/:sku.
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := h.service.FindBySKU(ctx, c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromProduct(p))
}

// ListLowStock handles GET /products/low-stock.
func (h *ProductHandler) ListLowStock(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", 100)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	result, err := h.service.FindLowStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.ListResponse(result))
}

// RecalculatePrices handles POST /products/recalculate-prices.
// The run isolates per-product failures and reports them in the result.
func (h *ProductHandler) RecalculatePrices(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecalculatePricesRequest
	if c.Request.ContentLength > 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	result, err := h.service.RecalculatePrices(ctx, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	// Audit failures must not fail the request.
	auditErr := h.audit.LogChange(ctx, "product_catalog", "recalculate-prices",
		postgres.AuditActionRecalculate,
		map[string]any{
			"type":      req.Type,
			"category":  req.Category,
			"attempted": result.Attempted,
			"updated":   result.Updated,
			"errors":    result.Errors,
		},
	)
	if auditErr != nil {
		logger.Warn(ctx, "failed to audit price recalculation", "error", auditErr)
	}

	c.JSON(http.StatusOK, result)
}
