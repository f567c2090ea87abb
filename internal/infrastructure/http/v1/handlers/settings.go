package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"taller/internal/domain/settings"
	"taller/internal/infrastructure/http/v1/dto"
	"taller/internal/infrastructure/storage/postgres"
	"taller/pkg/logger"
)

// SettingsHandler serves the key-value configuration store. Writing a
// pricing key triggers a catalog-wide price recalculation downstream.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
	audit   *postgres.AuditService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service, audit *postgres.AuditService) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// List handles GET /settings.
func (h *SettingsHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromSettings(items)})
}

// Get handles GET /settings/:key.
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSetting(s))
}

// Set handles PUT /settings/:key.
func (h *SettingsHandler) Set(c *gin.Context) {
	var req dto.SetSettingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	key := c.Param("key")

	s, err := h.service.Set(ctx, key, req.Value)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditChange(ctx, key, postgres.AuditActionUpdate, map[string]any{"value": s.Value})

	c.JSON(http.StatusOK, dto.FromSetting(s))
}

// Delete handles DELETE /settings/:key.
func (h *SettingsHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.Param("key")

	if err := h.service.Delete(ctx, key); err != nil {
		h.Error(c, err)
		return
	}

	h.auditChange(ctx, key, postgres.AuditActionDelete, nil)

	c.Status(http.StatusNoContent)
}

// auditChange records a settings write. Audit failures must not fail the
// request.
func (h *SettingsHandler) auditChange(ctx context.Context, key string, action postgres.AuditAction, changes map[string]any) {
	if err := h.audit.LogChange(ctx, "setting", key, action, changes); err != nil {
		logger.Warn(ctx, "failed to audit settings change", "key", key, "error", err)
	}
}
