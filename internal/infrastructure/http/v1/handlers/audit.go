package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taller/internal/core/apperror"
	"taller/internal/infrastructure/storage/postgres"
)

const maxHistoryLimit = 200

// AuditHandler serves the change history of audited entities.
type AuditHandler struct {
	*BaseHandler
	service *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, service *postgres.AuditService) *AuditHandler {
	return &AuditHandler{
		BaseHandler: base,
		service:     service,
	}
}

// EntityHistory handles GET /audit/:entityType/:entityId, newest first.
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	entityType := c.Param("entityType")
	entityID := c.Param("entityId")
	if entityType == "" || entityID == "" {
		h.Error(c, apperror.NewValidation("entityType and entityId are required"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.service.GetEntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	if entries == nil {
		entries = []postgres.AuditEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}
