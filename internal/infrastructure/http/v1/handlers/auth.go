package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain/auth"
	"taller/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and user management.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pair, user, err := h.service.Login(c.Request.Context(), req.Credentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLoginResponse(pair, user))
}

// Me handles GET /auth/me - the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := id.Parse(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// CreateUser handles POST /users - admin only.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.Email, req.Password, req.Name, req.Roles)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// GetUser handles GET /users/:id.
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromUser(user))
}

// ListUsers handles GET /users.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	filter := auth.UserFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if val := c.Query("isActive"); val != "" {
		active := val == "true"
		filter.IsActive = &active
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.UserResponse, len(users))
	for i := range users {
		items[i] = dto.FromUser(&users[i])
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// SetActive handles POST /users/:id/active.
func (h *AuthHandler) SetActive(c *gin.Context) {
	userID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetActive(c.Request.Context(), userID, req.Active); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "user state updated")
}
