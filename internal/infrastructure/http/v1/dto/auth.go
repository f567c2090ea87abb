package dto

import (
	"time"

	"taller/internal/domain/auth"
)

// --- Request DTOs ---

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Credentials converts the request to domain credentials.
func (r *LoginRequest) Credentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
}

// SetActiveRequest toggles a user account.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// --- Response DTOs ---

// UserResponse is the public view of a user.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	IsActive    bool       `json:"isActive"`
	IsAdmin     bool       `json:"isAdmin"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromUser creates response DTO from domain entity.
func FromUser(u *auth.User) *UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return &UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsAdmin:     u.IsAdmin,
		Roles:       roles,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// LoginResponse carries the issued token and the authenticated user.
type LoginResponse struct {
	AccessToken string        `json:"accessToken"`
	TokenType   string        `json:"tokenType"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	User        *UserResponse `json:"user"`
}

// NewLoginResponse builds the login payload.
func NewLoginResponse(pair *auth.TokenPair, user *auth.User) *LoginResponse {
	return &LoginResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresAt:   pair.ExpiresAt,
		User:        FromUser(user),
	}
}
