// Package auth provides authentication and authorization domain logic.
package auth

import (
	"context"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
)

// Role codes. Roles are static: the permission set of each role is fixed in
// code, user management only assigns roles.
const (
	RoleAdmin      = "admin"
	RoleOperator   = "operator"   // front desk: catalogs, orders, stock
	RoleMechanic   = "mechanic"   // works orders, no prices or ledger
	RoleAccountant = "accountant" // ledger, reports, settings
)

// Permission codes, resource:action.
const (
	PermCatalogRead  = "catalog:read"
	PermCatalogWrite = "catalog:write"

	PermOrdersRead     = "orders:read"
	PermOrdersWrite    = "orders:write"
	PermOrdersComplete = "orders:complete"

	PermSettingsRead  = "settings:read"
	PermSettingsWrite = "settings:write"

	PermLedgerRead  = "ledger:read"
	PermLedgerWrite = "ledger:write"

	PermStockRead   = "stock:read"
	PermReportsRead = "reports:read"

	// PermUsersManage is granted to no role: user management is admin-only.
	PermUsersManage = "users:manage"
)

// rolePermissions maps each role to its permission set.
var rolePermissions = map[string][]string{
	RoleOperator: {
		PermCatalogRead, PermCatalogWrite,
		PermOrdersRead, PermOrdersWrite, PermOrdersComplete,
		PermStockRead,
	},
	RoleMechanic: {
		PermCatalogRead,
		PermOrdersRead, PermOrdersWrite,
	},
	RoleAccountant: {
		PermCatalogRead,
		PermOrdersRead,
		PermSettingsRead, PermSettingsWrite,
		PermLedgerRead, PermLedgerWrite,
		PermStockRead, PermReportsRead,
	},
}

// PermissionsForRoles expands role codes into the union of their
// permissions. Admin short-circuits in HasPermission instead.
func PermissionsForRoles(roles []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// User represents a system user.
type User struct {
	ID           id.ID  `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Name         string `db:"name" json:"name,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
	IsAdmin  bool `db:"is_admin" json:"isAdmin"`

	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`

	// Roles are loaded from the user_roles table.
	Roles []string `db:"-" json:"roles,omitempty"`
}

// NewUser creates a new active user.
func NewUser(email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	return nil
}

// IsLocked returns true if the account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if the user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter and locks the
// account once the threshold is reached.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now()
	u.LastLoginAt = &now
}

// Permissions expands the user's roles.
func (u *User) Permissions() []string {
	return PermissionsForRoles(u.Roles)
}

// HasRole checks if the user has a specific role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenPair contains the issued access token.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
