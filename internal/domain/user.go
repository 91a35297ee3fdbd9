package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a capability granted to a user.
type Role string

const (
	RoleUser       Role = "ROLE_USER"
	RoleSuperAdmin Role = "ROLE_SUPER_ADMIN"
)

// HasRole reports whether roles grants role.
func HasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether roles allow catalog management.
func IsAdmin(roles []Role) bool {
	return HasRole(roles, RoleSuperAdmin)
}

// User is an account holder. Balance changes only through billing operations.
type User struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Password  string          `json:"-"`
	Roles     []Role          `json:"roles"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RefreshToken is a long-lived token exchanged for a new access token.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token is no longer usable at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
