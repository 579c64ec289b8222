package model

import (
	"fmt"
	"time"
)

// User represents a staff login account (separate from participants).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown role names on either side never pass.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   2,
		RoleCashier: 1,
	}
	roleLevel, ok := levels[role]
	if !ok {
		return false
	}
	minLevel, ok := levels[minimum]
	if !ok {
		return false
	}
	return roleLevel >= minLevel
}

// ValidRole reports whether role is a known role name.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleCashier
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
