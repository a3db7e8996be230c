package model

import (
	"time"
)

// User role constants
const (
	RoleAdmin     = "admin"
	RoleReception = "reception"
	RoleDoctor    = "doctor"
)

// User represents an operator of the admin backend
type User struct {
	Base
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	FullName     string     `json:"full_name" db:"full_name"`
	Role         string     `json:"role" db:"role"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Active       bool       `json:"active" db:"active"`
	FailedLogins int        `json:"-" db:"failed_logins"`
	LockedUntil  *time.Time `json:"-" db:"locked_until"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// IsLocked reports whether the account is inside a lockout window at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
	FullName string `json:"full_name" binding:"required,max=200"`
	Role     string `json:"role" binding:"required,oneof=admin reception doctor"`
	Password string `json:"password" binding:"required,min=8"`
}
