package models

import (
	"time"
)

// User roles
const (
	RoleAdmin          = "admin"
	RoleSupervisor     = "supervisor"
	RoleDepartmentHead = "department_head"
	RoleAnalyst        = "analyst"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Cedula       string // Dominican Republic identification number
	Role         string // e.g., "analyst", "supervisor", "admin"
	DepartmentID *string
	Active       bool

	// Lockout bookkeeping. LockedUntil is an elapsed-time predicate: once the
	// timestamp passes the account is unlocked, no transition event is stored.
	FailedLoginAttempts int
	LockedUntil         *time.Time

	// Last-login tracking
	LastLoginAt        *time.Time
	LastLoginIP        *string
	LastLoginUserAgent *string
	LoginCount         int

	PasswordChangedAt *time.Time // Last password change timestamp for token invalidation
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleDepartmentHead, RoleAnalyst:
		return true
	}
	return false
}

// FullName returns the user's display name
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsLocked reports whether the account is locked at the given instant
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
