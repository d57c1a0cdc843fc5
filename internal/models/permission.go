package models

import "time"

// Permission resources
const (
	ResourceCase       = "case"
	ResourceDocument   = "document"
	ResourceUser       = "user"
	ResourceDepartment = "department"
	ResourceTask       = "task"
)

// Permission actions
const (
	PermissionRead    = "read"
	PermissionCreate  = "create"
	PermissionUpdate  = "update"
	PermissionDelete  = "delete"
	PermissionApprove = "approve"
)

// Permission is one grantable capability, identified by a resource/action
// pair. The catalog is seeded by migration; grants sit on top of the coarse
// role tiers and refine what an individual account may do.
type Permission struct {
	ID          string
	Name        string
	Description string
	Resource    string
	Action      string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserPermission records one grant of a permission to a user
type UserPermission struct {
	ID           string
	UserID       string
	PermissionID string
	GrantedBy    string
	CreatedAt    time.Time
}
