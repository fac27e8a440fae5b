package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Roles are collections of permissions that users are assigned to.
// A role with SuperAdmin set bypasses every permission check; such roles are
// hidden from the role management endpoints.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"role_id"`
	// Name is the unique name of the role (e.g., "editor").
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// SuperAdmin marks a role that passes authorization unconditionally.
	SuperAdmin bool `gorm:"default:false" json:"super_admin"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}
