package models

import "time"

// Permission represents a gated action in the authorization system. Its
// Name is the synthetic key "<resource>_<HTTP-method>" (e.g. "article_POST").
// An endpoint without a matching Permission row is open to any caller the
// gate otherwise admits; gating is opt-in by inserting a row.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"permission_id"`
	// Name is the unique permission key in resource_METHOD format.
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable explanation of what this permission gates.
	Description string `gorm:"size:255" json:"description"`
	// ParentID groups permissions for display purposes only. It plays no
	// part in authorization decisions.
	ParentID *uint `gorm:"column:parent_id" json:"parent_id"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}
