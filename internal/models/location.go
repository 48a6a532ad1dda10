package models

import (
	"time"

	"gorm.io/datatypes"
)

// Actor roles.
const (
	RoleAdmin           = "admin"
	RoleSupervisor      = "supervisor"
	RoleInspector       = "inspector"
	RoleDepartmentAdmin = "department_admin"
)

// Location is one property in the catalog. Inactive locations fall out of the
// full-access aggregation set but keep their historical inspections.
type Location struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Location
func (Location) TableName() string {
	return "locations"
}

// UserAssignment holds the per-actor scope records the resolver reads: role,
// assigned locations, and (for department-restricted roles) the allowed
// department list. Identity itself lives in the external auth service.
type UserAssignment struct {
	ID                  uint64                      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              string                      `gorm:"type:char(36);uniqueIndex;not null" json:"user_id"`
	DisplayName         string                      `gorm:"size:255" json:"display_name"`
	Role                string                      `gorm:"size:50;not null" json:"role"`
	PrimaryLocationID   uint64                      `gorm:"not null;default:0" json:"primary_location_id"`
	AssignedLocationIDs datatypes.JSONSlice[uint64] `json:"assigned_location_ids"`
	AllowedDepartments  datatypes.JSONSlice[string] `json:"allowed_departments"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// TableName overrides the table name for UserAssignment
func (UserAssignment) TableName() string {
	return "user_assignments"
}
