package model

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user role within one organization. The four system roles
// (org_admin, admin, teamer, konfi) are seeded at organization creation and
// cannot be renamed or deleted; konfi is immutable in all fields.
type Role struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_roles_org_name" json:"organization_id"`
	Name           string       `gorm:"type:varchar(50);not null;uniqueIndex:idx_roles_org_name" json:"name"`
	DisplayName    string       `gorm:"type:varchar(100);not null" json:"display_name"`
	Description    string       `gorm:"type:text" json:"description"`
	IsSystemRole   bool         `gorm:"default:false" json:"is_system_role"`
	IsActive       bool         `gorm:"default:true" json:"is_active"`
	Permissions    []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HierarchyRoleName satisfies hierarchy.RoleNamed.
func (r Role) HierarchyRoleName() string { return r.Name }

// Permission represents a single named capability that can be granted to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "admin.users.view"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "users", "roles", "konfis"...
}

// RolePermission is the join row between roles and permissions. A row with
// granted=false is kept but has no effect; permission lookups filter on it.
type RolePermission struct {
	RoleID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"role_id"`
	PermissionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"permission_id"`
	Granted      bool      `gorm:"default:true" json:"granted"`
	CreatedAt    time.Time `json:"created_at"`
}
