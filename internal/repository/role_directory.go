package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleDirectory backs the hierarchy middleware with the two lookups it needs.
// Both are organization-scoped, so cross-organization ids surface as
// gorm.ErrRecordNotFound rather than leaking existence.
type RoleDirectory struct {
	db *gorm.DB
}

func NewRoleDirectory(db *gorm.DB) *RoleDirectory {
	return &RoleDirectory{db: db}
}

// RoleNameByID resolves a role id to its name within one organization.
func (d *RoleDirectory) RoleNameByID(ctx context.Context, orgID, roleID uuid.UUID) (string, error) {
	var role model.Role
	err := d.db.WithContext(ctx).
		Select("name").
		First(&role, "id = ? AND organization_id = ?", roleID, orgID).Error
	if err != nil {
		return "", err
	}
	return role.Name, nil
}

// UserRole resolves a user's current role id and name via a join on user id
// and organization id.
func (d *RoleDirectory) UserRole(ctx context.Context, orgID, userID uuid.UUID) (uuid.UUID, string, error) {
	var row struct {
		RoleID   uuid.UUID
		RoleName string
	}
	err := d.db.WithContext(ctx).Model(&model.User{}).
		Select("users.role_id AS role_id, roles.name AS role_name").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.id = ? AND users.organization_id = ?", userID, orgID).
		First(&row).Error
	if err != nil {
		return uuid.Nil, "", err
	}
	return row.RoleID, row.RoleName, nil
}
