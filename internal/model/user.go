package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User belongs to exactly one organization and holds exactly one role.
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_users_org_username" json:"organization_id"`
	RoleID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"role_id"`
	Role           Role           `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Username       string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_org_username" json:"username"`
	DisplayName    string         `gorm:"type:varchar(255);not null" json:"display_name"`
	Email          string         `gorm:"type:varchar(255)" json:"email"`
	PasswordHash   string         `gorm:"type:varchar(255);not null" json:"-"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// HierarchyRoleName satisfies hierarchy.RoleNamed. The Role association must
// be preloaded; a zero Role yields "" which ranks at hierarchy level 0.
func (u User) HierarchyRoleName() string { return u.Role.Name }

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
