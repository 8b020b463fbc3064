package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateUser = "CREATE_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionDeleteUser = "DELETE_USER"

	ActionCreateRole = "CREATE_ROLE"
	ActionUpdateRole = "UPDATE_ROLE"
	ActionDeleteRole = "DELETE_ROLE"

	ActionCreateOrganization = "CREATE_ORGANIZATION"

	ActionAwardActivity  = "AWARD_ACTIVITY"
	ActionAwardBonus     = "AWARD_BONUS_POINTS"
	ActionAwardBadge     = "AWARD_BADGE"
	ActionApproveRequest = "APPROVE_ACTIVITY_REQUEST"
	ActionRejectRequest  = "REJECT_ACTIVITY_REQUEST"

	ActionBookEvent    = "BOOK_EVENT"
	ActionCancelEvent  = "CANCEL_EVENT_BOOKING"
	ActionUpdateSetting = "UPDATE_SETTING"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for automated actions
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action         string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID       string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName     string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details        string     `gorm:"type:jsonb" json:"details"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}
