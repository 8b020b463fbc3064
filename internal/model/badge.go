package model

import (
	"time"

	"github.com/google/uuid"
)

// Badge criteria type enum constants
const (
	CriteriaTotalPoints        = "total_points"
	CriteriaGottesdienstPoints = "gottesdienst_points"
	CriteriaGemeindePoints     = "gemeinde_points"
	CriteriaActivityCount      = "activity_count"
	CriteriaSpecificActivity   = "specific_activity"
)

// Badge is an achievement automatically awarded once its criteria are met.
// Hidden badges are still evaluated but not listed to konfis until earned.
type Badge struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Icon           string    `gorm:"type:varchar(100)" json:"icon"`
	Description    string    `gorm:"type:text" json:"description"`
	CriteriaType   string    `gorm:"type:varchar(50);not null" json:"criteria_type"`
	CriteriaValue  int       `gorm:"not null" json:"criteria_value"`
	CriteriaExtra  string    `gorm:"type:jsonb" json:"criteria_extra"` // e.g. {"activity_id": "..."}
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	IsHidden       bool      `gorm:"default:false" json:"is_hidden"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// KonfiBadge records an earned badge. The pair is unique: evaluation may run
// any number of times without double-awarding.
type KonfiBadge struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	KonfiID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_konfi_badges_pair" json:"konfi_id"`
	BadgeID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_konfi_badges_pair" json:"badge_id"`
	Badge     Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
}
