package model

import (
	"time"

	"github.com/google/uuid"
)

// Well-known setting keys
const (
	SettingTargetGottesdienst = "target_gottesdienst_points"
	SettingTargetGemeinde     = "target_gemeinde_points"
)

// Setting is a per-organization key/value pair, e.g. the point targets konfis
// have to reach before confirmation.
type Setting struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_settings_org_key" json:"organization_id"`
	Key            string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_settings_org_key" json:"key"`
	Value          string    `gorm:"type:text;not null" json:"value"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
