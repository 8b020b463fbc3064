package model

import (
	"time"

	"github.com/google/uuid"
)

// Point type enum constants. Every point-bearing record is either a worship
// service ("gottesdienst") or a community ("gemeinde") credit.
const (
	PointTypeGottesdienst = "gottesdienst"
	PointTypeGemeinde     = "gemeinde"
)

// Jahrgang is a cohort/class-year grouping of konfis within one organization.
type Jahrgang struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_jahrgaenge_org_name" json:"organization_id"`
	Name             string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_jahrgaenge_org_name" json:"name"` // e.g. "2025/26"
	ConfirmationDate *time.Time `json:"confirmation_date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// KonfiProfile extends a user holding the konfi role with cohort membership
// and the two running point buckets.
type KonfiProfile struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User                User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
	JahrgangID          uuid.UUID `gorm:"type:uuid;not null;index" json:"jahrgang_id"`
	Jahrgang            Jahrgang  `gorm:"foreignKey:JahrgangID" json:"jahrgang,omitempty"`
	GottesdienstPoints  int       `gorm:"default:0" json:"gottesdienst_points"`
	GemeindePoints      int       `gorm:"default:0" json:"gemeinde_points"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TotalPoints returns the sum of both buckets.
func (p KonfiProfile) TotalPoints() int {
	return p.GottesdienstPoints + p.GemeindePoints
}

// KonfiActivity records one awarded activity: who earned it, which activity,
// which admin granted it and when it was completed.
type KonfiActivity struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	KonfiID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"konfi_id"`
	Konfi       User       `gorm:"foreignKey:KonfiID" json:"-"`
	ActivityID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"activity_id"`
	Activity    Activity   `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	AdminID     *uuid.UUID `gorm:"type:uuid" json:"admin_id"`
	CompletedAt time.Time  `gorm:"not null" json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BonusPoints is a free-form point grant outside the activity catalog.
type BonusPoints struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	KonfiID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"konfi_id"`
	Points      int        `gorm:"not null" json:"points"`
	Type        string     `gorm:"type:varchar(20);not null" json:"type"` // gottesdienst or gemeinde
	Description string     `gorm:"type:text;not null" json:"description"`
	AdminID     *uuid.UUID `gorm:"type:uuid" json:"admin_id"`
	CreatedAt   time.Time  `json:"created_at"`
}
