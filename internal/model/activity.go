package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityRequest status enum constants
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Activity is a catalog entry konfis can earn points for (attending a
// service, helping at a youth event, ...).
type Activity struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Points         int       `gorm:"not null" json:"points"`
	Type           string    `gorm:"type:varchar(20);not null" json:"type"` // gottesdienst or gemeinde
	Category       string    `gorm:"type:varchar(100)" json:"category"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ActivityRequest is a konfi-submitted claim for an activity. Only after an
// admin approves it are points awarded; rejection requires a comment.
type ActivityRequest struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	KonfiID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"konfi_id"`
	Konfi          User       `gorm:"foreignKey:KonfiID" json:"konfi,omitempty"`
	ActivityID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"activity_id"`
	Activity       Activity   `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	RequestedDate  time.Time  `gorm:"not null" json:"requested_date"`
	Comment        string     `gorm:"type:text" json:"comment"`
	PhotoFilename  string     `gorm:"type:varchar(255)" json:"photo_filename"` // opaque reference, storage is out of scope
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminComment   string     `gorm:"type:text" json:"admin_comment"`
	ApprovedBy     *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt     *time.Time `json:"approved_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
