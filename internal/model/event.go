package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventBooking status enum constants
const (
	BookingConfirmed = "confirmed"
	BookingWaitlist  = "waitlist"
	BookingCancelled = "cancelled"
)

// Event is a bookable happening (Konfi-Tag, camp, service project) that may
// carry points and a participation fee.
type Event struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name                 string          `gorm:"type:varchar(255);not null" json:"name"`
	Description          string          `gorm:"type:text" json:"description"`
	EventDate            time.Time       `gorm:"not null;index" json:"event_date"`
	Location             string          `gorm:"type:varchar(255)" json:"location"`
	MaxParticipants      int             `gorm:"default:0" json:"max_participants"` // 0 means unlimited
	RegistrationOpensAt  *time.Time      `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time      `json:"registration_closes_at"`
	Fee                  decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"fee"`
	PointType            string          `gorm:"type:varchar(20)" json:"point_type"` // empty when the event carries no points
	Points               int             `gorm:"default:0" json:"points"`
	IsActive             bool            `gorm:"default:true" json:"is_active"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// EventBooking ties a user to an event. Bookings beyond capacity land on the
// waitlist; cancelling a confirmed booking promotes the oldest waitlisted one.
type EventBooking struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_event_bookings_pair" json:"event_id"`
	Event     Event           `gorm:"foreignKey:EventID" json:"-"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_event_bookings_pair" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string          `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	FeePaid   decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"fee_paid"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
