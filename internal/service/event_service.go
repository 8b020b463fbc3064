package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateEventRequest struct {
	Name                 string          `json:"name" binding:"required"`
	Description          string          `json:"description"`
	EventDate            time.Time       `json:"event_date" binding:"required"`
	Location             string          `json:"location"`
	MaxParticipants      int             `json:"max_participants" binding:"min=0"`
	RegistrationOpensAt  *time.Time      `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time      `json:"registration_closes_at"`
	Fee                  decimal.Decimal `json:"fee"`
	PointType            string          `json:"point_type" binding:"omitempty,oneof=gottesdienst gemeinde"`
	Points               int             `json:"points" binding:"min=0"`
}

type UpdateEventRequest struct {
	Name                 string           `json:"name"`
	Description          *string          `json:"description"`
	EventDate            *time.Time       `json:"event_date"`
	Location             *string          `json:"location"`
	MaxParticipants      *int             `json:"max_participants"`
	RegistrationOpensAt  *time.Time       `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time       `json:"registration_closes_at"`
	Fee                  *decimal.Decimal `json:"fee"`
	IsActive             *bool            `json:"is_active"`
}

// EventResponse decorates an event with its live booking counts.
type EventResponse struct {
	model.Event
	ConfirmedCount int `json:"confirmed_count"`
	WaitlistCount  int `json:"waitlist_count"`
}

// --- Interface ---

type EventService interface {
	ListEvents(ctx context.Context, actor Actor) ([]EventResponse, error)
	GetEvent(ctx context.Context, actor Actor, id uuid.UUID) (*EventResponse, error)
	CreateEvent(ctx context.Context, actor Actor, req CreateEventRequest) (*model.Event, error)
	UpdateEvent(ctx context.Context, actor Actor, id uuid.UUID, req UpdateEventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, actor Actor, id uuid.UUID) error

	ListBookings(ctx context.Context, actor Actor, eventID uuid.UUID) ([]model.EventBooking, error)
	// Book places the actor on the event. Capacity is checked inside the
	// transaction; a full event yields a waitlist booking, not an error.
	Book(ctx context.Context, actor Actor, eventID uuid.UUID) (*model.EventBooking, error)
	// CancelBooking cancels the actor's booking and promotes the oldest
	// waitlisted booking in the same transaction.
	CancelBooking(ctx context.Context, actor Actor, eventID uuid.UUID) error
}

type eventService struct {
	db  *gorm.DB
	tm  repository.TransactionManager
	hub *websocket.Hub
}

func NewEventService(db *gorm.DB, tm repository.TransactionManager, hub *websocket.Hub) EventService {
	return &eventService{db: db, tm: tm, hub: hub}
}

// --- Catalog ---

func (s *eventService) ListEvents(ctx context.Context, actor Actor) ([]EventResponse, error) {
	var rows []model.Event
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", actor.OrgID).
		Order("event_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	res := make([]EventResponse, 0, len(rows))
	for _, ev := range rows {
		confirmed, waitlisted, err := s.bookingCounts(ctx, ev.ID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		res = append(res, EventResponse{Event: ev, ConfirmedCount: confirmed, WaitlistCount: waitlisted})
	}
	return res, nil
}

func (s *eventService) GetEvent(ctx context.Context, actor Actor, id uuid.UUID) (*EventResponse, error) {
	ev, err := s.findEvent(ctx, actor.OrgID, id)
	if err != nil {
		return nil, err
	}
	confirmed, waitlisted, err := s.bookingCounts(ctx, ev.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &EventResponse{Event: *ev, ConfirmedCount: confirmed, WaitlistCount: waitlisted}, nil
}

func (s *eventService) CreateEvent(ctx context.Context, actor Actor, req CreateEventRequest) (*model.Event, error) {
	if req.RegistrationOpensAt != nil && req.RegistrationClosesAt != nil &&
		req.RegistrationClosesAt.Before(*req.RegistrationOpensAt) {
		return nil, apperr.Validation("Registration window closes before it opens")
	}
	if req.Points > 0 && req.PointType == "" {
		return nil, apperr.Validation("point_type is required when the event carries points")
	}

	row := &model.Event{
		OrganizationID:       actor.OrgID,
		Name:                 req.Name,
		Description:          req.Description,
		EventDate:            req.EventDate,
		Location:             req.Location,
		MaxParticipants:      req.MaxParticipants,
		RegistrationOpensAt:  req.RegistrationOpensAt,
		RegistrationClosesAt: req.RegistrationClosesAt,
		Fee:                  req.Fee,
		PointType:            req.PointType,
		Points:               req.Points,
		IsActive:             true,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return row, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, actor Actor, id uuid.UUID, req UpdateEventRequest) (*model.Event, error) {
	row, err := s.findEvent(ctx, actor.OrgID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		row.Name = req.Name
	}
	if req.Description != nil {
		row.Description = *req.Description
	}
	if req.EventDate != nil {
		row.EventDate = *req.EventDate
	}
	if req.Location != nil {
		row.Location = *req.Location
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants < 0 {
			return nil, apperr.Validation("max_participants cannot be negative")
		}
		row.MaxParticipants = *req.MaxParticipants
	}
	if req.RegistrationOpensAt != nil {
		row.RegistrationOpensAt = req.RegistrationOpensAt
	}
	if req.RegistrationClosesAt != nil {
		row.RegistrationClosesAt = req.RegistrationClosesAt
	}
	if req.Fee != nil {
		row.Fee = *req.Fee
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return row, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, actor Actor, id uuid.UUID) error {
	row, err := s.findEvent(ctx, actor.OrgID, id)
	if err != nil {
		return err
	}

	var active int64
	if err := s.db.WithContext(ctx).Model(&model.EventBooking{}).
		Where("event_id = ? AND status <> ?", id, model.BookingCancelled).
		Count(&active).Error; err != nil {
		return apperr.Internal(err)
	}
	if active > 0 {
		return apperr.Conflict(fmt.Sprintf("Event '%s' still has %d active booking(s)", row.Name, active))
	}

	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// --- Bookings ---

func (s *eventService) ListBookings(ctx context.Context, actor Actor, eventID uuid.UUID) ([]model.EventBooking, error) {
	if _, err := s.findEvent(ctx, actor.OrgID, eventID); err != nil {
		return nil, err
	}

	var rows []model.EventBooking
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *eventService) Book(ctx context.Context, actor Actor, eventID uuid.UUID) (*model.EventBooking, error) {
	var booking *model.EventBooking

	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		var ev model.Event
		err := db.First(&ev, "id = ? AND organization_id = ? AND is_active = true", eventID, actor.OrgID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Event")
			}
			return err
		}

		now := time.Now()
		if ev.RegistrationOpensAt != nil && now.Before(*ev.RegistrationOpensAt) {
			return apperr.Validation("Registration has not opened yet")
		}
		if ev.RegistrationClosesAt != nil && now.After(*ev.RegistrationClosesAt) {
			return apperr.Validation("Registration is closed")
		}

		var existing model.EventBooking
		err = db.First(&existing, "event_id = ? AND user_id = ?", eventID, actor.ID).Error
		switch {
		case err == nil && existing.Status != model.BookingCancelled:
			return apperr.Conflict("You are already booked for this event")
		case err == nil:
			// A cancelled booking is re-activated instead of violating the
			// unique (event_id, user_id) pair.
			booking = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			booking = &model.EventBooking{EventID: eventID, UserID: actor.ID}
		default:
			return err
		}

		var confirmed int64
		if err := db.Model(&model.EventBooking{}).
			Where("event_id = ? AND status = ?", eventID, model.BookingConfirmed).
			Count(&confirmed).Error; err != nil {
			return err
		}

		booking.Status = model.BookingConfirmed
		booking.FeePaid = ev.Fee
		if ev.MaxParticipants > 0 && confirmed >= int64(ev.MaxParticipants) {
			booking.Status = model.BookingWaitlist
			booking.FeePaid = decimal.Zero
		}

		if err := db.Save(booking).Error; err != nil {
			return err
		}

		return writeAudit(txCtx, s.db, actor, model.ActionBookEvent, booking.ID.String(), ev.Name, map[string]interface{}{
			"event_id": eventID.String(),
			"status":   booking.Status,
		})
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.notifyBooking(actor.OrgID, booking)
	return booking, nil
}

func (s *eventService) CancelBooking(ctx context.Context, actor Actor, eventID uuid.UUID) error {
	var promoted *model.EventBooking

	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		var ev model.Event
		err := db.First(&ev, "id = ? AND organization_id = ?", eventID, actor.OrgID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Event")
			}
			return err
		}

		var booking model.EventBooking
		err = db.First(&booking, "event_id = ? AND user_id = ? AND status <> ?",
			eventID, actor.ID, model.BookingCancelled).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Booking")
			}
			return err
		}

		wasConfirmed := booking.Status == model.BookingConfirmed
		booking.Status = model.BookingCancelled
		if err := db.Save(&booking).Error; err != nil {
			return err
		}

		if wasConfirmed {
			var next model.EventBooking
			err := db.Where("event_id = ? AND status = ?", eventID, model.BookingWaitlist).
				Order("created_at ASC").
				First(&next).Error
			switch {
			case err == nil:
				next.Status = model.BookingConfirmed
				next.FeePaid = ev.Fee
				if err := db.Save(&next).Error; err != nil {
					return err
				}
				promoted = &next
			case errors.Is(err, gorm.ErrRecordNotFound):
				// nothing to promote
			default:
				return err
			}
		}

		return writeAudit(txCtx, s.db, actor, model.ActionCancelEvent, booking.ID.String(), ev.Name, map[string]interface{}{
			"event_id": eventID.String(),
		})
	})
	if err != nil {
		return apperr.From(err)
	}

	if promoted != nil {
		s.notifyBooking(actor.OrgID, promoted)
	}
	return nil
}

func (s *eventService) notifyBooking(orgID uuid.UUID, booking *model.EventBooking) {
	if s.hub == nil || booking == nil {
		return
	}
	s.hub.BroadcastEvent("booking_changed", orgID.String(), map[string]interface{}{
		"event_id": booking.EventID.String(),
		"user_id":  booking.UserID.String(),
		"status":   booking.Status,
	})
}

// --- Lookups ---

func (s *eventService) findEvent(ctx context.Context, orgID, id uuid.UUID) (*model.Event, error) {
	var row model.Event
	err := s.db.WithContext(ctx).First(&row, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Event")
		}
		return nil, apperr.Internal(err)
	}
	return &row, nil
}

func (s *eventService) bookingCounts(ctx context.Context, eventID uuid.UUID) (int, int, error) {
	var confirmed, waitlisted int64
	if err := s.db.WithContext(ctx).Model(&model.EventBooking{}).
		Where("event_id = ? AND status = ?", eventID, model.BookingConfirmed).
		Count(&confirmed).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.WithContext(ctx).Model(&model.EventBooking{}).
		Where("event_id = ? AND status = ?", eventID, model.BookingWaitlist).
		Count(&waitlisted).Error; err != nil {
		return 0, 0, err
	}
	return int(confirmed), int(waitlisted), nil
}
