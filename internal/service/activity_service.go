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
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateActivityRequest struct {
	Name     string `json:"name" binding:"required"`
	Points   int    `json:"points" binding:"required,min=1"`
	Type     string `json:"type" binding:"required,oneof=gottesdienst gemeinde"`
	Category string `json:"category"`
}

type UpdateActivityRequest struct {
	Name     string  `json:"name"`
	Points   *int    `json:"points"`
	Type     string  `json:"type" binding:"omitempty,oneof=gottesdienst gemeinde"`
	Category *string `json:"category"`
	IsActive *bool   `json:"is_active"`
}

type SubmitActivityRequest struct {
	ActivityID    string     `json:"activity_id" binding:"required"`
	RequestedDate *time.Time `json:"requested_date"`
	Comment       string     `json:"comment"`
	PhotoFilename string     `json:"photo_filename"`
}

type RejectActivityRequest struct {
	AdminComment string `json:"admin_comment" binding:"required"`
}

// --- Interface ---

type ActivityService interface {
	ListActivities(ctx context.Context, actor Actor) ([]model.Activity, error)
	CreateActivity(ctx context.Context, actor Actor, req CreateActivityRequest) (*model.Activity, error)
	UpdateActivity(ctx context.Context, actor Actor, id uuid.UUID, req UpdateActivityRequest) (*model.Activity, error)
	DeleteActivity(ctx context.Context, actor Actor, id uuid.UUID) error

	SubmitRequest(ctx context.Context, actor Actor, req SubmitActivityRequest) (*model.ActivityRequest, error)
	ListRequests(ctx context.Context, actor Actor, status string) ([]model.ActivityRequest, error)
	ListOwnRequests(ctx context.Context, actor Actor) ([]model.ActivityRequest, error)

	// ApproveRequest flips the request to approved and awards the activity's
	// points in the same transaction, so a failed award leaves the request
	// pending.
	ApproveRequest(ctx context.Context, actor Actor, id uuid.UUID) (*model.ActivityRequest, error)
	RejectRequest(ctx context.Context, actor Actor, id uuid.UUID, req RejectActivityRequest) (*model.ActivityRequest, error)
}

type activityService struct {
	db       *gorm.DB
	tm       repository.TransactionManager
	konfiSvc KonfiService
	hub      *websocket.Hub
}

func NewActivityService(db *gorm.DB, tm repository.TransactionManager, konfiSvc KonfiService, hub *websocket.Hub) ActivityService {
	return &activityService{db: db, tm: tm, konfiSvc: konfiSvc, hub: hub}
}

// --- Catalog ---

func (s *activityService) ListActivities(ctx context.Context, actor Actor) ([]model.Activity, error) {
	var rows []model.Activity
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", actor.OrgID).
		Order("category ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *activityService) CreateActivity(ctx context.Context, actor Actor, req CreateActivityRequest) (*model.Activity, error) {
	row := &model.Activity{
		OrganizationID: actor.OrgID,
		Name:           req.Name,
		Points:         req.Points,
		Type:           req.Type,
		Category:       req.Category,
		IsActive:       true,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return row, nil
}

func (s *activityService) UpdateActivity(ctx context.Context, actor Actor, id uuid.UUID, req UpdateActivityRequest) (*model.Activity, error) {
	row, err := s.findActivity(ctx, actor.OrgID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		row.Name = req.Name
	}
	if req.Points != nil {
		if *req.Points < 1 {
			return nil, apperr.Validation("Points must be positive")
		}
		row.Points = *req.Points
	}
	if req.Type != "" {
		row.Type = req.Type
	}
	if req.Category != nil {
		row.Category = *req.Category
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return row, nil
}

func (s *activityService) DeleteActivity(ctx context.Context, actor Actor, id uuid.UUID) error {
	row, err := s.findActivity(ctx, actor.OrgID, id)
	if err != nil {
		return err
	}

	var granted int64
	if err := s.db.WithContext(ctx).Model(&model.KonfiActivity{}).
		Where("activity_id = ?", id).Count(&granted).Error; err != nil {
		return apperr.Internal(err)
	}
	if granted > 0 {
		return apperr.Conflict(fmt.Sprintf("Activity '%s' has already been awarded %d time(s)", row.Name, granted))
	}

	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// --- Requests ---

func (s *activityService) SubmitRequest(ctx context.Context, actor Actor, req SubmitActivityRequest) (*model.ActivityRequest, error) {
	activityID, err := uuid.Parse(req.ActivityID)
	if err != nil {
		return nil, apperr.Validation("Invalid activity_id")
	}

	var activity model.Activity
	err = s.db.WithContext(ctx).
		First(&activity, "id = ? AND organization_id = ? AND is_active = true", activityID, actor.OrgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Activity")
		}
		return nil, apperr.Internal(err)
	}

	requestedDate := time.Now()
	if req.RequestedDate != nil {
		requestedDate = *req.RequestedDate
	}

	row := &model.ActivityRequest{
		OrganizationID: actor.OrgID,
		KonfiID:        actor.ID,
		ActivityID:     activity.ID,
		RequestedDate:  requestedDate,
		Comment:        req.Comment,
		PhotoFilename:  req.PhotoFilename,
		Status:         model.RequestPending,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	row.Activity = activity
	return row, nil
}

func (s *activityService) ListRequests(ctx context.Context, actor Actor, status string) ([]model.ActivityRequest, error) {
	q := s.db.WithContext(ctx).
		Preload("Konfi").Preload("Activity").
		Where("organization_id = ?", actor.OrgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var rows []model.ActivityRequest
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *activityService) ListOwnRequests(ctx context.Context, actor Actor) ([]model.ActivityRequest, error) {
	var rows []model.ActivityRequest
	err := s.db.WithContext(ctx).
		Preload("Activity").
		Where("organization_id = ? AND konfi_id = ?", actor.OrgID, actor.ID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *activityService) ApproveRequest(ctx context.Context, actor Actor, id uuid.UUID) (*model.ActivityRequest, error) {
	var row *model.ActivityRequest
	var award *AwardResult

	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		row, err = s.findPendingRequestTx(txCtx, actor.OrgID, id)
		if err != nil {
			return err
		}

		now := time.Now()
		adminID := actor.ID
		row.Status = model.RequestApproved
		row.ApprovedBy = &adminID
		row.ApprovedAt = &now
		if err := repository.GetDB(txCtx, s.db).Save(row).Error; err != nil {
			return err
		}

		award, err = s.konfiSvc.AwardActivityTx(txCtx, actor, row.KonfiID, row.ActivityID, row.RequestedDate)
		if err != nil {
			return err
		}

		return writeAudit(txCtx, s.db, actor, model.ActionApproveRequest, row.ID.String(), row.Activity.Name, map[string]interface{}{
			"konfi_id": row.KonfiID.String(),
		})
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.konfiSvc.NotifyAward(actor, row.KonfiID, award)
	s.notifyDecision(actor, row)
	return row, nil
}

func (s *activityService) RejectRequest(ctx context.Context, actor Actor, id uuid.UUID, req RejectActivityRequest) (*model.ActivityRequest, error) {
	var row *model.ActivityRequest

	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		row, err = s.findPendingRequestTx(txCtx, actor.OrgID, id)
		if err != nil {
			return err
		}

		now := time.Now()
		adminID := actor.ID
		row.Status = model.RequestRejected
		row.AdminComment = req.AdminComment
		row.ApprovedBy = &adminID
		row.ApprovedAt = &now
		if err := repository.GetDB(txCtx, s.db).Save(row).Error; err != nil {
			return err
		}

		return writeAudit(txCtx, s.db, actor, model.ActionRejectRequest, row.ID.String(), row.Activity.Name, map[string]interface{}{
			"konfi_id": row.KonfiID.String(),
			"comment":  req.AdminComment,
		})
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.notifyDecision(actor, row)
	return row, nil
}

func (s *activityService) notifyDecision(actor Actor, row *model.ActivityRequest) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent("request_decided", actor.OrgID.String(), map[string]interface{}{
		"request_id": row.ID.String(),
		"konfi_id":   row.KonfiID.String(),
		"status":     row.Status,
	})
}

// --- Lookups ---

func (s *activityService) findActivity(ctx context.Context, orgID, id uuid.UUID) (*model.Activity, error) {
	var row model.Activity
	err := s.db.WithContext(ctx).First(&row, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Activity")
		}
		return nil, apperr.Internal(err)
	}
	return &row, nil
}

func (s *activityService) findPendingRequestTx(txCtx context.Context, orgID, id uuid.UUID) (*model.ActivityRequest, error) {
	var row model.ActivityRequest
	err := repository.GetDB(txCtx, s.db).
		Preload("Konfi").Preload("Activity").
		First(&row, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Activity request")
		}
		return nil, err
	}
	if row.Status != model.RequestPending {
		return nil, apperr.Conflict(fmt.Sprintf("Request has already been %s", row.Status))
	}
	return &row, nil
}
