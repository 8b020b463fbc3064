package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validCriteriaTypes = map[string]bool{
	model.CriteriaTotalPoints:        true,
	model.CriteriaGottesdienstPoints: true,
	model.CriteriaGemeindePoints:     true,
	model.CriteriaActivityCount:      true,
	model.CriteriaSpecificActivity:   true,
}

// --- DTOs ---

type CreateBadgeRequest struct {
	Name          string `json:"name" binding:"required"`
	Icon          string `json:"icon"`
	Description   string `json:"description"`
	CriteriaType  string `json:"criteria_type" binding:"required"`
	CriteriaValue int    `json:"criteria_value" binding:"required,min=1"`
	CriteriaExtra string `json:"criteria_extra"`
	IsHidden      bool   `json:"is_hidden"`
}

type UpdateBadgeRequest struct {
	Name          string  `json:"name"`
	Icon          *string `json:"icon"`
	Description   *string `json:"description"`
	CriteriaType  string  `json:"criteria_type"`
	CriteriaValue *int    `json:"criteria_value"`
	CriteriaExtra *string `json:"criteria_extra"`
	IsActive      *bool   `json:"is_active"`
	IsHidden      *bool   `json:"is_hidden"`
}

// KonfiBadgeView is a badge as a konfi sees it: hidden badges only appear
// once earned.
type KonfiBadgeView struct {
	Badge  model.Badge `json:"badge"`
	Earned bool        `json:"earned"`
}

// --- Interface ---

type BadgeService interface {
	ListBadges(ctx context.Context, actor Actor) ([]model.Badge, error)
	ListBadgesForKonfi(ctx context.Context, actor Actor) ([]KonfiBadgeView, error)
	CreateBadge(ctx context.Context, actor Actor, req CreateBadgeRequest) (*model.Badge, error)
	UpdateBadge(ctx context.Context, actor Actor, id uuid.UUID, req UpdateBadgeRequest) (*model.Badge, error)
	DeleteBadge(ctx context.Context, actor Actor, id uuid.UUID) error
}

type badgeService struct {
	db *gorm.DB
}

func NewBadgeService(db *gorm.DB) BadgeService {
	return &badgeService{db: db}
}

// --- Implementation ---

func (s *badgeService) ListBadges(ctx context.Context, actor Actor) ([]model.Badge, error) {
	var rows []model.Badge
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", actor.OrgID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *badgeService) ListBadgesForKonfi(ctx context.Context, actor Actor) ([]KonfiBadgeView, error) {
	var rows []model.Badge
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = true", actor.OrgID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var owned []model.KonfiBadge
	if err := s.db.WithContext(ctx).Where("konfi_id = ?", actor.ID).Find(&owned).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	ownedSet := make(map[uuid.UUID]bool, len(owned))
	for _, kb := range owned {
		ownedSet[kb.BadgeID] = true
	}

	views := make([]KonfiBadgeView, 0, len(rows))
	for _, b := range rows {
		earned := ownedSet[b.ID]
		if b.IsHidden && !earned {
			continue
		}
		views = append(views, KonfiBadgeView{Badge: b, Earned: earned})
	}
	return views, nil
}

func (s *badgeService) CreateBadge(ctx context.Context, actor Actor, req CreateBadgeRequest) (*model.Badge, error) {
	if !validCriteriaTypes[req.CriteriaType] {
		return nil, apperr.Validation(fmt.Sprintf("Unknown criteria type '%s'", req.CriteriaType))
	}
	if req.CriteriaType == model.CriteriaSpecificActivity && req.CriteriaExtra == "" {
		return nil, apperr.Validation("criteria_extra with an activity_id is required for specific_activity badges")
	}

	row := &model.Badge{
		OrganizationID: actor.OrgID,
		Name:           req.Name,
		Icon:           req.Icon,
		Description:    req.Description,
		CriteriaType:   req.CriteriaType,
		CriteriaValue:  req.CriteriaValue,
		CriteriaExtra:  req.CriteriaExtra,
		IsActive:       true,
		IsHidden:       req.IsHidden,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return row, nil
}

func (s *badgeService) UpdateBadge(ctx context.Context, actor Actor, id uuid.UUID, req UpdateBadgeRequest) (*model.Badge, error) {
	row, err := s.findBadge(ctx, actor.OrgID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		row.Name = req.Name
	}
	if req.Icon != nil {
		row.Icon = *req.Icon
	}
	if req.Description != nil {
		row.Description = *req.Description
	}
	if req.CriteriaType != "" {
		if !validCriteriaTypes[req.CriteriaType] {
			return nil, apperr.Validation(fmt.Sprintf("Unknown criteria type '%s'", req.CriteriaType))
		}
		row.CriteriaType = req.CriteriaType
	}
	if req.CriteriaValue != nil {
		if *req.CriteriaValue < 1 {
			return nil, apperr.Validation("criteria_value must be positive")
		}
		row.CriteriaValue = *req.CriteriaValue
	}
	if req.CriteriaExtra != nil {
		row.CriteriaExtra = *req.CriteriaExtra
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}
	if req.IsHidden != nil {
		row.IsHidden = *req.IsHidden
	}

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return row, nil
}

func (s *badgeService) DeleteBadge(ctx context.Context, actor Actor, id uuid.UUID) error {
	row, err := s.findBadge(ctx, actor.OrgID, id)
	if err != nil {
		return err
	}

	var awarded int64
	if err := s.db.WithContext(ctx).Model(&model.KonfiBadge{}).
		Where("badge_id = ?", id).Count(&awarded).Error; err != nil {
		return apperr.Internal(err)
	}
	if awarded > 0 {
		return apperr.Conflict(fmt.Sprintf("Badge '%s' has already been awarded %d time(s)", row.Name, awarded))
	}

	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *badgeService) findBadge(ctx context.Context, orgID, id uuid.UUID) (*model.Badge, error) {
	var row model.Badge
	err := s.db.WithContext(ctx).First(&row, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Badge")
		}
		return nil, apperr.Internal(err)
	}
	return &row, nil
}
