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

type CreateJahrgangRequest struct {
	Name             string     `json:"name" binding:"required"`
	ConfirmationDate *time.Time `json:"confirmation_date"`
}

type AwardActivityRequest struct {
	ActivityID  string     `json:"activity_id" binding:"required"`
	CompletedAt *time.Time `json:"completed_at"`
}

type AwardBonusRequest struct {
	Points      int    `json:"points" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=gottesdienst gemeinde"`
	Description string `json:"description" binding:"required"`
}

type KonfiResponse struct {
	ID                 uuid.UUID `json:"id"`
	DisplayName        string    `json:"display_name"`
	Username           string    `json:"username"`
	JahrgangID         uuid.UUID `json:"jahrgang_id"`
	JahrgangName       string    `json:"jahrgang_name"`
	GottesdienstPoints int       `json:"gottesdienst_points"`
	GemeindePoints     int       `json:"gemeinde_points"`
	TotalPoints        int       `json:"total_points"`
	BadgeCount         int       `json:"badge_count"`
}

type KonfiDetailResponse struct {
	KonfiResponse
	Activities []model.KonfiActivity `json:"activities"`
	Bonus      []model.BonusPoints   `json:"bonus_points"`
	Badges     []model.KonfiBadge    `json:"badges"`
}

// AwardResult is what an award mutation reports back: the updated standing
// plus any badges the mutation newly unlocked.
type AwardResult struct {
	Profile   model.KonfiProfile `json:"profile"`
	NewBadges []model.Badge      `json:"new_badges"`
	Points    int                `json:"points"`
	PointType string             `json:"point_type"`
}

// --- Interface ---

type KonfiService interface {
	ListJahrgaenge(ctx context.Context, actor Actor) ([]model.Jahrgang, error)
	CreateJahrgang(ctx context.Context, actor Actor, req CreateJahrgangRequest) (*model.Jahrgang, error)
	DeleteJahrgang(ctx context.Context, actor Actor, id uuid.UUID) error

	ListKonfis(ctx context.Context, actor Actor) ([]KonfiResponse, error)
	GetKonfi(ctx context.Context, actor Actor, userID uuid.UUID) (*KonfiDetailResponse, error)

	// AwardActivity grants a catalog activity to a konfi: the grant record,
	// the point bump, badge evaluation and the audit row land in one
	// transaction; dashboards are notified afterwards.
	AwardActivity(ctx context.Context, actor Actor, konfiID uuid.UUID, req AwardActivityRequest) (*AwardResult, error)
	AwardBonus(ctx context.Context, actor Actor, konfiID uuid.UUID, req AwardBonusRequest) (*AwardResult, error)

	// AwardActivityTx is the transactional core of AwardActivity, exposed so
	// the activity-request approval flow can award inside its own
	// transaction.
	AwardActivityTx(txCtx context.Context, actor Actor, konfiID, activityID uuid.UUID, completedAt time.Time) (*AwardResult, error)

	// NotifyAward pushes the award to connected dashboards. Callers invoke it
	// after their transaction committed.
	NotifyAward(actor Actor, konfiID uuid.UUID, result *AwardResult)
}

type konfiService struct {
	db  *gorm.DB
	tm  repository.TransactionManager
	hub *websocket.Hub
}

func NewKonfiService(db *gorm.DB, tm repository.TransactionManager, hub *websocket.Hub) KonfiService {
	return &konfiService{db: db, tm: tm, hub: hub}
}

// --- Jahrgaenge ---

func (s *konfiService) ListJahrgaenge(ctx context.Context, actor Actor) ([]model.Jahrgang, error) {
	var rows []model.Jahrgang
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", actor.OrgID).
		Order("name DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *konfiService) CreateJahrgang(ctx context.Context, actor Actor, req CreateJahrgangRequest) (*model.Jahrgang, error) {
	var existing model.Jahrgang
	err := s.db.WithContext(ctx).
		First(&existing, "organization_id = ? AND name = ?", actor.OrgID, req.Name).Error
	if err == nil {
		return nil, apperr.Conflict(fmt.Sprintf("Jahrgang '%s' already exists", req.Name))
	}

	row := &model.Jahrgang{
		OrganizationID:   actor.OrgID,
		Name:             req.Name,
		ConfirmationDate: req.ConfirmationDate,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return row, nil
}

func (s *konfiService) DeleteJahrgang(ctx context.Context, actor Actor, id uuid.UUID) error {
	var row model.Jahrgang
	if err := s.db.WithContext(ctx).First(&row, "id = ? AND organization_id = ?", id, actor.OrgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Jahrgang")
		}
		return apperr.Internal(err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.KonfiProfile{}).
		Where("jahrgang_id = ?", id).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Conflict(fmt.Sprintf("Jahrgang '%s' still has %d konfi(s)", row.Name, count))
	}

	if err := s.db.WithContext(ctx).Delete(&row).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// --- Konfis ---

func (s *konfiService) ListKonfis(ctx context.Context, actor Actor) ([]KonfiResponse, error) {
	profiles, err := s.loadProfiles(ctx, actor.OrgID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	res := make([]KonfiResponse, 0, len(profiles))
	for _, p := range profiles {
		var badgeCount int64
		if err := s.db.WithContext(ctx).Model(&model.KonfiBadge{}).
			Where("konfi_id = ?", p.UserID).Count(&badgeCount).Error; err != nil {
			return nil, apperr.Internal(err)
		}
		res = append(res, toKonfiResponse(p, int(badgeCount)))
	}
	return res, nil
}

func (s *konfiService) GetKonfi(ctx context.Context, actor Actor, userID uuid.UUID) (*KonfiDetailResponse, error) {
	profile, err := s.loadProfile(ctx, actor.OrgID, userID)
	if err != nil {
		return nil, err
	}

	var activities []model.KonfiActivity
	if err := s.db.WithContext(ctx).Preload("Activity").
		Where("konfi_id = ?", userID).
		Order("completed_at DESC").
		Find(&activities).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var bonus []model.BonusPoints
	if err := s.db.WithContext(ctx).
		Where("konfi_id = ?", userID).
		Order("created_at DESC").
		Find(&bonus).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	var badges []model.KonfiBadge
	if err := s.db.WithContext(ctx).Preload("Badge").
		Where("konfi_id = ?", userID).
		Order("awarded_at DESC").
		Find(&badges).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	return &KonfiDetailResponse{
		KonfiResponse: toKonfiResponse(*profile, len(badges)),
		Activities:    activities,
		Bonus:         bonus,
		Badges:        badges,
	}, nil
}

// --- Awards ---

func (s *konfiService) AwardActivity(ctx context.Context, actor Actor, konfiID uuid.UUID, req AwardActivityRequest) (*AwardResult, error) {
	activityID, err := uuid.Parse(req.ActivityID)
	if err != nil {
		return nil, apperr.Validation("Invalid activity_id")
	}
	completedAt := time.Now()
	if req.CompletedAt != nil {
		completedAt = *req.CompletedAt
	}

	var result *AwardResult
	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		result, txErr = s.AwardActivityTx(txCtx, actor, konfiID, activityID, completedAt)
		return txErr
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.NotifyAward(actor, konfiID, result)
	return result, nil
}

func (s *konfiService) AwardActivityTx(txCtx context.Context, actor Actor, konfiID, activityID uuid.UUID, completedAt time.Time) (*AwardResult, error) {
	db := repository.GetDB(txCtx, s.db)

	profile, err := s.loadProfileTx(txCtx, actor.OrgID, konfiID)
	if err != nil {
		return nil, err
	}

	var activity model.Activity
	err = db.First(&activity, "id = ? AND organization_id = ? AND is_active = true", activityID, actor.OrgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Activity")
		}
		return nil, err
	}

	adminID := actor.ID
	grant := model.KonfiActivity{
		KonfiID:     konfiID,
		ActivityID:  activity.ID,
		AdminID:     &adminID,
		CompletedAt: completedAt,
	}
	if err := db.Create(&grant).Error; err != nil {
		return nil, err
	}

	switch activity.Type {
	case model.PointTypeGottesdienst:
		profile.GottesdienstPoints += activity.Points
	case model.PointTypeGemeinde:
		profile.GemeindePoints += activity.Points
	}
	if err := db.Save(profile).Error; err != nil {
		return nil, err
	}

	newBadges, err := s.evaluateBadgesTx(txCtx, actor, profile)
	if err != nil {
		return nil, err
	}

	if err := writeAudit(txCtx, s.db, actor, model.ActionAwardActivity, grant.ID.String(), activity.Name, map[string]interface{}{
		"konfi_id": konfiID.String(),
		"points":   activity.Points,
		"type":     activity.Type,
	}); err != nil {
		return nil, err
	}

	return &AwardResult{
		Profile:   *profile,
		NewBadges: newBadges,
		Points:    activity.Points,
		PointType: activity.Type,
	}, nil
}

func (s *konfiService) AwardBonus(ctx context.Context, actor Actor, konfiID uuid.UUID, req AwardBonusRequest) (*AwardResult, error) {
	var result *AwardResult
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		profile, err := s.loadProfileTx(txCtx, actor.OrgID, konfiID)
		if err != nil {
			return err
		}

		adminID := actor.ID
		bonus := model.BonusPoints{
			KonfiID:     konfiID,
			Points:      req.Points,
			Type:        req.Type,
			Description: req.Description,
			AdminID:     &adminID,
		}
		if err := db.Create(&bonus).Error; err != nil {
			return err
		}

		if req.Type == model.PointTypeGottesdienst {
			profile.GottesdienstPoints += req.Points
		} else {
			profile.GemeindePoints += req.Points
		}
		if err := db.Save(profile).Error; err != nil {
			return err
		}

		newBadges, err := s.evaluateBadgesTx(txCtx, actor, profile)
		if err != nil {
			return err
		}

		if err := writeAudit(txCtx, s.db, actor, model.ActionAwardBonus, bonus.ID.String(), req.Description, map[string]interface{}{
			"konfi_id": konfiID.String(),
			"points":   req.Points,
			"type":     req.Type,
		}); err != nil {
			return err
		}

		result = &AwardResult{Profile: *profile, NewBadges: newBadges, Points: req.Points, PointType: req.Type}
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.NotifyAward(actor, konfiID, result)
	return result, nil
}

func (s *konfiService) NotifyAward(actor Actor, konfiID uuid.UUID, result *AwardResult) {
	if s.hub == nil || result == nil {
		return
	}
	s.hub.BroadcastEvent("points_awarded", actor.OrgID.String(), map[string]interface{}{
		"konfi_id":   konfiID.String(),
		"points":     result.Points,
		"point_type": result.PointType,
		"total":      result.Profile.TotalPoints(),
	})
	for _, b := range result.NewBadges {
		s.hub.BroadcastEvent("badge_awarded", actor.OrgID.String(), map[string]interface{}{
			"konfi_id": konfiID.String(),
			"badge_id": b.ID.String(),
			"name":     b.Name,
		})
	}
}

// evaluateBadgesTx re-checks every active badge against the konfi's fresh
// snapshot and persists the ones newly earned. Already-awarded badges are
// skipped, so re-evaluation is idempotent.
func (s *konfiService) evaluateBadgesTx(txCtx context.Context, actor Actor, profile *model.KonfiProfile) ([]model.Badge, error) {
	db := repository.GetDB(txCtx, s.db)

	var badges []model.Badge
	if err := db.Where("organization_id = ? AND is_active = true", actor.OrgID).Find(&badges).Error; err != nil {
		return nil, err
	}
	if len(badges) == 0 {
		return nil, nil
	}

	snap, err := s.snapshotTx(txCtx, profile)
	if err != nil {
		return nil, err
	}

	var owned []model.KonfiBadge
	if err := db.Where("konfi_id = ?", profile.UserID).Find(&owned).Error; err != nil {
		return nil, err
	}
	ownedSet := make(map[uuid.UUID]bool, len(owned))
	for _, kb := range owned {
		ownedSet[kb.BadgeID] = true
	}

	var earned []model.Badge
	for _, b := range badges {
		if ownedSet[b.ID] || !CriteriaMet(b, snap) {
			continue
		}
		row := model.KonfiBadge{KonfiID: profile.UserID, BadgeID: b.ID, AwardedAt: time.Now()}
		if err := db.Create(&row).Error; err != nil {
			return nil, err
		}
		if err := writeAudit(txCtx, s.db, actor, model.ActionAwardBadge, b.ID.String(), b.Name, map[string]interface{}{
			"konfi_id": profile.UserID.String(),
		}); err != nil {
			return nil, err
		}
		earned = append(earned, b)
	}
	return earned, nil
}

func (s *konfiService) snapshotTx(txCtx context.Context, profile *model.KonfiProfile) (PointsSnapshot, error) {
	db := repository.GetDB(txCtx, s.db)

	var grants []model.KonfiActivity
	if err := db.Where("konfi_id = ?", profile.UserID).Find(&grants).Error; err != nil {
		return PointsSnapshot{}, err
	}

	counts := make(map[uuid.UUID]int, len(grants))
	for _, g := range grants {
		counts[g.ActivityID]++
	}

	return PointsSnapshot{
		GottesdienstPoints: profile.GottesdienstPoints,
		GemeindePoints:     profile.GemeindePoints,
		ActivityCount:      len(grants),
		ActivityCounts:     counts,
	}, nil
}

// --- Lookups ---

func (s *konfiService) loadProfiles(ctx context.Context, orgID uuid.UUID) ([]model.KonfiProfile, error) {
	var profiles []model.KonfiProfile
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Jahrgang").
		Joins("JOIN users ON users.id = konfi_profiles.user_id").
		Where("users.organization_id = ? AND users.deleted_at IS NULL", orgID).
		Find(&profiles).Error
	return profiles, err
}

func (s *konfiService) loadProfile(ctx context.Context, orgID, userID uuid.UUID) (*model.KonfiProfile, error) {
	profile, err := s.loadProfileTx(ctx, orgID, userID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return profile, nil
}

func (s *konfiService) loadProfileTx(ctx context.Context, orgID, userID uuid.UUID) (*model.KonfiProfile, error) {
	db := repository.GetDB(ctx, s.db)
	var profile model.KonfiProfile
	err := db.
		Preload("User").Preload("Jahrgang").
		Joins("JOIN users ON users.id = konfi_profiles.user_id").
		Where("konfi_profiles.user_id = ? AND users.organization_id = ?", userID, orgID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Konfi")
		}
		return nil, err
	}
	return &profile, nil
}

func toKonfiResponse(p model.KonfiProfile, badgeCount int) KonfiResponse {
	return KonfiResponse{
		ID:                 p.UserID,
		DisplayName:        p.User.DisplayName,
		Username:           p.User.Username,
		JahrgangID:         p.JahrgangID,
		JahrgangName:       p.Jahrgang.Name,
		GottesdienstPoints: p.GottesdienstPoints,
		GemeindePoints:     p.GemeindePoints,
		TotalPoints:        p.TotalPoints(),
		BadgeCount:         badgeCount,
	}
}
