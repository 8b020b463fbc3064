package service

import (
	"context"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const rankingSize = 10

type RankingEntry struct {
	KonfiID            uuid.UUID `json:"konfi_id"`
	DisplayName        string    `json:"display_name"`
	JahrgangName       string    `json:"jahrgang_name"`
	GottesdienstPoints int       `json:"gottesdienst_points"`
	GemeindePoints     int       `json:"gemeinde_points"`
	TotalPoints        int       `json:"total_points"`
}

type Statistics struct {
	KonfiCount              int             `json:"konfi_count"`
	TotalGottesdienstPoints int             `json:"total_gottesdienst_points"`
	TotalGemeindePoints     int             `json:"total_gemeinde_points"`
	TotalPoints             int             `json:"total_points"`
	ActivitiesAwarded       int             `json:"activities_awarded"`
	BadgesAwarded           int             `json:"badges_awarded"`
	PendingRequests         int             `json:"pending_requests"`
	CollectedFees           decimal.Decimal `json:"collected_fees"`
	Ranking                 []RankingEntry  `json:"ranking"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, actor Actor) (*Statistics, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

func (s *statisticsService) GetStatistics(ctx context.Context, actor Actor) (*Statistics, error) {
	db := s.db.WithContext(ctx)
	stats := &Statistics{CollectedFees: decimal.Zero}

	type pointSums struct {
		Count        int
		Gottesdienst int
		Gemeinde     int
	}
	var sums pointSums
	err := db.Model(&model.KonfiProfile{}).
		Select("COUNT(*) AS count, COALESCE(SUM(gottesdienst_points), 0) AS gottesdienst, COALESCE(SUM(gemeinde_points), 0) AS gemeinde").
		Joins("JOIN users ON users.id = konfi_profiles.user_id").
		Where("users.organization_id = ? AND users.deleted_at IS NULL", actor.OrgID).
		Scan(&sums).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats.KonfiCount = sums.Count
	stats.TotalGottesdienstPoints = sums.Gottesdienst
	stats.TotalGemeindePoints = sums.Gemeinde
	stats.TotalPoints = sums.Gottesdienst + sums.Gemeinde

	var activities int64
	err = db.Model(&model.KonfiActivity{}).
		Joins("JOIN users ON users.id = konfi_activities.konfi_id").
		Where("users.organization_id = ?", actor.OrgID).
		Count(&activities).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats.ActivitiesAwarded = int(activities)

	var badges int64
	err = db.Model(&model.KonfiBadge{}).
		Joins("JOIN users ON users.id = konfi_badges.konfi_id").
		Where("users.organization_id = ?", actor.OrgID).
		Count(&badges).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats.BadgesAwarded = int(badges)

	var pending int64
	err = db.Model(&model.ActivityRequest{}).
		Where("organization_id = ? AND status = ?", actor.OrgID, model.RequestPending).
		Count(&pending).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats.PendingRequests = int(pending)

	var feeSum struct{ Total decimal.Decimal }
	err = db.Model(&model.EventBooking{}).
		Select("COALESCE(SUM(event_bookings.fee_paid), 0) AS total").
		Joins("JOIN events ON events.id = event_bookings.event_id").
		Where("events.organization_id = ? AND event_bookings.status = ?", actor.OrgID, model.BookingConfirmed).
		Scan(&feeSum).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats.CollectedFees = feeSum.Total

	ranking, err := s.topKonfis(ctx, actor.OrgID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats.Ranking = ranking

	return stats, nil
}

func (s *statisticsService) topKonfis(ctx context.Context, orgID uuid.UUID) ([]RankingEntry, error) {
	var profiles []model.KonfiProfile
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Jahrgang").
		Joins("JOIN users ON users.id = konfi_profiles.user_id").
		Where("users.organization_id = ? AND users.deleted_at IS NULL", orgID).
		Order("(gottesdienst_points + gemeinde_points) DESC, users.display_name ASC").
		Limit(rankingSize).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	ranking := make([]RankingEntry, 0, len(profiles))
	for _, p := range profiles {
		ranking = append(ranking, RankingEntry{
			KonfiID:            p.UserID,
			DisplayName:        p.User.DisplayName,
			JahrgangName:       p.Jahrgang.Name,
			GottesdienstPoints: p.GottesdienstPoints,
			GemeindePoints:     p.GemeindePoints,
			TotalPoints:        p.TotalPoints(),
		})
	}
	return ranking, nil
}
