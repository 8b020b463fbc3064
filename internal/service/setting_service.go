package service

import (
	"context"

	"backend/internal/model"
	"backend/pkg/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

type SettingService interface {
	GetSettings(ctx context.Context, actor Actor) (map[string]string, error)
	// UpdateSettings upserts the given keys, leaving others untouched.
	UpdateSettings(ctx context.Context, actor Actor, req UpdateSettingsRequest) (map[string]string, error)
}

type settingService struct {
	db *gorm.DB
}

func NewSettingService(db *gorm.DB) SettingService {
	return &settingService{db: db}
}

func (s *settingService) GetSettings(ctx context.Context, actor Actor) (map[string]string, error) {
	var rows []model.Setting
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", actor.OrgID).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (s *settingService) UpdateSettings(ctx context.Context, actor Actor, req UpdateSettingsRequest) (map[string]string, error) {
	if len(req.Settings) == 0 {
		return nil, apperr.Validation("No settings provided")
	}

	for key, value := range req.Settings {
		row := model.Setting{OrganizationID: actor.OrgID, Key: key, Value: value}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return nil, apperr.Internal(err)
		}

		if err := writeAudit(ctx, s.db, actor, model.ActionUpdateSetting, key, key, map[string]interface{}{
			"value": value,
		}); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	return s.GetSettings(ctx, actor)
}
