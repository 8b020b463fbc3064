package service

import (
	"context"

	"backend/internal/model"
	"backend/pkg/apperr"
	"backend/pkg/pagination"

	"gorm.io/gorm"
)

type AuditService interface {
	ListAuditLogs(ctx context.Context, actor Actor, params pagination.Params, action string) ([]model.AuditLog, int64, error)
}

type auditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) AuditService {
	return &auditService{db: db}
}

func (s *auditService) ListAuditLogs(ctx context.Context, actor Actor, params pagination.Params, action string) ([]model.AuditLog, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.AuditLog{}).
		Where("organization_id = ?", actor.OrgID)
	if action != "" {
		q = q.Where("action = ?", action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	var rows []model.AuditLog
	err := q.Preload("User").
		Order("created_at DESC").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return rows, total, nil
}
