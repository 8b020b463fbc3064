package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required,lowercase"`
}

type UpdateOrganizationRequest struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// --- Interface ---

type OrganizationService interface {
	ListOrganizations(ctx context.Context) ([]model.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	// CreateOrganization creates the organization and seeds its four system
	// roles plus default permission grants in one transaction.
	CreateOrganization(ctx context.Context, actor Actor, req CreateOrganizationRequest) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, id uuid.UUID, req UpdateOrganizationRequest) (*model.Organization, error)
}

type organizationService struct {
	db      *gorm.DB
	roleSvc RoleService
	tm      repository.TransactionManager
}

func NewOrganizationService(db *gorm.DB, roleSvc RoleService, tm repository.TransactionManager) OrganizationService {
	return &organizationService{db: db, roleSvc: roleSvc, tm: tm}
}

// --- Implementation ---

func (s *organizationService) ListOrganizations(ctx context.Context) ([]model.Organization, error) {
	var orgs []model.Organization
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return orgs, nil
}

func (s *organizationService) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Organization")
		}
		return nil, apperr.Internal(err)
	}
	return &org, nil
}

func (s *organizationService) CreateOrganization(ctx context.Context, actor Actor, req CreateOrganizationRequest) (*model.Organization, error) {
	var existing model.Organization
	if err := s.db.WithContext(ctx).First(&existing, "slug = ?", req.Slug).Error; err == nil {
		return nil, apperr.Conflict(fmt.Sprintf("Organization slug '%s' already exists", req.Slug))
	}

	org := &model.Organization{
		Name:     req.Name,
		Slug:     req.Slug,
		IsActive: true,
	}

	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repository.GetDB(txCtx, s.db).Create(org).Error; err != nil {
			return err
		}
		if err := s.roleSvc.SeedOrganizationRoles(txCtx, org.ID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.db, actor, model.ActionCreateOrganization, org.ID.String(), org.Name, nil)
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return org, nil
}

func (s *organizationService) UpdateOrganization(ctx context.Context, id uuid.UUID, req UpdateOrganizationRequest) (*model.Organization, error) {
	org, err := s.GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.IsActive != nil {
		org.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(org).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return org, nil
}
