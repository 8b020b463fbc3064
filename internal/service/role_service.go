package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/hierarchy"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	DisplayName string   `json:"display_name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Permissions []string `json:"permissions"`
}

type RoleResponse struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	DisplayName  string               `json:"display_name"`
	Description  string               `json:"description"`
	IsSystemRole bool                 `json:"is_system_role"`
	IsActive     bool                 `json:"is_active"`
	CanEdit      bool                 `json:"can_edit"`
	Permissions  []PermissionResponse `json:"permissions"`
	CreatedAt    string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    uuid.UUID `json:"id"`
	Code  string    `json:"code"`
	Name  string    `json:"name"`
	Group string    `json:"group"`
}

// --- Interface ---

type RoleService interface {
	// ListRoles returns every role of the organization with a per-row
	// can_edit flag; rows are never hidden.
	ListRoles(ctx context.Context, actor Actor) ([]RoleResponse, error)
	GetRole(ctx context.Context, actor Actor, id uuid.UUID) (*RoleResponse, error)
	CreateRole(ctx context.Context, actor Actor, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actor Actor, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actor Actor, id uuid.UUID) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	// SeedOrganizationRoles creates the four system roles and their default
	// permission grants for a new organization. Runs inside the caller's
	// transaction context.
	SeedOrganizationRoles(txCtx context.Context, orgID uuid.UUID) error
}

type roleService struct {
	db       *gorm.DB
	repo     repository.RoleRepository
	userRepo repository.UserRepository
	tm       repository.TransactionManager
}

func NewRoleService(db *gorm.DB, repo repository.RoleRepository, userRepo repository.UserRepository, tm repository.TransactionManager) RoleService {
	return &roleService{db: db, repo: repo, userRepo: userRepo, tm: tm}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context, actor Actor) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx, actor.OrgID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r, hierarchy.CanManageRole(actor.Role, r.Name)))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, actor Actor, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.repo.FindByIDWithPermissions(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Role")
		}
		return nil, apperr.Internal(err)
	}
	resp := toRoleResponse(*role, hierarchy.CanManageRole(actor.Role, role.Name))
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, actor Actor, req CreateRoleRequest) (*RoleResponse, error) {
	if hierarchy.IsSystemRole(req.Name) {
		return nil, apperr.Conflict(fmt.Sprintf("Role name '%s' is reserved", req.Name))
	}
	if _, err := s.repo.FindByName(ctx, actor.OrgID, req.Name); err == nil {
		return nil, apperr.Conflict(fmt.Sprintf("Role '%s' already exists", req.Name))
	}

	permIDs, err := parsePermissionIDs(req.Permissions)
	if err != nil {
		return nil, err
	}

	role := &model.Role{
		OrganizationID: actor.OrgID,
		Name:           req.Name,
		DisplayName:    req.DisplayName,
		Description:    req.Description,
		IsSystemRole:   false,
		IsActive:       true,
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, role); err != nil {
			return err
		}
		if len(permIDs) > 0 {
			if err := s.repo.ReplacePermissions(txCtx, role, permIDs); err != nil {
				return err
			}
		}
		return writeAudit(txCtx, s.db, actor, model.ActionCreateRole, role.ID.String(), role.Name, nil)
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	return s.GetRole(ctx, actor, role.ID)
}

func (s *roleService) UpdateRole(ctx context.Context, actor Actor, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.repo.FindByID(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Role")
		}
		return nil, apperr.Internal(err)
	}

	// The konfi role is immutable in all fields, regardless of actor.
	if role.Name == hierarchy.RoleKonfi {
		return nil, apperr.Validation("The konfi role cannot be modified")
	}
	// System roles keep their name; display_name and description may change.
	if req.Name != "" && req.Name != role.Name {
		if role.IsSystemRole {
			return nil, apperr.Validation(fmt.Sprintf("System role '%s' cannot be renamed", role.Name))
		}
		if hierarchy.IsSystemRole(req.Name) {
			return nil, apperr.Conflict(fmt.Sprintf("Role name '%s' is reserved", req.Name))
		}
		if _, err := s.repo.FindByName(ctx, actor.OrgID, req.Name); err == nil {
			return nil, apperr.Conflict(fmt.Sprintf("Role '%s' already exists", req.Name))
		}
		role.Name = req.Name
	}
	if req.DisplayName != "" {
		role.DisplayName = req.DisplayName
	}
	if req.Description != "" {
		role.Description = req.Description
	}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}

	var permIDs []uuid.UUID
	if req.Permissions != nil {
		permIDs, err = parsePermissionIDs(req.Permissions)
		if err != nil {
			return nil, err
		}
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, role); err != nil {
			return err
		}
		if req.Permissions != nil {
			if err := s.repo.ReplacePermissions(txCtx, role, permIDs); err != nil {
				return err
			}
		}
		return writeAudit(txCtx, s.db, actor, model.ActionUpdateRole, role.ID.String(), role.Name, nil)
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	return s.GetRole(ctx, actor, role.ID)
}

func (s *roleService) DeleteRole(ctx context.Context, actor Actor, id uuid.UUID) error {
	role, err := s.repo.FindByID(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Role")
		}
		return apperr.Internal(err)
	}

	if role.IsSystemRole {
		return apperr.Validation(fmt.Sprintf("System role '%s' cannot be deleted", role.Name))
	}

	userCount, err := s.userRepo.CountByRole(ctx, role.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	if userCount > 0 {
		return apperr.Conflict(fmt.Sprintf("Role '%s' is still assigned to %d user(s)", role.Name, userCount))
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.ClearPermissions(txCtx, role); err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, actor.OrgID, role.ID); err != nil {
			return err
		}
		return writeAudit(txCtx, s.db, actor, model.ActionDeleteRole, role.ID.String(), role.Name, nil)
	})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

// --- Seeding ---

// permissionCatalog is the full set of known permission codes.
var permissionCatalog = []model.Permission{
	{Code: "admin.users.view", Name: "View users", Group: "users"},
	{Code: "admin.users.create", Name: "Create users", Group: "users"},
	{Code: "admin.users.edit", Name: "Edit users", Group: "users"},
	{Code: "admin.users.delete", Name: "Delete users", Group: "users"},
	{Code: "admin.roles.view", Name: "View roles", Group: "roles"},
	{Code: "admin.roles.create", Name: "Create roles", Group: "roles"},
	{Code: "admin.roles.edit", Name: "Edit roles", Group: "roles"},
	{Code: "admin.roles.delete", Name: "Delete roles", Group: "roles"},
	{Code: "admin.konfis.view", Name: "View konfis", Group: "konfis"},
	{Code: "admin.konfis.manage", Name: "Manage konfis and award points", Group: "konfis"},
	{Code: "admin.activities.view", Name: "View activities", Group: "activities"},
	{Code: "admin.activities.manage", Name: "Manage activities", Group: "activities"},
	{Code: "admin.requests.view", Name: "View activity requests", Group: "requests"},
	{Code: "admin.requests.approve", Name: "Approve or reject activity requests", Group: "requests"},
	{Code: "admin.badges.view", Name: "View badges", Group: "badges"},
	{Code: "admin.badges.manage", Name: "Manage badges", Group: "badges"},
	{Code: "admin.events.view", Name: "View events", Group: "events"},
	{Code: "admin.events.manage", Name: "Manage events and bookings", Group: "events"},
	{Code: "admin.settings.view", Name: "View settings", Group: "settings"},
	{Code: "admin.settings.edit", Name: "Edit settings", Group: "settings"},
	{Code: "admin.audit.view", Name: "View the audit trail", Group: "audit"},
	{Code: "admin.statistics.view", Name: "View statistics", Group: "statistics"},
	{Code: "admin.organizations.manage", Name: "Manage organizations", Group: "organizations"},
}

// systemRoleDefinitions maps each seeded role to its display data and grants.
// An empty grant list means every catalog permission (org_admin); konfi gets
// no administrative permissions at all.
var systemRoleDefinitions = []struct {
	Name        string
	DisplayName string
	Description string
	AllPerms    bool
	PermCodes   []string
}{
	{
		Name:        hierarchy.RoleOrgAdmin,
		DisplayName: "Organisations-Admin",
		Description: "Top authority of the organization",
		AllPerms:    true,
	},
	{
		Name:        hierarchy.RoleAdmin,
		DisplayName: "Admin",
		Description: "Administrates users, konfis and content",
		PermCodes: []string{
			"admin.users.view", "admin.users.create", "admin.users.edit", "admin.users.delete",
			"admin.roles.view", "admin.roles.create", "admin.roles.edit", "admin.roles.delete",
			"admin.konfis.view", "admin.konfis.manage",
			"admin.activities.view", "admin.activities.manage",
			"admin.requests.view", "admin.requests.approve",
			"admin.badges.view", "admin.badges.manage",
			"admin.events.view", "admin.events.manage",
			"admin.settings.view", "admin.settings.edit",
			"admin.audit.view", "admin.statistics.view",
		},
	},
	{
		Name:        hierarchy.RoleTeamer,
		DisplayName: "Teamer",
		Description: "Supports the weekly work with konfis",
		PermCodes: []string{
			"admin.users.view",
			"admin.konfis.view", "admin.konfis.manage",
			"admin.activities.view",
			"admin.requests.view", "admin.requests.approve",
			"admin.badges.view",
			"admin.events.view", "admin.events.manage",
			"admin.statistics.view",
		},
	},
	{
		Name:        hierarchy.RoleKonfi,
		DisplayName: "Konfi",
		Description: "Confirmation-class participant",
	},
}

func (s *roleService) SeedOrganizationRoles(txCtx context.Context, orgID uuid.UUID) error {
	// Upsert the permission catalog (shared across organizations).
	permByCode := make(map[string]model.Permission, len(permissionCatalog))
	for i := range permissionCatalog {
		p := permissionCatalog[i]
		if err := s.repo.FindOrCreatePermission(txCtx, &p); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
		}
		permByCode[p.Code] = p
	}

	for _, def := range systemRoleDefinitions {
		role := &model.Role{
			OrganizationID: orgID,
			Name:           def.Name,
			DisplayName:    def.DisplayName,
			Description:    def.Description,
			IsSystemRole:   true,
			IsActive:       true,
		}
		if err := s.repo.Create(txCtx, role); err != nil {
			return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
		}

		var permIDs []uuid.UUID
		if def.AllPerms {
			for _, p := range permByCode {
				permIDs = append(permIDs, p.ID)
			}
		} else {
			for _, code := range def.PermCodes {
				if p, ok := permByCode[code]; ok {
					permIDs = append(permIDs, p.ID)
				}
			}
		}
		if len(permIDs) > 0 {
			if err := s.repo.ReplacePermissions(txCtx, role, permIDs); err != nil {
				return fmt.Errorf("failed to grant permissions to role '%s': %w", def.Name, err)
			}
		}
	}

	return nil
}

// --- Helpers ---

func parsePermissionIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, pid := range raw {
		parsed, err := uuid.Parse(pid)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("Invalid permission id '%s'", pid))
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

func toRoleResponse(r model.Role, canEdit bool) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:           r.ID,
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		IsSystemRole: r.IsSystemRole,
		IsActive:     r.IsActive,
		CanEdit:      canEdit,
		Permissions:  perms,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID,
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
