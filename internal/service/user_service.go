package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/hierarchy"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Password    string `json:"password" binding:"required,min=6"`
	RoleID      string `json:"role_id" binding:"required"`
	JahrgangID  string `json:"jahrgang_id"` // required when the target role is konfi
}

type UpdateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email" binding:"omitempty,email"`
	RoleID      string `json:"role_id"`
	Password    string `json:"password" binding:"omitempty,min=6"`
	IsActive    *bool  `json:"is_active"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	RoleID      uuid.UUID `json:"role_id"`
	RoleName    string    `json:"role_name"`
	IsActive    bool      `json:"is_active"`
	CanEdit     bool      `json:"can_edit"`
	CreatedAt   string    `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	// ListUsers returns every user of the organization. Rows are not hidden
	// from lower-ranked actors; each row carries a can_edit flag instead.
	ListUsers(ctx context.Context, actor Actor) ([]UserResponse, error)
	GetUser(ctx context.Context, actor Actor, id uuid.UUID) (*UserResponse, error)
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error
}

type userService struct {
	db       *gorm.DB
	repo     repository.UserRepository
	roleRepo repository.RoleRepository
	tm       repository.TransactionManager
}

func NewUserService(db *gorm.DB, repo repository.UserRepository, roleRepo repository.RoleRepository, tm repository.TransactionManager) UserService {
	return &userService{db: db, repo: repo, roleRepo: roleRepo, tm: tm}
}

// --- Implementation ---

func (s *userService) ListUsers(ctx context.Context, actor Actor) ([]UserResponse, error) {
	users, err := s.repo.List(ctx, actor.OrgID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResponse(u, hierarchy.CanManageRole(actor.Role, u.Role.Name)))
	}
	return res, nil
}

func (s *userService) GetUser(ctx context.Context, actor Actor, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal(err)
	}
	resp := toUserResponse(*user, hierarchy.CanManageRole(actor.Role, user.Role.Name))
	return &resp, nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		return nil, apperr.Validation("Invalid role_id")
	}

	role, err := s.roleRepo.FindByID(ctx, actor.OrgID, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Role")
		}
		return nil, apperr.Internal(err)
	}
	if !role.IsActive {
		return nil, apperr.Validation("Role is not active")
	}

	if _, err := s.repo.GetByUsername(ctx, actor.OrgID, req.Username); err == nil {
		return nil, apperr.Conflict("Username already exists")
	}

	var jahrgangID uuid.UUID
	if role.Name == hierarchy.RoleKonfi {
		jahrgangID, err = uuid.Parse(req.JahrgangID)
		if err != nil {
			return nil, apperr.Validation("jahrgang_id is required for konfi users")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		OrganizationID: actor.OrgID,
		RoleID:         role.ID,
		Username:       req.Username,
		DisplayName:    req.DisplayName,
		Email:          req.Email,
		PasswordHash:   string(hash),
		IsActive:       true,
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		if role.Name == hierarchy.RoleKonfi {
			var jahrgang model.Jahrgang
			if err := repository.GetDB(txCtx, s.db).
				First(&jahrgang, "id = ? AND organization_id = ?", jahrgangID, actor.OrgID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("Jahrgang")
				}
				return err
			}
			profile := model.KonfiProfile{UserID: user.ID, JahrgangID: jahrgang.ID}
			if err := repository.GetDB(txCtx, s.db).Create(&profile).Error; err != nil {
				return err
			}
		}
		return writeAudit(txCtx, s.db, actor, model.ActionCreateUser, user.ID.String(), user.DisplayName, map[string]interface{}{
			"username": user.Username,
			"role":     role.Name,
		})
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	user.Role = *role
	resp := toUserResponse(*user, true)
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal(err)
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, actor.OrgID, req.Username); err == nil {
			return nil, apperr.Conflict("Username already exists")
		}
		user.Username = req.Username
	}
	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, apperr.Internal(hashErr)
		}
		user.PasswordHash = string(hash)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	// Role reassignment: assignability was already checked by the hierarchy
	// middleware; here we only validate the reference itself.
	if req.RoleID != "" {
		newRoleID, parseErr := uuid.Parse(req.RoleID)
		if parseErr != nil {
			return nil, apperr.Validation("Invalid role_id")
		}
		if newRoleID != user.RoleID {
			newRole, roleErr := s.roleRepo.FindByID(ctx, actor.OrgID, newRoleID)
			if roleErr != nil {
				if errors.Is(roleErr, gorm.ErrRecordNotFound) {
					return nil, apperr.NotFound("Role")
				}
				return nil, apperr.Internal(roleErr)
			}
			user.RoleID = newRole.ID
			user.Role = *newRole
		}
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.db, actor, model.ActionUpdateUser, user.ID.String(), user.DisplayName, nil)
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	resp := toUserResponse(*user, true)
	return &resp, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("User")
		}
		return apperr.Internal(err)
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, actor.OrgID, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.db, actor, model.ActionDeleteUser, user.ID.String(), user.DisplayName, nil)
	})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

// --- Helpers ---

func toUserResponse(user model.User, canEdit bool) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		RoleID:      user.RoleID,
		RoleName:    user.Role.Name,
		IsActive:    user.IsActive,
		CanEdit:     canEdit,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
}

// writeAudit appends an audit row inside the caller's transaction.
func writeAudit(ctx context.Context, db *gorm.DB, actor Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload := ""
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			payload = string(raw)
		}
	}
	actorID := actor.ID
	row := model.AuditLog{
		OrganizationID: actor.OrgID,
		UserID:         &actorID,
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
		Details:        payload,
	}
	return repository.GetDB(ctx, db).Create(&row).Error
}
