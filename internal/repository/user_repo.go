package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities.
// Every lookup is scoped by organization id; a user of another organization
// does not resolve.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, orgID uuid.UUID, username string) (*model.User, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := GetDB(ctx, r.db).Preload("Role").
		First(&user, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, orgID uuid.UUID, username string) (*model.User, error) {
	var user model.User
	err := GetDB(ctx, r.db).Preload("Role").
		First(&user, "username = ? AND organization_id = ?", username, orgID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, orgID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).Preload("Role").
		Where("organization_id = ?", orgID).
		Order("display_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND organization_id = ?", id, orgID).
		Delete(&model.User{}).Error
}

func (r *userRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}
