package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"time"

	"backend/internal/hierarchy"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token lifetimes. Staff sessions live two weeks; konfi sessions are cut to a
// day since devices are often shared.
const (
	StaffTokenTTL = 14 * 24 * time.Hour
	KonfiTokenTTL = 24 * time.Hour

	userTypeStaff = "staff"
	userTypeKonfi = "konfi"
)

// --- DTOs ---

type LoginRequest struct {
	Organization string `json:"organization" binding:"required"` // org slug
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

type MeResponse struct {
	User        UserResponse `json:"user"`
	Permissions []string     `json:"permissions"`
}

// --- Interface ---

type AuthService interface {
	// Login authenticates a staff member (any non-konfi role).
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	// KonfiLogin authenticates a participant with the shorter token lifetime.
	KonfiLogin(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, actor Actor) (*UserResponse, error)
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository) AuthService {
	return &authService{db: db, userRepo: userRepo}
}

// --- Implementation ---

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	return s.login(ctx, req, userTypeStaff)
}

func (s *authService) KonfiLogin(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	return s.login(ctx, req, userTypeKonfi)
}

func (s *authService) login(ctx context.Context, req LoginRequest, userType string) (*TokenResponse, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).First(&org, "slug = ? AND is_active = true", req.Organization).Error; err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	user, err := s.userRepo.GetByUsername(ctx, org.ID, req.Username)
	if err != nil || !user.IsActive {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// Each login endpoint only accepts its own population.
	isKonfi := user.Role.Name == hierarchy.RoleKonfi
	if (userType == userTypeKonfi) != isKonfi {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	return s.issueTokens(ctx, user, userType)
}

func (s *authService) issueTokens(ctx context.Context, user *model.User, userType string) (*TokenResponse, error) {
	ttl := StaffTokenTTL
	if userType == userTypeKonfi {
		ttl = KonfiTokenTTL
	}

	claims := jwt.MapClaims{
		"sub":          user.ID.String(),
		"org_id":       user.OrganizationID.String(),
		"role":         user.Role.Name,
		"type":         userType,
		"display_name": user.DisplayName,
		"exp":          time.Now().Add(ttl).Unix(),
		"iat":          time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	row := model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	resp := toUserResponse(*user, false)
	return &TokenResponse{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int(ttl.Seconds()),
		User:         resp,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized("Missing refresh token")
	}

	var row model.RefreshToken
	if err := s.db.WithContext(ctx).First(&row, "token = ?", refreshToken).Error; err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}
	if time.Now().After(row.ExpiresAt) {
		_ = s.db.WithContext(ctx).Delete(&row).Error
		return nil, apperr.Unauthorized("Refresh token expired")
	}

	var user model.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&user, "id = ?", row.UserID).Error; err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("Account disabled")
	}

	// Rotate: the old token is single-use.
	if err := s.db.WithContext(ctx).Delete(&row).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	userType := userTypeStaff
	if user.Role.Name == hierarchy.RoleKonfi {
		userType = userTypeKonfi
	}
	return s.issueTokens(ctx, &user, userType)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("token = ?", refreshToken).
		Delete(&model.RefreshToken{}).Error
}

func (s *authService) Me(ctx context.Context, actor Actor) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, actor.OrgID, actor.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	resp := toUserResponse(*user, false)
	return &resp, nil
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	return []byte(secret)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
