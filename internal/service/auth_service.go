package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chamapay/internal/auth"
	"chamapay/internal/config"
	"chamapay/internal/model"
	"chamapay/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrEmailExists   = errors.New("email already registered")
	ErrUserSuspended = errors.New("account is suspended")
)

type AuthService struct {
	userRepo *repository.UserRepository
	jwt      *auth.JWTManager
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: repository.NewUserRepository(db),
		jwt:      auth.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour),
	}
}

// JWT exposes the token manager for the auth middleware.
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register creates a user and returns a signed session token.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*model.User, string, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         model.UserRoleMember,
		Status:       model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", auth.ErrInvalidCredentials
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", auth.ErrInvalidCredentials
	}

	if user.Status != model.UserStatusActive {
		return nil, "", ErrUserSuspended
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
