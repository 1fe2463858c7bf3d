package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/notification"
	"github.com/pharmalink/marketplace-api/pkg/auth"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
	bcryptCost       = 12
)

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   *auth.JWTService
	notifSvc notification.Service
}

func NewService(userRepo repository.UserRepository, jwtSvc *auth.JWTService, notifSvc notification.Service) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		notifSvc: notifSvc,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	if user.Status == model.UserStatusLocked {
		if user.LastLoginAttempt != nil && time.Since(*user.LastLoginAttempt) < lockoutDuration {
			return nil, apperrors.Unauthorized(errors.New("account is locked, please try again later"))
		}
		user.Status = model.UserStatusActive
		user.FailedLoginAttempts = 0
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		user.FailedLoginAttempts++
		now := time.Now()
		user.LastLoginAttempt = &now

		if user.FailedLoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
		}

		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}

		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	user.FailedLoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	return s.generateTokens(user)
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	existing, _ := s.userRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, apperrors.Conflict("email already registered", nil)
	}

	if !req.Role.Valid() || req.Role == model.RoleSuperAdmin {
		return nil, apperrors.BadRequest("invalid role", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        phone,
		Role:         req.Role,
		Status:       model.UserStatusActive,
		PharmacyID:   req.PharmacyID,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Welcome mail is best-effort; registration already succeeded.
	if s.notifSvc != nil {
		_ = s.notifSvc.SendWelcome(ctx, user.Email, user.FirstName)
	}

	return user, nil
}

// ValidateToken resolves a bearer token into the acting identity.
func (s *Service) ValidateToken(ctx context.Context, token string) (*model.Actor, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	return &model.Actor{
		UserID:     claims.UserID,
		Email:      claims.Email,
		Role:       model.Role(claims.Role),
		PharmacyID: claims.PharmacyID,
	}, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("user not found: %w", err))
	}

	return s.generateTokens(user)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the address exists.
		return nil
	}

	token, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.PharmacyID)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if s.notifSvc != nil {
		return s.notifSvc.SendPasswordReset(ctx, user.Email, token)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return apperrors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return apperrors.Unauthorized(fmt.Errorf("user not found: %w", err))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.FailedLoginAttempts = 0
	user.Status = model.UserStatusActive
	return s.userRepo.Update(ctx, user)
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	accessToken, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.PharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtSvc.GenerateRefreshToken(user.ID, user.Email, string(user.Role), user.PharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	user.PasswordHash = ""
	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
