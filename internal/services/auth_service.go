package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mopc-digital/expedientes/internal/models"
	pkgauth "github.com/mopc-digital/expedientes/pkg/auth"
	pkglogger "github.com/mopc-digital/expedientes/pkg/logger"
)

// TokenManager defines the interface for JWT generation and validation
type TokenManager interface {
	GenerateAccessToken(user *models.User) (string, error)
	GenerateRefreshToken(user *models.User) (string, error)
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdateLockout(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error
	RecordLogin(ctx context.Context, id string, at time.Time, ip, userAgent *string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Deactivate(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByDepartment(ctx context.Context, departmentID string) (int64, error)
}

// AuthService handles authentication business logic
type AuthService struct {
	repo     UserRepository
	lockout  *LockoutService
	tm       TokenManager
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, lockout *LockoutService, tm TokenManager, activity ActivityRecorder, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		lockout:  lockout,
		tm:       tm,
		activity: activity,
		logger:   logger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	FullName     string  `json:"full_name"`
	Cedula       string  `json:"cedula"`
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
	Active       bool    `json:"active"`
	LastLoginAt  *string `json:"last_login_at,omitempty"`
	LoginCount   int     `json:"login_count"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// Login authenticates a user and returns tokens.
//
// The lockout predicate is checked here, before password verification: an
// account with LockedUntil in the future is rejected without counting an
// attempt. A wrong password is reported to the lockout policy; if the policy
// cannot persist its bookkeeping the login fails hard rather than quietly
// continuing with an unenforced lockout.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrUnauthorized
	}

	var ip, ua *string
	if ipAddress != "" {
		ip = &ipAddress
	}
	if userAgent != "" {
		ua = &userAgent
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Report to the policy anyway (no-op for unknown accounts) so the
			// handler cannot be timed against the lookup alone.
			_ = s.lockout.RecordFailedAttempt(ctx, email)
			s.logger.Info("login failed: invalid credentials",
				slog.String("email", pkglogger.SanitizedEmail(email)))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active {
		s.recordBlockedAttempt(ctx, user, ip, ua, "login attempt on disabled account")
		return nil, models.ErrAccountDisabled
	}

	if user.IsLocked(time.Now()) {
		s.recordBlockedAttempt(ctx, user, ip, ua, "login attempt while account locked")
		return nil, models.ErrAccountLocked
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		if recErr := s.lockout.RecordFailedAttempt(ctx, email); recErr != nil {
			// Lockout bookkeeping could not be persisted; surface a hard error
			// instead of silently dropping the count.
			s.logger.Error("failed to record failed attempt", slog.Any("error", recErr))
			return nil, models.ErrInternalServer
		}
		s.logger.Info("login failed: invalid credentials",
			slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrUnauthorized
	}

	if err := s.lockout.RecordSuccessfulLogin(ctx, user.ID, ip, ua); err != nil {
		s.logger.Error("failed to record successful login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// recordBlockedAttempt writes the audit entry for an attempt rejected before
// password verification (disabled or locked account); the failure counter is
// not advanced for these.
func (s *AuthService) recordBlockedAttempt(ctx context.Context, user *models.User, ip, ua *string, description string) {
	s.logger.Info("login blocked",
		slog.String("user_id", user.ID),
		slog.String("reason", description))

	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &user.ID,
		Action:      models.ActionFailedLogin,
		EntityType:  models.EntityTypeUser,
		EntityID:    user.ID,
		Description: &description,
		IPAddress:   ip,
		UserAgent:   ua,
	})
}

// RefreshToken generates a new token pair from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*AuthResponse, error) {
	if refreshTokenString = strings.TrimSpace(refreshTokenString); refreshTokenString == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(refreshTokenString)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	if claims.Type != "refresh" {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	// Fetch fresh user data
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found for token refresh", slog.String("user_id", claims.UserID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active {
		s.logger.Info("token refresh blocked: account disabled", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	if user.IsLocked(time.Now()) {
		s.logger.Info("token refresh blocked: account locked", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	// Invalidate tokens issued before the last password change
	if user.PasswordChangedAt != nil && claims.IssuedAt != nil {
		if claims.IssuedAt.Time.Before(*user.PasswordChangedAt) {
			s.logger.Info("token refresh blocked: issued before password change",
				slog.String("user_id", user.ID))
			return nil, models.ErrUnauthorized
		}
	}

	accessToken, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	newRefreshToken, err := s.tm.GenerateRefreshToken(user)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("token refreshed", slog.String("user_id", user.ID))

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// Logout records the logout in the audit trail. Tokens are short-lived and
// expire on their own; there is no server-side revocation list.
func (s *AuthService) Logout(ctx context.Context, userID, ipAddress string) {
	var ip *string
	if ipAddress != "" {
		ip = &ipAddress
	}

	description := "user logged out"
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &userID,
		Action:      models.ActionLogout,
		EntityType:  models.EntityTypeUser,
		EntityID:    userID,
		Description: &description,
		IPAddress:   ip,
	})

	s.logger.Info("user logged out", slog.String("user_id", userID))
}

// ChangePassword verifies the current password and replaces it
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.logger.Info("password change failed: wrong current password", slog.String("user_id", userID))
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return models.ErrBadRequest
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	description := "password changed"
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &userID,
		Action:      models.ActionPasswordChange,
		EntityType:  models.EntityTypeUser,
		EntityID:    userID,
		Description: &description,
	})

	s.logger.Info("password changed", slog.String("user_id", userID))

	return nil
}

func userModelToResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		FullName:     user.FullName(),
		Cedula:       user.Cedula,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		Active:       user.Active,
		LoginCount:   user.LoginCount,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    user.UpdatedAt.Format(time.RFC3339),
	}

	if user.LastLoginAt != nil {
		s := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &s
	}

	return resp
}
