package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mopc-digital/expedientes/internal/models"
)

// LockoutUserRepository defines the persistence operations the lockout policy needs
type LockoutUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLockout(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error
	RecordLogin(ctx context.Context, id string, at time.Time, ip, userAgent *string) error
}

// ActivityRecorder is the audit-trail collaborator used by the lockout policy
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry)
}

// LockoutConfig holds the failed-login lockout policy parameters
type LockoutConfig struct {
	MaxFailedAttempts int
	LockoutWindow     time.Duration
}

// DefaultLockoutConfig returns the standard policy: lock for 30 minutes
// after 5 consecutive failures
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxFailedAttempts: 5,
		LockoutWindow:     30 * time.Minute,
	}
}

// LockoutService tracks consecutive failed authentication attempts per account
// and enforces a temporary lockout once the threshold is reached. It does not
// decide whether an attempt is permitted; callers check User.IsLocked before
// attempting authentication.
type LockoutService struct {
	repo     LockoutUserRepository
	activity ActivityRecorder
	config   LockoutConfig
	logger   *slog.Logger
}

// NewLockoutService creates a new LockoutService
func NewLockoutService(repo LockoutUserRepository, activity ActivityRecorder, config LockoutConfig, logger *slog.Logger) *LockoutService {
	return &LockoutService{
		repo:     repo,
		activity: activity,
		config:   config,
		logger:   logger,
	}
}

// RecordFailedAttempt increments the account's consecutive-failure counter and
// sets the lock expiration once the threshold is reached. An unknown email is
// a silent no-op so callers cannot be used to probe which accounts exist.
// Counter persistence failures propagate; the audit write is attempted
// regardless and its failure is swallowed by the activity service.
func (s *LockoutService) RecordFailedAttempt(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Account enumeration guard: no mutation, no error, no audit entry
			// that would reveal the email is unknown.
			s.logger.Debug("failed attempt for unknown email ignored")
			return nil
		}
		return fmt.Errorf("failed to look up account for lockout: %w", err)
	}

	attempts := user.FailedLoginAttempts + 1
	lockedUntil := user.LockedUntil
	locked := false

	if attempts >= s.config.MaxFailedAttempts {
		until := time.Now().Add(s.config.LockoutWindow)
		lockedUntil = &until
		locked = true
	}

	updateErr := s.repo.UpdateLockout(ctx, user.ID, attempts, lockedUntil)
	if updateErr != nil {
		s.logger.Error("failed to persist lockout state",
			slog.String("user_id", user.ID),
			slog.Any("error", updateErr))
	}

	description := "failed login attempt"
	if locked {
		description = fmt.Sprintf("failed login attempt; account locked for %s", s.config.LockoutWindow)
		s.logger.Warn("account locked after repeated failures",
			slog.String("user_id", user.ID),
			slog.Int("failed_attempts", attempts))
	}

	// One audit entry per attempt, emitted even when persistence failed
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &user.ID,
		Action:      models.ActionFailedLogin,
		EntityType:  models.EntityTypeUser,
		EntityID:    user.ID,
		Description: &description,
		Metadata: map[string]any{
			"failed_attempts": attempts,
			"locked":          locked,
		},
	})

	if updateErr != nil {
		return fmt.Errorf("failed to persist lockout state: %w", updateErr)
	}

	return nil
}

// RecordSuccessfulLogin resets the failure counter, clears any lock and
// updates last-login tracking. The state update and the audit write are
// independent: they run concurrently, complete in either order, and an audit
// failure never prevents the login state from being persisted. A state-update
// failure is returned to the caller.
func (s *LockoutService) RecordSuccessfulLogin(ctx context.Context, userID string, ip, userAgent *string) error {
	var (
		wg        sync.WaitGroup
		updateErr error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		updateErr = s.repo.RecordLogin(ctx, userID, time.Now(), ip, userAgent)
	}()

	go func() {
		defer wg.Done()
		description := "user logged in"
		s.activity.Record(ctx, ActivityEntry{
			ActorID:     &userID,
			Action:      models.ActionLogin,
			EntityType:  models.EntityTypeUser,
			EntityID:    userID,
			Description: &description,
			IPAddress:   ip,
			UserAgent:   userAgent,
		})
	}()

	wg.Wait()

	if updateErr != nil {
		return fmt.Errorf("failed to record login: %w", updateErr)
	}

	return nil
}
