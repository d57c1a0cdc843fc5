package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mopc-digital/expedientes/internal/models"
	pkgauth "github.com/mopc-digital/expedientes/pkg/auth"
)

// DepartmentRepository defines the interface for department persistence
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Department, error)
	GetByCode(ctx context.Context, code string) (*models.Department, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Department, error)
	Create(ctx context.Context, dept *models.Department) (*models.Department, error)
	Update(ctx context.Context, id string, dept *models.Department) (*models.Department, error)
}

// UserService handles user management business logic
type UserService struct {
	repo     UserRepository
	depts    DepartmentRepository
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, depts DepartmentRepository, activity ActivityRecorder, logger *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		depts:    depts,
		activity: activity,
		logger:   logger,
	}
}

// CreateUserInput carries the fields for user creation
type CreateUserInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Cedula       string
	Role         string
	DepartmentID *string
}

// UpdateUserInput carries the updatable user fields
type UpdateUserInput struct {
	FirstName    string
	LastName     string
	Role         string
	DepartmentID *string
	Active       *bool
}

// Create registers a new user account
func (s *UserService) Create(ctx context.Context, actorID string, input CreateUserInput) (*UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if !models.IsValidRole(input.Role) {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, models.ErrBadRequest
	}

	if input.DepartmentID != nil {
		if _, err := s.depts.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrBadRequest
			}
			return nil, fmt.Errorf("failed to verify department: %w", err)
		}
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Cedula:       strings.TrimSpace(input.Cedula),
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	description := fmt.Sprintf("created user %s", created.Email)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionCreate,
		EntityType:  models.EntityTypeUser,
		EntityID:    created.ID,
		Description: &description,
		Metadata:    models.Metadata{"role": created.Role},
	})

	s.logger.Info("user created", slog.String("user_id", created.ID), slog.String("role", created.Role))

	return userModelToResponse(created), nil
}

// GetByID returns a single user
func (s *UserService) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return userModelToResponse(user), nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*UserResponse, error) {
	limit, offset = clampPage(limit, offset)

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, userModelToResponse(u))
	}
	return responses, nil
}

// ListByDepartment returns the users assigned to a department
func (s *UserService) ListByDepartment(ctx context.Context, departmentID string) ([]*UserResponse, error) {
	users, err := s.repo.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list department users: %w", err)
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, userModelToResponse(u))
	}
	return responses, nil
}

// Update modifies a user's profile fields
func (s *UserService) Update(ctx context.Context, actorID, id string, input UpdateUserInput) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != "" {
		if !models.IsValidRole(input.Role) {
			return nil, models.ErrBadRequest
		}
		user.Role = input.Role
	}
	if input.FirstName != "" {
		user.FirstName = strings.TrimSpace(input.FirstName)
	}
	if input.LastName != "" {
		user.LastName = strings.TrimSpace(input.LastName)
	}
	if input.DepartmentID != nil {
		if _, err := s.depts.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrBadRequest
			}
			return nil, fmt.Errorf("failed to verify department: %w", err)
		}
		user.DepartmentID = input.DepartmentID
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	description := fmt.Sprintf("updated user %s", updated.Email)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeUser,
		EntityID:    updated.ID,
		Description: &description,
	})

	return userModelToResponse(updated), nil
}

// UpdateProfile lets a user change their own name; role, department and
// active flag stay admin-only
func (s *UserService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if firstName != "" {
		user.FirstName = strings.TrimSpace(firstName)
	}
	if lastName != "" {
		user.LastName = strings.TrimSpace(lastName)
	}

	updated, err := s.repo.Update(ctx, userID, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	description := "updated own profile"
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &userID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeUser,
		EntityID:    userID,
		Description: &description,
	})

	return userModelToResponse(updated), nil
}

// UserStats summarizes accounts for the dashboard
type UserStats struct {
	ActiveUsers  int64            `json:"active_users"`
	ByDepartment map[string]int64 `json:"by_department"`
}

// Stats returns active-account totals broken down by department code
func (s *UserService) Stats(ctx context.Context) (*UserStats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	depts, err := s.depts.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	byDept := make(map[string]int64, len(depts))
	for _, d := range depts {
		count, err := s.repo.CountByDepartment(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count department %s: %w", d.Code, err)
		}
		byDept[d.Code] = count
	}

	return &UserStats{ActiveUsers: total, ByDepartment: byDept}, nil
}

// Deactivate disables a user account
func (s *UserService) Deactivate(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return models.ErrBadRequest
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	description := "deactivated user account"
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionDelete,
		EntityType:  models.EntityTypeUser,
		EntityID:    id,
		Description: &description,
	})

	s.logger.Info("user deactivated", slog.String("user_id", id), slog.String("actor_id", actorID))

	return nil
}

// Unlock clears a user's lockout state ahead of its natural expiry
func (s *UserService) Unlock(ctx context.Context, actorID, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.UpdateLockout(ctx, id, 0, nil); err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}

	description := "cleared account lockout"
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeUser,
		EntityID:    id,
		Description: &description,
		Metadata:    models.Metadata{"unlocked": true},
	})

	s.logger.Info("account unlocked", slog.String("user_id", id), slog.String("actor_id", actorID))

	return nil
}
