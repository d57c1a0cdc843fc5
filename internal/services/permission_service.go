package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mopc-digital/expedientes/internal/models"
)

// PermissionRepository defines the interface for permission persistence
type PermissionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Permission, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Permission, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Permission, error)
	ReplaceForUser(ctx context.Context, userID, grantedBy string, permissionIDs []string) error
}

// PermissionService manages the per-user grant layer that refines the coarse
// role tiers. The catalog itself is seeded by migration and read-only here.
type PermissionService struct {
	repo     PermissionRepository
	users    UserRepository
	depts    DepartmentRepository
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(repo PermissionRepository, users UserRepository, depts DepartmentRepository, activity ActivityRecorder, logger *slog.Logger) *PermissionService {
	return &PermissionService{
		repo:     repo,
		users:    users,
		depts:    depts,
		activity: activity,
		logger:   logger,
	}
}

// PermissionSummary is the wire shape of one permission grant
type PermissionSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// UserPermissionsResponse bundles a user's grants with the role and
// department the frontend needs to build its menu
type UserPermissionsResponse struct {
	Permissions []PermissionSummary `json:"permissions"`
	Role        string              `json:"role"`
	Department  *DepartmentSummary  `json:"department,omitempty"`
}

// DepartmentSummary identifies a department in permission responses
type DepartmentSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// List returns the active permission catalog
func (s *PermissionService) List(ctx context.Context) ([]*models.Permission, error) {
	return s.repo.List(ctx, true)
}

// ListForUser returns the grants of one user together with their role and
// department
func (s *PermissionService) ListForUser(ctx context.Context, userID string) (*UserPermissionsResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	perms, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user permissions: %w", err)
	}

	resp := &UserPermissionsResponse{
		Permissions: make([]PermissionSummary, 0, len(perms)),
		Role:        user.Role,
	}
	for _, p := range perms {
		resp.Permissions = append(resp.Permissions, PermissionSummary{
			ID:       p.ID,
			Name:     p.Name,
			Resource: p.Resource,
			Action:   p.Action,
		})
	}

	if user.DepartmentID != nil {
		dept, err := s.depts.GetByID(ctx, *user.DepartmentID)
		if err == nil {
			resp.Department = &DepartmentSummary{ID: dept.ID, Name: dept.Name, Code: dept.Code}
		}
	}

	return resp, nil
}

// Assign replaces a user's grant set with permissionIDs. Unknown or inactive
// IDs are silently skipped; the resulting set is what gets recorded.
func (s *PermissionService) Assign(ctx context.Context, actorID, userID string, permissionIDs []string) (*UserPermissionsResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceForUser(ctx, userID, actorID, permissionIDs); err != nil {
		return nil, fmt.Errorf("failed to assign permissions: %w", err)
	}

	description := fmt.Sprintf("replaced permission grants for %s", user.Email)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypePermission,
		EntityID:    userID,
		Description: &description,
		Metadata:    models.Metadata{"granted": len(permissionIDs)},
	})

	s.logger.Info("permissions assigned",
		slog.String("user_id", userID),
		slog.String("actor_id", actorID),
		slog.Int("requested", len(permissionIDs)))

	return s.ListForUser(ctx, userID)
}
