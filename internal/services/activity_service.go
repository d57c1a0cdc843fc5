package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mopc-digital/expedientes/internal/models"
)

// ActivityRepository defines the interface for audit entry persistence
type ActivityRepository interface {
	Create(ctx context.Context, a *models.Activity) (*models.Activity, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Activity, error)
	ListByCase(ctx context.Context, caseID string, limit, offset int) ([]*models.Activity, error)
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.Activity, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.Activity, error)
	CountByActor(ctx context.Context, actorID string) (int64, error)
}

// ActivityEntry describes one action to be recorded in the audit trail
type ActivityEntry struct {
	ActorID     *string
	Action      string
	EntityType  string
	EntityID    string
	Description *string
	Metadata    map[string]any
	CaseID      *string
	IPAddress   *string
	UserAgent   *string
}

// ActivityService appends audit entries with dual-write (slog + database).
// Recording is fire-and-forget with respect to the caller's primary operation:
// a failed database write is logged and swallowed, never propagated.
type ActivityService struct {
	repo   ActivityRepository
	logger *slog.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(repo ActivityRepository, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		logger: logger,
	}
}

// Record appends one audit entry. Caller-supplied metadata is normalized to
// serializable values before persisting; unsupported values are dropped rather
// than surfaced as errors.
func (s *ActivityService) Record(ctx context.Context, entry ActivityEntry) {
	activity := &models.Activity{
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Description: entry.Description,
		Metadata:    models.NormalizeMetadata(entry.Metadata),
		CaseID:      entry.CaseID,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
	}

	// Dual-write: immediate slog output
	attrs := []slog.Attr{
		slog.String("action", entry.Action),
		slog.String("entity_type", entry.EntityType),
		slog.String("entity_id", entry.EntityID),
	}
	if entry.ActorID != nil {
		attrs = append(attrs, slog.String("actor_id", *entry.ActorID))
	}
	if entry.CaseID != nil {
		attrs = append(attrs, slog.String("case_id", *entry.CaseID))
	}
	if entry.Description != nil {
		attrs = append(attrs, slog.String("description", *entry.Description))
	}

	level := slog.LevelInfo
	if entry.Action == models.ActionFailedLogin {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "activity", attrs...)

	// Persist to database. Non-critical: the invoking business operation must
	// never fail or roll back because the audit trail could not be written.
	if _, err := s.repo.Create(ctx, activity); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist activity",
			slog.String("action", entry.Action),
			slog.String("entity_type", entry.EntityType),
			slog.Any("error", err),
		)
	}
}

// ListRecent retrieves the most recent activities across the system
func (s *ActivityService) ListRecent(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	limit, offset = clampPage(limit, offset)

	activities, err := s.repo.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return activities, nil
}

// ListByCase retrieves the audit trail of one case
func (s *ActivityService) ListByCase(ctx context.Context, caseID string, limit, offset int) ([]*models.Activity, error) {
	limit, offset = clampPage(limit, offset)

	activities, err := s.repo.ListByCase(ctx, caseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list case activities: %w", err)
	}

	return activities, nil
}

// ListByActor retrieves the audit trail of one user
func (s *ActivityService) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.Activity, error) {
	limit, offset = clampPage(limit, offset)

	activities, err := s.repo.ListByActor(ctx, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list actor activities: %w", err)
	}

	return activities, nil
}

// ListByAction retrieves activities of one action kind
func (s *ActivityService) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.Activity, error) {
	limit, offset = clampPage(limit, offset)

	activities, err := s.repo.ListByAction(ctx, action, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities by action: %w", err)
	}

	return activities, nil
}

// CountForActor returns the number of audit entries for a user
func (s *ActivityService) CountForActor(ctx context.Context, actorID string) (int64, error) {
	count, err := s.repo.CountByActor(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
