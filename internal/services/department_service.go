package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mopc-digital/expedientes/internal/models"
)

// DepartmentService handles department management
type DepartmentService struct {
	repo     DepartmentRepository
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewDepartmentService creates a new DepartmentService
func NewDepartmentService(repo DepartmentRepository, activity ActivityRecorder, logger *slog.Logger) *DepartmentService {
	return &DepartmentService{
		repo:     repo,
		activity: activity,
		logger:   logger,
	}
}

// DepartmentInput carries the fields for creating or updating a department
type DepartmentInput struct {
	Name               string
	Code               string
	Description        string
	WorkflowOrder      int
	ParallelProcessing bool
	ResponseTimeHours  int
}

// Create registers a new department
func (s *DepartmentService) Create(ctx context.Context, actorID string, input DepartmentInput) (*models.Department, error) {
	dept := &models.Department{
		Name:               strings.TrimSpace(input.Name),
		Code:               strings.ToUpper(strings.TrimSpace(input.Code)),
		Description:        strings.TrimSpace(input.Description),
		WorkflowOrder:      input.WorkflowOrder,
		ParallelProcessing: input.ParallelProcessing,
		ResponseTimeHours:  input.ResponseTimeHours,
		Active:             true,
	}

	if dept.Name == "" || dept.Code == "" {
		return nil, models.ErrBadRequest
	}

	created, err := s.repo.Create(ctx, dept)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	description := fmt.Sprintf("created department %s", created.Code)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionCreate,
		EntityType:  models.EntityTypeDepartment,
		EntityID:    created.ID,
		Description: &description,
	})

	s.logger.Info("department created", slog.String("department_id", created.ID), slog.String("code", created.Code))

	return created, nil
}

// GetByID returns a single department
func (s *DepartmentService) GetByID(ctx context.Context, id string) (*models.Department, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all departments, optionally restricted to active ones
func (s *DepartmentService) List(ctx context.Context, activeOnly bool) ([]*models.Department, error) {
	depts, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}

// Update modifies a department's fields
func (s *DepartmentService) Update(ctx context.Context, actorID, id string, input DepartmentInput, active *bool) (*models.Department, error) {
	dept, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		dept.Name = strings.TrimSpace(input.Name)
	}
	if input.Description != "" {
		dept.Description = strings.TrimSpace(input.Description)
	}
	if input.WorkflowOrder > 0 {
		dept.WorkflowOrder = input.WorkflowOrder
	}
	if input.ResponseTimeHours > 0 {
		dept.ResponseTimeHours = input.ResponseTimeHours
	}
	dept.ParallelProcessing = input.ParallelProcessing
	if active != nil {
		dept.Active = *active
	}

	updated, err := s.repo.Update(ctx, id, dept)
	if err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}

	description := fmt.Sprintf("updated department %s", updated.Code)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeDepartment,
		EntityID:    updated.ID,
		Description: &description,
	})

	return updated, nil
}
