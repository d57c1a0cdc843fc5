package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/repositories"
)

// CaseRepository defines the interface for case persistence
type CaseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Case, error)
	GetByNumber(ctx context.Context, caseNumber string) (*models.Case, error)
	List(ctx context.Context, filter repositories.CaseFilter, limit, offset int) ([]*models.Case, error)
	Create(ctx context.Context, c *models.Case) (*models.Case, error)
	Update(ctx context.Context, id string, c *models.Case) (*models.Case, error)
	UpdateState(ctx context.Context, id, state, status string, departmentID *string, completedAt *time.Time) (*models.Case, error)
	SoftDelete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	CreateTransition(ctx context.Context, t *models.CaseTransition) (*models.CaseTransition, error)
	ListTransitions(ctx context.Context, caseID string) ([]*models.CaseTransition, error)
}

// CaseService handles expropriation case business logic
type CaseService struct {
	repo          CaseRepository
	depts         DepartmentRepository
	activity      ActivityRecorder
	notifications *NotificationService
	logger        *slog.Logger
}

// NewCaseService creates a new CaseService
func NewCaseService(repo CaseRepository, depts DepartmentRepository, activity ActivityRecorder, notifications *NotificationService, logger *slog.Logger) *CaseService {
	return &CaseService{
		repo:          repo,
		depts:         depts,
		activity:      activity,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateCaseInput carries the fields for opening a new case
type CreateCaseInput struct {
	OwnerName          string
	OwnerCedula        string
	Address            string
	Municipality       string
	Province           string
	LandAreaM2         *float64
	ConstructionAreaM2 *float64
	Metadata           models.Metadata
}

// TransitionInput carries the fields for moving a case between states
type TransitionInput struct {
	ToState         string
	ToDepartmentID  *string
	Comments        *string
	RejectionReason *string
}

// Create opens a new case in the intake state. The case number is issued by
// the repository from a database sequence so concurrent creates never collide.
func (s *CaseService) Create(ctx context.Context, actorID string, input CreateCaseInput) (*models.Case, error) {
	if strings.TrimSpace(input.OwnerName) == "" || strings.TrimSpace(input.Address) == "" {
		return nil, models.ErrBadRequest
	}

	c := &models.Case{
		Status:             models.CaseStatusActive,
		State:              models.StateIntake,
		OwnerName:          strings.TrimSpace(input.OwnerName),
		OwnerCedula:        strings.TrimSpace(input.OwnerCedula),
		Address:            strings.TrimSpace(input.Address),
		Municipality:       strings.TrimSpace(input.Municipality),
		Province:           strings.TrimSpace(input.Province),
		LandAreaM2:         input.LandAreaM2,
		ConstructionAreaM2: input.ConstructionAreaM2,
		CreatedBy:          actorID,
		Metadata:           models.NormalizeMetadata(input.Metadata),
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	description := fmt.Sprintf("opened case %s", created.CaseNumber)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionCreate,
		EntityType:  models.EntityTypeCase,
		EntityID:    created.ID,
		Description: &description,
		CaseID:      &created.ID,
		Metadata:    models.Metadata{"case_number": created.CaseNumber, "province": created.Province},
	})

	s.logger.Info("case created",
		slog.String("case_id", created.ID),
		slog.String("case_number", created.CaseNumber))

	return created, nil
}

// GetByID returns a single case
func (s *CaseService) GetByID(ctx context.Context, id string) (*models.Case, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByNumber returns a case by its public case number
func (s *CaseService) GetByNumber(ctx context.Context, caseNumber string) (*models.Case, error) {
	return s.repo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(caseNumber)))
}

// List returns a filtered page of cases
func (s *CaseService) List(ctx context.Context, filter repositories.CaseFilter, limit, offset int) ([]*models.Case, error) {
	limit, offset = clampPage(limit, offset)

	cases, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// Update modifies a case's property and appraisal fields
func (s *CaseService) Update(ctx context.Context, actorID, id string, input CreateCaseInput, appraisalValue *float64) (*models.Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status != models.CaseStatusActive {
		return nil, models.ErrCaseCompleted
	}

	if input.OwnerName != "" {
		c.OwnerName = strings.TrimSpace(input.OwnerName)
	}
	if input.OwnerCedula != "" {
		c.OwnerCedula = strings.TrimSpace(input.OwnerCedula)
	}
	if input.Address != "" {
		c.Address = strings.TrimSpace(input.Address)
	}
	if input.Municipality != "" {
		c.Municipality = strings.TrimSpace(input.Municipality)
	}
	if input.Province != "" {
		c.Province = strings.TrimSpace(input.Province)
	}
	if input.LandAreaM2 != nil {
		c.LandAreaM2 = input.LandAreaM2
	}
	if input.ConstructionAreaM2 != nil {
		c.ConstructionAreaM2 = input.ConstructionAreaM2
	}
	if appraisalValue != nil {
		c.AppraisalValue = appraisalValue
	}
	if input.Metadata != nil {
		c.Metadata = models.NormalizeMetadata(input.Metadata)
	}

	updated, err := s.repo.Update(ctx, id, c)
	if err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}

	description := fmt.Sprintf("updated case %s", updated.CaseNumber)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeCase,
		EntityID:    updated.ID,
		Description: &description,
		CaseID:      &updated.ID,
	})

	return updated, nil
}

// Transition moves a case to a new workflow state, records the transition,
// and notifies the receiving department.
func (s *CaseService) Transition(ctx context.Context, actorID, id string, input TransitionInput) (*models.Case, error) {
	if !models.IsValidState(input.ToState) {
		return nil, models.ErrBadRequest
	}
	if input.ToState == models.StateRejected && (input.RejectionReason == nil || strings.TrimSpace(*input.RejectionReason) == "") {
		return nil, models.ErrBadRequest
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status != models.CaseStatusActive {
		return nil, models.ErrCaseCompleted
	}
	if models.IsTerminalState(c.State) {
		return nil, models.ErrInvalidTransition
	}
	if input.ToState == c.State {
		return nil, models.ErrInvalidTransition
	}

	if input.ToDepartmentID != nil {
		dept, err := s.depts.GetByID(ctx, *input.ToDepartmentID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrBadRequest
			}
			return nil, fmt.Errorf("failed to verify department: %w", err)
		}
		if !dept.Active {
			return nil, models.ErrBadRequest
		}
	}

	status := models.CaseStatusActive
	var completedAt *time.Time
	if models.IsTerminalState(input.ToState) {
		now := time.Now().UTC()
		completedAt = &now
		if input.ToState == models.StateClosed {
			status = models.CaseStatusCompleted
		} else {
			status = models.CaseStatusCancelled
		}
	}

	updated, err := s.repo.UpdateState(ctx, id, input.ToState, status, input.ToDepartmentID, completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update case state: %w", err)
	}

	transition := &models.CaseTransition{
		CaseID:           id,
		FromState:        c.State,
		ToState:          input.ToState,
		FromDepartmentID: c.DepartmentID,
		ToDepartmentID:   input.ToDepartmentID,
		UserID:           actorID,
		Comments:         input.Comments,
		RejectionReason:  input.RejectionReason,
	}
	if _, err := s.repo.CreateTransition(ctx, transition); err != nil {
		// The state change itself succeeded; log and keep going.
		s.logger.Error("failed to record case transition",
			slog.String("case_id", id),
			slog.Any("error", err))
	}

	description := fmt.Sprintf("moved case %s from %s to %s", updated.CaseNumber, c.State, input.ToState)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeCase,
		EntityID:    updated.ID,
		Description: &description,
		CaseID:      &updated.ID,
		Metadata: models.Metadata{
			"from_state": c.State,
			"to_state":   input.ToState,
		},
	})

	if input.ToDepartmentID != nil {
		s.notifications.NotifyDepartment(ctx, *input.ToDepartmentID, &updated.ID,
			models.NotificationWorkflowUpdate,
			fmt.Sprintf("Expediente %s asignado", updated.CaseNumber),
			fmt.Sprintf("El expediente %s pasó al estado %s y requiere la atención de su departamento.", updated.CaseNumber, input.ToState))
	}

	s.logger.Info("case transitioned",
		slog.String("case_id", id),
		slog.String("from_state", c.State),
		slog.String("to_state", input.ToState))

	return updated, nil
}

// ListTransitions returns the full transition history of a case
func (s *CaseService) ListTransitions(ctx context.Context, caseID string) ([]*models.CaseTransition, error) {
	if _, err := s.repo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.repo.ListTransitions(ctx, caseID)
}

// Delete soft-deletes a case
func (s *CaseService) Delete(ctx context.Context, actorID, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	description := fmt.Sprintf("deleted case %s", c.CaseNumber)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionDelete,
		EntityType:  models.EntityTypeCase,
		EntityID:    id,
		Description: &description,
		CaseID:      &id,
	})

	s.logger.Info("case deleted", slog.String("case_id", id), slog.String("actor_id", actorID))

	return nil
}

// Stats returns case counts by status
func (s *CaseService) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, 3)
	for _, status := range []string{models.CaseStatusActive, models.CaseStatusCompleted, models.CaseStatusCancelled} {
		count, err := s.repo.CountByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to count cases: %w", err)
		}
		stats[status] = count
	}
	return stats, nil
}
