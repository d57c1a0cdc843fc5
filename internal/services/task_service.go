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

// TaskRepository defines the interface for task persistence
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	UpdateAssignee(ctx context.Context, id string, assignedTo *string) (*models.Task, error)
	UpdateStatus(ctx context.Context, id, status string, completedAt *time.Time, result string) (*models.Task, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.Task, error)
	ListByAssignee(ctx context.Context, userID, status string) ([]*models.Task, error)
	ListByDepartment(ctx context.Context, departmentID string, filter repositories.TaskFilter) ([]*models.Task, error)
	AddDependency(ctx context.Context, taskID, dependsOn string) error
	ListDependencies(ctx context.Context, taskID string) ([]*models.Task, error)
	ListDependents(ctx context.Context, taskID string) ([]*models.Task, error)
	CountOpenDependencies(ctx context.Context, taskID string) (int64, error)
}

// TaskService manages departmental work items on cases. Dependencies between
// tasks gate completion so departments can process a case in parallel without
// finishing out of order.
type TaskService struct {
	repo          TaskRepository
	cases         CaseRepository
	users         UserRepository
	depts         DepartmentRepository
	activity      ActivityRecorder
	notifications *NotificationService
	logger        *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(repo TaskRepository, cases CaseRepository, users UserRepository, depts DepartmentRepository, activity ActivityRecorder, notifications *NotificationService, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:          repo,
		cases:         cases,
		users:         users,
		depts:         depts,
		activity:      activity,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateTaskInput carries the fields for opening a task on a case
type CreateTaskInput struct {
	CaseID       string
	DepartmentID string
	AssignedTo   *string
	Title        string
	Description  string
	Type         string
	Priority     string
	DueDate      *time.Time
}

// TaskDependencies groups a task's prerequisites and the tasks waiting on it
type TaskDependencies struct {
	Dependencies []*models.Task `json:"dependencies"`
	Dependents   []*models.Task `json:"dependents"`
}

// Create opens a task on an active case. An assignee given at creation is
// validated and notified the same way Assign does it.
func (s *TaskService) Create(ctx context.Context, actorID string, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, models.ErrBadRequest
	}
	if !models.IsValidTaskType(input.Type) {
		return nil, models.ErrBadRequest
	}
	if input.Priority != "" && !models.IsValidTaskPriority(input.Priority) {
		return nil, models.ErrBadRequest
	}

	c, err := s.cases.GetByID(ctx, input.CaseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrBadRequest
		}
		return nil, fmt.Errorf("failed to verify case: %w", err)
	}
	if c.Status != models.CaseStatusActive {
		return nil, models.ErrCaseCompleted
	}

	dept, err := s.depts.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrBadRequest
		}
		return nil, fmt.Errorf("failed to verify department: %w", err)
	}
	if !dept.Active {
		return nil, models.ErrBadRequest
	}

	if input.AssignedTo != nil {
		if err := s.verifyAssignee(ctx, *input.AssignedTo, input.DepartmentID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		CaseID:       input.CaseID,
		DepartmentID: input.DepartmentID,
		AssignedTo:   input.AssignedTo,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Type:         input.Type,
		Priority:     input.Priority,
		DueDate:      input.DueDate,
		CreatedBy:    actorID,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	description := fmt.Sprintf("opened task %q on case %s", created.Title, c.CaseNumber)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionCreate,
		EntityType:  models.EntityTypeTask,
		EntityID:    created.ID,
		Description: &description,
		CaseID:      &created.CaseID,
		Metadata:    models.Metadata{"task_type": created.Type, "priority": created.Priority},
	})

	if created.AssignedTo != nil {
		s.notifyAssignment(ctx, created, c.CaseNumber)
	}

	s.logger.Info("task created",
		slog.String("task_id", created.ID),
		slog.String("case_id", created.CaseID))

	return created, nil
}

// GetByID returns a single task
func (s *TaskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByCase returns every task of a case
func (s *TaskService) ListByCase(ctx context.Context, caseID string) ([]*models.Task, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.repo.ListByCase(ctx, caseID)
}

// ListMine returns the caller's open tasks, optionally narrowed to one status
func (s *TaskService) ListMine(ctx context.Context, userID, status string) ([]*models.Task, error) {
	return s.repo.ListByAssignee(ctx, userID, status)
}

// ListByDepartment returns a department's tasks matching the filter
func (s *TaskService) ListByDepartment(ctx context.Context, departmentID string, filter repositories.TaskFilter) ([]*models.Task, error) {
	return s.repo.ListByDepartment(ctx, departmentID, filter)
}

// Assign hands the task to a user in its department and notifies them
func (s *TaskService) Assign(ctx context.Context, actorID, taskID, userID string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOpen() {
		return nil, models.ErrBadRequest
	}

	if err := s.verifyAssignee(ctx, userID, task.DepartmentID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAssignee(ctx, taskID, &userID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}

	description := fmt.Sprintf("assigned task %q", updated.Title)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeTask,
		EntityID:    updated.ID,
		Description: &description,
		CaseID:      &updated.CaseID,
		Metadata:    models.Metadata{"assigned_to": userID},
	})

	caseNumber := updated.CaseID
	if c, err := s.cases.GetByID(ctx, updated.CaseID); err == nil {
		caseNumber = c.CaseNumber
	}
	s.notifyAssignment(ctx, updated, caseNumber)

	return updated, nil
}

// Complete closes the task. A task with open prerequisites cannot complete;
// completing a task releases dependents whose last prerequisite this was.
func (s *TaskService) Complete(ctx context.Context, actorID, taskID, result string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOpen() {
		return nil, models.ErrBadRequest
	}

	open, err := s.repo.CountOpenDependencies(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to check dependencies: %w", err)
	}
	if open > 0 {
		return nil, models.ErrTaskBlocked
	}

	now := time.Now().UTC()
	if result == "" {
		result = "Tarea completada"
	}
	updated, err := s.repo.UpdateStatus(ctx, taskID, models.TaskStatusCompleted, &now, result)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	description := fmt.Sprintf("completed task %q", updated.Title)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeTask,
		EntityID:    updated.ID,
		Description: &description,
		CaseID:      &updated.CaseID,
		Metadata:    models.Metadata{"status": models.TaskStatusCompleted},
	})

	s.releaseDependents(ctx, taskID)

	s.logger.Info("task completed",
		slog.String("task_id", taskID),
		slog.String("actor_id", actorID))

	return updated, nil
}

// AddDependency makes task wait on another task of the same case
func (s *TaskService) AddDependency(ctx context.Context, actorID, taskID, dependsOn string) error {
	if taskID == dependsOn {
		return models.ErrCircularDependency
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	prerequisite, err := s.repo.GetByID(ctx, dependsOn)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrBadRequest
		}
		return err
	}

	if task.CaseID != prerequisite.CaseID {
		return models.ErrBadRequest
	}

	cyclic, err := s.reaches(ctx, dependsOn, taskID)
	if err != nil {
		return fmt.Errorf("failed to check for dependency cycle: %w", err)
	}
	if cyclic {
		return models.ErrCircularDependency
	}

	if err := s.repo.AddDependency(ctx, taskID, dependsOn); err != nil {
		return fmt.Errorf("failed to add dependency: %w", err)
	}

	// A pending task with a live prerequisite is blocked until it completes
	if task.Status == models.TaskStatusPending && prerequisite.IsOpen() {
		if _, err := s.repo.UpdateStatus(ctx, taskID, models.TaskStatusBlocked, nil, task.Result); err != nil {
			s.logger.Error("failed to block dependent task",
				slog.String("task_id", taskID),
				slog.Any("error", err))
		}
	}

	description := fmt.Sprintf("made task %q depend on %q", task.Title, prerequisite.Title)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionUpdate,
		EntityType:  models.EntityTypeTask,
		EntityID:    taskID,
		Description: &description,
		CaseID:      &task.CaseID,
	})

	return nil
}

// Dependencies returns a task's prerequisites and the tasks waiting on it
func (s *TaskService) Dependencies(ctx context.Context, taskID string) (*TaskDependencies, error) {
	if _, err := s.repo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}

	deps, err := s.repo.ListDependencies(ctx, taskID)
	if err != nil {
		return nil, err
	}
	dependents, err := s.repo.ListDependents(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return &TaskDependencies{Dependencies: deps, Dependents: dependents}, nil
}

// verifyAssignee checks the user exists, is active, and works in departmentID
func (s *TaskService) verifyAssignee(ctx context.Context, userID, departmentID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrBadRequest
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	if !user.Active {
		return models.ErrBadRequest
	}
	if user.DepartmentID == nil || *user.DepartmentID != departmentID {
		return models.ErrBadRequest
	}
	return nil
}

// releaseDependents flips blocked dependents whose prerequisites are all done
// back to pending. Failures are logged; the completion itself already stands.
func (s *TaskService) releaseDependents(ctx context.Context, taskID string) {
	dependents, err := s.repo.ListDependents(ctx, taskID)
	if err != nil {
		s.logger.Error("failed to list dependent tasks", slog.Any("error", err))
		return
	}

	for _, dep := range dependents {
		if dep.Status != models.TaskStatusBlocked {
			continue
		}
		open, err := s.repo.CountOpenDependencies(ctx, dep.ID)
		if err != nil {
			s.logger.Error("failed to check dependent task",
				slog.String("task_id", dep.ID),
				slog.Any("error", err))
			continue
		}
		if open > 0 {
			continue
		}
		if _, err := s.repo.UpdateStatus(ctx, dep.ID, models.TaskStatusPending, nil, dep.Result); err != nil {
			s.logger.Error("failed to release dependent task",
				slog.String("task_id", dep.ID),
				slog.Any("error", err))
			continue
		}
		if dep.AssignedTo != nil {
			s.notifications.Notify(ctx, *dep.AssignedTo, &dep.CaseID,
				models.NotificationWorkflowUpdate,
				"Tarea desbloqueada",
				fmt.Sprintf("La tarea %q ya no tiene dependencias pendientes.", dep.Title))
		}
	}
}

func (s *TaskService) notifyAssignment(ctx context.Context, task *models.Task, caseNumber string) {
	if task.AssignedTo == nil {
		return
	}
	s.notifications.Notify(ctx, *task.AssignedTo, &task.CaseID,
		models.NotificationTaskAssigned,
		"Nueva tarea asignada",
		fmt.Sprintf("Se le ha asignado la tarea %q para el expediente %s.", task.Title, caseNumber))
}

// reaches reports whether walking dependency edges from start ever arrives at
// target, guarding AddDependency against cycles
func (s *TaskService) reaches(ctx context.Context, start, target string) (bool, error) {
	visited := map[string]bool{start: true}
	frontier := []string{start}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		deps, err := s.repo.ListDependencies(ctx, current)
		if err != nil {
			return false, err
		}
		for _, dep := range deps {
			if dep.ID == target {
				return true, nil
			}
			if !visited[dep.ID] {
				visited[dep.ID] = true
				frontier = append(frontier, dep.ID)
			}
		}
	}

	return false, nil
}
