package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mopc-digital/expedientes/internal/auth"
	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/repositories"
	"github.com/mopc-digital/expedientes/internal/services"
	pkghttp "github.com/mopc-digital/expedientes/pkg/http"
)

// TaskServiceInterface defines the interface for task business logic
type TaskServiceInterface interface {
	Create(ctx context.Context, actorID string, input services.CreateTaskInput) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.Task, error)
	ListMine(ctx context.Context, userID, status string) ([]*models.Task, error)
	ListByDepartment(ctx context.Context, departmentID string, filter repositories.TaskFilter) ([]*models.Task, error)
	Assign(ctx context.Context, actorID, taskID, userID string) (*models.Task, error)
	Complete(ctx context.Context, actorID, taskID, result string) (*models.Task, error)
	AddDependency(ctx context.Context, actorID, taskID, dependsOn string) error
	Dependencies(ctx context.Context, taskID string) (*services.TaskDependencies, error)
}

// TaskHandler handles task HTTP requests
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskRequest represents the request body for task creation
type CreateTaskRequest struct {
	CaseID       string     `json:"case_id" validate:"required,uuid"`
	DepartmentID string     `json:"department_id" validate:"required,uuid"`
	AssignedTo   *string    `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
	Title        string     `json:"title" validate:"required,min=1,max=255"`
	Description  string     `json:"description" validate:"max=5000"`
	Type         string     `json:"type" validate:"required,oneof=review approval coordination verification notification documentation"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// AssignTaskRequest represents the request body for task assignment
type AssignTaskRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// CompleteTaskRequest represents the request body for task completion
type CompleteTaskRequest struct {
	Result string `json:"result" validate:"max=5000"`
}

// AddDependencyRequest represents the request body for linking tasks
type AddDependencyRequest struct {
	DependsOn string `json:"depends_on" validate:"required,uuid"`
}

// Create opens a new task on a case
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	task, err := h.service.Create(r.Context(), claims.UserID, services.CreateTaskInput{
		CaseID:       req.CaseID,
		DepartmentID: req.DepartmentID,
		AssignedTo:   req.AssignedTo,
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrCaseCompleted):
			pkghttp.WriteConflict(w, "Case is no longer active")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid task data")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

// GetByID returns a single task
func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Task not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// ListByCase returns every task of a case
func (h *TaskHandler) ListByCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")

	tasks, err := h.service.ListByCase(r.Context(), caseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Case not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tasks": tasks})
}

// MyTasks returns the authenticated user's open tasks
func (h *TaskHandler) MyTasks(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	tasks, err := h.service.ListMine(r.Context(), claims.UserID, r.URL.Query().Get("status"))
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tasks": tasks})
}

// DepartmentTasks returns the tasks of one department
func (h *TaskHandler) DepartmentTasks(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "id")

	filter := repositories.TaskFilter{
		Status:     r.URL.Query().Get("status"),
		AssignedTo: r.URL.Query().Get("assigned_to"),
	}

	tasks, err := h.service.ListByDepartment(r.Context(), departmentID, filter)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tasks": tasks})
}

// Assign hands a task to a user in its department
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	task, err := h.service.Assign(r.Context(), claims.UserID, id, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Task not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "User must be active and belong to the task's department")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// Complete closes a task
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req CompleteTaskRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
	}

	task, err := h.service.Complete(r.Context(), claims.UserID, id, req.Result)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Task not found")
		case errors.Is(err, models.ErrTaskBlocked):
			pkghttp.WriteConflict(w, "Task has incomplete dependencies")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Task is not open")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// AddDependency makes a task wait on another task of the same case
func (h *TaskHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req AddDependencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.AddDependency(r.Context(), claims.UserID, id, req.DependsOn); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Task not found")
		case errors.Is(err, models.ErrCircularDependency):
			pkghttp.WriteConflict(w, "Dependency would create a cycle")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Tasks must belong to the same case")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Dependencies returns a task's prerequisites and dependents
func (h *TaskHandler) Dependencies(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deps, err := h.service.Dependencies(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Task not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deps)
}
