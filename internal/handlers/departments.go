package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mopc-digital/expedientes/internal/auth"
	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/services"
	pkghttp "github.com/mopc-digital/expedientes/pkg/http"
)

// DepartmentServiceInterface defines the interface for department business logic
type DepartmentServiceInterface interface {
	Create(ctx context.Context, actorID string, input services.DepartmentInput) (*models.Department, error)
	GetByID(ctx context.Context, id string) (*models.Department, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Department, error)
	Update(ctx context.Context, actorID, id string, input services.DepartmentInput, active *bool) (*models.Department, error)
}

// DepartmentHandler handles department HTTP requests
type DepartmentHandler struct {
	service DepartmentServiceInterface
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(service DepartmentServiceInterface) *DepartmentHandler {
	return &DepartmentHandler{service: service}
}

// DepartmentRequest represents the request body for department create/update
type DepartmentRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=200"`
	Code               string `json:"code" validate:"required,min=2,max=10"`
	Description        string `json:"description" validate:"max=1000"`
	WorkflowOrder      int    `json:"workflow_order" validate:"gte=0"`
	ParallelProcessing bool   `json:"parallel_processing"`
	ResponseTimeHours  int    `json:"response_time_hours" validate:"gte=0"`
	Active             *bool  `json:"active,omitempty"`
}

// Create handles department creation
func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	dept, err := h.service.Create(r.Context(), claims.UserID, services.DepartmentInput{
		Name:               req.Name,
		Code:               req.Code,
		Description:        req.Description,
		WorkflowOrder:      req.WorkflowOrder,
		ParallelProcessing: req.ParallelProcessing,
		ResponseTimeHours:  req.ResponseTimeHours,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A department with this code already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid department data")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dept)
}

// GetByID returns a single department
func (h *DepartmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dept, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Department not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dept)
}

// List returns all departments
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	depts, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"departments": depts})
}

// Update handles department updates
func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	dept, err := h.service.Update(r.Context(), claims.UserID, id, services.DepartmentInput{
		Name:               req.Name,
		Description:        req.Description,
		WorkflowOrder:      req.WorkflowOrder,
		ParallelProcessing: req.ParallelProcessing,
		ResponseTimeHours:  req.ResponseTimeHours,
	}, req.Active)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Department not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dept)
}
