package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mopc-digital/expedientes/internal/auth"
	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/repositories"
	"github.com/mopc-digital/expedientes/internal/services"
	pkghttp "github.com/mopc-digital/expedientes/pkg/http"
)

// CaseServiceInterface defines the interface for case business logic
type CaseServiceInterface interface {
	Create(ctx context.Context, actorID string, input services.CreateCaseInput) (*models.Case, error)
	GetByID(ctx context.Context, id string) (*models.Case, error)
	GetByNumber(ctx context.Context, caseNumber string) (*models.Case, error)
	List(ctx context.Context, filter repositories.CaseFilter, limit, offset int) ([]*models.Case, error)
	Update(ctx context.Context, actorID, id string, input services.CreateCaseInput, appraisalValue *float64) (*models.Case, error)
	Transition(ctx context.Context, actorID, id string, input services.TransitionInput) (*models.Case, error)
	ListTransitions(ctx context.Context, caseID string) ([]*models.CaseTransition, error)
	Delete(ctx context.Context, actorID, id string) error
	Stats(ctx context.Context) (map[string]int64, error)
}

// CaseHandler handles expropriation case HTTP requests
type CaseHandler struct {
	service CaseServiceInterface
}

// NewCaseHandler creates a new CaseHandler
func NewCaseHandler(service CaseServiceInterface) *CaseHandler {
	return &CaseHandler{service: service}
}

// CaseRequest represents the request body for case create/update
type CaseRequest struct {
	OwnerName          string         `json:"owner_name" validate:"required,min=1,max=300"`
	OwnerCedula        string         `json:"owner_cedula" validate:"omitempty,min=11,max=13"`
	Address            string         `json:"address" validate:"required,min=1,max=500"`
	Municipality       string         `json:"municipality" validate:"max=150"`
	Province           string         `json:"province" validate:"max=100"`
	LandAreaM2         *float64       `json:"land_area_m2,omitempty" validate:"omitempty,gte=0"`
	ConstructionAreaM2 *float64       `json:"construction_area_m2,omitempty" validate:"omitempty,gte=0"`
	AppraisalValue     *float64       `json:"appraisal_value,omitempty" validate:"omitempty,gte=0"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// TransitionRequest represents the request body for workflow transitions
type TransitionRequest struct {
	ToState         string  `json:"to_state" validate:"required"`
	ToDepartmentID  *string `json:"to_department_id,omitempty" validate:"omitempty,uuid"`
	Comments        *string `json:"comments,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

// Create opens a new case
// @Summary Create case
// @Accept json
// @Security BearerAuth
// @Param request body CaseRequest true "Create case request"
// @Produce json
// @Success 201 {object} models.Case
// @Failure 400 {object} ErrorResponse
// @Router /cases [post]
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	c, err := h.service.Create(r.Context(), claims.UserID, services.CreateCaseInput{
		OwnerName:          req.OwnerName,
		OwnerCedula:        req.OwnerCedula,
		Address:            req.Address,
		Municipality:       req.Municipality,
		Province:           req.Province,
		LandAreaM2:         req.LandAreaM2,
		ConstructionAreaM2: req.ConstructionAreaM2,
		Metadata:           req.Metadata,
	})
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid case data")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}

// GetByID returns a single case
func (h *CaseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Case not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// GetByNumber returns a case by its public number
func (h *CaseHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	c, err := h.service.GetByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Case not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// List returns a filtered page of cases
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	q := r.URL.Query()
	filter := repositories.CaseFilter{}
	if v := q.Get("status"); v != "" {
		filter.Status = v
	}
	if v := q.Get("state"); v != "" {
		filter.State = v
	}
	if v := q.Get("department_id"); v != "" {
		filter.DepartmentID = v
	}
	if v := q.Get("province"); v != "" {
		filter.Province = v
	}

	cases, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"cases": cases})
}

// Update modifies case fields
func (h *CaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	c, err := h.service.Update(r.Context(), claims.UserID, id, services.CreateCaseInput{
		OwnerName:          req.OwnerName,
		OwnerCedula:        req.OwnerCedula,
		Address:            req.Address,
		Municipality:       req.Municipality,
		Province:           req.Province,
		LandAreaM2:         req.LandAreaM2,
		ConstructionAreaM2: req.ConstructionAreaM2,
		Metadata:           req.Metadata,
	}, req.AppraisalValue)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Case not found")
		case errors.Is(err, models.ErrCaseCompleted):
			pkghttp.WriteConflict(w, "Case is no longer active")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// Transition moves a case to a new workflow state
// @Summary Transition case
// @Accept json
// @Security BearerAuth
// @Param request body TransitionRequest true "Transition request"
// @Produce json
// @Success 200 {object} models.Case
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /cases/{id}/transition [post]
func (h *CaseHandler) Transition(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	c, err := h.service.Transition(r.Context(), claims.UserID, id, services.TransitionInput{
		ToState:         req.ToState,
		ToDepartmentID:  req.ToDepartmentID,
		Comments:        req.Comments,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Case not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid transition request")
		case errors.Is(err, models.ErrCaseCompleted),
			errors.Is(err, models.ErrInvalidTransition):
			pkghttp.WriteConflict(w, "Transition not allowed from the current state")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// ListTransitions returns the case's workflow history
func (h *CaseHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	transitions, err := h.service.ListTransitions(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Case not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"transitions": transitions})
}

// Delete soft-deletes a case
func (h *CaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Case not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats returns case counts by status
func (h *CaseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
