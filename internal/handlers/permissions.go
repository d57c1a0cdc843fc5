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

// PermissionServiceInterface defines the interface for permission business logic
type PermissionServiceInterface interface {
	List(ctx context.Context) ([]*models.Permission, error)
	ListForUser(ctx context.Context, userID string) (*services.UserPermissionsResponse, error)
	Assign(ctx context.Context, actorID, userID string, permissionIDs []string) (*services.UserPermissionsResponse, error)
}

// PermissionHandler handles permission HTTP requests
type PermissionHandler struct {
	service PermissionServiceInterface
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(service PermissionServiceInterface) *PermissionHandler {
	return &PermissionHandler{service: service}
}

// AssignPermissionsRequest represents the request body for grant replacement
type AssignPermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,uuid"`
}

// List returns the active permission catalog
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.List(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"permissions": perms})
}

// Mine returns the authenticated user's grants plus role and department
func (h *PermissionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.service.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListForUser returns one user's grants
func (h *PermissionHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.service.ListForUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Assign replaces a user's grant set
func (h *PermissionHandler) Assign(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req AssignPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Assign(r.Context(), claims.UserID, id, req.Permissions)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
