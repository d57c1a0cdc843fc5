package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mopc-digital/expedientes/internal/models"
	pkghttp "github.com/mopc-digital/expedientes/pkg/http"
)

// ActivityReader defines the read side of the audit trail
type ActivityReader interface {
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Activity, error)
	ListByCase(ctx context.Context, caseID string, limit, offset int) ([]*models.Activity, error)
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.Activity, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.Activity, error)
	CountForActor(ctx context.Context, actorID string) (int64, error)
}

// ActivityHandler exposes the audit trail read endpoints
type ActivityHandler struct {
	service ActivityReader
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(service ActivityReader) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List returns recent activity, optionally filtered by action
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var (
		activities []*models.Activity
		err        error
	)
	if action := r.URL.Query().Get("action"); action != "" {
		activities, err = h.service.ListByAction(r.Context(), action, limit, offset)
	} else {
		activities, err = h.service.ListRecent(r.Context(), limit, offset)
	}
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"activities": activities})
}

// ListByCase returns the audit trail of one case
func (h *ActivityHandler) ListByCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	limit, offset := parsePagination(r)

	activities, err := h.service.ListByCase(r.Context(), caseID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"activities": activities})
}

// ListByActor returns one user's activity with a total count
func (h *ActivityHandler) ListByActor(w http.ResponseWriter, r *http.Request) {
	actorID := chi.URLParam(r, "id")
	limit, offset := parsePagination(r)

	activities, err := h.service.ListByActor(r.Context(), actorID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	total, err := h.service.CountForActor(r.Context(), actorID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"activities": activities,
		"total":      total,
	})
}
