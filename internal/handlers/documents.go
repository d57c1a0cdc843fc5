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

// DocumentServiceInterface defines the interface for document business logic
type DocumentServiceInterface interface {
	Register(ctx context.Context, actorID string, input services.RegisterDocumentInput) (*models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.Document, error)
	Review(ctx context.Context, reviewerID, id string, approve bool, comment *string) (*models.Document, error)
	RecordDownload(ctx context.Context, actorID, id string) (*models.Document, error)
	Delete(ctx context.Context, actorID, id string) error
	ListTypes(ctx context.Context, activeOnly bool) ([]*models.DocumentType, error)
	CreateType(ctx context.Context, actorID, name, code string, required bool) (*models.DocumentType, error)
}

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	service DocumentServiceInterface
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentServiceInterface) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// RegisterDocumentRequest represents the request body for document registration
type RegisterDocumentRequest struct {
	TypeID      string `json:"type_id" validate:"required,uuid"`
	FileName    string `json:"file_name" validate:"required,min=1,max=255"`
	StorageKey  string `json:"storage_key" validate:"required,min=1,max=1024"`
	ContentType string `json:"content_type" validate:"required,max=255"`
	SizeBytes   int64  `json:"size_bytes" validate:"gte=0"`
	SHA256      string `json:"sha256" validate:"omitempty,len=64,hexadecimal"`
}

// ReviewDocumentRequest represents the request body for document review
type ReviewDocumentRequest struct {
	Approve bool    `json:"approve"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// DocumentTypeRequest represents the request body for creating a document type
type DocumentTypeRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Code     string `json:"code" validate:"required,min=2,max=10"`
	Required bool   `json:"required"`
}

// Register records an uploaded document against a case
func (h *DocumentHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	caseID := chi.URLParam(r, "id")

	var req RegisterDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	doc, err := h.service.Register(r.Context(), claims.UserID, services.RegisterDocumentInput{
		CaseID:      caseID,
		TypeID:      req.TypeID,
		FileName:    req.FileName,
		StorageKey:  req.StorageKey,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		SHA256:      req.SHA256,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Case not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid document data")
		case errors.Is(err, models.ErrCaseCompleted):
			pkghttp.WriteConflict(w, "Case is no longer active")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

// ListByCase returns the documents attached to a case
func (h *DocumentHandler) ListByCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")

	docs, err := h.service.ListByCase(r.Context(), caseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Case not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// GetByID returns a single document's metadata
func (h *DocumentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Document not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// Download records the download and returns the storage reference
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	doc, err := h.service.RecordDownload(r.Context(), claims.UserID, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Document not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"storage_key":  doc.StorageKey,
		"file_name":    doc.FileName,
		"content_type": doc.ContentType,
	})
}

// Review approves or rejects a pending document
func (h *DocumentHandler) Review(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	var req ReviewDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	doc, err := h.service.Review(r.Context(), claims.UserID, id, req.Approve, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Document not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Rejections require a comment")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Cannot review your own upload")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Document has already been reviewed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// Delete soft-deletes a document
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Document not found")
		} else {
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTypes returns the document type catalog
func (h *DocumentHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	types, err := h.service.ListTypes(r.Context(), activeOnly)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"document_types": types})
}

// CreateType adds a document type to the catalog
func (h *DocumentHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req DocumentTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	dt, err := h.service.CreateType(r.Context(), claims.UserID, req.Name, req.Code, req.Required)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A document type with this code already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid document type data")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dt)
}
