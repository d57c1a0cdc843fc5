package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mopc-digital/expedientes/internal/models"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.Document, error)
	Create(ctx context.Context, d *models.Document) (*models.Document, error)
	SetReview(ctx context.Context, id, status string, comment *string, reviewerID string) (*models.Document, error)
	SoftDelete(ctx context.Context, id string) error
	GetTypeByID(ctx context.Context, id string) (*models.DocumentType, error)
	ListTypes(ctx context.Context, activeOnly bool) ([]*models.DocumentType, error)
	CreateType(ctx context.Context, dt *models.DocumentType) (*models.DocumentType, error)
}

// DocumentService handles document registration and review
type DocumentService struct {
	repo     DocumentRepository
	cases    CaseRepository
	activity ActivityRecorder
	logger   *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(repo DocumentRepository, cases CaseRepository, activity ActivityRecorder, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		repo:     repo,
		cases:    cases,
		activity: activity,
		logger:   logger,
	}
}

// RegisterDocumentInput carries the metadata of an uploaded file
type RegisterDocumentInput struct {
	CaseID      string
	TypeID      string
	FileName    string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	SHA256      string
}

// Register records an uploaded document against a case. The file itself has
// already been placed in external storage; only its metadata is kept here.
func (s *DocumentService) Register(ctx context.Context, actorID string, input RegisterDocumentInput) (*models.Document, error) {
	if strings.TrimSpace(input.FileName) == "" || strings.TrimSpace(input.StorageKey) == "" {
		return nil, models.ErrBadRequest
	}

	c, err := s.cases.GetByID(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CaseStatusActive {
		return nil, models.ErrCaseCompleted
	}

	docType, err := s.repo.GetTypeByID(ctx, input.TypeID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrBadRequest
		}
		return nil, fmt.Errorf("failed to verify document type: %w", err)
	}
	if !docType.Active {
		return nil, models.ErrBadRequest
	}

	doc := &models.Document{
		CaseID:      input.CaseID,
		TypeID:      input.TypeID,
		FileName:    strings.TrimSpace(input.FileName),
		StorageKey:  input.StorageKey,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		SHA256:      strings.ToLower(input.SHA256),
		Status:      models.DocumentStatusPending,
		UploadedBy:  actorID,
	}

	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	description := fmt.Sprintf("uploaded document %s (%s)", created.FileName, docType.Name)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionCreate,
		EntityType:  models.EntityTypeDocument,
		EntityID:    created.ID,
		Description: &description,
		CaseID:      &input.CaseID,
		Metadata: models.Metadata{
			"file_name":  created.FileName,
			"type_code":  docType.Code,
			"size_bytes": created.SizeBytes,
		},
	})

	s.logger.Info("document registered",
		slog.String("document_id", created.ID),
		slog.String("case_id", input.CaseID))

	return created, nil
}

// GetByID returns a single document
func (s *DocumentService) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByCase returns the documents attached to a case
func (s *DocumentService) ListByCase(ctx context.Context, caseID string) ([]*models.Document, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.repo.ListByCase(ctx, caseID)
}

// Review approves or rejects a pending document
func (s *DocumentService) Review(ctx context.Context, reviewerID, id string, approve bool, comment *string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status != models.DocumentStatusPending {
		return nil, models.ErrConflict
	}
	if doc.UploadedBy == reviewerID {
		return nil, models.ErrForbidden
	}

	status := models.DocumentStatusApproved
	action := models.ActionApprove
	if !approve {
		if comment == nil || strings.TrimSpace(*comment) == "" {
			return nil, models.ErrBadRequest
		}
		status = models.DocumentStatusRejected
		action = models.ActionReject
	}

	updated, err := s.repo.SetReview(ctx, id, status, comment, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to set document review: %w", err)
	}

	description := fmt.Sprintf("%s document %s", strings.ToLower(action), updated.FileName)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &reviewerID,
		Action:      action,
		EntityType:  models.EntityTypeDocument,
		EntityID:    updated.ID,
		Description: &description,
		CaseID:      &updated.CaseID,
		Metadata:    models.Metadata{"status": status},
	})

	s.logger.Info("document reviewed",
		slog.String("document_id", id),
		slog.String("status", status),
		slog.String("reviewer_id", reviewerID))

	return updated, nil
}

// RecordDownload writes an audit entry for a document download
func (s *DocumentService) RecordDownload(ctx context.Context, actorID, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("downloaded document %s", doc.FileName)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionDownload,
		EntityType:  models.EntityTypeDocument,
		EntityID:    doc.ID,
		Description: &description,
		CaseID:      &doc.CaseID,
	})

	return doc, nil
}

// Delete soft-deletes a document
func (s *DocumentService) Delete(ctx context.Context, actorID, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	description := fmt.Sprintf("deleted document %s", doc.FileName)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionDelete,
		EntityType:  models.EntityTypeDocument,
		EntityID:    id,
		Description: &description,
		CaseID:      &doc.CaseID,
	})

	return nil
}

// ListTypes returns the document type catalog
func (s *DocumentService) ListTypes(ctx context.Context, activeOnly bool) ([]*models.DocumentType, error) {
	return s.repo.ListTypes(ctx, activeOnly)
}

// CreateType adds a document type to the catalog
func (s *DocumentService) CreateType(ctx context.Context, actorID, name, code string, required bool) (*models.DocumentType, error) {
	name = strings.TrimSpace(name)
	code = strings.ToUpper(strings.TrimSpace(code))
	if name == "" || code == "" {
		return nil, models.ErrBadRequest
	}

	created, err := s.repo.CreateType(ctx, &models.DocumentType{
		Name:     name,
		Code:     code,
		Required: required,
		Active:   true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("failed to create document type: %w", err)
	}

	description := fmt.Sprintf("created document type %s", created.Code)
	s.activity.Record(ctx, ActivityEntry{
		ActorID:     &actorID,
		Action:      models.ActionCreate,
		EntityType:  models.EntityTypeDocument,
		EntityID:    created.ID,
		Description: &description,
	})

	return created, nil
}
