package services

import (
	"context"
	"testing"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingDocument(id, caseID, uploadedBy string) *models.Document {
	return &models.Document{
		ID:         id,
		CaseID:     caseID,
		TypeID:     "type_1",
		FileName:   "titulo.pdf",
		StorageKey: "cases/" + caseID + "/" + id,
		Status:     models.DocumentStatusPending,
		UploadedBy: uploadedBy,
	}
}

func TestDocumentService_Register_Success(t *testing.T) {
	cases := &MockCaseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Case, error) {
			return NewTestCase("case_1", "EXP-2026-00042"), nil
		},
	}
	repo := &MockDocumentRepository{
		GetTypeByIDFunc: func(ctx context.Context, id string) (*models.DocumentType, error) {
			return &models.DocumentType{ID: id, Name: "Título de propiedad", Code: "TIT", Active: true}, nil
		},
		CreateFunc: func(ctx context.Context, d *models.Document) (*models.Document, error) {
			d.ID = "doc_1"
			return d, nil
		},
	}
	recorder := &MockActivityRecorder{}
	svc := NewDocumentService(repo, cases, recorder, testLogger())

	doc, err := svc.Register(context.Background(), "user_1", RegisterDocumentInput{
		CaseID:      "case_1",
		TypeID:      "type_1",
		FileName:    "titulo.pdf",
		StorageKey:  "cases/case_1/doc_1",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})

	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusPending, doc.Status)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
	require.NotNil(t, entries[0].CaseID)
	assert.Equal(t, "case_1", *entries[0].CaseID)
}

func TestDocumentService_Register_CompletedCase(t *testing.T) {
	cases := &MockCaseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Case, error) {
			c := NewTestCase("case_1", "EXP-2026-00042")
			c.Status = models.CaseStatusCompleted
			return c, nil
		},
	}
	svc := NewDocumentService(&MockDocumentRepository{}, cases, &MockActivityRecorder{}, testLogger())

	_, err := svc.Register(context.Background(), "user_1", RegisterDocumentInput{
		CaseID:     "case_1",
		TypeID:     "type_1",
		FileName:   "titulo.pdf",
		StorageKey: "cases/case_1/doc_1",
	})

	assert.ErrorIs(t, err, models.ErrCaseCompleted)
}

func TestDocumentService_Review_Approve(t *testing.T) {
	repo := &MockDocumentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Document, error) {
			return pendingDocument("doc_1", "case_1", "user_1"), nil
		},
		SetReviewFunc: func(ctx context.Context, id, status string, comment *string, reviewerID string) (*models.Document, error) {
			d := pendingDocument(id, "case_1", "user_1")
			d.Status = status
			d.ReviewedBy = &reviewerID
			return d, nil
		},
	}
	recorder := &MockActivityRecorder{}
	svc := NewDocumentService(repo, &MockCaseRepository{}, recorder, testLogger())

	doc, err := svc.Review(context.Background(), "user_2", "doc_1", true, nil)

	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusApproved, doc.Status)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionApprove, entries[0].Action)
}

func TestDocumentService_Review_RejectRequiresComment(t *testing.T) {
	repo := &MockDocumentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Document, error) {
			return pendingDocument("doc_1", "case_1", "user_1"), nil
		},
	}
	svc := NewDocumentService(repo, &MockCaseRepository{}, &MockActivityRecorder{}, testLogger())

	_, err := svc.Review(context.Background(), "user_2", "doc_1", false, nil)

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestDocumentService_Review_SelfReviewBlocked(t *testing.T) {
	repo := &MockDocumentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Document, error) {
			return pendingDocument("doc_1", "case_1", "user_1"), nil
		},
	}
	svc := NewDocumentService(repo, &MockCaseRepository{}, &MockActivityRecorder{}, testLogger())

	_, err := svc.Review(context.Background(), "user_1", "doc_1", true, nil)

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestDocumentService_Review_AlreadyReviewed(t *testing.T) {
	repo := &MockDocumentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Document, error) {
			d := pendingDocument("doc_1", "case_1", "user_1")
			d.Status = models.DocumentStatusApproved
			return d, nil
		},
	}
	svc := NewDocumentService(repo, &MockCaseRepository{}, &MockActivityRecorder{}, testLogger())

	_, err := svc.Review(context.Background(), "user_2", "doc_1", true, nil)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestDocumentService_RecordDownload(t *testing.T) {
	repo := &MockDocumentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Document, error) {
			return pendingDocument("doc_1", "case_1", "user_1"), nil
		},
	}
	recorder := &MockActivityRecorder{}
	svc := NewDocumentService(repo, &MockCaseRepository{}, recorder, testLogger())

	doc, err := svc.RecordDownload(context.Background(), "user_2", "doc_1")

	require.NoError(t, err)
	assert.Equal(t, "cases/case_1/doc_1", doc.StorageKey)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionDownload, entries[0].Action)
}
