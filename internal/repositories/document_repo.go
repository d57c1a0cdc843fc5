package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mopc-digital/expedientes/internal/database"
	"github.com/mopc-digital/expedientes/internal/models"
)

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{pool: db.Pool}
}

const documentColumns = `id, case_id, type_id, file_name, storage_key, content_type, size_bytes, sha256,
	status, review_comment, reviewed_by, reviewed_at, uploaded_by, deleted, deleted_at, created_at, updated_at`

func scanDocumentRow(row rowScanner) (*models.Document, error) {
	var d models.Document

	err := row.Scan(
		&d.ID, &d.CaseID, &d.TypeID, &d.FileName, &d.StorageKey,
		&d.ContentType, &d.SizeBytes, &d.SHA256,
		&d.Status, &d.ReviewComment, &d.ReviewedBy, &d.ReviewedAt,
		&d.UploadedBy, &d.Deleted, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &d, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*models.Document, error) {
	defer rows.Close()

	docs := make([]*models.Document, 0)

	for rows.Next() {
		d, err := scanDocumentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND deleted = false`

	return scanDocumentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *DocumentRepository) ListByCase(ctx context.Context, caseID string) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE case_id = $1 AND deleted = false
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query case documents: %w", err)
	}

	return scanDocumentRows(rows)
}

func (r *DocumentRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	d.ID = uuid.New().String()

	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = models.DocumentStatusPending
	}

	query := `
		INSERT INTO documents (id, case_id, type_id, file_name, storage_key, content_type, size_bytes, sha256,
			status, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + documentColumns

	return scanDocumentRow(r.pool.QueryRow(ctx, query,
		d.ID, d.CaseID, d.TypeID, d.FileName, d.StorageKey,
		d.ContentType, d.SizeBytes, d.SHA256,
		d.Status, d.UploadedBy, d.CreatedAt, d.UpdatedAt,
	))
}

// SetReview records the outcome of a document review
func (r *DocumentRepository) SetReview(ctx context.Context, id, status string, comment *string, reviewerID string) (*models.Document, error) {
	now := time.Now()

	query := `
		UPDATE documents
		SET status = $1, review_comment = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $5
		WHERE id = $6 AND deleted = false
		RETURNING ` + documentColumns

	return scanDocumentRow(r.pool.QueryRow(ctx, query,
		status, comment, reviewerID, now, now, id,
	))
}

func (r *DocumentRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	query := `UPDATE documents SET deleted = true, deleted_at = $1, updated_at = $2 WHERE id = $3 AND deleted = false`

	tag, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// --- Document types ---

const documentTypeColumns = `id, name, code, required, active, created_at, updated_at`

func scanDocumentTypeRow(row rowScanner) (*models.DocumentType, error) {
	var dt models.DocumentType

	err := row.Scan(&dt.ID, &dt.Name, &dt.Code, &dt.Required, &dt.Active, &dt.CreatedAt, &dt.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &dt, nil
}

func (r *DocumentRepository) GetTypeByID(ctx context.Context, id string) (*models.DocumentType, error) {
	query := `SELECT ` + documentTypeColumns + ` FROM document_types WHERE id = $1`

	return scanDocumentTypeRow(r.pool.QueryRow(ctx, query, id))
}

func (r *DocumentRepository) ListTypes(ctx context.Context, activeOnly bool) ([]*models.DocumentType, error) {
	query := `SELECT ` + documentTypeColumns + ` FROM document_types`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query document types: %w", err)
	}
	defer rows.Close()

	types := make([]*models.DocumentType, 0)

	for rows.Next() {
		dt, err := scanDocumentTypeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document type: %w", err)
		}
		types = append(types, dt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document type rows: %w", err)
	}

	return types, nil
}

func (r *DocumentRepository) CreateType(ctx context.Context, dt *models.DocumentType) (*models.DocumentType, error) {
	dt.ID = uuid.New().String()

	now := time.Now()
	dt.CreatedAt = now
	dt.UpdatedAt = now

	query := `
		INSERT INTO document_types (id, name, code, required, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentTypeColumns

	return scanDocumentTypeRow(r.pool.QueryRow(ctx, query,
		dt.ID, dt.Name, dt.Code, dt.Required, dt.Active, dt.CreatedAt, dt.UpdatedAt,
	))
}
