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

type CaseRepository struct {
	pool *pgxpool.Pool
}

func NewCaseRepository(db *database.DB) *CaseRepository {
	return &CaseRepository{pool: db.Pool}
}

const caseColumns = `id, case_number, status, state, department_id, owner_name, owner_cedula,
	address, municipality, province, land_area_m2, construction_area_m2, appraisal_value,
	created_by, metadata, started_at, completed_at, deleted, deleted_at, created_at, updated_at`

// CaseFilter narrows List results; zero values mean "no filter"
type CaseFilter struct {
	Status       string
	State        string
	DepartmentID string
	Province     string
}

func scanCaseRow(row rowScanner) (*models.Case, error) {
	var c models.Case

	err := row.Scan(
		&c.ID, &c.CaseNumber, &c.Status, &c.State, &c.DepartmentID,
		&c.OwnerName, &c.OwnerCedula,
		&c.Address, &c.Municipality, &c.Province,
		&c.LandAreaM2, &c.ConstructionAreaM2, &c.AppraisalValue,
		&c.CreatedBy, &c.Metadata, &c.StartedAt, &c.CompletedAt,
		&c.Deleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

func scanCaseRows(rows pgx.Rows) ([]*models.Case, error) {
	defer rows.Close()

	cases := make([]*models.Case, 0)

	for rows.Next() {
		c, err := scanCaseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating case rows: %w", err)
	}

	return cases, nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1 AND deleted = false`

	return scanCaseRow(r.pool.QueryRow(ctx, query, id))
}

func (r *CaseRepository) GetByNumber(ctx context.Context, caseNumber string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE case_number = $1 AND deleted = false`

	return scanCaseRow(r.pool.QueryRow(ctx, query, caseNumber))
}

// List retrieves non-deleted cases matching the filter, newest first
func (r *CaseRepository) List(ctx context.Context, filter CaseFilter, limit, offset int) ([]*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE deleted = false`
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		query += fmt.Sprintf(" AND department_id = $%d", len(args))
	}
	if filter.Province != "" {
		args = append(args, filter.Province)
		query += fmt.Sprintf(" AND province = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}

	return scanCaseRows(rows)
}

// Create inserts a new case, issuing its number from the case_number_seq
// sequence as EXP-<year>-<zero-padded counter>
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) (*models.Case, error) {
	c.ID = uuid.New().String()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.StartedAt.IsZero() {
		c.StartedAt = now
	}
	if c.Status == "" {
		c.Status = models.CaseStatusActive
	}
	if c.State == "" {
		c.State = models.StateIntake
	}

	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('case_number_seq')`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("failed to issue case number: %w", err)
	}
	c.CaseNumber = fmt.Sprintf("EXP-%d-%05d", now.Year(), seq)

	query := `
		INSERT INTO cases (id, case_number, status, state, department_id, owner_name, owner_cedula,
			address, municipality, province, land_area_m2, construction_area_m2, appraisal_value,
			created_by, metadata, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + caseColumns

	return scanCaseRow(r.pool.QueryRow(ctx, query,
		c.ID, c.CaseNumber, c.Status, c.State, c.DepartmentID,
		c.OwnerName, c.OwnerCedula,
		c.Address, c.Municipality, c.Province,
		c.LandAreaM2, c.ConstructionAreaM2, c.AppraisalValue,
		c.CreatedBy, c.Metadata, c.StartedAt, c.CreatedAt, c.UpdatedAt,
	))
}

func (r *CaseRepository) Update(ctx context.Context, id string, c *models.Case) (*models.Case, error) {
	c.UpdatedAt = time.Now()

	query := `
		UPDATE cases
		SET owner_name = $1, owner_cedula = $2, address = $3, municipality = $4, province = $5,
		    land_area_m2 = $6, construction_area_m2 = $7, appraisal_value = $8, metadata = $9,
		    updated_at = $10
		WHERE id = $11 AND deleted = false
		RETURNING ` + caseColumns

	return scanCaseRow(r.pool.QueryRow(ctx, query,
		c.OwnerName, c.OwnerCedula, c.Address, c.Municipality, c.Province,
		c.LandAreaM2, c.ConstructionAreaM2, c.AppraisalValue, c.Metadata,
		c.UpdatedAt, id,
	))
}

// UpdateState moves a case to a new workflow state/department; status and
// completed_at follow the state (terminal states complete the case)
func (r *CaseRepository) UpdateState(ctx context.Context, id, state, status string, departmentID *string, completedAt *time.Time) (*models.Case, error) {
	query := `
		UPDATE cases
		SET state = $1, status = $2, department_id = $3, completed_at = $4, updated_at = $5
		WHERE id = $6 AND deleted = false
		RETURNING ` + caseColumns

	return scanCaseRow(r.pool.QueryRow(ctx, query,
		state, status, departmentID, completedAt, time.Now(), id,
	))
}

// SoftDelete flags the case as deleted without removing the row
func (r *CaseRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	query := `UPDATE cases SET deleted = true, deleted_at = $1, updated_at = $2 WHERE id = $3 AND deleted = false`

	tag, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *CaseRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cases WHERE status = $1 AND deleted = false`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return count, nil
}

// --- Transitions ---

const transitionColumns = `id, case_id, from_state, to_state, from_department_id, to_department_id,
	user_id, comments, rejection_reason, created_at`

func scanTransitionRow(row rowScanner) (*models.CaseTransition, error) {
	var t models.CaseTransition

	err := row.Scan(
		&t.ID, &t.CaseID, &t.FromState, &t.ToState,
		&t.FromDepartmentID, &t.ToDepartmentID,
		&t.UserID, &t.Comments, &t.RejectionReason, &t.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &t, nil
}

// CreateTransition appends one workflow transition record
func (r *CaseRepository) CreateTransition(ctx context.Context, t *models.CaseTransition) (*models.CaseTransition, error) {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now()

	query := `
		INSERT INTO case_transitions (id, case_id, from_state, to_state, from_department_id, to_department_id,
			user_id, comments, rejection_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transitionColumns

	return scanTransitionRow(r.pool.QueryRow(ctx, query,
		t.ID, t.CaseID, t.FromState, t.ToState,
		t.FromDepartmentID, t.ToDepartmentID,
		t.UserID, t.Comments, t.RejectionReason, t.CreatedAt,
	))
}

// ListTransitions returns the full transition history of a case, oldest first
func (r *CaseRepository) ListTransitions(ctx context.Context, caseID string) ([]*models.CaseTransition, error) {
	query := `
		SELECT ` + transitionColumns + `
		FROM case_transitions
		WHERE case_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query case transitions: %w", err)
	}
	defer rows.Close()

	transitions := make([]*models.CaseTransition, 0)

	for rows.Next() {
		t, err := scanTransitionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transition rows: %w", err)
	}

	return transitions, nil
}
