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

type DepartmentRepository struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepository(db *database.DB) *DepartmentRepository {
	return &DepartmentRepository{pool: db.Pool}
}

const departmentColumns = `id, name, code, description, workflow_order, parallel_processing,
	response_time_hours, active, created_at, updated_at`

func scanDepartmentRow(row rowScanner) (*models.Department, error) {
	var d models.Department

	err := row.Scan(
		&d.ID, &d.Name, &d.Code, &d.Description, &d.WorkflowOrder,
		&d.ParallelProcessing, &d.ResponseTimeHours, &d.Active,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &d, nil
}

func scanDepartmentRows(rows pgx.Rows) ([]*models.Department, error) {
	defer rows.Close()

	departments := make([]*models.Department, 0)

	for rows.Next() {
		d, err := scanDepartmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating department rows: %w", err)
	}

	return departments, nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	return scanDepartmentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *DepartmentRepository) GetByCode(ctx context.Context, code string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE code = $1`

	return scanDepartmentRow(r.pool.QueryRow(ctx, query, code))
}

// List returns departments in workflow processing order
func (r *DepartmentRepository) List(ctx context.Context, activeOnly bool) ([]*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY workflow_order`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}

	return scanDepartmentRows(rows)
}

func (r *DepartmentRepository) Create(ctx context.Context, d *models.Department) (*models.Department, error) {
	d.ID = uuid.New().String()

	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
		INSERT INTO departments (id, name, code, description, workflow_order, parallel_processing,
			response_time_hours, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + departmentColumns

	return scanDepartmentRow(r.pool.QueryRow(ctx, query,
		d.ID, d.Name, d.Code, d.Description, d.WorkflowOrder,
		d.ParallelProcessing, d.ResponseTimeHours, d.Active,
		d.CreatedAt, d.UpdatedAt,
	))
}

func (r *DepartmentRepository) Update(ctx context.Context, id string, d *models.Department) (*models.Department, error) {
	d.UpdatedAt = time.Now()

	query := `
		UPDATE departments
		SET name = $1, description = $2, workflow_order = $3, parallel_processing = $4,
		    response_time_hours = $5, active = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + departmentColumns

	return scanDepartmentRow(r.pool.QueryRow(ctx, query,
		d.Name, d.Description, d.WorkflowOrder, d.ParallelProcessing,
		d.ResponseTimeHours, d.Active, d.UpdatedAt, id,
	))
}
