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

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{pool: db.Pool}
}

const taskColumns = `id, case_id, department_id, assigned_to, title, description,
	type, priority, status, due_date, completed_at, result, created_by, created_at, updated_at`

// taskOrder puts urgent work first, then the nearest deadlines
const taskOrder = ` ORDER BY CASE priority
		WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
	due_date NULLS LAST, created_at`

// TaskFilter narrows task listings; zero values mean "no filter"
type TaskFilter struct {
	Status     string
	AssignedTo string
}

func scanTaskRow(row rowScanner) (*models.Task, error) {
	var t models.Task

	err := row.Scan(
		&t.ID, &t.CaseID, &t.DepartmentID, &t.AssignedTo,
		&t.Title, &t.Description, &t.Type, &t.Priority, &t.Status,
		&t.DueDate, &t.CompletedAt, &t.Result,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &t, nil
}

func scanTaskRows(rows pgx.Rows) ([]*models.Task, error) {
	defer rows.Close()

	tasks := make([]*models.Task, 0)

	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	return scanTaskRow(r.pool.QueryRow(ctx, query, id))
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	t.ID = uuid.New().String()

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}

	query := `
		INSERT INTO tasks (id, case_id, department_id, assigned_to, title, description,
			type, priority, status, due_date, result, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + taskColumns

	return scanTaskRow(r.pool.QueryRow(ctx, query,
		t.ID, t.CaseID, t.DepartmentID, t.AssignedTo,
		t.Title, t.Description, t.Type, t.Priority, t.Status,
		t.DueDate, t.Result, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	))
}

// UpdateAssignee reassigns the task
func (r *TaskRepository) UpdateAssignee(ctx context.Context, id string, assignedTo *string) (*models.Task, error) {
	query := `
		UPDATE tasks SET assigned_to = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + taskColumns

	return scanTaskRow(r.pool.QueryRow(ctx, query, assignedTo, time.Now(), id))
}

// UpdateStatus moves the task to a new status, recording completion bookkeeping
// when the status is terminal
func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string, completedAt *time.Time, result string) (*models.Task, error) {
	query := `
		UPDATE tasks SET status = $1, completed_at = $2, result = $3, updated_at = $4
		WHERE id = $5
		RETURNING ` + taskColumns

	return scanTaskRow(r.pool.QueryRow(ctx, query, status, completedAt, result, time.Now(), id))
}

// ListByCase returns every task of a case in working order
func (r *TaskRepository) ListByCase(ctx context.Context, caseID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE case_id = $1` + taskOrder

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query case tasks: %w", err)
	}

	return scanTaskRows(rows)
}

// ListByAssignee returns a user's open tasks, optionally narrowed to one status
func (r *TaskRepository) ListByAssignee(ctx context.Context, userID, status string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE assigned_to = $1`
	args := []interface{}{userID}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	} else {
		query += ` AND status IN ('pending', 'in_progress', 'blocked')`
	}
	query += taskOrder

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned tasks: %w", err)
	}

	return scanTaskRows(rows)
}

// ListByDepartment returns a department's tasks matching the filter
func (r *TaskRepository) ListByDepartment(ctx context.Context, departmentID string, filter TaskFilter) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE department_id = $1`
	args := []interface{}{departmentID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	query += taskOrder

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query department tasks: %w", err)
	}

	return scanTaskRows(rows)
}

// --- Dependencies ---

// AddDependency links task to a prerequisite. Re-adding an existing link is a
// no-op.
func (r *TaskRepository) AddDependency(ctx context.Context, taskID, dependsOn string) error {
	query := `
		INSERT INTO task_dependencies (id, task_id, depends_on, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT task_dependencies_unique DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, uuid.New().String(), taskID, dependsOn, time.Now()); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// ListDependencies returns the tasks that taskID waits on
func (r *TaskRepository) ListDependencies(ctx context.Context, taskID string) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE id IN (SELECT depends_on FROM task_dependencies WHERE task_id = $1)` + taskOrder

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task dependencies: %w", err)
	}

	return scanTaskRows(rows)
}

// ListDependents returns the tasks waiting on taskID
func (r *TaskRepository) ListDependents(ctx context.Context, taskID string) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE id IN (SELECT task_id FROM task_dependencies WHERE depends_on = $1)` + taskOrder

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependent tasks: %w", err)
	}

	return scanTaskRows(rows)
}

// CountOpenDependencies counts prerequisites of taskID that are not yet
// completed or cancelled
func (r *TaskRepository) CountOpenDependencies(ctx context.Context, taskID string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM tasks
		WHERE id IN (SELECT depends_on FROM task_dependencies WHERE task_id = $1)
		  AND status NOT IN ('completed', 'cancelled')`

	var count int64
	if err := r.pool.QueryRow(ctx, query, taskID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open dependencies: %w", err)
	}
	return count, nil
}
