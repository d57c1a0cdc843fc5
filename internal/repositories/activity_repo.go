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

// ActivityRepository handles audit entry data access. Entries are append-only;
// the only delete path is retention cleanup.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{pool: db.Pool}
}

const activityColumns = `id, actor_id, action, entity_type, entity_id, description, metadata, case_id,
	ip_address, user_agent, created_at`

func scanActivityRow(row rowScanner) (*models.Activity, error) {
	var a models.Activity

	err := row.Scan(
		&a.ID, &a.ActorID, &a.Action, &a.EntityType, &a.EntityID,
		&a.Description, &a.Metadata, &a.CaseID,
		&a.IPAddress, &a.UserAgent, &a.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &a, nil
}

func scanActivityRows(rows pgx.Rows) ([]*models.Activity, error) {
	defer rows.Close()

	activities := make([]*models.Activity, 0)

	for rows.Next() {
		a, err := scanActivityRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return activities, nil
}

// Create appends a new activity entry
func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	a.ID = uuid.New().String()
	a.CreatedAt = time.Now()

	query := `
		INSERT INTO activities (id, actor_id, action, entity_type, entity_id, description, metadata, case_id,
			ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + activityColumns

	result, err := scanActivityRow(r.pool.QueryRow(ctx, query,
		a.ID, a.ActorID, a.Action, a.EntityType, a.EntityID,
		a.Description, a.Metadata, a.CaseID,
		a.IPAddress, a.UserAgent, a.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	return result, nil
}

// ListRecent retrieves the most recent activities across the whole system
func (r *ActivityRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}

	return scanActivityRows(rows)
}

// ListByCase retrieves all activities linked to a case
func (r *ActivityRepository) ListByCase(ctx context.Context, caseID string, limit, offset int) ([]*models.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE case_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, caseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query case activities: %w", err)
	}

	return scanActivityRows(rows)
}

// ListByActor retrieves all activities performed by a specific user
func (r *ActivityRepository) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query actor activities: %w", err)
	}

	return scanActivityRows(rows)
}

// ListByAction retrieves activities of one action kind (e.g. FAILED_LOGIN)
func (r *ActivityRepository) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE action = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, action, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities by action: %w", err)
	}

	return scanActivityRows(rows)
}

// CountByActor counts activities performed by a specific user
func (r *ActivityRepository) CountByActor(ctx context.Context, actorID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activities WHERE actor_id = $1`, actorID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}

	return count, nil
}

// Cleanup removes activities older than the specified number of days
func (r *ActivityRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM activities
		WHERE created_at < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1
	`

	result, err := r.pool.Exec(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup activities: %w", err)
	}

	return result.RowsAffected(), nil
}
