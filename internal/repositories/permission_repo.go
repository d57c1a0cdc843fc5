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

type PermissionRepository struct {
	pool *pgxpool.Pool
}

func NewPermissionRepository(db *database.DB) *PermissionRepository {
	return &PermissionRepository{pool: db.Pool}
}

const permissionColumns = `id, name, description, resource, action, active, created_at, updated_at`

func scanPermissionRow(row rowScanner) (*models.Permission, error) {
	var p models.Permission

	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Resource, &p.Action,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

func scanPermissionRows(rows pgx.Rows) ([]*models.Permission, error) {
	defer rows.Close()

	perms := make([]*models.Permission, 0)

	for rows.Next() {
		p, err := scanPermissionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permission rows: %w", err)
	}

	return perms, nil
}

func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE id = $1`

	return scanPermissionRow(r.pool.QueryRow(ctx, query, id))
}

// List returns the permission catalog ordered by resource then action
func (r *PermissionRepository) List(ctx context.Context, activeOnly bool) ([]*models.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY resource, action`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}

	return scanPermissionRows(rows)
}

// ListForUser returns the active permissions granted to one user
func (r *PermissionRepository) ListForUser(ctx context.Context, userID string) ([]*models.Permission, error) {
	query := `
		SELECT ` + permissionColumns + ` FROM permissions
		WHERE active = true
		  AND id IN (SELECT permission_id FROM user_permissions WHERE user_id = $1)
		ORDER BY resource, action`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user permissions: %w", err)
	}

	return scanPermissionRows(rows)
}

// ReplaceForUser swaps the user's grant set for permissionIDs in one
// transaction. Unknown or inactive permission IDs are skipped, mirroring the
// forgiving assignment behavior of the admin screens.
func (r *PermissionRepository) ReplaceForUser(ctx context.Context, userID, grantedBy string, permissionIDs []string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
			return err
		}

		now := time.Now()
		for _, permissionID := range permissionIDs {
			query := `
				INSERT INTO user_permissions (id, user_id, permission_id, granted_by, created_at)
				SELECT $1, $2, id, $3, $4 FROM permissions WHERE id = $5 AND active = true
				ON CONFLICT ON CONSTRAINT user_permissions_unique DO NOTHING`

			if _, err := tx.Exec(ctx, query,
				uuid.New().String(), userID, grantedBy, now, permissionID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}
