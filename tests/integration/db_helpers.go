package integration

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mopc-digital/expedientes/internal/database"
	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/repositories"
	"github.com/mopc-digital/expedientes/pkg/auth"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("expedientes"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbWrapper := &database.DB{
		Pool: pool,
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         dbWrapper,
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	// Suppress goose logs
	goose.SetLogger(log.New(nil, "", 0))

	// Goose needs a stdlib DB connection
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"notifications",
		"activities",
		"user_permissions",
		"task_dependencies",
		"tasks",
		"documents",
		"document_types",
		"case_transitions",
		"cases",
		"users",
		"departments",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// InitializeRepositories creates all repository instances from database wrapper
func InitializeRepositories(db *database.DB) (
	*repositories.UserRepository,
	*repositories.DepartmentRepository,
	*repositories.CaseRepository,
	*repositories.DocumentRepository,
	*repositories.ActivityRepository,
	*repositories.NotificationRepository,
) {
	return repositories.NewUserRepository(db),
		repositories.NewDepartmentRepository(db),
		repositories.NewCaseRepository(db),
		repositories.NewDocumentRepository(db),
		repositories.NewActivityRepository(db),
		repositories.NewNotificationRepository(db)
}

// SeedDepartment inserts a department and returns it
func SeedDepartment(ctx context.Context, pool *pgxpool.Pool, name, code string) (*models.Department, error) {
	query := `
		INSERT INTO departments (id, name, code, workflow_order, active, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, 1, true, NOW(), NOW())
		RETURNING id, name, code, active, created_at, updated_at
	`

	var d models.Department
	err := pool.QueryRow(ctx, query, name, code).Scan(
		&d.ID, &d.Name, &d.Code, &d.Active, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert department: %w", err)
	}

	return &d, nil
}

// SeedUser inserts a test user with hashed password
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email, password, role string, departmentID *string) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, cedula, role, department_id, active, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, 'Prueba', 'Integración', '001-0000000-0', $3, $4, true, NOW(), NOW())
		RETURNING id, email, password_hash, first_name, last_name, role, active, failed_login_attempts, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, email, hashedPassword, role, departmentID).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Active,
		&user.FailedLoginAttempts,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedLockedUser inserts a user already at the lockout threshold
func SeedLockedUser(ctx context.Context, pool *pgxpool.Pool, email, password string) (*models.User, error) {
	user, err := SeedUser(ctx, pool, email, password, models.RoleAnalyst, nil)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET failed_login_attempts = 5, locked_until = NOW() + INTERVAL '30 minutes'
		WHERE id = $1
	`
	if _, err := pool.Exec(ctx, query, user.ID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	user.FailedLoginAttempts = 5
	return user, nil
}

// SeedCase inserts a case in the intake state owned by createdBy
func SeedCase(ctx context.Context, pool *pgxpool.Pool, createdBy string, departmentID *string) (*models.Case, error) {
	var seq int64
	if err := pool.QueryRow(ctx, `SELECT nextval('case_number_seq')`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("failed to issue case number: %w", err)
	}
	caseNumber := fmt.Sprintf("EXP-%d-%05d", time.Now().Year(), seq)

	query := `
		INSERT INTO cases (id, case_number, status, state, department_id, owner_name, owner_cedula,
			address, municipality, province, created_by, started_at, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, 'active', 'intake', $2, 'Pedro Martínez', '001-1234567-8',
			'Calle Duarte 12', 'Santo Domingo Este', 'Santo Domingo', $3, NOW(), NOW(), NOW())
		RETURNING id, case_number, status, state, created_by, created_at, updated_at
	`

	var c models.Case
	err := pool.QueryRow(ctx, query, caseNumber, departmentID, createdBy).Scan(
		&c.ID, &c.CaseNumber, &c.Status, &c.State, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert case: %w", err)
	}

	return &c, nil
}

// CountActivities returns the number of audit rows for an action
func CountActivities(ctx context.Context, pool *pgxpool.Pool, action string) (int64, error) {
	var count int64
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE action = $1`, action).Scan(&count)
	return count, err
}
