package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc        func(ctx context.Context, email string) (*models.User, error)
	ListFunc              func(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListByDepartmentFunc  func(ctx context.Context, departmentID string) ([]*models.User, error)
	CreateFunc            func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc            func(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdateLockoutFunc     func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error
	RecordLoginFunc       func(ctx context.Context, id string, at time.Time, ip, userAgent *string) error
	UpdatePasswordFunc    func(ctx context.Context, id, passwordHash string) error
	DeactivateFunc        func(ctx context.Context, id string) error
	CountFunc             func(ctx context.Context) (int64, error)
	CountByDepartmentFunc func(ctx context.Context, departmentID string) (int64, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) ListByDepartment(ctx context.Context, departmentID string) ([]*models.User, error) {
	if m.ListByDepartmentFunc != nil {
		return m.ListByDepartmentFunc(ctx, departmentID)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateLockout(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
	if m.UpdateLockoutFunc != nil {
		return m.UpdateLockoutFunc(ctx, id, failedAttempts, lockedUntil)
	}
	return nil
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id string, at time.Time, ip, userAgent *string) error {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, id, at, ip, userAgent)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockUserRepository) CountByDepartment(ctx context.Context, departmentID string) (int64, error) {
	if m.CountByDepartmentFunc != nil {
		return m.CountByDepartmentFunc(ctx, departmentID)
	}
	return 0, nil
}

// MockActivityRepository implements ActivityRepository for testing
type MockActivityRepository struct {
	CreateFunc       func(ctx context.Context, a *models.Activity) (*models.Activity, error)
	ListRecentFunc   func(ctx context.Context, limit, offset int) ([]*models.Activity, error)
	ListByCaseFunc   func(ctx context.Context, caseID string, limit, offset int) ([]*models.Activity, error)
	ListByActorFunc  func(ctx context.Context, actorID string, limit, offset int) ([]*models.Activity, error)
	ListByActionFunc func(ctx context.Context, action string, limit, offset int) ([]*models.Activity, error)
	CountByActorFunc func(ctx context.Context, actorID string) (int64, error)
}

func (m *MockActivityRepository) Create(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return a, nil
}

func (m *MockActivityRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit, offset)
	}
	return []*models.Activity{}, nil
}

func (m *MockActivityRepository) ListByCase(ctx context.Context, caseID string, limit, offset int) ([]*models.Activity, error) {
	if m.ListByCaseFunc != nil {
		return m.ListByCaseFunc(ctx, caseID, limit, offset)
	}
	return []*models.Activity{}, nil
}

func (m *MockActivityRepository) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.Activity, error) {
	if m.ListByActorFunc != nil {
		return m.ListByActorFunc(ctx, actorID, limit, offset)
	}
	return []*models.Activity{}, nil
}

func (m *MockActivityRepository) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.Activity, error) {
	if m.ListByActionFunc != nil {
		return m.ListByActionFunc(ctx, action, limit, offset)
	}
	return []*models.Activity{}, nil
}

func (m *MockActivityRepository) CountByActor(ctx context.Context, actorID string) (int64, error) {
	if m.CountByActorFunc != nil {
		return m.CountByActorFunc(ctx, actorID)
	}
	return 0, nil
}

// MockActivityRecorder captures recorded entries for assertions. Safe for
// concurrent use; the successful-login path records from a goroutine.
type MockActivityRecorder struct {
	mu      sync.Mutex
	Entries []ActivityEntry
}

func (m *MockActivityRecorder) Record(_ context.Context, entry ActivityEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

// Recorded returns a snapshot of the captured entries
func (m *MockActivityRecorder) Recorded() []ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ActivityEntry, len(m.Entries))
	copy(out, m.Entries)
	return out
}

// MockDepartmentRepository implements DepartmentRepository for testing
type MockDepartmentRepository struct {
	GetByIDFunc   func(ctx context.Context, id string) (*models.Department, error)
	GetByCodeFunc func(ctx context.Context, code string) (*models.Department, error)
	ListFunc      func(ctx context.Context, activeOnly bool) ([]*models.Department, error)
	CreateFunc    func(ctx context.Context, dept *models.Department) (*models.Department, error)
	UpdateFunc    func(ctx context.Context, id string, dept *models.Department) (*models.Department, error)
}

func (m *MockDepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDepartmentRepository) GetByCode(ctx context.Context, code string) (*models.Department, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	return nil, models.ErrNotFound
}

func (m *MockDepartmentRepository) List(ctx context.Context, activeOnly bool) ([]*models.Department, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, activeOnly)
	}
	return []*models.Department{}, nil
}

func (m *MockDepartmentRepository) Create(ctx context.Context, dept *models.Department) (*models.Department, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, dept)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDepartmentRepository) Update(ctx context.Context, id string, dept *models.Department) (*models.Department, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, dept)
	}
	return nil, models.ErrInternalServer
}

// MockCaseRepository implements CaseRepository for testing
type MockCaseRepository struct {
	GetByIDFunc          func(ctx context.Context, id string) (*models.Case, error)
	GetByNumberFunc      func(ctx context.Context, caseNumber string) (*models.Case, error)
	ListFunc             func(ctx context.Context, filter repositories.CaseFilter, limit, offset int) ([]*models.Case, error)
	CreateFunc           func(ctx context.Context, c *models.Case) (*models.Case, error)
	UpdateFunc           func(ctx context.Context, id string, c *models.Case) (*models.Case, error)
	UpdateStateFunc      func(ctx context.Context, id, state, status string, departmentID *string, completedAt *time.Time) (*models.Case, error)
	SoftDeleteFunc       func(ctx context.Context, id string) error
	CountByStatusFunc    func(ctx context.Context, status string) (int64, error)
	CreateTransitionFunc func(ctx context.Context, t *models.CaseTransition) (*models.CaseTransition, error)
	ListTransitionsFunc  func(ctx context.Context, caseID string) ([]*models.CaseTransition, error)
}

func (m *MockCaseRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCaseRepository) GetByNumber(ctx context.Context, caseNumber string) (*models.Case, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, caseNumber)
	}
	return nil, models.ErrNotFound
}

func (m *MockCaseRepository) List(ctx context.Context, filter repositories.CaseFilter, limit, offset int) ([]*models.Case, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, limit, offset)
	}
	return []*models.Case{}, nil
}

func (m *MockCaseRepository) Create(ctx context.Context, c *models.Case) (*models.Case, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCaseRepository) Update(ctx context.Context, id string, c *models.Case) (*models.Case, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, c)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCaseRepository) UpdateState(ctx context.Context, id, state, status string, departmentID *string, completedAt *time.Time) (*models.Case, error) {
	if m.UpdateStateFunc != nil {
		return m.UpdateStateFunc(ctx, id, state, status, departmentID, completedAt)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCaseRepository) SoftDelete(ctx context.Context, id string) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCaseRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, status)
	}
	return 0, nil
}

func (m *MockCaseRepository) CreateTransition(ctx context.Context, t *models.CaseTransition) (*models.CaseTransition, error) {
	if m.CreateTransitionFunc != nil {
		return m.CreateTransitionFunc(ctx, t)
	}
	return t, nil
}

func (m *MockCaseRepository) ListTransitions(ctx context.Context, caseID string) ([]*models.CaseTransition, error) {
	if m.ListTransitionsFunc != nil {
		return m.ListTransitionsFunc(ctx, caseID)
	}
	return []*models.CaseTransition{}, nil
}

// MockDocumentRepository implements DocumentRepository for testing
type MockDocumentRepository struct {
	GetByIDFunc     func(ctx context.Context, id string) (*models.Document, error)
	ListByCaseFunc  func(ctx context.Context, caseID string) ([]*models.Document, error)
	CreateFunc      func(ctx context.Context, d *models.Document) (*models.Document, error)
	SetReviewFunc   func(ctx context.Context, id, status string, comment *string, reviewerID string) (*models.Document, error)
	SoftDeleteFunc  func(ctx context.Context, id string) error
	GetTypeByIDFunc func(ctx context.Context, id string) (*models.DocumentType, error)
	ListTypesFunc   func(ctx context.Context, activeOnly bool) ([]*models.DocumentType, error)
	CreateTypeFunc  func(ctx context.Context, dt *models.DocumentType) (*models.DocumentType, error)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDocumentRepository) ListByCase(ctx context.Context, caseID string) ([]*models.Document, error) {
	if m.ListByCaseFunc != nil {
		return m.ListByCaseFunc(ctx, caseID)
	}
	return []*models.Document{}, nil
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, d)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDocumentRepository) SetReview(ctx context.Context, id, status string, comment *string, reviewerID string) (*models.Document, error) {
	if m.SetReviewFunc != nil {
		return m.SetReviewFunc(ctx, id, status, comment, reviewerID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDocumentRepository) SoftDelete(ctx context.Context, id string) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockDocumentRepository) GetTypeByID(ctx context.Context, id string) (*models.DocumentType, error) {
	if m.GetTypeByIDFunc != nil {
		return m.GetTypeByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDocumentRepository) ListTypes(ctx context.Context, activeOnly bool) ([]*models.DocumentType, error) {
	if m.ListTypesFunc != nil {
		return m.ListTypesFunc(ctx, activeOnly)
	}
	return []*models.DocumentType{}, nil
}

func (m *MockDocumentRepository) CreateType(ctx context.Context, dt *models.DocumentType) (*models.DocumentType, error) {
	if m.CreateTypeFunc != nil {
		return m.CreateTypeFunc(ctx, dt)
	}
	return nil, models.ErrInternalServer
}

// MockNotificationRepository implements NotificationRepository for testing
type MockNotificationRepository struct {
	CreateFunc      func(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListByUserFunc  func(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkReadFunc    func(ctx context.Context, id, userID string) error
	CountUnreadFunc func(ctx context.Context, userID string) (int64, error)
	CleanupFunc     func(ctx context.Context, olderThanDays int) (int64, error)
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, n)
	}
	return n, nil
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, unreadOnly, limit, offset)
	}
	return []*models.Notification{}, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id, userID)
	}
	return nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	if m.CountUnreadFunc != nil {
		return m.CountUnreadFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockNotificationRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if m.CleanupFunc != nil {
		return m.CleanupFunc(ctx, olderThanDays)
	}
	return 0, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendNotificationEmailFunc func(ctx context.Context, email, title, message string) error
}

func (m *MockEmailService) SendNotificationEmail(ctx context.Context, email, title, message string) error {
	if m.SendNotificationEmailFunc != nil {
		return m.SendNotificationEmailFunc(ctx, email, title, message)
	}
	return nil
}

// MockTokenManager implements TokenManager for testing
type MockTokenManager struct {
	GenerateAccessTokenFunc  func(user *models.User) (string, error)
	GenerateRefreshTokenFunc func(user *models.User) (string, error)
	ValidateTokenFunc        func(tokenString string) (*models.TokenClaims, error)
}

func (m *MockTokenManager) GenerateAccessToken(user *models.User) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(user)
	}
	return "access_token_" + user.ID, nil
}

func (m *MockTokenManager) GenerateRefreshToken(user *models.User) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(user)
	}
	return "refresh_token_" + user.ID, nil
}

func (m *MockTokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	return nil, models.ErrUnauthorized
}

// NewTestUser creates an active analyst for tests
func NewTestUser(id, email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		FirstName: "Ana",
		LastName:  "Reyes",
		Cedula:    "001-1234567-8",
		Role:      models.RoleAnalyst,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithPassword creates a user with a password hash
func NewTestUserWithPassword(id, email, passwordHash string) *models.User {
	user := NewTestUser(id, email)
	user.PasswordHash = passwordHash
	return user
}

// NewTestUserLocked creates a user locked for the next 30 minutes
func NewTestUserLocked(id, email string) *models.User {
	user := NewTestUser(id, email)
	user.FailedLoginAttempts = 5
	lockedUntil := time.Now().Add(30 * time.Minute)
	user.LockedUntil = &lockedUntil
	return user
}

// NewTestCase creates an active case in the intake state
func NewTestCase(id, caseNumber string) *models.Case {
	now := time.Now()
	return &models.Case{
		ID:           id,
		CaseNumber:   caseNumber,
		Status:       models.CaseStatusActive,
		State:        models.StateIntake,
		OwnerName:    "Pedro Martínez",
		OwnerCedula:  "001-7654321-0",
		Address:      "Calle Duarte 42",
		Municipality: "Santo Domingo Este",
		Province:     "Santo Domingo",
		CreatedBy:    "user_1",
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MockTaskRepository implements TaskRepository for testing
type MockTaskRepository struct {
	GetByIDFunc               func(ctx context.Context, id string) (*models.Task, error)
	CreateFunc                func(ctx context.Context, t *models.Task) (*models.Task, error)
	UpdateAssigneeFunc        func(ctx context.Context, id string, assignedTo *string) (*models.Task, error)
	UpdateStatusFunc          func(ctx context.Context, id, status string, completedAt *time.Time, result string) (*models.Task, error)
	ListByCaseFunc            func(ctx context.Context, caseID string) ([]*models.Task, error)
	ListByAssigneeFunc        func(ctx context.Context, userID, status string) ([]*models.Task, error)
	ListByDepartmentFunc      func(ctx context.Context, departmentID string, filter repositories.TaskFilter) ([]*models.Task, error)
	AddDependencyFunc         func(ctx context.Context, taskID, dependsOn string) error
	ListDependenciesFunc      func(ctx context.Context, taskID string) ([]*models.Task, error)
	ListDependentsFunc        func(ctx context.Context, taskID string) ([]*models.Task, error)
	CountOpenDependenciesFunc func(ctx context.Context, taskID string) (int64, error)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskRepository) UpdateAssignee(ctx context.Context, id string, assignedTo *string) (*models.Task, error) {
	if m.UpdateAssigneeFunc != nil {
		return m.UpdateAssigneeFunc(ctx, id, assignedTo)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, id, status string, completedAt *time.Time, result string) (*models.Task, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, completedAt, result)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskRepository) ListByCase(ctx context.Context, caseID string) ([]*models.Task, error) {
	if m.ListByCaseFunc != nil {
		return m.ListByCaseFunc(ctx, caseID)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) ListByAssignee(ctx context.Context, userID, status string) ([]*models.Task, error) {
	if m.ListByAssigneeFunc != nil {
		return m.ListByAssigneeFunc(ctx, userID, status)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) ListByDepartment(ctx context.Context, departmentID string, filter repositories.TaskFilter) ([]*models.Task, error) {
	if m.ListByDepartmentFunc != nil {
		return m.ListByDepartmentFunc(ctx, departmentID, filter)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) AddDependency(ctx context.Context, taskID, dependsOn string) error {
	if m.AddDependencyFunc != nil {
		return m.AddDependencyFunc(ctx, taskID, dependsOn)
	}
	return nil
}

func (m *MockTaskRepository) ListDependencies(ctx context.Context, taskID string) ([]*models.Task, error) {
	if m.ListDependenciesFunc != nil {
		return m.ListDependenciesFunc(ctx, taskID)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) ListDependents(ctx context.Context, taskID string) ([]*models.Task, error) {
	if m.ListDependentsFunc != nil {
		return m.ListDependentsFunc(ctx, taskID)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) CountOpenDependencies(ctx context.Context, taskID string) (int64, error) {
	if m.CountOpenDependenciesFunc != nil {
		return m.CountOpenDependenciesFunc(ctx, taskID)
	}
	return 0, nil
}

// MockPermissionRepository implements PermissionRepository for testing
type MockPermissionRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.Permission, error)
	ListFunc           func(ctx context.Context, activeOnly bool) ([]*models.Permission, error)
	ListForUserFunc    func(ctx context.Context, userID string) ([]*models.Permission, error)
	ReplaceForUserFunc func(ctx context.Context, userID, grantedBy string, permissionIDs []string) error
}

func (m *MockPermissionRepository) GetByID(ctx context.Context, id string) (*models.Permission, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPermissionRepository) List(ctx context.Context, activeOnly bool) ([]*models.Permission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, activeOnly)
	}
	return []*models.Permission{}, nil
}

func (m *MockPermissionRepository) ListForUser(ctx context.Context, userID string) ([]*models.Permission, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	return []*models.Permission{}, nil
}

func (m *MockPermissionRepository) ReplaceForUser(ctx context.Context, userID, grantedBy string, permissionIDs []string) error {
	if m.ReplaceForUserFunc != nil {
		return m.ReplaceForUserFunc(ctx, userID, grantedBy, permissionIDs)
	}
	return nil
}

// NewTestTask creates a pending review task for tests
func NewTestTask(id, caseID, departmentID string) *models.Task {
	now := time.Now()
	return &models.Task{
		ID:           id,
		CaseID:       caseID,
		DepartmentID: departmentID,
		Title:        "Revisar levantamiento topográfico",
		Description:  "Verificar linderos contra el título",
		Type:         models.TaskTypeReview,
		Priority:     models.TaskPriorityMedium,
		Status:       models.TaskStatusPending,
		CreatedBy:    "user_1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
