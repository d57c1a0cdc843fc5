package services

import (
	"context"
	"testing"
	"time"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(repo *MockUserRepository, depts *MockDepartmentRepository) (*UserService, *MockActivityRecorder) {
	recorder := &MockActivityRecorder{}
	return NewUserService(repo, depts, recorder, testLogger()), recorder
}

func TestUserService_Create_Success(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user_2"
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return user, nil
		},
	}
	svc, recorder := newUserFixture(repo, &MockDepartmentRepository{})

	resp, err := svc.Create(context.Background(), "admin_1", CreateUserInput{
		Email:     "Nuevo@MOPC.gob.do",
		Password:  "SecurePassword123!",
		FirstName: "Luis",
		LastName:  "Gómez",
		Cedula:    "001-0000000-1",
		Role:      models.RoleAnalyst,
	})

	require.NoError(t, err)
	assert.Equal(t, "nuevo@mopc.gob.do", resp.Email, "emails are lowercased before storage")
	assert.True(t, resp.Active)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
}

func TestUserService_Create_InvalidRole(t *testing.T) {
	svc, _ := newUserFixture(&MockUserRepository{}, &MockDepartmentRepository{})

	_, err := svc.Create(context.Background(), "admin_1", CreateUserInput{
		Email:    "nuevo@mopc.gob.do",
		Password: "SecurePassword123!",
		Role:     "overlord",
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserService_Create_UnknownDepartment(t *testing.T) {
	deptID := "dept_missing"
	depts := &MockDepartmentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Department, error) {
			return nil, models.ErrNotFound
		},
	}
	svc, _ := newUserFixture(&MockUserRepository{}, depts)

	_, err := svc.Create(context.Background(), "admin_1", CreateUserInput{
		Email:        "nuevo@mopc.gob.do",
		Password:     "SecurePassword123!",
		Role:         models.RoleAnalyst,
		DepartmentID: &deptID,
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserService_Deactivate_SelfBlocked(t *testing.T) {
	svc, _ := newUserFixture(&MockUserRepository{}, &MockDepartmentRepository{})

	err := svc.Deactivate(context.Background(), "user_1", "user_1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserService_Unlock_ClearsState(t *testing.T) {
	user := NewTestUserLocked("user_1", "ana@mopc.gob.do")

	gotAttempts := -1
	gotLockedUntil := user.LockedUntil
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			gotAttempts = failedAttempts
			gotLockedUntil = lockedUntil
			return nil
		},
	}
	svc, recorder := newUserFixture(repo, &MockDepartmentRepository{})

	err := svc.Unlock(context.Background(), "admin_1", "user_1")

	require.NoError(t, err)
	assert.Equal(t, 0, gotAttempts)
	assert.Nil(t, gotLockedUntil)
	require.Len(t, recorder.Recorded(), 1)
}

func TestUserService_UpdateProfile_TrimsNames(t *testing.T) {
	user := NewTestUser("user_1", "ana@mopc.gob.do")

	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdateFunc: func(ctx context.Context, id string, u *models.User) (*models.User, error) {
			return u, nil
		},
	}
	svc, recorder := newUserFixture(repo, &MockDepartmentRepository{})

	resp, err := svc.UpdateProfile(context.Background(), "user_1", "  María ", "Pérez")

	require.NoError(t, err)
	assert.Equal(t, "María", resp.FirstName)
	assert.Equal(t, "Pérez", resp.LastName)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionUpdate, entries[0].Action)
}

func TestUserService_Stats_CountsByDepartmentCode(t *testing.T) {
	repo := &MockUserRepository{
		CountFunc: func(ctx context.Context) (int64, error) {
			return 12, nil
		},
		CountByDepartmentFunc: func(ctx context.Context, departmentID string) (int64, error) {
			if departmentID == "dept_1" {
				return 7, nil
			}
			return 5, nil
		},
	}
	depts := &MockDepartmentRepository{
		ListFunc: func(ctx context.Context, activeOnly bool) ([]*models.Department, error) {
			return []*models.Department{
				{ID: "dept_1", Code: "AVALUOS"},
				{ID: "dept_2", Code: "LEGAL"},
			}, nil
		},
	}
	svc, _ := newUserFixture(repo, depts)

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.ActiveUsers)
	assert.Equal(t, int64(7), stats.ByDepartment["AVALUOS"])
	assert.Equal(t, int64(5), stats.ByDepartment["LEGAL"])
}
