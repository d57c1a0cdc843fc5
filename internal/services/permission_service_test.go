package services

import (
	"context"
	"testing"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionService_ListForUser_BundlesRoleAndDepartment(t *testing.T) {
	deptID := "dept_legal"
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleSupervisor, DepartmentID: &deptID, Active: true}, nil
		},
	}
	depts := &MockDepartmentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Department, error) {
			return &models.Department{ID: id, Name: "Dirección Jurídica", Code: "DJU", Active: true}, nil
		},
	}
	repo := &MockPermissionRepository{
		ListForUserFunc: func(ctx context.Context, userID string) ([]*models.Permission, error) {
			return []*models.Permission{
				{ID: "perm_1", Name: "case.read", Resource: models.ResourceCase, Action: models.PermissionRead},
				{ID: "perm_2", Name: "case.approve", Resource: models.ResourceCase, Action: models.PermissionApprove},
			}, nil
		},
	}
	svc := NewPermissionService(repo, users, depts, &MockActivityRecorder{}, testLogger())

	resp, err := svc.ListForUser(context.Background(), "user_1")

	require.NoError(t, err)
	assert.Equal(t, models.RoleSupervisor, resp.Role)
	require.Len(t, resp.Permissions, 2)
	assert.Equal(t, "case.read", resp.Permissions[0].Name)
	require.NotNil(t, resp.Department)
	assert.Equal(t, "DJU", resp.Department.Code)
}

func TestPermissionService_ListForUser_UnknownUser(t *testing.T) {
	svc := NewPermissionService(&MockPermissionRepository{}, &MockUserRepository{}, &MockDepartmentRepository{}, &MockActivityRecorder{}, testLogger())

	_, err := svc.ListForUser(context.Background(), "ghost")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPermissionService_Assign_ReplacesGrantsAndRecordsActivity(t *testing.T) {
	var replacedUser, replacedBy string
	var replacedIDs []string
	repo := &MockPermissionRepository{
		ReplaceForUserFunc: func(ctx context.Context, userID, grantedBy string, permissionIDs []string) error {
			replacedUser = userID
			replacedBy = grantedBy
			replacedIDs = permissionIDs
			return nil
		},
		ListForUserFunc: func(ctx context.Context, userID string) ([]*models.Permission, error) {
			return []*models.Permission{
				{ID: "perm_1", Name: "case.read", Resource: models.ResourceCase, Action: models.PermissionRead},
			}, nil
		},
	}
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "tecnico@mopc.gob.do", Role: models.RoleAnalyst, Active: true}, nil
		},
	}
	recorder := &MockActivityRecorder{}
	svc := NewPermissionService(repo, users, &MockDepartmentRepository{}, recorder, testLogger())

	resp, err := svc.Assign(context.Background(), "admin_1", "user_1", []string{"perm_1", "perm_9"})

	require.NoError(t, err)
	assert.Equal(t, "user_1", replacedUser)
	assert.Equal(t, "admin_1", replacedBy)
	assert.Equal(t, []string{"perm_1", "perm_9"}, replacedIDs)
	require.Len(t, resp.Permissions, 1)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntityTypePermission, entries[0].EntityType)
	assert.Equal(t, models.ActionUpdate, entries[0].Action)
	assert.Equal(t, 2, entries[0].Metadata["granted"])
}

func TestPermissionService_Assign_UnknownUser(t *testing.T) {
	recorder := &MockActivityRecorder{}
	svc := NewPermissionService(&MockPermissionRepository{}, &MockUserRepository{}, &MockDepartmentRepository{}, recorder, testLogger())

	_, err := svc.Assign(context.Background(), "admin_1", "ghost", []string{"perm_1"})

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, recorder.Recorded())
}

func TestPermissionService_List_ActiveCatalogOnly(t *testing.T) {
	var gotActiveOnly bool
	repo := &MockPermissionRepository{
		ListFunc: func(ctx context.Context, activeOnly bool) ([]*models.Permission, error) {
			gotActiveOnly = activeOnly
			return []*models.Permission{{ID: "perm_1", Name: "case.read"}}, nil
		},
	}
	svc := NewPermissionService(repo, &MockUserRepository{}, &MockDepartmentRepository{}, &MockActivityRecorder{}, testLogger())

	perms, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.True(t, gotActiveOnly)
	require.Len(t, perms, 1)
}
