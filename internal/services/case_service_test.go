package services

import (
	"context"
	"testing"
	"time"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaseFixture(repo *MockCaseRepository, depts *MockDepartmentRepository) (*CaseService, *MockActivityRecorder) {
	recorder := &MockActivityRecorder{}
	notifications := NewNotificationService(&MockNotificationRepository{}, &MockUserRepository{}, &MockEmailService{}, testLogger())
	svc := NewCaseService(repo, depts, recorder, notifications, testLogger())
	return svc, recorder
}

func TestCaseService_Create_Success(t *testing.T) {
	repo := &MockCaseRepository{
		CreateFunc: func(ctx context.Context, c *models.Case) (*models.Case, error) {
			c.ID = "case_1"
			c.CaseNumber = "EXP-2026-00042"
			return c, nil
		},
	}
	svc, recorder := newCaseFixture(repo, &MockDepartmentRepository{})

	created, err := svc.Create(context.Background(), "user_1", CreateCaseInput{
		OwnerName:    "Pedro Martínez",
		OwnerCedula:  "001-7654321-0",
		Address:      "Calle Duarte 42",
		Municipality: "Santo Domingo Este",
		Province:     "Santo Domingo",
	})

	require.NoError(t, err)
	assert.Equal(t, models.StateIntake, created.State)
	assert.Equal(t, models.CaseStatusActive, created.Status)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
	assert.Equal(t, "EXP-2026-00042", entries[0].Metadata["case_number"])
}

func TestCaseService_Create_MissingOwner(t *testing.T) {
	svc, _ := newCaseFixture(&MockCaseRepository{}, &MockDepartmentRepository{})

	_, err := svc.Create(context.Background(), "user_1", CreateCaseInput{Address: "Calle Duarte 42"})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCaseService_Transition_Success(t *testing.T) {
	c := NewTestCase("case_1", "EXP-2026-00042")

	deptID := "dept_legal"
	repo := &MockCaseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Case, error) {
			return c, nil
		},
		UpdateStateFunc: func(ctx context.Context, id, state, status string, departmentID *string, completedAt *time.Time) (*models.Case, error) {
			updated := *c
			updated.State = state
			updated.Status = status
			updated.DepartmentID = departmentID
			return &updated, nil
		},
	}
	depts := &MockDepartmentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Department, error) {
			return &models.Department{ID: id, Code: "DJU", Active: true}, nil
		},
	}
	svc, recorder := newCaseFixture(repo, depts)

	updated, err := svc.Transition(context.Background(), "user_1", "case_1", TransitionInput{
		ToState:        models.StateLegalReview,
		ToDepartmentID: &deptID,
	})

	require.NoError(t, err)
	assert.Equal(t, models.StateLegalReview, updated.State)
	assert.Equal(t, models.CaseStatusActive, updated.Status)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.StateIntake, entries[0].Metadata["from_state"])
	assert.Equal(t, models.StateLegalReview, entries[0].Metadata["to_state"])
}

func TestCaseService_Transition_ClosedIsCompleted(t *testing.T) {
	c := NewTestCase("case_1", "EXP-2026-00042")
	c.State = models.StateRegistration

	var gotStatus string
	var gotCompletedAt *time.Time
	repo := &MockCaseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Case, error) {
			return c, nil
		},
		UpdateStateFunc: func(ctx context.Context, id, state, status string, departmentID *string, completedAt *time.Time) (*models.Case, error) {
			gotStatus = status
			gotCompletedAt = completedAt
			updated := *c
			updated.State = state
			updated.Status = status
			return &updated, nil
		},
	}
	svc, _ := newCaseFixture(repo, &MockDepartmentRepository{})

	_, err := svc.Transition(context.Background(), "user_1", "case_1", TransitionInput{ToState: models.StateClosed})

	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusCompleted, gotStatus)
	assert.NotNil(t, gotCompletedAt)
}

func TestCaseService_Transition_RejectionRequiresReason(t *testing.T) {
	svc, _ := newCaseFixture(&MockCaseRepository{}, &MockDepartmentRepository{})

	_, err := svc.Transition(context.Background(), "user_1", "case_1", TransitionInput{ToState: models.StateRejected})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCaseService_Transition_TerminalStateBlocked(t *testing.T) {
	c := NewTestCase("case_1", "EXP-2026-00042")
	c.State = models.StateClosed
	c.Status = models.CaseStatusCompleted

	repo := &MockCaseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Case, error) {
			return c, nil
		},
	}
	svc, _ := newCaseFixture(repo, &MockDepartmentRepository{})

	_, err := svc.Transition(context.Background(), "user_1", "case_1", TransitionInput{ToState: models.StateIntake})

	assert.ErrorIs(t, err, models.ErrCaseCompleted)
}

func TestCaseService_Transition_UnknownState(t *testing.T) {
	svc, _ := newCaseFixture(&MockCaseRepository{}, &MockDepartmentRepository{})

	_, err := svc.Transition(context.Background(), "user_1", "case_1", TransitionInput{ToState: "limbo"})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCaseService_Transition_SameStateBlocked(t *testing.T) {
	c := NewTestCase("case_1", "EXP-2026-00042")

	repo := &MockCaseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Case, error) {
			return c, nil
		},
	}
	svc, _ := newCaseFixture(repo, &MockDepartmentRepository{})

	_, err := svc.Transition(context.Background(), "user_1", "case_1", TransitionInput{ToState: models.StateIntake})

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCaseService_Delete_RecordsActivity(t *testing.T) {
	c := NewTestCase("case_1", "EXP-2026-00042")

	repo := &MockCaseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Case, error) {
			return c, nil
		},
	}
	svc, recorder := newCaseFixture(repo, &MockDepartmentRepository{})

	err := svc.Delete(context.Background(), "user_2", "case_1")

	require.NoError(t, err)
	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionDelete, entries[0].Action)
	require.NotNil(t, entries[0].CaseID)
	assert.Equal(t, "case_1", *entries[0].CaseID)
}
