package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockoutService(repo *MockUserRepository, recorder *MockActivityRecorder) *LockoutService {
	return NewLockoutService(repo, recorder, DefaultLockoutConfig(), testLogger())
}

// ============================================================================
// RecordFailedAttempt Tests
// ============================================================================

func TestLockoutService_RecordFailedAttempt_IncrementsCounter(t *testing.T) {
	user := NewTestUser("user_1", "ana@mopc.gob.do")
	user.FailedLoginAttempts = 2

	var gotAttempts int
	var gotLockedUntil *time.Time
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			gotAttempts = failedAttempts
			gotLockedUntil = lockedUntil
			return nil
		},
	}
	recorder := &MockActivityRecorder{}

	err := newLockoutService(repo, recorder).RecordFailedAttempt(context.Background(), "ana@mopc.gob.do")

	require.NoError(t, err)
	assert.Equal(t, 3, gotAttempts)
	assert.Nil(t, gotLockedUntil, "below the threshold no lock should be set")
}

func TestLockoutService_RecordFailedAttempt_LocksAtThreshold(t *testing.T) {
	user := NewTestUser("user_1", "ana@mopc.gob.do")
	user.FailedLoginAttempts = 4

	var gotAttempts int
	var gotLockedUntil *time.Time
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			gotAttempts = failedAttempts
			gotLockedUntil = lockedUntil
			return nil
		},
	}
	recorder := &MockActivityRecorder{}

	err := newLockoutService(repo, recorder).RecordFailedAttempt(context.Background(), "ana@mopc.gob.do")

	require.NoError(t, err)
	assert.Equal(t, 5, gotAttempts)
	require.NotNil(t, gotLockedUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *gotLockedUntil, 2*time.Second)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionFailedLogin, entries[0].Action)
	require.NotNil(t, entries[0].Description)
	assert.Contains(t, *entries[0].Description, "account locked")
	assert.Equal(t, true, entries[0].Metadata["locked"])
}

func TestLockoutService_RecordFailedAttempt_ExtendsLockPastThreshold(t *testing.T) {
	user := NewTestUserLocked("user_1", "ana@mopc.gob.do")

	var gotLockedUntil *time.Time
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			gotLockedUntil = lockedUntil
			return nil
		},
	}
	recorder := &MockActivityRecorder{}

	err := newLockoutService(repo, recorder).RecordFailedAttempt(context.Background(), "ana@mopc.gob.do")

	require.NoError(t, err)
	require.NotNil(t, gotLockedUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *gotLockedUntil, 2*time.Second)
}

func TestLockoutService_RecordFailedAttempt_UnknownEmailIsNoOp(t *testing.T) {
	updateCalled := false
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			updateCalled = true
			return nil
		},
	}
	recorder := &MockActivityRecorder{}

	err := newLockoutService(repo, recorder).RecordFailedAttempt(context.Background(), "nadie@mopc.gob.do")

	assert.NoError(t, err)
	assert.False(t, updateCalled, "unknown email must not touch any account")
	assert.Empty(t, recorder.Recorded(), "unknown email must not leave an audit entry")
}

func TestLockoutService_RecordFailedAttempt_LookupErrorPropagates(t *testing.T) {
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	recorder := &MockActivityRecorder{}

	err := newLockoutService(repo, recorder).RecordFailedAttempt(context.Background(), "ana@mopc.gob.do")

	assert.Error(t, err)
	assert.Empty(t, recorder.Recorded())
}

func TestLockoutService_RecordFailedAttempt_PersistenceErrorStillAudited(t *testing.T) {
	user := NewTestUser("user_1", "ana@mopc.gob.do")

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			return errors.New("write failed")
		},
	}
	recorder := &MockActivityRecorder{}

	err := newLockoutService(repo, recorder).RecordFailedAttempt(context.Background(), "ana@mopc.gob.do")

	assert.Error(t, err, "counter persistence failures are hard errors")
	assert.Len(t, recorder.Recorded(), 1, "the audit entry is still emitted")
}

func TestLockoutService_RecordFailedAttempt_OneEntryPerAttempt(t *testing.T) {
	user := NewTestUser("user_1", "ana@mopc.gob.do")

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			user.FailedLoginAttempts = failedAttempts
			user.LockedUntil = lockedUntil
			return nil
		},
	}
	recorder := &MockActivityRecorder{}
	svc := newLockoutService(repo, recorder)

	for i := 0; i < 6; i++ {
		_ = svc.RecordFailedAttempt(context.Background(), "ana@mopc.gob.do")
	}

	entries := recorder.Recorded()
	require.Len(t, entries, 6)
	assert.Equal(t, 6, entries[5].Metadata["failed_attempts"],
		"counter keeps counting past the threshold")
	assert.True(t, user.IsLocked(time.Now()))
}

// ============================================================================
// RecordSuccessfulLogin Tests
// ============================================================================

func TestLockoutService_RecordSuccessfulLogin_ResetsStateAndAudits(t *testing.T) {
	var gotID string
	var gotIP *string
	repo := &MockUserRepository{
		RecordLoginFunc: func(ctx context.Context, id string, at time.Time, ip, userAgent *string) error {
			gotID = id
			gotIP = ip
			return nil
		},
	}
	recorder := &MockActivityRecorder{}

	ip := "10.0.0.7"
	err := newLockoutService(repo, recorder).RecordSuccessfulLogin(context.Background(), "user_1", &ip, nil)

	require.NoError(t, err)
	assert.Equal(t, "user_1", gotID)
	require.NotNil(t, gotIP)
	assert.Equal(t, "10.0.0.7", *gotIP)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionLogin, entries[0].Action)
	assert.Equal(t, "user_1", entries[0].EntityID)
}

func TestLockoutService_RecordSuccessfulLogin_UpdateErrorPropagates(t *testing.T) {
	repo := &MockUserRepository{
		RecordLoginFunc: func(ctx context.Context, id string, at time.Time, ip, userAgent *string) error {
			return errors.New("write failed")
		},
	}
	recorder := &MockActivityRecorder{}

	err := newLockoutService(repo, recorder).RecordSuccessfulLogin(context.Background(), "user_1", nil, nil)

	assert.Error(t, err)
	assert.Len(t, recorder.Recorded(), 1, "the audit write is independent of the state update")
}

func TestLockoutService_RecordSuccessfulLogin_SurvivesAuditWriteFailure(t *testing.T) {
	recordLoginCalled := false
	repo := &MockUserRepository{
		RecordLoginFunc: func(ctx context.Context, id string, at time.Time, ip, userAgent *string) error {
			recordLoginCalled = true
			return nil
		},
	}

	// Real activity service over a repository whose insert always fails, so
	// the swallow happens in the production path rather than in a mock.
	activityRepo := &MockActivityRepository{
		CreateFunc: func(ctx context.Context, a *models.Activity) (*models.Activity, error) {
			return nil, errors.New("insert failed")
		},
	}
	activity := NewActivityService(activityRepo, testLogger())
	svc := NewLockoutService(repo, activity, DefaultLockoutConfig(), testLogger())

	err := svc.RecordSuccessfulLogin(context.Background(), "user_1", nil, nil)

	require.NoError(t, err)
	assert.True(t, recordLoginCalled, "login bookkeeping must proceed when the audit insert fails")
}
