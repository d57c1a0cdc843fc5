package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mopc-digital/expedientes/internal/models"
	pkgauth "github.com/mopc-digital/expedientes/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "SecurePassword123!"

func newAuthFixture(t *testing.T, repo *MockUserRepository) (*AuthService, *MockActivityRecorder) {
	t.Helper()
	recorder := &MockActivityRecorder{}
	lockout := NewLockoutService(repo, recorder, DefaultLockoutConfig(), testLogger())
	svc := NewAuthService(repo, lockout, &MockTokenManager{}, recorder, testLogger())
	return svc, recorder
}

func hashedTestPassword(t *testing.T) string {
	t.Helper()
	hash, err := pkgauth.HashPassword(testPassword)
	require.NoError(t, err)
	return hash
}

// ============================================================================
// Login Tests
// ============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))

	loginRecorded := false
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordLoginFunc: func(ctx context.Context, id string, at time.Time, ip, userAgent *string) error {
			loginRecorded = true
			assert.Equal(t, "user_1", id)
			return nil
		},
	}
	svc, recorder := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "ana@mopc.gob.do", testPassword, "10.0.0.7", "test-agent")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "access_token_user_1", resp.AccessToken)
	assert.Equal(t, "refresh_token_user_1", resp.RefreshToken)
	assert.Equal(t, "ana@mopc.gob.do", resp.User.Email)
	assert.True(t, loginRecorded)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionLogin, entries[0].Action)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))

	var gotAttempts int
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			gotAttempts = failedAttempts
			return nil
		},
	}
	svc, recorder := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "ana@mopc.gob.do", "wrong-password", "", "")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
	assert.Equal(t, 1, gotAttempts)

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionFailedLogin, entries[0].Action)
}

func TestAuthService_Login_WrongPasswordPersistenceFailure(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			return errors.New("write failed")
		},
	}
	svc, _ := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "ana@mopc.gob.do", "wrong-password", "", "")

	assert.ErrorIs(t, err, models.ErrInternalServer,
		"an unenforceable lockout is a server error, not just bad credentials")
	assert.Nil(t, resp)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}
	svc, recorder := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "nadie@mopc.gob.do", testPassword, "", "")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
	assert.Empty(t, recorder.Recorded(), "unknown accounts leave no trace")
}

func TestAuthService_Login_LockedAccount(t *testing.T) {
	user := NewTestUserLocked("user_1", "ana@mopc.gob.do")
	user.PasswordHash = hashedTestPassword(t)

	updateCalled := false
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateLockoutFunc: func(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
			updateCalled = true
			return nil
		},
	}
	svc, recorder := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "ana@mopc.gob.do", testPassword, "10.0.0.7", "")

	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.Nil(t, resp)
	assert.False(t, updateCalled, "attempts while locked do not advance the counter")

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionFailedLogin, entries[0].Action)
}

func TestAuthService_Login_ExpiredLockAllowsLogin(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))
	user.FailedLoginAttempts = 5
	expired := time.Now().Add(-time.Minute)
	user.LockedUntil = &expired

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "ana@mopc.gob.do", testPassword, "", "")

	require.NoError(t, err, "a lock is a timestamp predicate; once past, the account is open")
	assert.NotNil(t, resp)
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))
	user.Active = false

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, recorder := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "ana@mopc.gob.do", testPassword, "", "")

	assert.ErrorIs(t, err, models.ErrAccountDisabled)
	assert.Nil(t, resp)
	require.Len(t, recorder.Recorded(), 1)
}

func TestAuthService_Login_SuccessStateUpdateFailure(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordLoginFunc: func(ctx context.Context, id string, at time.Time, ip, userAgent *string) error {
			return errors.New("write failed")
		},
	}
	svc, _ := newAuthFixture(t, repo)

	resp, err := svc.Login(context.Background(), "ana@mopc.gob.do", testPassword, "", "")

	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.Nil(t, resp)
}

// ============================================================================
// RefreshToken Tests
// ============================================================================

func TestAuthService_RefreshToken_Success(t *testing.T) {
	user := NewTestUser("user_1", "ana@mopc.gob.do")

	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}
	recorder := &MockActivityRecorder{}
	lockout := NewLockoutService(repo, recorder, DefaultLockoutConfig(), testLogger())
	tm := &MockTokenManager{
		ValidateTokenFunc: func(tokenString string) (*models.TokenClaims, error) {
			return &models.TokenClaims{
				Type:   "refresh",
				UserID: "user_1",
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt: jwt.NewNumericDate(time.Now()),
				},
			}, nil
		},
	}
	svc := NewAuthService(repo, lockout, tm, recorder, testLogger())

	resp, err := svc.RefreshToken(context.Background(), "some-refresh-token")

	require.NoError(t, err)
	assert.Equal(t, "access_token_user_1", resp.AccessToken)
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	repo := &MockUserRepository{}
	recorder := &MockActivityRecorder{}
	lockout := NewLockoutService(repo, recorder, DefaultLockoutConfig(), testLogger())
	tm := &MockTokenManager{
		ValidateTokenFunc: func(tokenString string) (*models.TokenClaims, error) {
			return &models.TokenClaims{Type: "access", UserID: "user_1"}, nil
		},
	}
	svc := NewAuthService(repo, lockout, tm, recorder, testLogger())

	resp, err := svc.RefreshToken(context.Background(), "an-access-token")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_RefreshToken_InvalidatedByPasswordChange(t *testing.T) {
	user := NewTestUser("user_1", "ana@mopc.gob.do")
	changedAt := time.Now()
	user.PasswordChangedAt = &changedAt

	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}
	recorder := &MockActivityRecorder{}
	lockout := NewLockoutService(repo, recorder, DefaultLockoutConfig(), testLogger())
	tm := &MockTokenManager{
		ValidateTokenFunc: func(tokenString string) (*models.TokenClaims, error) {
			return &models.TokenClaims{
				Type:   "refresh",
				UserID: "user_1",
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}, nil
		},
	}
	svc := NewAuthService(repo, lockout, tm, recorder, testLogger())

	resp, err := svc.RefreshToken(context.Background(), "old-refresh-token")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

// ============================================================================
// ChangePassword Tests
// ============================================================================

func TestAuthService_ChangePassword_Success(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))

	var newHash string
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc, recorder := newAuthFixture(t, repo)

	err := svc.ChangePassword(context.Background(), "user_1", testPassword, "AnotherSecure456!")

	require.NoError(t, err)
	assert.NoError(t, pkgauth.ComparePassword(newHash, "AnotherSecure456!"))

	entries := recorder.Recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionPasswordChange, entries[0].Action)
}

func TestAuthService_ChangePassword_WrongCurrentPassword(t *testing.T) {
	user := NewTestUserWithPassword("user_1", "ana@mopc.gob.do", hashedTestPassword(t))

	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthFixture(t, repo)

	err := svc.ChangePassword(context.Background(), "user_1", "wrong-password", "AnotherSecure456!")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
