package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mopc-digital/expedientes/internal/models"
)

func TestLoginLockoutFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	email, password := TestUser("lockout")
	_, err = SeedUser(ctx, testDB.Pool, email, password, models.RoleAnalyst, nil)
	require.NoError(t, err)

	// Correct credentials authenticate
	accessToken, refreshToken, err := ts.Login(email, password)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)

	// Five consecutive failures lock the account
	for i := 0; i < 5; i++ {
		resp, err := ts.Request("POST", "/auth/login", map[string]string{
			"email":    email,
			"password": "wrong-password",
		}, nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, err := ts.Request("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Every failed attempt left an audit row
	count, err := CountActivities(ctx, testDB.Pool, models.ActionFailedLogin)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}

func TestRefreshTokenFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	email, password := TestUser("refresh")
	_, err = SeedUser(ctx, testDB.Pool, email, password, models.RoleAnalyst, nil)
	require.NoError(t, err)

	_, refreshToken, err := ts.Login(email, password)
	require.NoError(t, err)

	resp, err := ts.Request("POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	accessToken, _, err := ExtractTokensFromResponse(resp)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)

	// Fresh access token reaches an authenticated endpoint
	meResp, err := ts.RequestWithAuth("GET", "/users/me", accessToken, nil)
	require.NoError(t, err)
	defer meResp.Body.Close()
	assert.Equal(t, http.StatusOK, meResp.StatusCode)
}
