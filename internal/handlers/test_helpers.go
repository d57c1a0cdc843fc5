package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mopc-digital/expedientes/internal/auth"
	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/repositories"
	"github.com/mopc-digital/expedientes/internal/services"
	pkghttp "github.com/mopc-digital/expedientes/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email, role string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   "access",
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error)
	RefreshTokenFunc   func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc         func(ctx context.Context, userID, ipAddress string)
	ChangePasswordFunc func(ctx context.Context, userID, currentPassword, newPassword string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, ipAddress, userAgent)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshTokenFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, userID, ipAddress string) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, userID, ipAddress)
	}
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword)
}

// MockCaseService implements CaseServiceInterface for testing
type MockCaseService struct {
	CreateFunc          func(ctx context.Context, actorID string, input services.CreateCaseInput) (*models.Case, error)
	GetByIDFunc         func(ctx context.Context, id string) (*models.Case, error)
	GetByNumberFunc     func(ctx context.Context, caseNumber string) (*models.Case, error)
	ListFunc            func(ctx context.Context, filter repositories.CaseFilter, limit, offset int) ([]*models.Case, error)
	UpdateFunc          func(ctx context.Context, actorID, id string, input services.CreateCaseInput, appraisalValue *float64) (*models.Case, error)
	TransitionFunc      func(ctx context.Context, actorID, id string, input services.TransitionInput) (*models.Case, error)
	ListTransitionsFunc func(ctx context.Context, caseID string) ([]*models.CaseTransition, error)
	DeleteFunc          func(ctx context.Context, actorID, id string) error
	StatsFunc           func(ctx context.Context) (map[string]int64, error)
}

func (m *MockCaseService) Create(ctx context.Context, actorID string, input services.CreateCaseInput) (*models.Case, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, actorID, input)
}

func (m *MockCaseService) GetByID(ctx context.Context, id string) (*models.Case, error) {
	if m.GetByIDFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *MockCaseService) GetByNumber(ctx context.Context, caseNumber string) (*models.Case, error) {
	if m.GetByNumberFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetByNumberFunc(ctx, caseNumber)
}

func (m *MockCaseService) List(ctx context.Context, filter repositories.CaseFilter, limit, offset int) ([]*models.Case, error) {
	if m.ListFunc == nil {
		return []*models.Case{}, nil
	}
	return m.ListFunc(ctx, filter, limit, offset)
}

func (m *MockCaseService) Update(ctx context.Context, actorID, id string, input services.CreateCaseInput, appraisalValue *float64) (*models.Case, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, actorID, id, input, appraisalValue)
}

func (m *MockCaseService) Transition(ctx context.Context, actorID, id string, input services.TransitionInput) (*models.Case, error) {
	if m.TransitionFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.TransitionFunc(ctx, actorID, id, input)
}

func (m *MockCaseService) ListTransitions(ctx context.Context, caseID string) ([]*models.CaseTransition, error) {
	if m.ListTransitionsFunc == nil {
		return []*models.CaseTransition{}, nil
	}
	return m.ListTransitionsFunc(ctx, caseID)
}

func (m *MockCaseService) Delete(ctx context.Context, actorID, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, actorID, id)
}

func (m *MockCaseService) Stats(ctx context.Context) (map[string]int64, error) {
	if m.StatsFunc == nil {
		return map[string]int64{}, nil
	}
	return m.StatsFunc(ctx)
}
