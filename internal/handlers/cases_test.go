package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mopc-digital/expedientes/internal/handlers"
	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestCaseCreate_Success(t *testing.T) {
	mockService := &handlers.MockCaseService{
		CreateFunc: func(ctx context.Context, actorID string, input services.CreateCaseInput) (*models.Case, error) {
			assert.Equal(t, "user_1", actorID)
			return &models.Case{
				ID:         "case_1",
				CaseNumber: "EXP-2026-00042",
				Status:     models.CaseStatusActive,
				State:      models.StateIntake,
				OwnerName:  input.OwnerName,
			}, nil
		},
	}

	handler := handlers.NewCaseHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/cases", handlers.CaseRequest{
		OwnerName: "Pedro Martínez",
		Address:   "Calle Duarte 42",
	})
	req = handlers.WithAuthContext(req, "user_1", "ana@mopc.gob.do", models.RoleAnalyst)

	w := httptest.NewRecorder()
	handler.Create(w, req)

	var resp models.Case
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "EXP-2026-00042", resp.CaseNumber)
}

func TestCaseCreate_RequiresAuth(t *testing.T) {
	handler := handlers.NewCaseHandler(&handlers.MockCaseService{})
	req := handlers.NewTestRequest(t, "POST", "/cases", handlers.CaseRequest{
		OwnerName: "Pedro Martínez",
		Address:   "Calle Duarte 42",
	})

	w := httptest.NewRecorder()
	handler.Create(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestCaseCreate_MissingOwner(t *testing.T) {
	handler := handlers.NewCaseHandler(&handlers.MockCaseService{})
	req := handlers.NewTestRequest(t, "POST", "/cases", handlers.CaseRequest{
		Address: "Calle Duarte 42",
	})
	req = handlers.WithAuthContext(req, "user_1", "ana@mopc.gob.do", models.RoleAnalyst)

	w := httptest.NewRecorder()
	handler.Create(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestCaseTransition_Conflict(t *testing.T) {
	mockService := &handlers.MockCaseService{
		TransitionFunc: func(ctx context.Context, actorID, id string, input services.TransitionInput) (*models.Case, error) {
			return nil, models.ErrInvalidTransition
		},
	}

	handler := handlers.NewCaseHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/cases/case_1/transition", handlers.TransitionRequest{
		ToState: models.StateLegalReview,
	})
	req = handlers.WithAuthContext(req, "user_1", "ana@mopc.gob.do", models.RoleSupervisor)
	req = withURLParam(req, "id", "case_1")

	w := httptest.NewRecorder()
	handler.Transition(w, req)

	handlers.AssertErrorResponse(t, w, 409, "conflict")
}

func TestCaseGetByID_NotFound(t *testing.T) {
	handler := handlers.NewCaseHandler(&handlers.MockCaseService{})
	req := handlers.NewTestRequest(t, "GET", "/cases/missing", nil)
	req = withURLParam(req, "id", "missing")

	w := httptest.NewRecorder()
	handler.GetByID(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
