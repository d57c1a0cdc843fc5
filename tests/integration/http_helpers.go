package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mopc-digital/expedientes/internal/auth"
	"github.com/mopc-digital/expedientes/internal/config"
	"github.com/mopc-digital/expedientes/internal/database"
	"github.com/mopc-digital/expedientes/internal/handlers"
	middlewareCustom "github.com/mopc-digital/expedientes/internal/middleware"
	"github.com/mopc-digital/expedientes/internal/repositories"
	"github.com/mopc-digital/expedientes/internal/routes"
	"github.com/mopc-digital/expedientes/internal/services"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailService captures sent emails for test assertions
type MockEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

// SendNotificationEmail records the email
func (m *MockEmailService) SendNotificationEmail(ctx context.Context, email, title, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{
		To:      email,
		Subject: title,
		Body:    message,
	})
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *MockEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	Pool         *database.DB
	EmailService *MockEmailService
	Config       *config.Config

	logger *slog.Logger
}

// NewTestServer initializes a complete HTTP server with real database + mocked email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Create test config
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long-for-testing",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
			MaxFailedAttempts:  5,
			LockoutWindow:      30 * time.Minute,
		},
		Email: config.EmailConfig{
			Enabled:     false,
			FromAddress: "notificaciones@test.local",
			PortalURL:   "http://localhost:3000",
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
		},
		Retention: config.RetentionConfig{
			ActivityRetentionDays:     365,
			NotificationRetentionDays: 90,
			CleanupInterval:           1 * time.Hour,
		},
	}

	// Initialize repositories
	userRepo, departmentRepo, caseRepo, documentRepo, activityRepo, notificationRepo :=
		InitializeRepositories(db)
	taskRepo := repositories.NewTaskRepository(db)
	permissionRepo := repositories.NewPermissionRepository(db)

	// Create mock email service
	mockEmail := &MockEmailService{
		SentEmails: []SentEmail{},
	}

	// Initialize TokenManager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	// Initialize services
	activityService := services.NewActivityService(activityRepo, logger)
	lockoutService := services.NewLockoutService(userRepo, activityService, services.LockoutConfig{
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockoutWindow:     cfg.Auth.LockoutWindow,
	}, logger)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, mockEmail, logger)
	authService := services.NewAuthService(userRepo, lockoutService, tokenManager, activityService, logger)
	userService := services.NewUserService(userRepo, departmentRepo, activityService, logger)
	departmentService := services.NewDepartmentService(departmentRepo, activityService, logger)
	caseService := services.NewCaseService(caseRepo, departmentRepo, activityService, notificationService, logger)
	documentService := services.NewDocumentService(documentRepo, caseRepo, activityService, logger)
	taskService := services.NewTaskService(taskRepo, caseRepo, userRepo, departmentRepo, activityService, notificationService, logger)
	permissionService := services.NewPermissionService(permissionRepo, userRepo, departmentRepo, activityService, logger)

	// Initialize handlers
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, nil),
		Users:         handlers.NewUserHandler(userService),
		Departments:   handlers.NewDepartmentHandler(departmentService),
		Cases:         handlers.NewCaseHandler(caseService),
		Documents:     handlers.NewDocumentHandler(documentService),
		Activities:    handlers.NewActivityHandler(activityService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Tasks:         handlers.NewTaskHandler(taskService),
		Permissions:   handlers.NewPermissionHandler(permissionService),
	}

	// Setup Chi router with middleware
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Setup routes using production pattern; a generous rate limit keeps
	// lockout tests from tripping the per-IP limiter first
	routes.RegisterRoutes(r, h, tokenManager, userRepo, middlewareCustom.RateLimitConfig{RequestsPerMinute: 1000})

	// Create httptest.Server
	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		Pool:         db,
		EmailService: mockEmail,
		Config:       cfg,
		logger:       logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if headers != nil {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
	return ts.Request(method, path, body, headers)
}

// Login authenticates against the test server and returns the token pair
func (ts *TestServer) Login(email, password string) (accessToken, refreshToken string, err error) {
	resp, err := ts.Request("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return "", "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	return ExtractTokensFromResponse(resp)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractTokensFromResponse extracts access/refresh tokens from auth response
func ExtractTokensFromResponse(resp *http.Response) (accessToken, refreshToken string, err error) {
	defer resp.Body.Close()

	var authResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", "", fmt.Errorf("failed to parse response: %w", err)
	}

	if access, ok := authResp["access_token"].(string); ok {
		accessToken = access
	}
	if refresh, ok := authResp["refresh_token"].(string); ok {
		refreshToken = refresh
	}

	return
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
