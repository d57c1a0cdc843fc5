package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/mopc-digital/expedientes/internal/auth"
	"github.com/mopc-digital/expedientes/internal/handlers"
	"github.com/mopc-digital/expedientes/internal/middleware"
	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/mopc-digital/expedientes/internal/repositories"
)

// Handlers bundles every HTTP handler registered on the router.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Departments   *handlers.DepartmentHandler
	Cases         *handlers.CaseHandler
	Documents     *handlers.DocumentHandler
	Tasks         *handlers.TaskHandler
	Activities    *handlers.ActivityHandler
	Notifications *handlers.NotificationHandler
	Permissions   *handlers.PermissionHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
	rateLimitConfig middleware.RateLimitConfig,
) {
	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", h.Auth.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/refresh", h.Auth.RefreshToken)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		// Auth endpoints
		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/auth/change-password", h.Auth.ChangePassword)

		// Any authenticated user
		r.Get("/users/me", h.Users.Me)
		r.Put("/users/me", h.Users.UpdateMe)
		r.Get("/users/{id}", h.Users.GetByID)

		r.Get("/departments", h.Departments.List)
		r.Get("/departments/{id}", h.Departments.GetByID)

		r.Get("/cases", h.Cases.List)
		r.Get("/cases/{id}", h.Cases.GetByID)
		r.Get("/cases/number/{number}", h.Cases.GetByNumber)
		r.Get("/cases/{id}/transitions", h.Cases.ListTransitions)
		r.Get("/cases/{id}/activities", h.Activities.ListByCase)
		r.Get("/cases/{id}/tasks", h.Tasks.ListByCase)

		r.Get("/tasks/my", h.Tasks.MyTasks)
		r.Get("/tasks/{id}", h.Tasks.GetByID)
		r.Get("/tasks/{id}/dependencies", h.Tasks.Dependencies)
		r.Post("/tasks/{id}/complete", h.Tasks.Complete)

		r.Get("/permissions", h.Permissions.List)
		r.Get("/users/me/permissions", h.Permissions.Mine)

		r.Post("/cases/{id}/documents", h.Documents.Register)
		r.Get("/cases/{id}/documents", h.Documents.ListByCase)
		r.Get("/documents/{id}", h.Documents.GetByID)
		r.Get("/documents/{id}/download", h.Documents.Download)
		r.Get("/document-types", h.Documents.ListTypes)

		r.Get("/notifications", h.Notifications.List)
		r.Post("/notifications/{id}/read", h.Notifications.MarkRead)

		// Case management - analysts cannot open, move, or delete cases
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userRepo, models.RoleAdmin, models.RoleSupervisor, models.RoleDepartmentHead))
			r.Post("/cases", h.Cases.Create)
			r.Put("/cases/{id}", h.Cases.Update)
			r.Post("/cases/{id}/transition", h.Cases.Transition)
			r.Delete("/cases/{id}", h.Cases.Delete)
			r.Post("/documents/{id}/review", h.Documents.Review)
			r.Delete("/documents/{id}", h.Documents.Delete)
			r.Get("/cases/stats", h.Cases.Stats)
			r.Get("/users/department/{id}", h.Users.ListByDepartment)
			r.Post("/tasks", h.Tasks.Create)
			r.Post("/tasks/{id}/assign", h.Tasks.Assign)
			r.Post("/tasks/{id}/dependencies", h.Tasks.AddDependency)
			r.Get("/departments/{id}/tasks", h.Tasks.DepartmentTasks)
		})

		// Oversight - supervisors and admins read the activity trail
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userRepo, models.RoleAdmin, models.RoleSupervisor))
			r.Get("/activities", h.Activities.List)
			r.Get("/users/stats", h.Users.Stats)
			r.Get("/users/{id}/activities", h.Activities.ListByActor)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userRepo, models.RoleAdmin))
			r.Post("/users", h.Users.Create)
			r.Get("/users", h.Users.List)
			r.Put("/users/{id}", h.Users.Update)
			r.Delete("/users/{id}", h.Users.Deactivate)
			r.Post("/users/{id}/unlock", h.Users.Unlock)
			r.Get("/users/{id}/permissions", h.Permissions.ListForUser)
			r.Post("/users/{id}/permissions", h.Permissions.Assign)
			r.Post("/departments", h.Departments.Create)
			r.Put("/departments/{id}", h.Departments.Update)
			r.Post("/document-types", h.Documents.CreateType)
		})
	})
}
