package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled = errors.New("account is disabled")
	ErrAccountLocked   = errors.New("account is temporarily locked")

	// Case state errors
	ErrCaseCompleted     = errors.New("case is already completed")
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// Task state errors
	ErrTaskBlocked        = errors.New("task has incomplete dependencies")
	ErrCircularDependency = errors.New("dependency would create a cycle")
)
