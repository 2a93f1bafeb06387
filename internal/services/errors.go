package services

import "errors"

// Errors shared across services. Handlers map these to HTTP statuses.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInUse             = errors.New("resource is referenced by other records")
	ErrUnauthorized      = errors.New("invalid credentials")
	ErrForbidden         = errors.New("operation not allowed for this role")
)
