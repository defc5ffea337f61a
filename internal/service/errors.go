package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrTripNotFound indicates that the trip does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTripNotFound = errors.New("trip not found")

	// ErrPersistenceUnavailable indicates a generated trip could neither be
	// stored nor handed to the background runner.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrPersistenceUnavailable = errors.New("trip persistence unavailable")
)
