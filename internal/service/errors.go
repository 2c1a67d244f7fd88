package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers may want to check for with
// errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context via fmt.Errorf and %w
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrScheduleExists indicates a recurring schedule is already registered
	// under the requested name.
	// API layer should map this to HTTP 409 Conflict.
	ErrScheduleExists = errors.New("schedule already exists")

	// ErrScheduleNotFound indicates no recurring schedule is registered under
	// the given name.
	// API layer should map this to HTTP 404 Not Found.
	ErrScheduleNotFound = errors.New("schedule not found")
)
