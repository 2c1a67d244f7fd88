package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service/auth"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// genericErrorMessage is what clients see when no specific mapping exists.
const genericErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, engine.ErrUnknownWorker),
		errors.Is(err, engine.ErrUnknownProcessor),
		errors.Is(err, service.ErrScheduleNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrScheduleExists),
		errors.Is(err, engine.ErrAlreadyRunning):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrMissingKind),
		errors.Is(err, engine.ErrNilTask):
		return http.StatusBadRequest

	// The engine refusing work while stopped is an availability condition,
	// not a client mistake.
	case errors.Is(err, engine.ErrEngineStopped):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	// Not found errors
	case errors.Is(err, engine.ErrUnknownWorker):
		return "Worker not found"

	case errors.Is(err, engine.ErrUnknownProcessor):
		return "Batch processor not found"

	case errors.Is(err, service.ErrScheduleNotFound):
		return "Schedule not found"

	// Conflict errors
	case errors.Is(err, service.ErrScheduleExists):
		return "Schedule already exists"

	case errors.Is(err, engine.ErrAlreadyRunning):
		return "Engine already running"

	// Bad request errors
	case errors.Is(err, task.ErrInvalidPriority):
		return "Invalid priority level"

	case errors.Is(err, task.ErrMissingKind):
		return "Task kind is required"

	case errors.Is(err, engine.ErrNilTask):
		return "Task is required"

	// Availability
	case errors.Is(err, engine.ErrEngineStopped):
		return "Engine is not running"

	default:
		return genericErrorMessage
	}
}

// HandleAPIError writes an error response with the status code and safe
// message derived from the error. When no specific message exists for the
// error, defaultMessage is used instead (if non-empty). The raw error goes to
// the logs only.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if message == genericErrorMessage && defaultMessage != "" {
		message = defaultMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'EnqueueRequest.Kind' Error:Field validation for 'Kind' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt", "gte":
		return "value too small"
	case "lt", "lte":
		return "value too large"
	default:
		return "validation failed"
	}
}
