package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service/auth"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid token", err: auth.ErrInvalidToken, want: http.StatusUnauthorized},
		{name: "expired token", err: auth.ErrExpiredToken, want: http.StatusUnauthorized},
		{name: "invalid credentials", err: auth.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "unknown worker", err: engine.ErrUnknownWorker, want: http.StatusNotFound},
		{name: "unknown processor", err: engine.ErrUnknownProcessor, want: http.StatusNotFound},
		{name: "schedule not found", err: service.ErrScheduleNotFound, want: http.StatusNotFound},
		{name: "schedule exists", err: service.ErrScheduleExists, want: http.StatusConflict},
		{name: "already running", err: engine.ErrAlreadyRunning, want: http.StatusConflict},
		{name: "invalid priority", err: task.ErrInvalidPriority, want: http.StatusBadRequest},
		{name: "missing kind", err: task.ErrMissingKind, want: http.StatusBadRequest},
		{name: "nil task", err: engine.ErrNilTask, want: http.StatusBadRequest},
		{name: "engine stopped", err: engine.ErrEngineStopped, want: http.StatusServiceUnavailable},
		{name: "unknown error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{
			name: "wrapped sentinel keeps its mapping",
			err:  fmt.Errorf("enqueue: %w", engine.ErrEngineStopped),
			want: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "expired token", err: auth.ErrExpiredToken, want: "Token expired"},
		{name: "invalid credentials", err: auth.ErrInvalidCredentials, want: "Invalid credentials"},
		{name: "unknown worker", err: engine.ErrUnknownWorker, want: "Worker not found"},
		{name: "engine stopped", err: engine.ErrEngineStopped, want: "Engine is not running"},
		{name: "invalid priority", err: task.ErrInvalidPriority, want: "Invalid priority level"},
		{
			name: "internal details are not leaked",
			err:  errors.New("dial tcp 10.0.3.7:27017: connection refused"),
			want: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		defaultMessage string
		wantStatus     int
		wantError      string
	}{
		{
			name:       "known error uses its safe message",
			err:        engine.ErrUnknownWorker,
			wantStatus: http.StatusNotFound,
			wantError:  "Worker not found",
		},
		{
			name:       "unknown error falls back to the generic message",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "An unexpected error occurred",
		},
		{
			name:           "default message replaces only the generic one",
			err:            errors.New("boom"),
			defaultMessage: "Failed to enqueue task",
			wantStatus:     http.StatusInternalServerError,
			wantError:      "Failed to enqueue task",
		},
		{
			name:           "default message never overrides a specific one",
			err:            fmt.Errorf("lookup: %w", service.ErrScheduleNotFound),
			defaultMessage: "Something else",
			wantStatus:     http.StatusNotFound,
			wantError:      "Schedule not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/workers/3", nil)
			rec := httptest.NewRecorder()

			HandleAPIError(rec, req, tt.err, tt.defaultMessage)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp shared.ErrorResponse
			decodeResponse(t, rec, &resp)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	t.Run("field validation errors are condensed", func(t *testing.T) {
		err := shared.ValidateRequest(TaskSubmission{})
		assert.Error(t, err)
		assert.Equal(t, "Invalid Kind: required field", SanitizeValidationError(err))
	})

	t.Run("range tag", func(t *testing.T) {
		err := shared.ValidateRequest(TaskSubmission{Kind: "analysis", MaxAttempts: -1})
		assert.Error(t, err)
		assert.Equal(t, "Invalid MaxAttempts: value too small", SanitizeValidationError(err))
	})

	t.Run("other errors collapse to a generic message", func(t *testing.T) {
		assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
	})
}
