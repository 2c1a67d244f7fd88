package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service"
)

// ScheduleHandler manages the recurring task schedules.
type ScheduleHandler struct {
	scheduler *service.Scheduler
}

// NewScheduleHandler creates a new ScheduleHandler backed by the given
// scheduler.
func NewScheduleHandler(scheduler *service.Scheduler) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler}
}

// Create handles POST /api/schedules.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err))
		return
	}

	sch, err := req.toSchedule()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.scheduler.Add(sch); err != nil {
		if errors.Is(err, service.ErrScheduleExists) {
			HandleAPIError(w, r, err, "")
			return
		}
		// Everything else Add reports is a problem with the submitted
		// template, a bad cron spec most commonly. The message carries only
		// the caller's own input.
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid schedule: "+err.Error(), err)
		return
	}

	info, err := h.scheduler.Get(sch.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load created schedule")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, info)
}

// List handles GET /api/schedules.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, SchedulesResponse{
		Schedules: h.scheduler.List(),
	})
}

// Get handles GET /api/schedules/{name}.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.scheduler.Get(chi.URLParam(r, "name"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// Delete handles DELETE /api/schedules/{name}.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Remove(chi.URLParam(r, "name")); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
