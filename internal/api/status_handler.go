package api

import (
	"net/http"
	"time"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
)

// StatusHandler exposes the engine's observable state: queues, workers,
// batch processors and the performance snapshot.
type StatusHandler struct {
	engine *engine.Engine
}

// NewStatusHandler creates a new StatusHandler backed by the given engine.
func NewStatusHandler(eng *engine.Engine) *StatusHandler {
	return &StatusHandler{engine: eng}
}

// Queues handles GET /api/queues.
func (h *StatusHandler) Queues(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, QueuesResponse{
		Queues: h.engine.QueueStatuses(),
	})
}

// Queue handles GET /api/queues/{level}.
func (h *StatusHandler) Queue(w http.ResponseWriter, r *http.Request) {
	level, err := getPathPriority(r, "level")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	status, err := h.engine.QueueStatus(level)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// ClearQueue handles DELETE /api/queues/{level}.
func (h *StatusHandler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	level, err := getPathPriority(r, "level")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	cleared, err := h.engine.ClearQueue(level)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to clear queue")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ClearQueueResponse{
		Level:   level.String(),
		Cleared: cleared,
	})
}

// ClearAllQueues handles DELETE /api/queues.
func (h *StatusHandler) ClearAllQueues(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ClearQueueResponse{
		Cleared: h.engine.ClearAllQueues(),
	})
}

// Workers handles GET /api/workers.
func (h *StatusHandler) Workers(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, WorkersResponse{
		Workers: h.engine.WorkerStatuses(),
	})
}

// Worker handles GET /api/workers/{id}.
func (h *StatusHandler) Worker(w http.ResponseWriter, r *http.Request) {
	id, err := getPathInt(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid worker ID", err)
		return
	}
	status, err := h.engine.WorkerStatus(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// BatchProcessors handles GET /api/batch-processors.
func (h *StatusHandler) BatchProcessors(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, BatchProcessorsResponse{
		BatchProcessors: h.engine.BatchProcessorStatuses(),
	})
}

// BatchProcessor handles GET /api/batch-processors/{id}.
func (h *StatusHandler) BatchProcessor(w http.ResponseWriter, r *http.Request) {
	id, err := getPathInt(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid batch processor ID", err)
		return
	}
	status, err := h.engine.BatchProcessorStatus(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// Performance handles GET /api/metrics, the engine's throughput snapshot.
// The prometheus exposition lives at /metrics on the root router.
func (h *StatusHandler) Performance(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.engine.PerformanceMetrics())
}

// Health handles GET /health. It always reports 200; the engine field tells
// callers whether dispatching is live.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	state := "stopped"
	if h.engine.IsRunning() {
		state = "running"
	}
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ok",
		Engine: state,
		Time:   time.Now().UTC(),
	})
}
