package api

import (
	"net/http"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// TaskHandler accepts task submissions for the scheduling engine.
type TaskHandler struct {
	engine *engine.Engine
}

// NewTaskHandler creates a new TaskHandler backed by the given engine.
func NewTaskHandler(eng *engine.Engine) *TaskHandler {
	return &TaskHandler{engine: eng}
}

// Submit handles POST /api/tasks.
// An accepted task is queued, not yet executed, so success is 202.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req TaskSubmission
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err))
		return
	}

	opts, err := req.options()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	id, err := h.engine.Enqueue(task.New(task.Kind(req.Kind), req.Payload, opts...))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to enqueue task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		TaskID: id,
		Status: "queued",
	})
}

// SubmitBatch handles POST /api/tasks/batch.
// Items are accepted or rejected individually. The response reports every
// rejected item by its position in the request, and the whole call fails
// only when the engine is not running.
func (h *TaskHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchSubmitRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err))
		return
	}

	items := make([]engine.BatchItem, 0, len(req.Tasks))
	indexOf := make([]int, 0, len(req.Tasks))
	var rejected []BatchItemError
	for i, sub := range req.Tasks {
		opts, err := sub.options()
		if err != nil {
			rejected = append(rejected, BatchItemError{Index: i, Error: GetSafeErrorMessage(err)})
			continue
		}
		items = append(items, engine.BatchItem{
			Kind:    task.Kind(sub.Kind),
			Payload: sub.Payload,
			Options: opts,
		})
		indexOf = append(indexOf, i)
	}

	res, err := h.engine.EnqueueBatch(items)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to enqueue batch")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, newBatchSubmitResponse(res, indexOf, rejected))
}
