package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

func enqueueAt(t *testing.T, eng *engine.Engine, level task.Priority, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := eng.Enqueue(task.New(task.KindAnalysis, nil, task.WithPriority(level)))
		require.NoError(t, err)
	}
}

// getPath runs a GET-style request against a handler, optionally with one
// chi path parameter.
func getPath(handler http.HandlerFunc, method, target, paramName, paramValue string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if paramName != "" {
		req = withURLParam(req, paramName, paramValue)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestQueues(t *testing.T) {
	t.Parallel()

	eng := startedEngine(t)
	handler := NewStatusHandler(eng)
	enqueueAt(t, eng, task.PriorityHigh, 2)
	enqueueAt(t, eng, task.PriorityBatch, 1)

	rec := getPath(handler.Queues, http.MethodGet, "/api/queues", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueuesResponse
	decodeResponse(t, rec, &resp)
	require.Len(t, resp.Queues, 5)

	sizes := make(map[string]int)
	for _, q := range resp.Queues {
		sizes[q.Level.String()] = q.Size
	}
	assert.Equal(t, map[string]int{
		"CRITICAL": 0,
		"HIGH":     2,
		"MEDIUM":   0,
		"LOW":      0,
		"BATCH":    1,
	}, sizes)

	// Levels come back in rank order.
	assert.Equal(t, task.PriorityCritical, resp.Queues[0].Level)
	assert.Equal(t, task.PriorityBatch, resp.Queues[4].Level)
}

func TestQueueByLevel(t *testing.T) {
	t.Parallel()

	eng := startedEngine(t)
	handler := NewStatusHandler(eng)
	enqueueAt(t, eng, task.PriorityLow, 3)

	rec := getPath(handler.Queue, http.MethodGet, "/api/queues/low", "level", "low")
	require.Equal(t, http.StatusOK, rec.Code)

	var status engine.QueueStatus
	decodeResponse(t, rec, &status)
	assert.Equal(t, task.PriorityLow, status.Level)
	assert.Equal(t, 3, status.Size)
	assert.False(t, status.Dispatching)
}

func TestQueueByLevelRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	handler := NewStatusHandler(startedEngine(t))

	rec := getPath(handler.Queue, http.MethodGet, "/api/queues/URGENT", "level", "URGENT")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp struct {
		Error string `json:"error"`
	}
	decodeResponse(t, rec, &errResp)
	assert.Equal(t, "Invalid priority level", errResp.Error)
}

func TestClearQueue(t *testing.T) {
	t.Parallel()

	eng := startedEngine(t)
	handler := NewStatusHandler(eng)
	enqueueAt(t, eng, task.PriorityLow, 3)

	rec := getPath(handler.ClearQueue, http.MethodDelete, "/api/queues/LOW", "level", "LOW")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ClearQueueResponse
	decodeResponse(t, rec, &resp)
	assert.Equal(t, "LOW", resp.Level)
	assert.Equal(t, 3, resp.Cleared)

	status, err := eng.QueueStatus(task.PriorityLow)
	require.NoError(t, err)
	assert.Zero(t, status.Size)

	// Clearing an already empty queue reports zero.
	rec = getPath(handler.ClearQueue, http.MethodDelete, "/api/queues/LOW", "level", "LOW")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &resp)
	assert.Zero(t, resp.Cleared)
}

func TestClearAllQueues(t *testing.T) {
	t.Parallel()

	eng := startedEngine(t)
	handler := NewStatusHandler(eng)
	enqueueAt(t, eng, task.PriorityCritical, 1)
	enqueueAt(t, eng, task.PriorityHigh, 2)

	rec := getPath(handler.ClearAllQueues, http.MethodDelete, "/api/queues", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ClearQueueResponse
	decodeResponse(t, rec, &resp)
	assert.Empty(t, resp.Level)
	assert.Equal(t, 3, resp.Cleared)

	for _, q := range eng.QueueStatuses() {
		assert.Zero(t, q.Size)
	}
}

func TestWorkers(t *testing.T) {
	t.Parallel()

	handler := NewStatusHandler(startedEngine(t))

	rec := getPath(handler.Workers, http.MethodGet, "/api/workers", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WorkersResponse
	decodeResponse(t, rec, &resp)
	require.Len(t, resp.Workers, 2)
	for i, w := range resp.Workers {
		assert.Equal(t, i, w.ID)
		assert.Equal(t, "idle", w.Status)
	}
}

func TestWorkerByID(t *testing.T) {
	t.Parallel()

	handler := NewStatusHandler(startedEngine(t))

	rec := getPath(handler.Worker, http.MethodGet, "/api/workers/0", "id", "0")
	require.Equal(t, http.StatusOK, rec.Code)

	var status engine.WorkerStatus
	decodeResponse(t, rec, &status)
	assert.Zero(t, status.ID)
	assert.Equal(t, "idle", status.Status)
}

func TestWorkerByIDErrors(t *testing.T) {
	t.Parallel()

	handler := NewStatusHandler(startedEngine(t))

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantError  string
	}{
		{name: "unknown worker", id: "9", wantStatus: http.StatusNotFound, wantError: "Worker not found"},
		{name: "non-numeric id", id: "abc", wantStatus: http.StatusBadRequest, wantError: "Invalid worker ID"},
		{name: "negative id", id: "-1", wantStatus: http.StatusBadRequest, wantError: "Invalid worker ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getPath(handler.Worker, http.MethodGet, "/api/workers/"+tt.id, "id", tt.id)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var errResp struct {
				Error string `json:"error"`
			}
			decodeResponse(t, rec, &errResp)
			assert.Equal(t, tt.wantError, errResp.Error)
		})
	}
}

func TestBatchProcessors(t *testing.T) {
	t.Parallel()

	handler := NewStatusHandler(startedEngine(t))

	rec := getPath(handler.BatchProcessors, http.MethodGet, "/api/batch-processors", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BatchProcessorsResponse
	decodeResponse(t, rec, &resp)
	require.Len(t, resp.BatchProcessors, 1)
	assert.Equal(t, "idle", resp.BatchProcessors[0].Status)
}

func TestBatchProcessorByID(t *testing.T) {
	t.Parallel()

	handler := NewStatusHandler(startedEngine(t))

	rec := getPath(handler.BatchProcessor, http.MethodGet, "/api/batch-processors/0", "id", "0")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getPath(handler.BatchProcessor, http.MethodGet, "/api/batch-processors/5", "id", "5")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp struct {
		Error string `json:"error"`
	}
	decodeResponse(t, rec, &errResp)
	assert.Equal(t, "Batch processor not found", errResp.Error)
}

func TestPerformance(t *testing.T) {
	t.Parallel()

	eng := startedEngine(t)
	handler := NewStatusHandler(eng)
	enqueueAt(t, eng, task.PriorityMedium, 2)

	rec := getPath(handler.Performance, http.MethodGet, "/api/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.Snapshot
	decodeResponse(t, rec, &snap)
	assert.Zero(t, snap.TotalProcessed)
	assert.Zero(t, snap.ErrorRate)
	assert.Equal(t, 2, snap.QueueSizes["MEDIUM"])
	assert.False(t, snap.Timestamp.IsZero())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("running engine", func(t *testing.T) {
		handler := NewStatusHandler(startedEngine(t))

		rec := getPath(handler.Health, http.MethodGet, "/health", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		decodeResponse(t, rec, &resp)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "running", resp.Engine)
		assert.False(t, resp.Time.IsZero())
	})

	t.Run("stopped engine", func(t *testing.T) {
		handler := NewStatusHandler(stoppedEngine(t))

		rec := getPath(handler.Health, http.MethodGet, "/health", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		decodeResponse(t, rec, &resp)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "stopped", resp.Engine)
	})
}
