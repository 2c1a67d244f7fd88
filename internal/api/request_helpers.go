package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// getPathPriority extracts a priority level name from the URL path.
// Names match case-insensitively, so /api/queues/critical and
// /api/queues/CRITICAL address the same queue.
func getPathPriority(r *http.Request, paramName string) (task.Priority, error) {
	return task.ParsePriority(chi.URLParam(r, paramName))
}

// getPathInt extracts a non-negative integer path parameter, such as a worker
// or batch processor ID.
func getPathInt(r *http.Request, paramName string) (int, error) {
	raw := chi.URLParam(r, paramName)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", paramName, raw)
	}
	return n, nil
}
