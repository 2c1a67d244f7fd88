package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
)

// testEngineConfig stretches every loop interval to an hour so accepted
// tasks stay queued while the handlers are exercised.
func testEngineConfig() config.EngineConfig {
	cfg := config.DefaultEngineConfig()
	cfg.QueueMaxSize = 50
	cfg.WorkerCount = 2
	cfg.ParallelBatches = 1
	cfg.TickInterval = time.Hour
	cfg.BatchTickInterval = time.Hour
	cfg.MonitorInterval = time.Hour
	cfg.MetricsInterval = time.Hour
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startedEngine returns a running engine built from testEngineConfig.
func startedEngine(t *testing.T, mutators ...func(*config.EngineConfig)) *engine.Engine {
	t.Helper()
	cfg := testEngineConfig()
	for _, mutate := range mutators {
		mutate(&cfg)
	}
	e, err := engine.New(cfg, nil, nil, nil, discardLogger())
	require.NoError(t, err)
	require.NoError(t, e.Start())
	t.Cleanup(e.Stop)
	return e
}

// stoppedEngine returns an engine that was never started, for exercising
// the unavailable paths.
func stoppedEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(testEngineConfig(), nil, nil, nil, discardLogger())
	require.NoError(t, err)
	return e
}

// doJSON runs one request against a bare handler func. A string body is
// sent as-is so malformed JSON can be exercised; anything else is marshaled.
func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// withURLParam injects a chi route parameter the way the router would.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}
