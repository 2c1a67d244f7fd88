package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSignalProcessing(t *testing.T) {
	t.Parallel()

	t.Run("scores and recommends", func(t *testing.T) {
		tk := New(KindSignalProcessing, json.RawMessage(`{
			"signal_id": "s1",
			"coin_id": "btc",
			"signals": {
				"volume_spike": 90,
				"price_momentum": 85,
				"whale_activity": 80,
				"community_interest": 75
			}
		}`))

		result, err := handleSignalProcessing(context.Background(), tk)
		require.NoError(t, err)

		m, ok := result.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "s1", m["signal_id"])

		score, ok := m["score"].(float64)
		require.True(t, ok)
		assert.Greater(t, score, 80.0)
		assert.Equal(t, "strong_buy", m["recommendation"])
	})

	t.Run("partial components renormalize", func(t *testing.T) {
		tk := New(KindSignalProcessing, json.RawMessage(`{
			"signal_id": "s2",
			"signals": {"volume_spike": 50}
		}`))

		result, err := handleSignalProcessing(context.Background(), tk)
		require.NoError(t, err)

		m := result.(map[string]any)
		assert.InDelta(t, 50.0, m["score"].(float64), 0.01)
		assert.Equal(t, "hold", m["recommendation"])
	})

	t.Run("missing signal_id fails", func(t *testing.T) {
		tk := New(KindSignalProcessing, json.RawMessage(`{"signals":{}}`))
		_, err := handleSignalProcessing(context.Background(), tk)
		assert.Error(t, err)
	})

	t.Run("malformed payload fails", func(t *testing.T) {
		tk := New(KindSignalProcessing, json.RawMessage(`{invalid`))
		_, err := handleSignalProcessing(context.Background(), tk)
		assert.Error(t, err)
	})
}

func TestHandleAlertGeneration(t *testing.T) {
	t.Parallel()

	tk := New(KindAlertGeneration, json.RawMessage(`{"coin_id":"eth","alert_type":"breakout","score":82}`))
	result, err := handleAlertGeneration(context.Background(), tk)
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, "high", m["severity"])
	assert.Contains(t, m["message"], "ETH")

	_, err = handleAlertGeneration(context.Background(), New(KindAlertGeneration, json.RawMessage(`{}`)))
	assert.Error(t, err, "coin_id is required")
}

func TestHandleAnalysis(t *testing.T) {
	t.Parallel()

	tk := New(KindAnalysis, json.RawMessage(`{"coin_id":"btc","prices":[100,102,104,106,110]}`))
	result, err := handleAnalysis(context.Background(), tk)
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, 5, m["samples"])
	assert.Equal(t, 100.0, m["min"])
	assert.Equal(t, 110.0, m["max"])
	assert.Equal(t, "up", m["trend"])

	_, err = handleAnalysis(context.Background(), New(KindAnalysis, json.RawMessage(`{"prices":[]}`)))
	assert.Error(t, err, "empty series is rejected")
}

func TestHandleNotification(t *testing.T) {
	t.Parallel()

	tk := New(KindNotification, json.RawMessage(`{"channel":"telegram","recipient":"user-7","message":"hi"}`))
	result, err := handleNotification(context.Background(), tk)
	require.NoError(t, err)
	assert.Equal(t, "telegram", result.(map[string]any)["channel"])

	_, err = handleNotification(context.Background(),
		New(KindNotification, json.RawMessage(`{"channel":"carrier_pigeon","recipient":"user-7"}`)))
	assert.Error(t, err, "unsupported channel is rejected")
}

func TestHandleCacheUpdate(t *testing.T) {
	t.Parallel()

	result, err := handleCacheUpdate(context.Background(),
		New(KindCacheUpdate, json.RawMessage(`{"key":"prices:btc"}`)))
	require.NoError(t, err)
	assert.Equal(t, 300, result.(map[string]any)["ttl_seconds"], "zero TTL falls back to default")

	_, err = handleCacheUpdate(context.Background(), New(KindCacheUpdate, json.RawMessage(`{}`)))
	assert.Error(t, err, "key is required")
}

func TestHandleReportGeneration(t *testing.T) {
	t.Parallel()

	result, err := handleReportGeneration(context.Background(),
		New(KindReportGeneration, json.RawMessage(`{}`)))
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, "summary", m["report_type"])
	assert.Equal(t, "daily", m["period"])
}
