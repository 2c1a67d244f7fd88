package task

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Built-in handlers for the enumerated task kinds. Each parses the task
// payload, performs its computation, and returns a JSON-serializable result.
// Payload contracts are intentionally loose: missing optional fields fall
// back to neutral values, but structurally invalid payloads fail the attempt
// and go through the retry path like any other execution error.

// signalWeights are the component weights of the composite signal score.
var signalWeights = map[string]float64{
	"volume_spike":       0.35,
	"price_momentum":     0.30,
	"whale_activity":     0.20,
	"community_interest": 0.15,
}

// handleSignalProcessing computes a composite 0-100 score from the weighted
// signal components and maps it to a trade recommendation.
func handleSignalProcessing(ctx context.Context, t *Task) (any, error) {
	var payload struct {
		SignalID string             `json:"signal_id"`
		CoinID   string             `json:"coin_id"`
		Signals  map[string]float64 `json:"signals"`
	}
	if err := t.UnmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("invalid signal payload: %w", err)
	}
	if payload.SignalID == "" {
		return nil, fmt.Errorf("signal payload missing signal_id")
	}

	var score, weightSum float64
	for component, weight := range signalWeights {
		value, ok := payload.Signals[component]
		if !ok {
			continue
		}
		// Component values are expected on a 0-100 scale
		score += math.Max(0, math.Min(100, value)) * weight
		weightSum += weight
	}
	if weightSum > 0 {
		score /= weightSum
	}

	var recommendation string
	switch {
	case score >= 80:
		recommendation = "strong_buy"
	case score >= 65:
		recommendation = "buy"
	case score >= 40:
		recommendation = "hold"
	default:
		recommendation = "sell"
	}

	return map[string]any{
		"signal_id":      payload.SignalID,
		"coin_id":        payload.CoinID,
		"score":          math.Round(score*100) / 100,
		"recommendation": recommendation,
		"processed_at":   time.Now().UTC(),
	}, nil
}

// handleAlertGeneration renders a user-facing alert from a scored signal.
func handleAlertGeneration(ctx context.Context, t *Task) (any, error) {
	var payload struct {
		CoinID    string  `json:"coin_id"`
		AlertType string  `json:"alert_type"`
		Score     float64 `json:"score"`
	}
	if err := t.UnmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("invalid alert payload: %w", err)
	}
	if payload.CoinID == "" {
		return nil, fmt.Errorf("alert payload missing coin_id")
	}

	alertType := payload.AlertType
	if alertType == "" {
		alertType = "signal"
	}

	severity := "info"
	if payload.Score >= 80 {
		severity = "high"
	} else if payload.Score >= 65 {
		severity = "medium"
	}

	return map[string]any{
		"coin_id":      payload.CoinID,
		"alert_type":   alertType,
		"severity":     severity,
		"message":      fmt.Sprintf("%s alert for %s (score %.1f)", alertType, strings.ToUpper(payload.CoinID), payload.Score),
		"generated_at": time.Now().UTC(),
	}, nil
}

// handleAnalysis computes basic statistics over a price series: range,
// average, volatility (standard deviation) and a coarse trend direction.
func handleAnalysis(ctx context.Context, t *Task) (any, error) {
	var payload struct {
		CoinID string    `json:"coin_id"`
		Prices []float64 `json:"prices"`
	}
	if err := t.UnmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("invalid analysis payload: %w", err)
	}
	if len(payload.Prices) == 0 {
		return nil, fmt.Errorf("analysis payload has no prices")
	}

	minPrice, maxPrice := payload.Prices[0], payload.Prices[0]
	var sum float64
	for _, p := range payload.Prices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum += p
		if p < minPrice {
			minPrice = p
		}
		if p > maxPrice {
			maxPrice = p
		}
	}
	mean := sum / float64(len(payload.Prices))

	var variance float64
	for _, p := range payload.Prices {
		variance += (p - mean) * (p - mean)
	}
	volatility := math.Sqrt(variance / float64(len(payload.Prices)))

	trend := "flat"
	first, last := payload.Prices[0], payload.Prices[len(payload.Prices)-1]
	if first != 0 {
		change := (last - first) / first
		if change > 0.01 {
			trend = "up"
		} else if change < -0.01 {
			trend = "down"
		}
	}

	return map[string]any{
		"coin_id":    payload.CoinID,
		"samples":    len(payload.Prices),
		"min":        minPrice,
		"max":        maxPrice,
		"mean":       mean,
		"volatility": volatility,
		"trend":      trend,
	}, nil
}

// notificationChannels are the delivery channels the notifier supports.
var notificationChannels = map[string]bool{
	"telegram": true,
	"email":    true,
	"webhook":  true,
	"push":     true,
}

// handleNotification validates and queues an outbound notification.
func handleNotification(ctx context.Context, t *Task) (any, error) {
	var payload struct {
		Channel   string `json:"channel"`
		Recipient string `json:"recipient"`
		Message   string `json:"message"`
	}
	if err := t.UnmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("invalid notification payload: %w", err)
	}
	if !notificationChannels[payload.Channel] {
		return nil, fmt.Errorf("unsupported notification channel %q", payload.Channel)
	}
	if payload.Recipient == "" {
		return nil, fmt.Errorf("notification payload missing recipient")
	}

	return map[string]any{
		"channel":   payload.Channel,
		"recipient": payload.Recipient,
		"length":    len(payload.Message),
		"queued_at": time.Now().UTC(),
	}, nil
}

// handleCacheUpdate records a cache refresh request.
func handleCacheUpdate(ctx context.Context, t *Task) (any, error) {
	var payload struct {
		Key        string `json:"key"`
		TTLSeconds int    `json:"ttl_seconds"`
	}
	if err := t.UnmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("invalid cache payload: %w", err)
	}
	if payload.Key == "" {
		return nil, fmt.Errorf("cache payload missing key")
	}

	ttl := payload.TTLSeconds
	if ttl <= 0 {
		ttl = 300
	}

	return map[string]any{
		"key":          payload.Key,
		"ttl_seconds":  ttl,
		"refreshed_at": time.Now().UTC(),
	}, nil
}

// handleReportGeneration assembles a report skeleton for the given period.
func handleReportGeneration(ctx context.Context, t *Task) (any, error) {
	var payload struct {
		ReportType string `json:"report_type"`
		Period     string `json:"period"`
	}
	if err := t.UnmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("invalid report payload: %w", err)
	}

	reportType := payload.ReportType
	if reportType == "" {
		reportType = "summary"
	}
	period := payload.Period
	if period == "" {
		period = "daily"
	}

	return map[string]any{
		"report_type":  reportType,
		"period":       period,
		"sections":     []string{"signals", "alerts", "performance"},
		"generated_at": time.Now().UTC(),
	}, nil
}
