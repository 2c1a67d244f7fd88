package engine

import (
	"fmt"
	"time"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/events"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// processingTimeAlpha is the smoothing factor of the exponential running
// average: each completion contributes a tenth of its duration.
const processingTimeAlpha = 0.1

// perfState aggregates lifetime processing counters. Mutated only with the
// engine mutex held.
type perfState struct {
	// totalProcessed counts settled execution attempts regardless of
	// outcome, totalErrors the failed subset.
	totalProcessed uint64
	totalErrors    uint64

	avgProcessing   time.Duration
	avgSamples      uint64
	lastProcessedAt time.Time
}

// observeProcessingTime folds a completed execution's duration into the
// exponential running average. The first sample seeds the average directly.
func (p *perfState) observeProcessingTime(d time.Duration) {
	p.avgSamples++
	if p.avgSamples == 1 {
		p.avgProcessing = d
		return
	}
	p.avgProcessing = time.Duration((1-processingTimeAlpha)*float64(p.avgProcessing) + processingTimeAlpha*float64(d))
}

// Snapshot is a point-in-time aggregate of engine throughput.
type Snapshot struct {
	// TotalProcessed counts settled execution attempts, TotalErrors the
	// failed subset.
	TotalProcessed uint64 `json:"total_processed"`
	TotalErrors    uint64 `json:"total_errors"`

	// ErrorRate is TotalErrors over TotalProcessed, zero before any settle.
	ErrorRate float64 `json:"error_rate"`

	// AvgProcessingTime is the exponential running average duration of
	// successful completions.
	AvgProcessingTime time.Duration `json:"avg_processing_time_ns"`

	// QueueSizes maps each priority level name to its current backlog.
	QueueSizes map[string]int `json:"queue_sizes"`

	// LastProcessedAt is the time of the most recent settle, nil before
	// any activity.
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`

	// Timestamp is when the snapshot was taken.
	Timestamp time.Time `json:"timestamp"`
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		TotalProcessed:    e.perf.totalProcessed,
		TotalErrors:       e.perf.totalErrors,
		AvgProcessingTime: e.perf.avgProcessing,
		QueueSizes:        make(map[string]int, len(e.queues)),
		Timestamp:         time.Now(),
	}
	if s.TotalProcessed > 0 {
		s.ErrorRate = float64(s.TotalErrors) / float64(s.TotalProcessed)
	}
	if !e.perf.lastProcessedAt.IsZero() {
		t := e.perf.lastProcessedAt
		s.LastProcessedAt = &t
	}
	for _, q := range e.queues {
		s.QueueSizes[q.level.String()] = len(q.entries)
	}
	return s
}

// PerformanceMetrics returns the current throughput aggregate.
func (e *Engine) PerformanceMetrics() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// metricsTick refreshes the exported gauges and raises one alert per
// threshold currently in breach. Alerts are not deduplicated between ticks.
func (e *Engine) metricsTick() {
	e.mu.Lock()
	snap := e.snapshotLocked()
	thresholds := e.cfg.Alerts
	workersBusy := 0
	for _, w := range e.workers {
		if w.busy {
			workersBusy++
		}
	}
	processorsBusy := 0
	for _, p := range e.processors {
		if p.busy {
			processorsBusy++
		}
	}
	e.mu.Unlock()

	for _, level := range task.Priorities() {
		e.metrics.QueueDepth.WithLabelValues(level.String()).Set(float64(snap.QueueSizes[level.String()]))
	}
	e.metrics.WorkersBusy.Set(float64(workersBusy))
	e.metrics.BatchProcessorsBusy.Set(float64(processorsBusy))

	for _, alert := range checkThresholds(snap, thresholds) {
		e.metrics.AlertsFired.WithLabelValues(alert.Metric).Inc()
		e.logger.Warn("performance alert",
			"metric", alert.Metric,
			"queue", alert.Queue,
			"value", alert.Value,
			"threshold", alert.Threshold)
		e.emit(events.NewAlert(alert))
	}
}

// checkThresholds compares a snapshot against the configured limits and
// returns one alert per breach.
func checkThresholds(snap Snapshot, thresholds config.AlertThresholds) []events.Alert {
	var alerts []events.Alert

	for _, level := range task.Priorities() {
		size := snap.QueueSizes[level.String()]
		if size > thresholds.QueueSize {
			alerts = append(alerts, events.Alert{
				Metric:    "queue_size",
				Queue:     level.String(),
				Value:     float64(size),
				Threshold: float64(thresholds.QueueSize),
				Message:   fmt.Sprintf("%s queue size %d exceeds threshold %d", level.String(), size, thresholds.QueueSize),
			})
		}
	}

	if snap.AvgProcessingTime > thresholds.ProcessingTime {
		alerts = append(alerts, events.Alert{
			Metric:    "processing_time",
			Value:     float64(snap.AvgProcessingTime.Milliseconds()),
			Threshold: float64(thresholds.ProcessingTime.Milliseconds()),
			Message:   fmt.Sprintf("average processing time %s exceeds threshold %s", snap.AvgProcessingTime, thresholds.ProcessingTime),
		})
	}

	if snap.TotalProcessed > 0 && snap.ErrorRate > thresholds.ErrorRate {
		alerts = append(alerts, events.Alert{
			Metric:    "error_rate",
			Value:     snap.ErrorRate,
			Threshold: thresholds.ErrorRate,
			Message:   fmt.Sprintf("error rate %.3f exceeds threshold %.3f", snap.ErrorRate, thresholds.ErrorRate),
		})
	}

	return alerts
}
