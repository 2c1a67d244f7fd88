// Package metrics defines the Prometheus instruments published by the
// scheduling engine. Instruments are registered on an injected registerer
// rather than the global default, so multiple engines can coexist in one
// process and tests can use throwaway registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's Prometheus instruments.
type Metrics struct {
	// TasksEnqueued counts tasks accepted into a queue.
	// Labels:
	//   - priority: queue level name ("CRITICAL" .. "BATCH")
	TasksEnqueued *prometheus.CounterVec

	// TasksDropped counts tasks evicted from a full queue.
	// Labels:
	//   - priority: queue level name
	TasksDropped *prometheus.CounterVec

	// TasksProcessed counts settled execution attempts by outcome.
	// Labels:
	//   - kind: task kind (e.g. "signal_processing")
	//   - status: "success", "retry", or "failed"
	TasksProcessed *prometheus.CounterVec

	// TaskRetries counts attempts that were rescheduled for retry.
	TaskRetries prometheus.Counter

	// QueueDepth tracks the number of tasks waiting in each queue.
	// Labels:
	//   - priority: queue level name
	QueueDepth *prometheus.GaugeVec

	// WorkersBusy tracks the number of workers currently executing a task.
	WorkersBusy prometheus.Gauge

	// BatchProcessorsBusy tracks the number of batch processors currently
	// executing a group.
	BatchProcessorsBusy prometheus.Gauge

	// TaskDuration tracks execution latency in seconds.
	// Labels:
	//   - kind: task kind
	TaskDuration *prometheus.HistogramVec

	// AlertsFired counts threshold violations raised by the metrics sweep.
	// Labels:
	//   - metric: "queue_size", "processing_time", or "error_rate"
	AlertsFired *prometheus.CounterVec
}

// New registers the engine instruments on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TasksEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gaindeuk_tasks_enqueued_total",
			Help: "The total number of tasks accepted into a queue",
		}, []string{"priority"}),
		TasksDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gaindeuk_tasks_dropped_total",
			Help: "The total number of tasks evicted from a full queue",
		}, []string{"priority"}),
		TasksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gaindeuk_tasks_processed_total",
			Help: "The total number of settled execution attempts",
		}, []string{"kind", "status"}),
		TaskRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "gaindeuk_task_retries_total",
			Help: "The total number of attempts rescheduled for retry",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gaindeuk_queue_depth",
			Help: "Number of tasks waiting in each priority queue",
		}, []string{"priority"}),
		WorkersBusy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gaindeuk_workers_busy",
			Help: "Number of workers currently executing a task",
		}),
		BatchProcessorsBusy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gaindeuk_batch_processors_busy",
			Help: "Number of batch processors currently executing a group",
		}),
		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gaindeuk_task_duration_seconds",
			Help:    "Duration of task execution",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		AlertsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gaindeuk_alerts_fired_total",
			Help: "The total number of performance alerts raised",
		}, []string{"metric"}),
	}
}

// NewNop returns instruments registered on a registry nobody scrapes.
// Intended for tests and for embedding the engine without Prometheus.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
