package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Engine EngineConfig `mapstructure:"engine" validate:"required"`
	Auth   AuthConfig   `mapstructure:"auth"   validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// EnqueueRateLimit caps enqueue requests per second across the producer
	// endpoints. Zero disables rate limiting.
	EnqueueRateLimit float64 `mapstructure:"enqueue_rate_limit" validate:"gte=0"`
	EnqueueRateBurst int     `mapstructure:"enqueue_rate_burst" validate:"gte=0"`
}

// AuthConfig contains authentication settings for the admin API.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`

	// AdminUser and AdminPasswordHash are the static credentials the token
	// endpoint accepts. The hash is bcrypt.
	AdminUser         string `mapstructure:"admin_user"          validate:"required"`
	AdminPasswordHash string `mapstructure:"admin_password_hash" validate:"required"`
}

// EngineConfig contains the scheduling engine's tuning knobs.
//
// WorkerCount and ParallelBatches size the executor pools and are fixed for
// the lifetime of an engine instance; every other field can be changed at
// runtime through an EnginePatch.
type EngineConfig struct {
	// QueueMaxSize bounds each priority level's queue. When a queue is full
	// the oldest entry is evicted to admit a new one.
	QueueMaxSize int `mapstructure:"queue_max_size" validate:"required,gt=0"`

	// WorkerCount is the number of single-task workers serving the
	// CRITICAL through LOW levels.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// WorkerTimeout is the default per-task execution timeout for tasks that
	// do not carry their own.
	WorkerTimeout time.Duration `mapstructure:"worker_timeout" validate:"required,gt=0"`

	// MaxBatchSize is the largest group of BATCH tasks one batch processor
	// runs concurrently.
	MaxBatchSize int `mapstructure:"max_batch_size" validate:"required,gt=0"`

	// ParallelBatches is the number of batch processors.
	ParallelBatches int `mapstructure:"parallel_batches" validate:"required,gt=0"`

	// BatchTimeout bounds the total runtime of one dispatched batch group.
	BatchTimeout time.Duration `mapstructure:"batch_timeout" validate:"required,gt=0"`

	// TickInterval is the main scheduler's dispatch period.
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required,gt=0"`

	// BatchTickInterval is the dedicated batch dispatch period.
	BatchTickInterval time.Duration `mapstructure:"batch_tick_interval" validate:"required,gt=0"`

	// RetryAttempts is the default maximum number of execution attempts per
	// task, counting the first one.
	RetryAttempts int `mapstructure:"retry_attempts" validate:"required,gte=1"`

	// RetryDelay is the fixed wait before a failed, retryable task is
	// reinserted at the tail of its queue.
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"required,gt=0"`

	// MonitorInterval is the sweep period for reclaiming stuck workers.
	MonitorInterval time.Duration `mapstructure:"monitor_interval" validate:"required,gt=0"`

	// MetricsInterval is the period between performance snapshots and
	// threshold checks.
	MetricsInterval time.Duration `mapstructure:"metrics_interval" validate:"required,gt=0"`

	Alerts AlertThresholds `mapstructure:"alerts" validate:"required"`
}

// AlertThresholds holds the levels at which the metrics loop emits alerts.
type AlertThresholds struct {
	// QueueSize triggers a per-level alert when a queue grows past it.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`

	// ProcessingTime triggers an alert when the running average processing
	// time exceeds it.
	ProcessingTime time.Duration `mapstructure:"processing_time" validate:"required,gt=0"`

	// ErrorRate triggers an alert when failed attempts divided by settled
	// attempts exceeds it.
	ErrorRate float64 `mapstructure:"error_rate" validate:"required,gt=0,lte=1"`
}

// DefaultEngineConfig returns an EngineConfig with reasonable defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		QueueMaxSize:      1000,
		WorkerCount:       5,
		WorkerTimeout:     30 * time.Second,
		MaxBatchSize:      10,
		ParallelBatches:   2,
		BatchTimeout:      60 * time.Second,
		TickInterval:      100 * time.Millisecond,
		BatchTickInterval: 500 * time.Millisecond,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Second,
		MonitorInterval:   10 * time.Second,
		MetricsInterval:   15 * time.Second,
		Alerts: AlertThresholds{
			QueueSize:      100,
			ProcessingTime: 5 * time.Second,
			ErrorRate:      0.1,
		},
	}
}
