package config

import "time"

// EnginePatch is a partial EngineConfig used for runtime reconfiguration.
// Nil fields leave the current value untouched. Pool sizes (WorkerCount,
// ParallelBatches) are deliberately absent: executors are created once at
// engine start and resizing them requires a restart.
type EnginePatch struct {
	QueueMaxSize      *int
	WorkerTimeout     *time.Duration
	MaxBatchSize      *int
	BatchTimeout      *time.Duration
	TickInterval      *time.Duration
	BatchTickInterval *time.Duration
	RetryAttempts     *int
	RetryDelay        *time.Duration
	MonitorInterval   *time.Duration
	MetricsInterval   *time.Duration

	AlertQueueSize      *int
	AlertProcessingTime *time.Duration
	AlertErrorRate      *float64
}

// IsZero reports whether the patch changes nothing.
func (p EnginePatch) IsZero() bool {
	return p.QueueMaxSize == nil &&
		p.WorkerTimeout == nil &&
		p.MaxBatchSize == nil &&
		p.BatchTimeout == nil &&
		p.TickInterval == nil &&
		p.BatchTickInterval == nil &&
		p.RetryAttempts == nil &&
		p.RetryDelay == nil &&
		p.MonitorInterval == nil &&
		p.MetricsInterval == nil &&
		p.AlertQueueSize == nil &&
		p.AlertProcessingTime == nil &&
		p.AlertErrorRate == nil
}

// Apply merges the patch into cfg and returns the result.
// The receiver and the input are left unmodified.
func (p EnginePatch) Apply(cfg EngineConfig) EngineConfig {
	if p.QueueMaxSize != nil {
		cfg.QueueMaxSize = *p.QueueMaxSize
	}
	if p.WorkerTimeout != nil {
		cfg.WorkerTimeout = *p.WorkerTimeout
	}
	if p.MaxBatchSize != nil {
		cfg.MaxBatchSize = *p.MaxBatchSize
	}
	if p.BatchTimeout != nil {
		cfg.BatchTimeout = *p.BatchTimeout
	}
	if p.TickInterval != nil {
		cfg.TickInterval = *p.TickInterval
	}
	if p.BatchTickInterval != nil {
		cfg.BatchTickInterval = *p.BatchTickInterval
	}
	if p.RetryAttempts != nil {
		cfg.RetryAttempts = *p.RetryAttempts
	}
	if p.RetryDelay != nil {
		cfg.RetryDelay = *p.RetryDelay
	}
	if p.MonitorInterval != nil {
		cfg.MonitorInterval = *p.MonitorInterval
	}
	if p.MetricsInterval != nil {
		cfg.MetricsInterval = *p.MetricsInterval
	}
	if p.AlertQueueSize != nil {
		cfg.Alerts.QueueSize = *p.AlertQueueSize
	}
	if p.AlertProcessingTime != nil {
		cfg.Alerts.ProcessingTime = *p.AlertProcessingTime
	}
	if p.AlertErrorRate != nil {
		cfg.Alerts.ErrorRate = *p.AlertErrorRate
	}
	return cfg
}
