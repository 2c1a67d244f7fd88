package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// 1. Defaults for every key so environment overrides always bind
	setDefaults(v)

	// 2. Optional YAML config file in the working directory or ./config
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// A missing file is fine; defaults and environment cover everything
	}

	// 3. Environment variables with the GAINDEUK_ prefix, e.g.
	// GAINDEUK_SERVER_PORT overrides server.port
	v.SetEnvPrefix("GAINDEUK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into the typed config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against the struct validation tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// ValidateEngineConfig checks a standalone engine configuration, typically
// the result of applying an EnginePatch at runtime.
func ValidateEngineConfig(cfg EngineConfig) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.enqueue_rate_limit", 50.0)
	v.SetDefault("server.enqueue_rate_burst", 100)

	// No default secret or credentials: GAINDEUK_AUTH_JWT_SECRET,
	// GAINDEUK_AUTH_ADMIN_USER and GAINDEUK_AUTH_ADMIN_PASSWORD_HASH must be
	// provided. The empty defaults only exist so environment overrides bind.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.admin_user", "")
	v.SetDefault("auth.admin_password_hash", "")

	eng := DefaultEngineConfig()
	v.SetDefault("engine.queue_max_size", eng.QueueMaxSize)
	v.SetDefault("engine.worker_count", eng.WorkerCount)
	v.SetDefault("engine.worker_timeout", eng.WorkerTimeout)
	v.SetDefault("engine.max_batch_size", eng.MaxBatchSize)
	v.SetDefault("engine.parallel_batches", eng.ParallelBatches)
	v.SetDefault("engine.batch_timeout", eng.BatchTimeout)
	v.SetDefault("engine.tick_interval", eng.TickInterval)
	v.SetDefault("engine.batch_tick_interval", eng.BatchTickInterval)
	v.SetDefault("engine.retry_attempts", eng.RetryAttempts)
	v.SetDefault("engine.retry_delay", eng.RetryDelay)
	v.SetDefault("engine.monitor_interval", eng.MonitorInterval)
	v.SetDefault("engine.metrics_interval", eng.MetricsInterval)
	v.SetDefault("engine.alerts.queue_size", eng.Alerts.QueueSize)
	v.SetDefault("engine.alerts.processing_time", eng.Alerts.ProcessingTime)
	v.SetDefault("engine.alerts.error_rate", eng.Alerts.ErrorRate)
}
