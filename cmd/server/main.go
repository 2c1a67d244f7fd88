// Package main implements the entry point for the GainDeuk scheduling
// server, which prioritizes and executes the backend's signal processing,
// alerting and analysis workloads.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, wires the application and serves until shutdown.
// Kept separate from main so initialization failures surface as errors
// instead of os.Exit scattered through the wiring.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"workers", cfg.Engine.WorkerCount,
		"parallel_batches", cfg.Engine.ParallelBatches)

	app, err := newApplication(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(context.Background())
}
