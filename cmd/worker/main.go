package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/config"
	"github.com/brojonat/solprereq/service/metrics"
	natspkg "github.com/brojonat/solprereq/service/nats"
	"github.com/brojonat/solprereq/service/runner"
	"github.com/brojonat/solprereq/service/solana"
	"github.com/brojonat/solprereq/service/temporal"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load and validate configuration from environment
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting temporal worker",
		"temporal_host", cfg.TemporalHost,
		"namespace", cfg.TemporalNamespace,
		"task_queue", cfg.TemporalTaskQueue,
		"cluster", cfg.SolanaCluster,
		"log_level", cfg.LogLevel,
	)

	// Initialize Prometheus metrics collector
	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry
	logger.Info("Prometheus metrics collector initialized")

	// Start metrics HTTP server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.Info("starting metrics HTTP server", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", "error", err)
		}
	}()

	// Initialize the Solana gateway on one of the configured endpoints
	endpoint, err := solana.SelectRandomEndpoint(cfg.SolanaRPCURLs)
	if err != nil {
		logger.Error("failed to select RPC endpoint", "error", err)
		os.Exit(1)
	}
	commitment, err := solana.ParseCommitment(cfg.SolanaCommitment)
	if err != nil {
		logger.Error("invalid commitment", "error", err)
		os.Exit(1)
	}
	gateway := solana.NewClient(solana.NewRPCClient(endpoint), solana.ClientOptions{
		Endpoint:     solana.EndpointLabel(endpoint),
		Commitment:   commitment,
		PollInterval: cfg.ConfirmPollInterval,
		Metrics:      metricsCollector,
		Logger:       logger,
	})
	logger.Info("initialized solana gateway",
		"endpoint", solana.EndpointLabel(endpoint),
		"total_endpoints", len(cfg.SolanaRPCURLs),
		"commitment", gateway.Commitment(),
	)

	program, err := codec.ParseAddress(cfg.PrereqProgramID)
	if err != nil {
		logger.Error("invalid prerequisite program id", "error", err)
		os.Exit(1)
	}

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithMetrics(metricsCollector),
		runner.WithCluster(cfg.SolanaCluster),
		runner.WithCommitment(string(gateway.Commitment())),
		runner.WithProgramID(program),
	}

	// Initialize NATS publisher when configured
	if cfg.NATSURL != "" {
		natsPublisher, err := natspkg.NewPublisher(cfg.NATSURL, metricsCollector, logger)
		if err != nil {
			logger.Error("failed to create NATS publisher", "error", err)
			os.Exit(1)
		}
		defer natsPublisher.Close()
		opts = append(opts, runner.WithPublisher(natsPublisher))
		logger.Info("connected to NATS", "url", cfg.NATSURL)
	}

	// Initialize Temporal worker
	worker, err := temporal.NewWorker(temporal.WorkerConfig{
		TemporalHost:      cfg.TemporalHost,
		TemporalNamespace: cfg.TemporalNamespace,
		TaskQueue:         cfg.TemporalTaskQueue,
		Runner:            runner.New(gateway, opts...),
		Metrics:           metricsCollector,
		Logger:            logger,
	})
	if err != nil {
		logger.Error("failed to create temporal worker", "error", err)
		os.Exit(1)
	}

	logger.Info("temporal worker initialized, all dependencies ready",
		"temporal_host", cfg.TemporalHost,
		"temporal_namespace", cfg.TemporalNamespace,
		"task_queue", cfg.TemporalTaskQueue,
	)

	// Start worker in background
	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- worker.Start()
	}()

	// Wait for shutdown signal or worker error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-workerErrors:
		logger.Error("temporal worker error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
		worker.Stop()
		logger.Info("shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
