package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/config"
	"github.com/brojonat/solprereq/service/metrics"
	natspkg "github.com/brojonat/solprereq/service/nats"
	"github.com/brojonat/solprereq/service/runner"
	"github.com/brojonat/solprereq/service/solana"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the environment and applies any global flags that were set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"cluster":             &cfg.SolanaCluster,
		"commitment":          &cfg.SolanaCommitment,
		"dev-wallet":          &cfg.DevWalletPath,
		"wallet":              &cfg.WalletPath,
		"program-id":          &cfg.PrereqProgramID,
		"log-level":           &cfg.LogLevel,
		"nats-url":            &cfg.NATSURL,
		"pushgateway-url":     &cfg.PushgatewayURL,
		"temporal-host":       &cfg.TemporalHost,
		"temporal-namespace":  &cfg.TemporalNamespace,
		"temporal-task-queue": &cfg.TemporalTaskQueue,
	}
	for name, field := range overrides {
		if c.IsSet(name) {
			*field = c.String(name)
		}
	}
	if c.IsSet("rpc-url") {
		cfg.SolanaRPCURLs = strings.Split(c.String("rpc-url"), ",")
	}
	if c.IsSet("confirm-poll-interval") {
		cfg.ConfirmPollInterval = c.Duration("confirm-poll-interval")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes JSON logs to stderr so stdout stays parseable.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
}

// session holds everything one submission command needs.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	gateway   *solana.Client
	runner    *runner.Runner
	publisher natspkg.Publisher
}

// newSession wires the gateway, runner, metrics and optional publisher.
// Callers must call close.
func newSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)

	endpoint, err := solana.SelectRandomEndpoint(cfg.SolanaRPCURLs)
	if err != nil {
		return nil, err
	}
	commitment, err := solana.ParseCommitment(cfg.SolanaCommitment)
	if err != nil {
		return nil, err
	}
	program, err := codec.ParseAddress(cfg.PrereqProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	gateway := solana.NewClient(solana.NewRPCClient(endpoint), solana.ClientOptions{
		Endpoint:     solana.EndpointLabel(endpoint),
		Commitment:   commitment,
		PollInterval: cfg.ConfirmPollInterval,
		Metrics:      m,
		Logger:       logger,
	})

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithMetrics(m),
		runner.WithCluster(cfg.SolanaCluster),
		runner.WithCommitment(string(gateway.Commitment())),
		runner.WithProgramID(program),
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		gateway:  gateway,
	}

	if cfg.NATSURL != "" {
		publisher, err := natspkg.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			// Publishing is optional; the submission still goes ahead.
			logger.Warn("NATS unavailable, submission events will not be published", "error", err)
		} else {
			s.publisher = publisher
			opts = append(opts, runner.WithPublisher(publisher))
		}
	}

	s.runner = runner.New(gateway, opts...)
	return s, nil
}

// close pushes metrics if a Pushgateway is configured and closes the publisher.
func (s *session) close(ctx context.Context) {
	if s.cfg.PushgatewayURL != "" {
		if err := metrics.Push(ctx, s.cfg.PushgatewayURL, "solprereq", s.registry); err != nil {
			s.logger.Warn("failed to push metrics", "error", err)
		}
	}
	if s.publisher != nil {
		s.publisher.Close()
	}
}
