package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/solana"
	"github.com/brojonat/solprereq/service/txn"
)

// DefaultRPCURL is the public devnet endpoint.
const DefaultRPCURL = "https://api.devnet.solana.com"

// Config holds all application configuration loaded from environment variables.
// All fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	LogLevel string

	// Solana configuration. SOLANA_RPC_URL may hold a comma separated list;
	// one endpoint is picked per process.
	SolanaRPCURLs       []string
	SolanaCluster       string
	SolanaCommitment    string
	ConfirmPollInterval time.Duration

	// Key files
	DevWalletPath string
	WalletPath    string

	// Prerequisite program
	PrereqProgramID string

	// NATS configuration. Empty disables event publishing.
	NATSURL string

	// Metrics configuration
	PushgatewayURL string
	MetricsAddr    string

	// Temporal configuration
	TemporalHost      string
	TemporalNamespace string
	TemporalTaskQueue string
	ActivityTimeout   time.Duration
}

// Load reads configuration from environment variables and validates all fields.
// Returns an error listing every missing or invalid value.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Solana configuration
	cfg.SolanaRPCURLs = splitList(getEnvOrDefault("SOLANA_RPC_URL", DefaultRPCURL))
	cfg.SolanaCluster = getEnvOrDefault("SOLANA_CLUSTER", "devnet")
	cfg.SolanaCommitment = getEnvOrDefault("SOLANA_COMMITMENT", "confirmed")

	pollInterval, err := parseDuration("CONFIRM_POLL_INTERVAL", "500ms")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmPollInterval = pollInterval
	}

	cfg.DevWalletPath = getEnvOrDefault("DEV_WALLET_PATH", "dev-wallet.json")
	cfg.WalletPath = getEnvOrDefault("WALLET_PATH", "wallet.json")
	cfg.PrereqProgramID = getEnvOrDefault("PREREQ_PROGRAM_ID", txn.DefaultPrereqProgramID)

	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.PushgatewayURL = os.Getenv("PUSHGATEWAY_URL")
	cfg.MetricsAddr = getEnvOrDefault("METRICS_ADDR", ":9091")

	// Temporal configuration
	cfg.TemporalHost = getEnvOrDefault("TEMPORAL_HOST", "localhost:7233")
	cfg.TemporalNamespace = getEnvOrDefault("TEMPORAL_NAMESPACE", "default")
	cfg.TemporalTaskQueue = getEnvOrDefault("TEMPORAL_TASK_QUEUE", "solprereq-submissions")

	activityTimeout, err := parseDuration("ACTIVITY_TIMEOUT", "2m")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ActivityTimeout = activityTimeout
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SolanaRPCURLs) == 0 {
		errs = append(errs, fmt.Errorf("SolanaRPCURLs is required"))
	}

	if c.SolanaCluster == "" {
		errs = append(errs, fmt.Errorf("SolanaCluster is required"))
	}

	if _, err := solana.ParseCommitment(c.SolanaCommitment); err != nil {
		errs = append(errs, err)
	}

	if c.ConfirmPollInterval < 10*time.Millisecond {
		errs = append(errs, fmt.Errorf("ConfirmPollInterval must be at least 10ms"))
	}

	if c.DevWalletPath == "" {
		errs = append(errs, fmt.Errorf("DevWalletPath is required"))
	}

	if c.WalletPath == "" {
		errs = append(errs, fmt.Errorf("WalletPath is required"))
	}

	if _, err := codec.ParseAddress(c.PrereqProgramID); err != nil {
		errs = append(errs, fmt.Errorf("PrereqProgramID: %w", err))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LogLevel %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if c.TemporalHost == "" {
		errs = append(errs, fmt.Errorf("TemporalHost is required"))
	}

	if c.TemporalNamespace == "" {
		errs = append(errs, fmt.Errorf("TemporalNamespace is required"))
	}

	if c.TemporalTaskQueue == "" {
		errs = append(errs, fmt.Errorf("TemporalTaskQueue is required"))
	}

	if c.ActivityTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ActivityTimeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
