package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "solprereq",
		Usage: "Build, sign and submit Solana devnet transactions",
		Description: `A command-line tool for the Solana prerequisite workflow.

Generate and convert keypairs, fund a dev wallet from the faucet, transfer or
drain SOL to a target wallet, and record a github handle with the
prerequisite program. Every submission waits for confirmation and prints an
explorer link.

Configuration is read from the environment (SOLANA_RPC_URL, SOLANA_CLUSTER,
DEV_WALLET_PATH, WALLET_PATH, ...) and may be overridden with flags.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Key material
			keygenCommand(),
			base58ToWalletCommand(),
			walletToBase58Command(),
			addressCommand(),
			// Queries
			balanceCommand(),
			pdaCommand(),
			// Submissions
			airdropCommand(),
			transferCommand(),
			drainCommand(),
			submitCommand(),
			// Durable hosting
			{
				Name:  "temporal",
				Usage: "Run submissions as Temporal workflows on a worker",
				Subcommands: []*cli.Command{
					temporalAirdropCommand(),
					temporalTransferCommand(),
					temporalDrainCommand(),
					temporalSubmitCommand(),
				},
			},
			// Submission event streaming
			{
				Name:  "nats",
				Usage: "NATS submission event commands",
				Subcommands: []*cli.Command{
					subscribeCommand(),
					inspectStreamCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "rpc-url",
				Usage:       "Solana JSON-RPC endpoint (comma separated for several)",
				DefaultText: "$SOLANA_RPC_URL or devnet",
			},
			&cli.StringFlag{
				Name:        "cluster",
				Usage:       "Cluster name used in explorer links",
				DefaultText: "$SOLANA_CLUSTER or devnet",
			},
			&cli.StringFlag{
				Name:        "commitment",
				Usage:       "Commitment to wait for: processed, confirmed or finalized",
				DefaultText: "$SOLANA_COMMITMENT or confirmed",
			},
			&cli.DurationFlag{
				Name:        "confirm-poll-interval",
				Usage:       "How often to poll signature status while confirming",
				DefaultText: "$CONFIRM_POLL_INTERVAL or 500ms",
			},
			&cli.StringFlag{
				Name:        "dev-wallet",
				Usage:       "Path of the funding keypair file",
				DefaultText: "$DEV_WALLET_PATH or dev-wallet.json",
			},
			&cli.StringFlag{
				Name:        "wallet",
				Usage:       "Path of the target keypair file",
				DefaultText: "$WALLET_PATH or wallet.json",
			},
			&cli.StringFlag{
				Name:        "program-id",
				Usage:       "Prerequisite program address",
				DefaultText: "$PREREQ_PROGRAM_ID or the deployed program",
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				DefaultText: "$LOG_LEVEL or info",
			},
			&cli.StringFlag{
				Name:        "nats-url",
				Usage:       "NATS server URL; submission events are published when set",
				DefaultText: "$NATS_URL",
			},
			&cli.StringFlag{
				Name:        "pushgateway-url",
				Usage:       "Prometheus Pushgateway URL; metrics are pushed on exit when set",
				DefaultText: "$PUSHGATEWAY_URL",
			},
			&cli.StringFlag{
				Name:        "temporal-host",
				Usage:       "Temporal server address",
				DefaultText: "$TEMPORAL_HOST or localhost:7233",
			},
			&cli.StringFlag{
				Name:        "temporal-namespace",
				Usage:       "Temporal namespace",
				DefaultText: "$TEMPORAL_NAMESPACE or default",
			},
			&cli.StringFlag{
				Name:        "temporal-task-queue",
				Usage:       "Temporal task queue served by the worker",
				DefaultText: "$TEMPORAL_TASK_QUEUE or solprereq-submissions",
			},
		},
	}
}
