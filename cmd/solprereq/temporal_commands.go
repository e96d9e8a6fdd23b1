package main

import (
	"context"
	"fmt"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/config"
	"github.com/brojonat/solprereq/service/runner"
	"github.com/brojonat/solprereq/service/temporal"
	"github.com/urfave/cli/v2"
)

// Key paths are handed to the worker as given and resolved on the worker host.

func temporalAirdropCommand() *cli.Command {
	return &cli.Command{
		Name:      "airdrop",
		Usage:     "Run AirdropWorkflow and wait for the result",
		ArgsUsage: "ADDRESS",
		Flags: append([]cli.Flag{
			&cli.Uint64Flag{
				Name:  "lamports",
				Value: runner.DefaultAirdropLamports,
				Usage: "Amount to request",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("address is required")
			}
			if _, err := codec.ParseAddress(c.Args().First()); err != nil {
				return err
			}
			return withTemporal(c, func(ctx context.Context, tc *temporal.Client, cfg *config.Config) (*runner.Result, error) {
				return tc.Airdrop(ctx, temporal.AirdropInput{
					Address:  c.Args().First(),
					Lamports: c.Uint64("lamports"),
					Timeout:  cfg.ActivityTimeout,
				})
			})
		},
	}
}

func temporalTransferCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Run TransferWorkflow from the dev wallet and wait for the result",
		Flags: append([]cli.Flag{
			&cli.Uint64Flag{
				Name:  "lamports",
				Value: runner.DefaultTransferLamports,
				Usage: "Amount to send",
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Recipient address",
				Required: true,
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			if _, err := codec.ParseAddress(c.String("to")); err != nil {
				return err
			}
			return withTemporal(c, func(ctx context.Context, tc *temporal.Client, cfg *config.Config) (*runner.Result, error) {
				return tc.Transfer(ctx, temporal.TransferInput{
					FromKeyPath: cfg.DevWalletPath,
					To:          c.String("to"),
					Lamports:    c.Uint64("lamports"),
					Timeout:     cfg.ActivityTimeout,
				})
			})
		},
	}
}

func temporalDrainCommand() *cli.Command {
	return &cli.Command{
		Name:  "drain",
		Usage: "Run DrainWorkflow from the dev wallet and wait for the result",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Recipient address",
				Required: true,
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			if _, err := codec.ParseAddress(c.String("to")); err != nil {
				return err
			}
			return withTemporal(c, func(ctx context.Context, tc *temporal.Client, cfg *config.Config) (*runner.Result, error) {
				return tc.Drain(ctx, temporal.DrainInput{
					FromKeyPath: cfg.DevWalletPath,
					To:          c.String("to"),
					Timeout:     cfg.ActivityTimeout,
				})
			})
		},
	}
}

func temporalSubmitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Run CompletePrereqWorkflow signed by the target wallet and wait for the result",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "github",
				Usage:    "Github handle to record",
				Required: true,
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			return withTemporal(c, func(ctx context.Context, tc *temporal.Client, cfg *config.Config) (*runner.Result, error) {
				return tc.CompletePrereq(ctx, temporal.CompletePrereqInput{
					SignerKeyPath: cfg.WalletPath,
					Github:        c.String("github"),
					Timeout:       cfg.ActivityTimeout,
				})
			})
		},
	}
}

// withTemporal connects to Temporal, runs fn and renders its result.
func withTemporal(c *cli.Context, fn func(context.Context, *temporal.Client, *config.Config) (*runner.Result, error)) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	tc, err := temporal.NewClient(cfg.TemporalHost, cfg.TemporalNamespace, cfg.TemporalTaskQueue, logger)
	if err != nil {
		return err
	}
	defer tc.Close()

	res, err := fn(context.Background(), tc, cfg)
	if err != nil {
		return err
	}
	return renderResult(c, res)
}
