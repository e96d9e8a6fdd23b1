package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/keys"
	"github.com/brojonat/solprereq/service/runner"
	"github.com/brojonat/solprereq/service/txn"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

// lamportsPerSOL converts lamports for human output.
const lamportsPerSOL = 1_000_000_000

func sol(lamports uint64) string {
	return fmt.Sprintf("%.9f SOL", float64(lamports)/lamportsPerSOL)
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show the balance of an address",
		ArgsUsage: "[ADDRESS]",
		Description: `Show the lamport balance of an address. Without an argument the dev
wallet's address is used.`,
		Flags: outputFlags(),
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			addr, err := addressArg(c, s.cfg.DevWalletPath)
			if err != nil {
				return err
			}

			lamports, err := s.runner.Balance(ctx, addr)
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"address":  addr.String(),
				"lamports": lamports,
			}
			return render(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %d lamports (%s)\n", addr, lamports, sol(lamports))
			})
		},
	}
}

func pdaCommand() *cli.Command {
	return &cli.Command{
		Name:      "pda",
		Usage:     "Show the prerequisite account derived for a wallet",
		ArgsUsage: "[ADDRESS]",
		Description: `Derive the program address seeded with "prereq" and the wallet address.
Without an argument the target wallet's address is used. No network access.`,
		Flags: outputFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			program, err := codec.ParseAddress(cfg.PrereqProgramID)
			if err != nil {
				return err
			}
			wallet, err := addressArg(c, cfg.WalletPath)
			if err != nil {
				return err
			}

			pda, err := txn.PrereqAddress(program, wallet)
			if err != nil {
				return err
			}

			seeds := make([]string, len(pda.Seeds.Seeds))
			for i, seed := range pda.Seeds.Seeds {
				seeds[i] = codec.Encode(seed)
			}
			out := map[string]interface{}{
				"program": pda.Seeds.Program.String(),
				"wallet":  wallet.String(),
				"seeds":   seeds,
				"address": pda.Address.String(),
				"bump":    pda.Bump,
			}
			return render(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "Prereq account: %s (bump %d)\n", pda.Address, pda.Bump)
				fmt.Fprintf(w, "Seeds:          %s\n", strings.Join(seeds, " "))
			})
		},
	}
}

func airdropCommand() *cli.Command {
	return &cli.Command{
		Name:      "airdrop",
		Usage:     "Request SOL from the devnet faucet",
		ArgsUsage: "[ADDRESS]",
		Description: `Request an airdrop and wait for it to confirm. Without an argument the
dev wallet's address is funded.

Example:
  solprereq airdrop --lamports 2000000000`,
		Flags: append([]cli.Flag{
			&cli.Uint64Flag{
				Name:  "lamports",
				Value: runner.DefaultAirdropLamports,
				Usage: "Amount to request",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			addr, err := addressArg(c, s.cfg.DevWalletPath)
			if err != nil {
				return err
			}

			res, err := s.runner.Airdrop(ctx, addr, c.Uint64("lamports"))
			if err != nil {
				return err
			}
			return renderResult(c, res)
		},
	}
}

func transferCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Send SOL from the dev wallet to the target wallet",
		Description: `Transfer a fixed amount from the dev wallet to the target wallet (or
--to) and wait for confirmation.`,
		Flags: append([]cli.Flag{
			&cli.Uint64Flag{
				Name:  "lamports",
				Value: runner.DefaultTransferLamports,
				Usage: "Amount to send",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Recipient address (defaults to the target wallet's address)",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			from, err := keys.Load(s.cfg.DevWalletPath)
			if err != nil {
				return err
			}
			to, err := recipient(c, s.cfg.WalletPath)
			if err != nil {
				return err
			}

			res, err := s.runner.Transfer(ctx, from, to, c.Uint64("lamports"))
			if err != nil {
				return err
			}
			return renderResult(c, res)
		},
	}
}

func drainCommand() *cli.Command {
	return &cli.Command{
		Name:  "drain",
		Usage: "Send the dev wallet's entire balance, minus the fee, to the target wallet",
		Description: `Quote the fee for the exact transfer message, then send balance minus
fee so the dev wallet ends at zero. Nothing is submitted when the balance
cannot cover the fee.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Usage: "Recipient address (defaults to the target wallet's address)",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			from, err := keys.Load(s.cfg.DevWalletPath)
			if err != nil {
				return err
			}
			to, err := recipient(c, s.cfg.WalletPath)
			if err != nil {
				return err
			}

			res, err := s.runner.Drain(ctx, from, to)
			if err != nil {
				return err
			}
			return renderResult(c, res)
		},
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Record a github handle with the prerequisite program",
		Description: `Call the prerequisite program's complete instruction, signed by the
target wallet. The program stores the handle in the account derived from
"prereq" and the wallet address.

Example:
  solprereq submit --github octocat`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "github",
				Usage:    "Github handle to record",
				Required: true,
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			signer, err := keys.Load(s.cfg.WalletPath)
			if err != nil {
				return err
			}

			res, err := s.runner.CompletePrereq(ctx, signer, []byte(c.String("github")))
			if err != nil {
				return err
			}
			return renderResult(c, res)
		},
	}
}

func renderResult(c *cli.Context, res *runner.Result) error {
	return render(c, res, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s confirmed\n", res.Kind)
		fmt.Fprintf(w, "  Signature: %s\n", res.Signature)
		if res.To != "" {
			fmt.Fprintf(w, "  To: %s\n", res.To)
		}
		if res.Derived != "" {
			fmt.Fprintf(w, "  Prereq account: %s\n", res.Derived)
		}
		if res.Amount > 0 {
			fmt.Fprintf(w, "  Amount: %d lamports (%s)\n", res.Amount, sol(res.Amount))
		}
		if res.Fee > 0 {
			fmt.Fprintf(w, "  Fee: %d lamports\n", res.Fee)
		}
		fmt.Fprintf(w, "Check out your TX here:\n%s\n", res.ExplorerURL)
	})
}

// addressArg parses the first argument as an address, or falls back to the
// address of the wallet file at defaultPath.
func addressArg(c *cli.Context, defaultPath string) (solana.PublicKey, error) {
	if arg := c.Args().First(); arg != "" {
		return codec.ParseAddress(arg)
	}
	return walletAddress(defaultPath)
}

// recipient returns --to, or the address of the wallet file at defaultPath.
func recipient(c *cli.Context, defaultPath string) (solana.PublicKey, error) {
	if to := c.String("to"); to != "" {
		return codec.ParseAddress(to)
	}
	return walletAddress(defaultPath)
}

func walletAddress(path string) (solana.PublicKey, error) {
	key, err := keys.Load(path)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}
