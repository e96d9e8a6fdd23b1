package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/keys"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

type keyOutput struct {
	Address string `json:"address"`
	Wallet  string `json:"wallet,omitempty"`
	Base58  string `json:"base58,omitempty"`
	Path    string `json:"path,omitempty"`
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a new keypair",
		Description: `Generate a random keypair and print its address and the wallet file
byte array. With --out the wallet file is also written (mode 0600).

Example:
  solprereq keygen --out dev-wallet.json`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the wallet file to this path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing wallet file",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			key, err := keys.Generate()
			if err != nil {
				return err
			}

			out := keyOutput{
				Address: codec.FormatAddress(key.PublicKey()),
				Wallet:  keys.Marshal(key),
			}

			if path := c.String("out"); path != "" {
				if err := writeKeyFile(path, key, c.Bool("force")); err != nil {
					return err
				}
				out.Path = path
			}

			return render(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "You've generated a new Solana wallet: %s\n\n", out.Address)
				if out.Path != "" {
					fmt.Fprintf(w, "Saved to %s\n", out.Path)
				} else {
					fmt.Fprintf(w, "To save your wallet, copy and paste the following into a JSON file:\n")
					fmt.Fprintf(w, "%s\n", out.Wallet)
				}
			})
		},
	}
}

func base58ToWalletCommand() *cli.Command {
	return &cli.Command{
		Name:      "base58-to-wallet",
		Usage:     "Convert a base58 private key to the wallet file byte array",
		ArgsUsage: "[BASE58_PRIVATE_KEY]",
		Description: `Decode a base58 private key (as exported by browser wallets) into the
wallet file form. The key is read from stdin when no argument is given.
Nothing is written to disk.`,
		Flags: outputFlags(),
		Action: func(c *cli.Context) error {
			text, err := argOrStdin(c)
			if err != nil {
				return err
			}

			raw, err := codec.Decode(text)
			if err != nil {
				return err
			}
			key, err := keys.FromBytes(raw)
			if err != nil {
				return err
			}

			out := keyOutput{
				Address: codec.FormatAddress(key.PublicKey()),
				Wallet:  keys.Marshal(key),
			}
			return render(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "Your wallet file is:\n%s\n", out.Wallet)
			})
		},
	}
}

func walletToBase58Command() *cli.Command {
	return &cli.Command{
		Name:      "wallet-to-base58",
		Usage:     "Convert a wallet file byte array to a base58 private key",
		ArgsUsage: "[BYTE_ARRAY]",
		Description: `Encode wallet file key material as base58, the form browser wallets
import. The array is read from --file, the argument, or stdin.
Nothing is written to disk.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read the wallet file at this path",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			var key solana.PrivateKey
			var err error
			if path := c.String("file"); path != "" {
				key, err = keys.Load(path)
			} else {
				var text string
				text, err = argOrStdin(c)
				if err == nil {
					key, err = keys.Parse(text)
				}
			}
			if err != nil {
				return err
			}

			out := keyOutput{
				Address: codec.FormatAddress(key.PublicKey()),
				Base58:  codec.Encode(key),
			}
			return render(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "Your private key is:\n%s\n", out.Base58)
			})
		},
	}
}

func addressCommand() *cli.Command {
	return &cli.Command{
		Name:      "address",
		Usage:     "Print the address of a wallet file",
		ArgsUsage: "[WALLET_PATH]",
		Description: `Print the base58 address of a wallet file. Without an argument the
dev wallet is used.`,
		Flags: outputFlags(),
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				path = cfg.DevWalletPath
			}

			key, err := keys.Load(path)
			if err != nil {
				return err
			}

			out := keyOutput{Address: codec.FormatAddress(key.PublicKey()), Path: path}
			return render(c, out, func(w io.Writer) {
				fmt.Fprintln(w, out.Address)
			})
		},
	}
}

// argOrStdin returns the first argument, or all of stdin when there is none.
func argOrStdin(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no input given")
	}
	return text, nil
}

func writeKeyFile(path string, key solana.PrivateKey, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(keys.Marshal(key)), 0o600); err != nil {
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	return nil
}
