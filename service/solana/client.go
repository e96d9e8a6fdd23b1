package solana

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/solprereq/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetBalance(
		ctx context.Context,
		account solana.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetBalanceResult, error)

	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	GetFeeForMessage(
		ctx context.Context,
		message string,
		commitment rpc.CommitmentType,
	) (*rpc.GetFeeForMessageResult, error)

	RequestAirdrop(
		ctx context.Context,
		account solana.PublicKey,
		lamports uint64,
		commitment rpc.CommitmentType,
	) (solana.Signature, error)

	SendTransactionWithOpts(
		ctx context.Context,
		transaction *solana.Transaction,
		opts rpc.TransactionOpts,
	) (solana.Signature, error)

	GetSignatureStatuses(
		ctx context.Context,
		searchTransactionHistory bool,
		signatures ...solana.Signature,
	) (*rpc.GetSignatureStatusesResult, error)

	GetBlockHeight(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (uint64, error)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Endpoint labels metrics (e.g., "devnet", rpc host).
	Endpoint string

	// Commitment is used for queries, preflight and confirmation.
	// Defaults to confirmed.
	Commitment rpc.CommitmentType

	// PollInterval is the delay between signature status polls.
	// Defaults to 500ms.
	PollInterval time.Duration

	// Metrics is optional; if nil, no metrics will be recorded.
	Metrics *metrics.Metrics

	Logger *slog.Logger
}

// Client is the gateway between the transaction workflows and a Solana node.
// Every call is a single round trip; nothing is retried here.
type Client struct {
	rpc          RPCClient
	endpoint     string
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewClient creates a new Solana gateway.
func NewClient(rpcClient RPCClient, opts ClientOptions) *Client {
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		rpc:          rpcClient,
		endpoint:     opts.Endpoint,
		commitment:   opts.Commitment,
		pollInterval: opts.PollInterval,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// Commitment returns the commitment level the client waits for.
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	start := time.Now()
	out, err := c.rpc.GetBalance(ctx, account, c.commitment)
	c.observe("getBalance", start, err)
	if err != nil {
		return 0, err
	}

	c.logger.DebugContext(ctx, "fetched balance",
		"account", account.String(),
		"lamports", out.Value,
	)
	return out.Value, nil
}

// GetLatestBlockhash returns a recent blockhash to anchor a message to, and
// the last block height at which a message using it can still land.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	start := time.Now()
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	c.observe("getLatestBlockhash", start, err)
	if err != nil {
		return solana.Hash{}, 0, err
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, 0, fmt.Errorf("getLatestBlockhash returned no value")
	}

	c.logger.DebugContext(ctx, "fetched latest blockhash",
		"blockhash", out.Value.Blockhash.String(),
		"last_valid_block_height", out.Value.LastValidBlockHeight,
	)
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}

// GetFeeForMessage returns the fee the network charges for this exact message.
func (c *Client) GetFeeForMessage(ctx context.Context, msg *solana.Message) (uint64, error) {
	data, err := msg.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize message: %w", err)
	}

	start := time.Now()
	out, err := c.rpc.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(data), c.commitment)
	c.observe("getFeeForMessage", start, err)
	if err != nil {
		return 0, err
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("%w: blockhash %s", ErrFeeUnavailable, msg.RecentBlockhash)
	}

	c.logger.DebugContext(ctx, "fetched fee for message", "fee", *out.Value)
	return *out.Value, nil
}

// RequestAirdrop asks the cluster faucet for lamports and waits for the
// airdrop to reach the configured commitment. The faucet builds its own
// transaction, so the wait is bounded by a blockhash fetched just before the
// request.
func (c *Client) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	_, lastValid, err := c.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	start := time.Now()
	sig, err := c.rpc.RequestAirdrop(ctx, account, lamports, c.commitment)
	c.observe("requestAirdrop", start, err)
	if err != nil {
		return solana.Signature{}, err
	}

	c.logger.InfoContext(ctx, "airdrop requested",
		"account", account.String(),
		"lamports", lamports,
		"signature", sig.String(),
	)
	return sig, c.awaitConfirmation(ctx, sig, lastValid)
}

// SubmitAndConfirm sends a signed transaction and waits until it reaches the
// configured commitment. lastValidBlockHeight comes with the transaction's
// blockhash; once the chain passes it the wait ends with ErrBlockhashExpired.
// The signature is returned even when confirmation fails so callers can
// report it. Errors are passed through as reported.
func (c *Client) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction, lastValidBlockHeight uint64) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	c.observe("sendTransaction", start, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to send transaction", "error", err)
		return solana.Signature{}, err
	}

	c.logger.InfoContext(ctx, "transaction sent", "signature", sig.String())
	return sig, c.awaitConfirmation(ctx, sig, lastValidBlockHeight)
}

// awaitConfirmation polls the signature status until the wanted commitment is
// observed, the transaction reports an execution error, the block height moves
// past lastValid, or ctx ends. A failed status or block height query ends the
// wait with that error.
func (c *Client) awaitConfirmation(ctx context.Context, sig solana.Signature, lastValid uint64) error {
	start := time.Now()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		done, err := c.checkStatus(ctx, sig)
		if err != nil {
			return err
		}
		if done {
			c.recordConfirmation(polls, start)
			return nil
		}

		callStart := time.Now()
		height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
		c.observe("getBlockHeight", callStart, err)
		if err != nil {
			return err
		}
		if height > lastValid {
			// The transaction may have landed between the two queries.
			done, err := c.checkStatus(ctx, sig)
			if err != nil {
				return err
			}
			if done {
				c.recordConfirmation(polls, start)
				return nil
			}
			c.logger.ErrorContext(ctx, "blockhash expired before confirmation",
				"signature", sig.String(),
				"block_height", height,
				"last_valid_block_height", lastValid,
			)
			return fmt.Errorf("%w: %s at block height %d (last valid %d)", ErrBlockhashExpired, sig, height, lastValid)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting for %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// checkStatus reports whether sig reached the wanted commitment. An execution
// error ends the wait with an *ExecutionError.
func (c *Client) checkStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	start := time.Now()
	out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	c.observe("getSignatureStatuses", start, err)
	if err != nil {
		return false, err
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		c.logger.ErrorContext(ctx, "transaction failed",
			"signature", sig.String(),
			"error", status.Err,
		)
		return false, &ExecutionError{Signature: sig, Err: status.Err}
	}
	if !reached(status.ConfirmationStatus, c.commitment) {
		return false, nil
	}

	c.logger.InfoContext(ctx, "transaction confirmed",
		"signature", sig.String(),
		"slot", status.Slot,
		"status", status.ConfirmationStatus,
	)
	return true, nil
}

func (c *Client) recordConfirmation(polls int, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordConfirmation(string(c.commitment), polls, time.Since(start).Seconds())
	}
}

func (c *Client) observe(method string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, time.Since(start).Seconds())
}
