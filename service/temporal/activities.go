package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/keys"
	"github.com/brojonat/solprereq/service/metrics"
	"github.com/brojonat/solprereq/service/runner"
	"github.com/brojonat/solprereq/service/txn"
	solanago "github.com/gagliardetto/solana-go"
	temporalsdk "go.temporal.io/sdk/temporal"
)

// AirdropInput contains the input parameters for AirdropWorkflow.
type AirdropInput struct {
	Address  string        `json:"address"`
	Lamports uint64        `json:"lamports"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// TransferInput contains the input parameters for TransferWorkflow.
// Keys are referenced by path and loaded by the worker.
type TransferInput struct {
	FromKeyPath string        `json:"from_key_path"`
	To          string        `json:"to"`
	Lamports    uint64        `json:"lamports"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// DrainInput contains the input parameters for DrainWorkflow.
type DrainInput struct {
	FromKeyPath string        `json:"from_key_path"`
	To          string        `json:"to"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// CompletePrereqInput contains the input parameters for CompletePrereqWorkflow.
type CompletePrereqInput struct {
	SignerKeyPath string        `json:"signer_key_path"`
	Github        string        `json:"github"`
	Timeout       time.Duration `json:"timeout,omitempty"`
}

// RunnerInterface defines the submission operations needed by activities.
// This allows for easy mocking in tests.
type RunnerInterface interface {
	Airdrop(ctx context.Context, addr solanago.PublicKey, lamports uint64) (*runner.Result, error)
	Transfer(ctx context.Context, from txn.Signer, to solanago.PublicKey, lamports uint64) (*runner.Result, error)
	Drain(ctx context.Context, from txn.Signer, to solanago.PublicKey) (*runner.Result, error)
	CompletePrereq(ctx context.Context, signer txn.Signer, github []byte) (*runner.Result, error)
}

// KeyLoader reads a keypair from a path on the worker host.
type KeyLoader func(path string) (solanago.PrivateKey, error)

// Activities holds the dependencies needed by Temporal activities.
// Following go-kit pattern, all dependencies are explicit.
type Activities struct {
	runner  RunnerInterface
	loadKey KeyLoader
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewActivities creates a new Activities instance with explicit dependencies.
// If loadKey is nil, keys.Load is used. If metrics is nil, no metrics will be recorded.
func NewActivities(r RunnerInterface, loadKey KeyLoader, m *metrics.Metrics, logger *slog.Logger) *Activities {
	if loadKey == nil {
		loadKey = keys.Load
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		runner:  r,
		loadKey: loadKey,
		metrics: m,
		logger:  logger,
	}
}

// Airdrop requests lamports for an address.
func (a *Activities) Airdrop(ctx context.Context, input AirdropInput) (res *runner.Result, err error) {
	defer a.observe(runner.KindAirdrop, time.Now(), &err)

	addr, err := codec.ParseAddress(input.Address)
	if err != nil {
		return nil, nonRetryable(fmt.Errorf("invalid address: %w", err))
	}

	a.logger.DebugContext(ctx, "airdrop activity", "address", input.Address, "lamports", input.Lamports)
	res, err = a.runner.Airdrop(ctx, addr, input.Lamports)
	return res, nonRetryable(err)
}

// Transfer loads the source key and sends lamports to the target.
func (a *Activities) Transfer(ctx context.Context, input TransferInput) (res *runner.Result, err error) {
	defer a.observe(runner.KindTransfer, time.Now(), &err)

	to, err := codec.ParseAddress(input.To)
	if err != nil {
		return nil, nonRetryable(fmt.Errorf("invalid target address: %w", err))
	}
	from, err := a.loadKey(input.FromKeyPath)
	if err != nil {
		return nil, nonRetryable(err)
	}

	a.logger.DebugContext(ctx, "transfer activity",
		"from", from.PublicKey().String(),
		"to", input.To,
		"lamports", input.Lamports,
	)
	res, err = a.runner.Transfer(ctx, from, to, input.Lamports)
	return res, nonRetryable(err)
}

// Drain loads the source key and moves its whole balance less the fee.
func (a *Activities) Drain(ctx context.Context, input DrainInput) (res *runner.Result, err error) {
	defer a.observe(runner.KindDrain, time.Now(), &err)

	to, err := codec.ParseAddress(input.To)
	if err != nil {
		return nil, nonRetryable(fmt.Errorf("invalid target address: %w", err))
	}
	from, err := a.loadKey(input.FromKeyPath)
	if err != nil {
		return nil, nonRetryable(err)
	}

	a.logger.DebugContext(ctx, "drain activity", "from", from.PublicKey().String(), "to", input.To)
	res, err = a.runner.Drain(ctx, from, to)
	return res, nonRetryable(err)
}

// CompletePrereq loads the signer key and calls the prerequisite program.
func (a *Activities) CompletePrereq(ctx context.Context, input CompletePrereqInput) (res *runner.Result, err error) {
	defer a.observe(runner.KindCompletePrereq, time.Now(), &err)

	signer, err := a.loadKey(input.SignerKeyPath)
	if err != nil {
		return nil, nonRetryable(err)
	}

	a.logger.DebugContext(ctx, "complete prerequisite activity",
		"signer", signer.PublicKey().String(),
		"github", input.Github,
	)
	res, err = a.runner.CompletePrereq(ctx, signer, []byte(input.Github))
	return res, nonRetryable(err)
}

func (a *Activities) observe(kind string, start time.Time, errp *error) {
	if a.metrics != nil {
		a.metrics.RecordWorkflowDuration(kind, *errp, time.Since(start).Seconds())
	}
	if *errp != nil {
		a.logger.Error("activity failed", "kind", kind, "error", *errp)
	}
}

// errorType names the failure class carried in the application error.
func errorType(err error) string {
	switch {
	case errors.Is(err, txn.ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, txn.ErrMissingSigner):
		return "MissingSigner"
	case errors.Is(err, txn.ErrDerivation):
		return "DerivationFailed"
	case errors.Is(err, keys.ErrKeyFileNotFound), errors.Is(err, keys.ErrMalformedKey):
		return "InvalidKey"
	case errors.Is(err, codec.ErrInvalidEncoding):
		return "InvalidEncoding"
	default:
		return "SubmissionFailed"
	}
}

func nonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return temporalsdk.NewNonRetryableApplicationError(err.Error(), errorType(err), err)
}
