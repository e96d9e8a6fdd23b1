// Package runner drives the transaction patterns end to end: build the
// instruction, fetch a blockhash, assemble and sign, then submit and wait for
// confirmation. Every operation makes its round trips strictly in sequence.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/brojonat/solprereq/service/metrics"
	"github.com/brojonat/solprereq/service/nats"
	"github.com/brojonat/solprereq/service/txn"
	"github.com/gagliardetto/solana-go"
)

const (
	// DefaultAirdropLamports is 2 SOL.
	DefaultAirdropLamports uint64 = 2_000_000_000

	// DefaultTransferLamports is 0.1 SOL.
	DefaultTransferLamports uint64 = 100_000_000
)

const (
	KindAirdrop        = "airdrop"
	KindTransfer       = "transfer"
	KindDrain          = "drain"
	KindCompletePrereq = "complete_prereq"
)

// Gateway is the subset of the RPC gateway the runner needs.
// *solana.Client in service/solana satisfies it.
type Gateway interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	GetFeeForMessage(ctx context.Context, msg *solana.Message) (uint64, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error)
	SubmitAndConfirm(ctx context.Context, tx *solana.Transaction, lastValidBlockHeight uint64) (solana.Signature, error)
}

// Result describes one confirmed submission.
type Result struct {
	Kind        string `json:"kind"`
	Signature   string `json:"signature"`
	FeePayer    string `json:"fee_payer"`
	To          string `json:"to,omitempty"`
	Derived     string `json:"derived_address,omitempty"`
	Bump        uint8  `json:"bump,omitempty"`
	Amount      uint64 `json:"amount"`
	Fee         uint64 `json:"fee,omitempty"`
	ExplorerURL string `json:"explorer_url"`
}

// Runner executes single-use transaction workflows against a Gateway.
type Runner struct {
	gateway    Gateway
	publisher  nats.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cluster    string
	commitment string
	program    solana.PublicKey
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records submissions and drain fees to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithPublisher publishes a SubmissionEvent after every confirmed submission.
func WithPublisher(p nats.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithCluster sets the cluster name used in explorer links. Defaults to devnet.
func WithCluster(cluster string) Option {
	return func(r *Runner) {
		if cluster != "" {
			r.cluster = cluster
		}
	}
}

// WithCommitment sets the commitment label attached to published events.
func WithCommitment(commitment string) Option {
	return func(r *Runner) {
		if commitment != "" {
			r.commitment = commitment
		}
	}
}

// WithProgramID sets the prerequisite program. Defaults to txn.DefaultPrereqProgramID.
func WithProgramID(program solana.PublicKey) Option {
	return func(r *Runner) { r.program = program }
}

// New creates a Runner.
func New(gateway Gateway, opts ...Option) *Runner {
	r := &Runner{
		gateway:    gateway,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		cluster:    "devnet",
		commitment: "confirmed",
		program:    solana.MustPublicKeyFromBase58(txn.DefaultPrereqProgramID),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProgramID returns the prerequisite program the runner targets.
func (r *Runner) ProgramID() solana.PublicKey {
	return r.program
}

// ExplorerURL links a transaction signature on the Solana explorer.
func ExplorerURL(signature, cluster string) string {
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", signature, cluster)
}

// Balance returns the lamport balance of addr.
func (r *Runner) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	return r.gateway.GetBalance(ctx, addr)
}

// Airdrop requests lamports for addr and waits for the airdrop to confirm.
func (r *Runner) Airdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) (*Result, error) {
	r.logger.InfoContext(ctx, "requesting airdrop", "address", addr.String(), "lamports", lamports)

	sig, err := r.gateway.RequestAirdrop(ctx, addr, lamports)
	r.recordSubmission(KindAirdrop, err)
	if err != nil {
		return nil, fmt.Errorf("airdrop failed: %w", err)
	}

	res := r.result(KindAirdrop, sig, addr)
	res.Amount = lamports
	r.publish(ctx, res)
	return res, nil
}

// Transfer sends lamports from the signer to the target address.
func (r *Runner) Transfer(ctx context.Context, from txn.Signer, to solana.PublicKey, lamports uint64) (*Result, error) {
	payer := from.PublicKey()
	r.logger.InfoContext(ctx, "transferring",
		"from", payer.String(),
		"to", to.String(),
		"lamports", lamports,
	)

	ix, err := txn.Transfer(payer, to, lamports)
	if err != nil {
		return nil, err
	}

	sig, err := r.submit(ctx, KindTransfer, []solana.Instruction{ix}, payer, from)
	if err != nil {
		return nil, err
	}

	res := r.result(KindTransfer, sig, payer)
	res.To = to.String()
	res.Amount = lamports
	r.publish(ctx, res)
	return res, nil
}

// Drain moves the signer's entire balance to the target address, minus the
// fee quoted for the exact transfer message. Nothing is submitted when the
// balance cannot cover the fee.
func (r *Runner) Drain(ctx context.Context, from txn.Signer, to solana.PublicKey) (*Result, error) {
	payer := from.PublicKey()

	balance, err := r.gateway.GetBalance(ctx, payer)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	blockhash, lastValid, err := r.gateway.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	plan, err := txn.PlanDrain(ctx, r.gateway, payer, to, balance, blockhash)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordDrainRejected(rejectReason(err))
		}
		r.logger.WarnContext(ctx, "drain rejected",
			"from", payer.String(),
			"balance", balance,
			"error", err,
		)
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.RecordDrainFee(r.cluster, plan.Fee)
	}

	r.logger.InfoContext(ctx, "draining",
		"from", payer.String(),
		"to", to.String(),
		"balance", plan.Balance,
		"fee", plan.Fee,
		"amount", plan.Amount,
	)

	tx, err := assemble([]solana.Instruction{plan.Instruction}, payer, blockhash, from)
	if err != nil {
		return nil, err
	}
	sig, err := r.gateway.SubmitAndConfirm(ctx, tx, lastValid)
	r.recordSubmission(KindDrain, err)
	if err != nil {
		return nil, err
	}

	res := r.result(KindDrain, sig, payer)
	res.To = to.String()
	res.Amount = plan.Amount
	res.Fee = plan.Fee
	r.publish(ctx, res)
	return res, nil
}

// CompletePrereq calls the prerequisite program's complete instruction for the
// signer's wallet, recording the github handle in its derived account.
func (r *Runner) CompletePrereq(ctx context.Context, signer txn.Signer, github []byte) (*Result, error) {
	wallet := signer.PublicKey()

	ix, pda, err := txn.CompletePrereqFor(r.program, wallet, github)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "completing prerequisite",
		"signer", wallet.String(),
		"prereq", pda.Address.String(),
		"bump", pda.Bump,
		"program", r.program.String(),
	)

	sig, err := r.submit(ctx, KindCompletePrereq, []solana.Instruction{ix}, wallet, signer)
	if err != nil {
		return nil, err
	}

	res := r.result(KindCompletePrereq, sig, wallet)
	res.Derived = pda.Address.String()
	res.Bump = pda.Bump
	r.publish(ctx, res)
	return res, nil
}

// submit fetches a blockhash, assembles and signs, then submits.
func (r *Runner) submit(ctx context.Context, kind string, instructions []solana.Instruction, feePayer solana.PublicKey, signers ...txn.Signer) (solana.Signature, error) {
	blockhash, lastValid, err := r.gateway.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := assemble(instructions, feePayer, blockhash, signers...)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := r.gateway.SubmitAndConfirm(ctx, tx, lastValid)
	r.recordSubmission(kind, err)
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

// assemble signs the transaction and checks every required signature before
// anything leaves the process.
func assemble(instructions []solana.Instruction, feePayer solana.PublicKey, blockhash solana.Hash, signers ...txn.Signer) (*solana.Transaction, error) {
	tx, err := txn.Assemble(instructions, feePayer, blockhash, signers...)
	if err != nil {
		return nil, err
	}
	if err := txn.VerifySignatures(tx); err != nil {
		return nil, fmt.Errorf("refusing to submit: %w", err)
	}
	return tx, nil
}

func (r *Runner) result(kind string, sig solana.Signature, feePayer solana.PublicKey) *Result {
	return &Result{
		Kind:        kind,
		Signature:   sig.String(),
		FeePayer:    codec.FormatAddress(feePayer),
		ExplorerURL: ExplorerURL(sig.String(), r.cluster),
	}
}

func (r *Runner) recordSubmission(kind string, err error) {
	if r.metrics != nil {
		r.metrics.RecordSubmission(kind, err)
	}
}

// publish emits a SubmissionEvent. Failures are logged only; the submission
// is already confirmed.
func (r *Runner) publish(ctx context.Context, res *Result) {
	r.logger.InfoContext(ctx, "transaction confirmed",
		"kind", res.Kind,
		"signature", res.Signature,
		"explorer_url", res.ExplorerURL,
	)

	if r.publisher == nil {
		return
	}

	event := &nats.SubmissionEvent{
		Signature:   res.Signature,
		Kind:        res.Kind,
		Cluster:     r.cluster,
		FeePayer:    res.FeePayer,
		Amount:      res.Amount,
		Fee:         res.Fee,
		Commitment:  r.commitment,
		ExplorerURL: res.ExplorerURL,
		PublishedAt: time.Now().UTC(),
	}
	if res.To != "" {
		to := res.To
		event.To = &to
	}
	if res.Derived != "" {
		derived := res.Derived
		event.Derived = &derived
	}

	if err := r.publisher.PublishSubmission(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "failed to publish submission event",
			"signature", res.Signature,
			"error", err,
		)
	}
}

func rejectReason(err error) string {
	if errors.Is(err, txn.ErrInsufficientFunds) {
		return "insufficient_funds"
	}
	return "fee_quote_failed"
}
