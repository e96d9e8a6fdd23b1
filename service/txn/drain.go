package txn

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrInsufficientFunds is returned when the fee exceeds the balance being drained.
var ErrInsufficientFunds = errors.New("insufficient funds")

// FeeQuoter returns the network fee for a specific message.
type FeeQuoter interface {
	GetFeeForMessage(ctx context.Context, msg *solana.Message) (uint64, error)
}

// DrainPlan is the final transfer that leaves the source at zero.
// Amount + Fee == Balance.
type DrainPlan struct {
	Balance     uint64
	Fee         uint64
	Amount      uint64
	Instruction *Instruction
}

// PlanDrain quotes the fee for a draft transfer of the whole balance, then
// rebuilds the transfer for balance minus that fee. The draft is only used
// for the quote.
func PlanDrain(ctx context.Context, quoter FeeQuoter, from, to solana.PublicKey, balance uint64, blockhash solana.Hash) (*DrainPlan, error) {
	draft, err := Transfer(from, to, balance)
	if err != nil {
		return nil, err
	}
	msg, err := DraftMessage([]solana.Instruction{draft}, from, blockhash)
	if err != nil {
		return nil, err
	}

	fee, err := quoter.GetFeeForMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to get fee for draft message: %w", err)
	}
	if fee > balance {
		return nil, fmt.Errorf("%w: balance of %d lamports cannot cover fee of %d lamports",
			ErrInsufficientFunds, balance, fee)
	}

	final, err := Transfer(from, to, balance-fee)
	if err != nil {
		return nil, err
	}

	return &DrainPlan{
		Balance:     balance,
		Fee:         fee,
		Amount:      balance - fee,
		Instruction: final,
	}, nil
}
