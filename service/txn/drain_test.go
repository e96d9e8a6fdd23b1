package txn

import (
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuoter returns a fixed fee and records the messages it was asked about.
type fakeQuoter struct {
	fee      uint64
	err      error
	messages []*solana.Message
}

func (f *fakeQuoter) GetFeeForMessage(ctx context.Context, msg *solana.Message) (uint64, error) {
	f.messages = append(f.messages, msg)
	if f.err != nil {
		return 0, f.err
	}
	return f.fee, nil
}

func TestPlanDrain(t *testing.T) {
	from := newKey(t).PublicKey()
	to := newKey(t).PublicKey()
	quoter := &fakeQuoter{fee: 5_000}

	plan, err := PlanDrain(context.Background(), quoter, from, to, 1_000_000, testHash("anchor"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000), plan.Balance)
	assert.Equal(t, uint64(5_000), plan.Fee)
	assert.Equal(t, uint64(995_000), plan.Amount)
	assert.Equal(t, uint64(995_000), binary.LittleEndian.Uint64(plan.Instruction.Payload[4:]))
	assert.Equal(t, from, plan.Instruction.Refs[0].Address)
	assert.Equal(t, to, plan.Instruction.Refs[1].Address)

	// the fee was quoted on a draft moving the whole balance
	require.Len(t, quoter.messages, 1)
	draft := quoter.messages[0]
	require.Len(t, draft.Instructions, 1)
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(draft.Instructions[0].Data[4:]))
	assert.Equal(t, from, draft.AccountKeys[0])
	assert.Equal(t, testHash("anchor"), draft.RecentBlockhash)
}

func TestPlanDrain_FeeExceedsBalance(t *testing.T) {
	quoter := &fakeQuoter{fee: 1_000_001}

	plan, err := PlanDrain(context.Background(), quoter, newKey(t).PublicKey(), newKey(t).PublicKey(), 1_000_000, testHash("anchor"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Nil(t, plan)
}

func TestPlanDrain_FeeEqualsBalance(t *testing.T) {
	quoter := &fakeQuoter{fee: 5_000}

	plan, err := PlanDrain(context.Background(), quoter, newKey(t).PublicKey(), newKey(t).PublicKey(), 5_000, testHash("anchor"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), plan.Amount)
}

func TestPlanDrain_QuoteError(t *testing.T) {
	rpcErr := errors.New("blockhash not found")
	quoter := &fakeQuoter{err: rpcErr}

	_, err := PlanDrain(context.Background(), quoter, newKey(t).PublicKey(), newKey(t).PublicKey(), 10, testHash("anchor"))
	require.Error(t, err)
	assert.ErrorIs(t, err, rpcErr)
}

func TestPlanDrain_AmountPlusFeeIsBalance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	from := newKey(t).PublicKey()
	to := newKey(t).PublicKey()

	for i := 0; i < 200; i++ {
		balance := rng.Uint64() >> uint(rng.Intn(64))
		fee := rng.Uint64() >> uint(rng.Intn(64))

		plan, err := PlanDrain(context.Background(), &fakeQuoter{fee: fee}, from, to, balance, testHash("anchor"))
		if fee > balance {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
			assert.Nil(t, plan)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, balance, plan.Amount+plan.Fee)
	}
}
