package txn

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSigner struct {
	pk solana.PublicKey
}

func (f failingSigner) PublicKey() solana.PublicKey { return f.pk }

func (f failingSigner) Sign([]byte) (solana.Signature, error) {
	return solana.Signature{}, errors.New("hsm offline")
}

func TestAssemble_NativeTransfer(t *testing.T) {
	a := newKey(t)
	b := newKey(t).PublicKey()

	ix, err := Transfer(a.PublicKey(), b, 100_000_000)
	require.NoError(t, err)

	tx, err := Assemble([]solana.Instruction{ix}, a.PublicKey(), testHash("anchor"), a)
	require.NoError(t, err)

	require.Len(t, tx.Message.Instructions, 1)
	assert.Len(t, tx.Message.Instructions[0].Accounts, 2)
	require.Len(t, tx.Signatures, 1)
	assert.Equal(t, a.PublicKey(), tx.Message.AccountKeys[0])
	assert.Equal(t, testHash("anchor"), tx.Message.RecentBlockhash)
	assert.NoError(t, VerifySignatures(tx))
}

func TestAssemble_MissingSigner(t *testing.T) {
	a := newKey(t)
	b := newKey(t)

	ix, err := Transfer(b.PublicKey(), a.PublicKey(), 1)
	require.NoError(t, err)

	// a pays the fee, b is the transfer source; only a is provided
	_, err = Assemble([]solana.Instruction{ix}, a.PublicKey(), testHash("anchor"), a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSigner)
	assert.Contains(t, err.Error(), b.PublicKey().String())
}

func TestAssemble_FeePayerMustSign(t *testing.T) {
	a := newKey(t)
	payer := newKey(t)

	ix, err := Transfer(a.PublicKey(), newKey(t).PublicKey(), 1)
	require.NoError(t, err)

	_, err = Assemble([]solana.Instruction{ix}, payer.PublicKey(), testHash("anchor"), a)
	assert.ErrorIs(t, err, ErrMissingSigner)
}

func TestAssemble_SeparateFeePayer(t *testing.T) {
	a := newKey(t)
	payer := newKey(t)

	ix, err := Transfer(a.PublicKey(), newKey(t).PublicKey(), 1)
	require.NoError(t, err)

	tx, err := Assemble([]solana.Instruction{ix}, payer.PublicKey(), testHash("anchor"), a, payer)
	require.NoError(t, err)

	required := RequiredSigners(&tx.Message)
	assert.Equal(t, []solana.PublicKey{payer.PublicKey(), a.PublicKey()}, required)
	require.Len(t, tx.Signatures, 2)
	assert.NoError(t, VerifySignatures(tx))
}

func TestAssemble_ExtraSignersIgnored(t *testing.T) {
	a := newKey(t)
	extra := newKey(t)

	ix, err := Transfer(a.PublicKey(), newKey(t).PublicKey(), 1)
	require.NoError(t, err)

	tx, err := Assemble([]solana.Instruction{ix}, a.PublicKey(), testHash("anchor"), extra, a, nil)
	require.NoError(t, err)
	assert.Len(t, tx.Signatures, 1)
	assert.NoError(t, VerifySignatures(tx))
}

func TestAssemble_ProgramCall(t *testing.T) {
	signer := newKey(t)

	ix, pda, err := CompletePrereqFor(prereqProgram(t), signer.PublicKey(), []byte("octocat"))
	require.NoError(t, err)

	tx, err := Assemble([]solana.Instruction{ix}, signer.PublicKey(), testHash("anchor"), signer)
	require.NoError(t, err)

	require.Len(t, tx.Signatures, 1)
	assert.Contains(t, tx.Message.AccountKeys, pda.Address)
	assert.NoError(t, VerifySignatures(tx))
}

func TestAssemble_NoInstructions(t *testing.T) {
	a := newKey(t)
	_, err := Assemble(nil, a.PublicKey(), testHash("anchor"), a)
	assert.ErrorIs(t, err, ErrNoInstructions)
}

func TestAssemble_SignerError(t *testing.T) {
	a := newKey(t).PublicKey()
	ix, err := Transfer(a, newKey(t).PublicKey(), 1)
	require.NoError(t, err)

	_, err = Assemble([]solana.Instruction{ix}, a, testHash("anchor"), failingSigner{pk: a})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hsm offline")
}

func TestVerifySignatures_Tampered(t *testing.T) {
	a := newKey(t)
	ix, err := Transfer(a.PublicKey(), newKey(t).PublicKey(), 1)
	require.NoError(t, err)

	tx, err := Assemble([]solana.Instruction{ix}, a.PublicKey(), testHash("anchor"), a)
	require.NoError(t, err)

	tx.Message.RecentBlockhash = testHash("other")
	assert.Error(t, VerifySignatures(tx))

	tx.Signatures = nil
	assert.Error(t, VerifySignatures(tx))
}
