package txn

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	from := newKey(t).PublicKey()
	to := newKey(t).PublicKey()

	ix, err := Transfer(from, to, 100_000_000)
	require.NoError(t, err)

	assert.Equal(t, solana.SystemProgramID, ix.ProgramID())
	assert.Equal(t, []AccountRef{
		{Address: from, IsSigner: true, IsWritable: true},
		{Address: to, IsSigner: false, IsWritable: true},
	}, ix.Refs)

	// system program: u32 instruction index 2, then u64 lamports
	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint64(100_000_000), binary.LittleEndian.Uint64(data[4:]))

	metas := ix.Accounts()
	require.Len(t, metas, 2)
	assert.Equal(t, from, metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
	assert.True(t, metas[0].IsWritable)
	assert.Equal(t, to, metas[1].PublicKey)
	assert.False(t, metas[1].IsSigner)
	assert.True(t, metas[1].IsWritable)

	assert.Equal(t, []solana.PublicKey{from}, ix.Signers())
}

func TestTransfer_ZeroAmount(t *testing.T) {
	ix, err := Transfer(newKey(t).PublicKey(), newKey(t).PublicKey(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(ix.Payload[4:]))
}

func TestCompletePrereq(t *testing.T) {
	program := prereqProgram(t)
	wallet := newKey(t).PublicKey()

	ix, pda, err := CompletePrereqFor(program, wallet, []byte("Kenrou7"))
	require.NoError(t, err)

	assert.Equal(t, program, ix.ProgramID())
	assert.Equal(t, []AccountRef{
		{Address: wallet, IsSigner: true, IsWritable: true},
		{Address: pda.Address, IsWritable: true},
		{Address: solana.SystemProgramID},
	}, ix.Refs)

	sum := sha256.Sum256([]byte("global:complete"))
	want := append([]byte{}, sum[:8]...)
	want = binary.LittleEndian.AppendUint32(want, uint32(len("Kenrou7")))
	want = append(want, "Kenrou7"...)
	assert.Equal(t, want, ix.Payload)

	assert.Equal(t, []solana.PublicKey{wallet}, ix.Signers())
}

func TestCompletePrereq_EmptyArgument(t *testing.T) {
	program := prereqProgram(t)
	wallet := newKey(t).PublicKey()

	// Empty handles are left for the program to reject.
	ix, _, err := CompletePrereqFor(program, wallet, nil)
	require.NoError(t, err)
	require.Len(t, ix.Payload, 12)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(ix.Payload[8:]))
}

func TestInstructionSigners_Dedup(t *testing.T) {
	a := newKey(t).PublicKey()
	b := newKey(t).PublicKey()

	ix := &Instruction{
		Program: solana.SystemProgramID,
		Refs: []AccountRef{
			{Address: a, IsSigner: true},
			{Address: b},
			{Address: a, IsSigner: true, IsWritable: true},
		},
	}
	assert.Equal(t, []solana.PublicKey{a}, ix.Signers())
}
