package txn

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func testHash(s string) solana.Hash {
	return solana.Hash(sha256.Sum256([]byte(s)))
}

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func prereqProgram(t *testing.T) solana.PublicKey {
	t.Helper()
	program, err := solana.PublicKeyFromBase58(DefaultPrereqProgramID)
	require.NoError(t, err)
	return program
}
