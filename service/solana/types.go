package solana

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrFeeUnavailable is returned when the node cannot price a message,
// usually because its blockhash is no longer valid.
var ErrFeeUnavailable = errors.New("fee unavailable for message")

// ErrBlockhashExpired is returned when the chain moves past a transaction's
// last valid block height before the transaction is confirmed. It can no
// longer land.
var ErrBlockhashExpired = errors.New("blockhash expired before confirmation")

// ExecutionError reports a transaction the network accepted but failed to execute.
// Err is the raw error value reported by the node.
type ExecutionError struct {
	Signature solana.Signature
	Err       interface{}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

var commitmentRank = map[string]int{
	string(rpc.CommitmentProcessed): 1,
	string(rpc.CommitmentConfirmed): 2,
	string(rpc.CommitmentFinalized): 3,
}

// ParseCommitment validates a commitment level name.
func ParseCommitment(s string) (rpc.CommitmentType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := commitmentRank[s]; !ok {
		return "", fmt.Errorf("invalid commitment %q: must be processed, confirmed or finalized", s)
	}
	return rpc.CommitmentType(s), nil
}

// reached reports whether a signature status satisfies the wanted commitment.
func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	got, ok := commitmentRank[string(status)]
	if !ok {
		return false
	}
	return got >= commitmentRank[string(want)]
}
