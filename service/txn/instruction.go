package txn

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// AccountRef is one entry of an instruction's account list.
type AccountRef struct {
	Address    solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a program call with an explicit, ordered account list.
// The order of Refs must match the layout the receiving program expects.
type Instruction struct {
	Program solana.PublicKey
	Refs    []AccountRef
	Payload []byte
}

var _ solana.Instruction = (*Instruction)(nil)

// ProgramID implements solana.Instruction.
func (i *Instruction) ProgramID() solana.PublicKey {
	return i.Program
}

// Accounts implements solana.Instruction.
func (i *Instruction) Accounts() []*solana.AccountMeta {
	metas := make([]*solana.AccountMeta, len(i.Refs))
	for n, ref := range i.Refs {
		metas[n] = &solana.AccountMeta{
			PublicKey:  ref.Address,
			IsSigner:   ref.IsSigner,
			IsWritable: ref.IsWritable,
		}
	}
	return metas
}

// Data implements solana.Instruction.
func (i *Instruction) Data() ([]byte, error) {
	return i.Payload, nil
}

// Signers returns the distinct addresses marked as signers, in order.
func (i *Instruction) Signers() []solana.PublicKey {
	var out []solana.PublicKey
	seen := make(map[solana.PublicKey]struct{})
	for _, ref := range i.Refs {
		if !ref.IsSigner {
			continue
		}
		if _, ok := seen[ref.Address]; ok {
			continue
		}
		seen[ref.Address] = struct{}{}
		out = append(out, ref.Address)
	}
	return out
}

// Transfer builds a system program transfer of lamports from one wallet to
// another.
//
// Accounts:
//
//	0. [WRITE, SIGNER] source
//	1. [WRITE]         destination
//
// The source balance is not checked here; the network rejects overdrafts.
func Transfer(from, to solana.PublicKey, lamports uint64) (*Instruction, error) {
	data, err := system.NewTransferInstruction(lamports, from, to).Build().Data()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}

	return &Instruction{
		Program: solana.SystemProgramID,
		Refs: []AccountRef{
			{Address: from, IsSigner: true, IsWritable: true},
			{Address: to, IsWritable: true},
		},
		Payload: data,
	}, nil
}
