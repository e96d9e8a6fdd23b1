package txn

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrDerivation is returned when no program address can be derived for a seed set.
var ErrDerivation = errors.New("program address derivation failed")

// SeedSet is the input to program address derivation.
type SeedSet struct {
	Program solana.PublicKey
	Seeds   [][]byte
}

// DerivedAddress is a program-owned address with no private key.
type DerivedAddress struct {
	Address solana.PublicKey
	Bump    uint8
	Seeds   SeedSet
}

// DeriveAddress searches bump seeds from 255 down for the first off-curve
// address. The result only depends on program and seeds.
func DeriveAddress(program solana.PublicKey, seeds ...[]byte) (DerivedAddress, error) {
	owned := make([][]byte, len(seeds))
	for i, s := range seeds {
		owned[i] = append([]byte(nil), s...)
	}

	addr, bump, err := solana.FindProgramAddress(owned, program)
	if err != nil {
		return DerivedAddress{}, fmt.Errorf("%w: program %s: %v", ErrDerivation, program, err)
	}

	return DerivedAddress{
		Address: addr,
		Bump:    bump,
		Seeds:   SeedSet{Program: program, Seeds: owned},
	}, nil
}
