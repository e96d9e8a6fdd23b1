package txn

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DefaultPrereqProgramID is the deployed prereq program on devnet.
const DefaultPrereqProgramID = "WBAQSygkwMox2VuWKU133NxFrpDZUBdvSBeaBEue2Jq"

// PrereqSeed prefixes the per-wallet prereq account seeds.
const PrereqSeed = "prereq"

var completeDiscriminator = instructionDiscriminator("complete")

// instructionDiscriminator is the anchor selector for a global instruction.
func instructionDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// CompleteAccounts are the accounts of the complete instruction.
type CompleteAccounts struct {
	Signer        solana.PublicKey
	Prereq        solana.PublicKey
	SystemProgram solana.PublicKey
}

// CompleteArgs are the arguments of the complete instruction.
type CompleteArgs struct {
	Github []byte
}

// PrereqAddress derives the prereq account of a wallet, seeded with
// ["prereq", wallet].
func PrereqAddress(program, wallet solana.PublicKey) (DerivedAddress, error) {
	return DeriveAddress(program, []byte(PrereqSeed), wallet.Bytes())
}

// CompletePrereq builds the prereq program's complete instruction.
//
// Accounts:
//
//	0. [WRITE, SIGNER] signer
//	1. [WRITE]         prereq account (derived)
//	2. []              system program
//
// Payload is the 8 byte selector followed by the borsh encoded github bytes
// (u32 little endian length, then the bytes). Arguments are not validated;
// the program decides what it accepts.
func CompletePrereq(program solana.PublicKey, accounts CompleteAccounts, args CompleteArgs) (*Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(completeDiscriminator[:], false); err != nil {
		return nil, fmt.Errorf("failed to encode selector: %w", err)
	}
	if err := enc.WriteBytes(args.Github, true); err != nil {
		return nil, fmt.Errorf("failed to encode github: %w", err)
	}

	return &Instruction{
		Program: program,
		Refs: []AccountRef{
			{Address: accounts.Signer, IsSigner: true, IsWritable: true},
			{Address: accounts.Prereq, IsWritable: true},
			{Address: accounts.SystemProgram},
		},
		Payload: buf.Bytes(),
	}, nil
}

// CompletePrereqFor derives the wallet's prereq account and builds the
// complete instruction for it.
func CompletePrereqFor(program, wallet solana.PublicKey, github []byte) (*Instruction, DerivedAddress, error) {
	pda, err := PrereqAddress(program, wallet)
	if err != nil {
		return nil, DerivedAddress{}, err
	}
	ix, err := CompletePrereq(program, CompleteAccounts{
		Signer:        wallet,
		Prereq:        pda.Address,
		SystemProgram: solana.SystemProgramID,
	}, CompleteArgs{Github: github})
	if err != nil {
		return nil, DerivedAddress{}, err
	}
	return ix, pda, nil
}
