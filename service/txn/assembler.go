package txn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrMissingSigner is returned when a required signer has no matching identity.
	ErrMissingSigner = errors.New("missing signer")

	// ErrNoInstructions is returned when a message would carry no instructions.
	ErrNoInstructions = errors.New("no instructions")
)

// Signer signs message bytes on behalf of one address.
// solana.PrivateKey satisfies it.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(payload []byte) (solana.Signature, error)
}

// DraftMessage compiles an unsigned message, e.g. to quote its fee.
func DraftMessage(instructions []solana.Instruction, feePayer solana.PublicKey, blockhash solana.Hash) (*solana.Message, error) {
	tx, err := compile(instructions, feePayer, blockhash)
	if err != nil {
		return nil, err
	}
	return &tx.Message, nil
}

// RequiredSigners lists the addresses that must sign msg, fee payer first.
func RequiredSigners(msg *solana.Message) []solana.PublicKey {
	n := int(msg.Header.NumRequiredSignatures)
	if n > len(msg.AccountKeys) {
		n = len(msg.AccountKeys)
	}
	out := make([]solana.PublicKey, n)
	copy(out, msg.AccountKeys[:n])
	return out
}

// Assemble compiles instructions into a message paid for by feePayer and
// anchored at blockhash, then signs it with one signature per required
// signer. Every required signer must be present in signers; nothing is
// signed otherwise. Signers that are not required are ignored.
func Assemble(instructions []solana.Instruction, feePayer solana.PublicKey, blockhash solana.Hash, signers ...Signer) (*solana.Transaction, error) {
	tx, err := compile(instructions, feePayer, blockhash)
	if err != nil {
		return nil, err
	}

	available := make(map[solana.PublicKey]Signer, len(signers))
	for _, s := range signers {
		if s == nil {
			continue
		}
		available[s.PublicKey()] = s
	}

	required := RequiredSigners(&tx.Message)
	matched := make([]Signer, len(required))
	var missing []string
	for i, pk := range required {
		s, ok := available[pk]
		if !ok {
			missing = append(missing, pk.String())
			continue
		}
		matched[i] = s
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSigner, strings.Join(missing, ", "))
	}

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %w", err)
	}

	tx.Signatures = make([]solana.Signature, 0, len(required))
	for i, s := range matched {
		sig, err := s.Sign(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to sign for %s: %w", required[i], err)
		}
		tx.Signatures = append(tx.Signatures, sig)
	}

	return tx, nil
}

// VerifySignatures checks that tx carries exactly one valid signature per
// required signer.
func VerifySignatures(tx *solana.Transaction) error {
	required := RequiredSigners(&tx.Message)
	if len(tx.Signatures) != len(required) {
		return fmt.Errorf("expected %d signatures, got %d", len(required), len(tx.Signatures))
	}

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}
	for i, pk := range required {
		if !tx.Signatures[i].Verify(pk, payload) {
			return fmt.Errorf("invalid signature for %s", pk)
		}
	}
	return nil
}

func compile(instructions []solana.Instruction, feePayer solana.PublicKey, blockhash solana.Hash) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, ErrNoInstructions
	}
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("failed to compile message: %w", err)
	}
	return tx, nil
}
