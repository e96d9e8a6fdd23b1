// Package keys loads signing identities from solana-keygen wallet files.
package keys

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/brojonat/solprereq/service/codec"
	"github.com/gagliardetto/solana-go"
)

var (
	// ErrKeyFileNotFound is returned when the wallet file does not exist.
	ErrKeyFileNotFound = errors.New("key file not found")

	// ErrMalformedKey is returned when the wallet file is not valid key material.
	ErrMalformedKey = errors.New("malformed key material")
)

// Load reads a wallet file holding a JSON array of the 64 private key bytes
// (32 byte seed followed by the 32 byte public key).
func Load(path string) (solana.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	key, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return key, nil
}

// Parse decodes the wallet file text form of a private key.
func Parse(text string) (solana.PrivateKey, error) {
	raw, err := codec.ParseWalletBytes(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return FromBytes(raw)
}

// FromBytes validates raw private key bytes. The public half must match the
// key derived from the seed half.
func FromBytes(raw []byte) (solana.PrivateKey, error) {
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedKey, ed25519.PrivateKeySize, len(raw))
	}
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !derived.Equal(ed25519.PrivateKey(raw)) {
		return nil, fmt.Errorf("%w: public key does not match seed", ErrMalformedKey)
	}
	key := make(solana.PrivateKey, len(raw))
	copy(key, raw)
	return key, nil
}

// Generate creates a new random keypair.
func Generate() (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return key, nil
}

// Marshal renders a private key in the wallet file form accepted by Load.
func Marshal(key solana.PrivateKey) string {
	return codec.FormatWalletBytes(key)
}
