// Package codec converts between raw key bytes and their text forms.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ErrInvalidEncoding is returned when text cannot be decoded.
var ErrInvalidEncoding = errors.New("invalid encoding")

// Encode renders bytes as base58 text.
func Encode(b []byte) string {
	return base58.Encode(b)
}

// Decode parses base58 text into bytes.
func Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidEncoding)
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b, nil
}

// ParseAddress decodes a base58 address and checks it is exactly 32 bytes.
func ParseAddress(s string) (solana.PublicKey, error) {
	b, err := Decode(s)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(b) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("%w: address must be %d bytes, got %d",
			ErrInvalidEncoding, solana.PublicKeyLength, len(b))
	}
	return solana.PublicKeyFromBytes(b), nil
}

// FormatAddress renders an address as base58 text.
func FormatAddress(pk solana.PublicKey) string {
	return Encode(pk[:])
}

// FormatWalletBytes renders key material in the wallet file form: a JSON
// array of byte values, e.g. [34,46,55,...].
func FormatWalletBytes(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b)*4 + 2)
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseWalletBytes parses the wallet file form produced by FormatWalletBytes.
// Whitespace between values is accepted, as is the "[1, 2, 3]" layout.
func ParseWalletBytes(s string) ([]byte, error) {
	var values []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: value %d at index %d is not a byte", ErrInvalidEncoding, v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}
