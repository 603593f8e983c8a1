// Package codec converts domain values to and from Starknet field elements and the flat
// calldata representation used by contract calls.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// ErrEncoding is returned when a value cannot be represented as calldata.
var ErrEncoding = errors.New("encoding error")

const maxShortStringLen = 31

var (
	fieldPrime = fp.Modulus()
)

// ParseFelt parses a field element. A 0x prefix selects hex, a string of decimal digits is read
// as decimal and anything else is tried as prefix-less hex.
func ParseFelt(s string) (*felt.Felt, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty field element", ErrEncoding)
	}
	base := 16
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.Trim(s, "0123456789") == "":
		base = 10
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("%w: invalid field element %q", ErrEncoding, s)
	}
	return FromBig(v)
}

// MustParseFelt is ParseFelt for constants; it panics on malformed input.
func MustParseFelt(s string) *felt.Felt {
	f, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}
	return f
}

// FromBig converts v, which must lie in [0, P), to a field element.
func FromBig(v *big.Int) (*felt.Felt, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(fieldPrime) >= 0 {
		return nil, fmt.Errorf("%w: value out of field range", ErrEncoding)
	}
	var buf [32]byte
	v.FillBytes(buf[:])
	return new(felt.Felt).SetBytes(buf[:]), nil
}

// FromUint64 converts v to a field element.
func FromUint64(v uint64) *felt.Felt {
	return new(felt.Felt).SetUint64(v)
}

// ToBig returns the canonical integer value of f.
func ToBig(f *felt.Felt) *big.Int {
	b := f.Bytes()
	return new(big.Int).SetBytes(b[:])
}

// ToUint64 returns f as a uint64 or an encoding error if it does not fit.
func ToUint64(f *felt.Felt) (uint64, error) {
	v := ToBig(f)
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrEncoding, f.String())
	}
	return v.Uint64(), nil
}

// ToUint128 checks that f fits in 128 bits and returns its integer value.
func ToUint128(f *felt.Felt) (*big.Int, error) {
	v := ToBig(f)
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("%w: %s does not fit in 128 bits", ErrEncoding, f.String())
	}
	return v, nil
}

// Hex returns the 0x-prefixed hex form of f without leading zeros.
func Hex(f *felt.Felt) string {
	return "0x" + ToBig(f).Text(16)
}

// HexList formats each element with Hex.
func HexList(fs []*felt.Felt) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = Hex(f)
	}
	return out
}

// ParseFeltList parses each string with ParseFelt.
func ParseFeltList(ss []string) ([]*felt.Felt, error) {
	out := make([]*felt.Felt, len(ss))
	for i, s := range ss {
		f, err := ParseFelt(s)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// EncodeShortString packs an ASCII string of at most 31 bytes into a field element.
func EncodeShortString(s string) (*felt.Felt, error) {
	if len(s) > maxShortStringLen {
		return nil, fmt.Errorf("%w: short string %q longer than %d bytes", ErrEncoding, s, maxShortStringLen)
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return nil, fmt.Errorf("%w: short string %q is not ascii", ErrEncoding, s)
		}
	}
	return new(felt.Felt).SetBytes([]byte(s)), nil
}

// MustEncodeShortString is EncodeShortString for constants.
func MustEncodeShortString(s string) *felt.Felt {
	f, err := EncodeShortString(s)
	if err != nil {
		panic(err)
	}
	return f
}

// DecodeShortString unpacks a field element into its ASCII bytes.
func DecodeShortString(f *felt.Felt) string {
	return string(ToBig(f).Bytes())
}

// StarknetKeccak is keccak256 truncated to 250 bits.
func StarknetKeccak(data []byte) *felt.Felt {
	return crypto.StarknetKeccak(data)
}

// Selector returns the entry point selector for a function name.
func Selector(name string) *felt.Felt {
	return StarknetKeccak([]byte(name))
}

// Equal reports whether two possibly nil field elements are equal.
func Equal(a, b *felt.Felt) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}
