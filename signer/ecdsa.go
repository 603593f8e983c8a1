// Package signer implements Starknet ECDSA over the Stark curve and the signing stage of the
// outside execution flow.
package signer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/curve"
)

var (
	// ErrSignatureMismatch is returned when a signature does not verify.
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrInvalidKey        = errors.New("invalid private key")
	ErrInvalidHash       = errors.New("message hash out of range")
)

var (
	order = curve.Order()

	// r, w and the message hash must all be below 2^251.
	bound = new(big.Int).Lsh(big.NewInt(1), 251)
)

// maxSignAttempts bounds the resampling of nonces whose r or w fall outside the Starknet range.
const maxSignAttempts = 64

// PrivateKey is a Stark curve scalar in [1, N).
type PrivateKey struct {
	d   *big.Int
	pub curve.Point
	key ecdsa.PrivateKey
}

func NewPrivateKey(d *big.Int) (*PrivateKey, error) {
	if d == nil || d.Sign() <= 0 || d.Cmp(order) >= 0 {
		return nil, ErrInvalidKey
	}
	pub := curve.ScalarBaseMult(d)
	aff := pub.Affine()
	pubBytes := aff.Bytes()
	buf := append(pubBytes[:], d.FillBytes(make([]byte, felt.Bytes))...)

	k := &PrivateKey{d: new(big.Int).Set(d), pub: pub}
	if _, err := k.key.SetBytes(buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return k, nil
}

// ParsePrivateKey accepts a 0x-prefixed hex or a decimal scalar.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	f, err := codec.ParseFelt(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return NewPrivateKey(codec.ToBig(f))
}

// Scalar returns a copy of the secret scalar.
func (k *PrivateKey) Scalar() *big.Int {
	return new(big.Int).Set(k.d)
}

func (k *PrivateKey) Public() PublicKey {
	return PublicKey{point: k.pub}
}

// PublicKey is a curve point. Keys rebuilt from a stark key alone carry an arbitrary y.
type PublicKey struct {
	point curve.Point
}

// PublicKeyFromStarkKey recovers a public key from its x coordinate.
func PublicKeyFromStarkKey(x *felt.Felt) (PublicKey, error) {
	p, _, err := curve.PointsFromX(codec.ToBig(x))
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid stark key: %w", err)
	}
	return PublicKey{point: p}, nil
}

// StarkKey is the x coordinate of the public key, the value stored by Starknet accounts.
func (p PublicKey) StarkKey() *felt.Felt {
	f, _ := codec.FromBig(p.point.X())
	return f
}

func (p PublicKey) Point() curve.Point {
	return p.point
}

// Signature is a Starknet ECDSA signature.
type Signature struct {
	R *felt.Felt
	S *felt.Felt
}

// Felts returns the signature in the [r, s] layout accounts expect.
func (s Signature) Felts() []*felt.Felt {
	return []*felt.Felt{s.R, s.S}
}

// Sign signs a message hash with gnark's stark curve ECDSA, resampling until r and w fit in
// 251 bits.
func Sign(msgHash *felt.Felt, key *PrivateKey) (Signature, error) {
	if key == nil {
		return Signature{}, ErrInvalidKey
	}
	if msgHash == nil || codec.ToBig(msgHash).Cmp(bound) >= 0 {
		return Signature{}, ErrInvalidHash
	}

	hb := msgHash.Bytes()
	for i := 0; i < maxSignAttempts; i++ {
		raw, err := key.key.Sign(hb[:], nil)
		if err != nil {
			return Signature{}, fmt.Errorf("failed signing hash: %w", err)
		}
		var sig ecdsa.Signature
		if _, err := sig.SetBytes(raw); err != nil {
			return Signature{}, fmt.Errorf("failed decoding signature: %w", err)
		}
		r := new(big.Int).SetBytes(sig.R[:])
		s := new(big.Int).SetBytes(sig.S[:])
		if r.Cmp(bound) >= 0 || new(big.Int).ModInverse(s, order).Cmp(bound) >= 0 {
			continue
		}

		rf, err := codec.FromBig(r)
		if err != nil {
			return Signature{}, err
		}
		sf, err := codec.FromBig(s)
		if err != nil {
			return Signature{}, err
		}
		return Signature{R: rf, S: sf}, nil
	}
	return Signature{}, fmt.Errorf("no signature in range after %d attempts", maxSignAttempts)
}

// Verify reports whether sig is a valid signature of msgHash under pub.
func Verify(msgHash *felt.Felt, pub PublicKey, sig Signature) bool {
	if msgHash == nil || sig.R == nil || sig.S == nil || pub.point.IsInfinity() {
		return false
	}
	r := codec.ToBig(sig.R)
	s := codec.ToBig(sig.S)
	if codec.ToBig(msgHash).Cmp(bound) >= 0 || r.Sign() == 0 || r.Cmp(bound) >= 0 {
		return false
	}
	if s.Sign() == 0 || s.Cmp(order) >= 0 || new(big.Int).ModInverse(s, order).Cmp(bound) >= 0 {
		return false
	}

	// the stark key fixes the public key only up to sign, juno tries both ordinates
	pk := crypto.NewPublicKey(pub.StarkKey())
	ok, err := pk.Verify(&crypto.Signature{R: *sig.R, S: *sig.S}, msgHash)
	return err == nil && ok
}

// CheckSignature is Verify reporting failures as ErrSignatureMismatch.
func CheckSignature(msgHash *felt.Felt, pub PublicKey, sig Signature) error {
	if !Verify(msgHash, pub, sig) {
		return fmt.Errorf("%w: hash %s", ErrSignatureMismatch, codec.Hex(msgHash))
	}
	return nil
}
