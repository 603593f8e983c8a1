package vrf

import (
	"context"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/curve"
	"github.com/ori-shem-tov/stark-vrf-oracle/signer"
	log "github.com/sirupsen/logrus"
)

// StarkVRF is an ECVRF over the Stark curve hashed with Poseidon. It holds the secret scalar
// and proves locally. Its proofs verify with Verify; agreement with the on-chain verifier is
// not pinned by known-answer vectors, so deployments that need it point the daemon at a
// stark_vrf server through RemoteProver instead.
type StarkVRF struct {
	secret *big.Int
	public curve.Point
}

// NewStarkVRF parses a secret scalar given in hex or decimal.
func NewStarkVRF(secret string) (*StarkVRF, error) {
	key, err := signer.ParsePrivateKey(secret)
	if err != nil {
		return nil, fmt.Errorf("failed parsing vrf secret: %w", err)
	}
	return &StarkVRF{secret: key.Scalar(), public: key.Public().Point()}, nil
}

// NewLocalProver is a ProverFactory backed by StarkVRF.
func NewLocalProver(secret string) (Prover, error) {
	return NewStarkVRF(secret)
}

// PublicKey returns the coordinates of the VRF public key.
func (v *StarkVRF) PublicKey() (*felt.Felt, *felt.Felt) {
	return pointFelts(v.public)
}

// PublicKeyInfo returns the public key in its GET /info form.
func (v *StarkVRF) PublicKeyInfo(context.Context) (PublicKeyInfo, error) {
	x, y := v.PublicKey()
	return PublicKeyInfo{PublicKeyX: codec.Hex(x), PublicKeyY: codec.Hex(y)}, nil
}

func (v *StarkVRF) Prove(ctx context.Context, seed *felt.Felt) (*Proof, error) {
	proof, _, err := v.ProveWithHint(ctx, seed)
	return proof, err
}

func (v *StarkVRF) HashToSqrtRatioHint(_ context.Context, seed *felt.Felt) (*felt.Felt, error) {
	if seed == nil {
		return nil, fmt.Errorf("%w: nil seed", codec.ErrEncoding)
	}
	_, hint, err := hashToCurve(v.public, seed)
	return hint, err
}

// ProveWithHint hashes seed to the curve once and returns the proof with its hint.
func (v *StarkVRF) ProveWithHint(_ context.Context, seed *felt.Felt) (*Proof, *felt.Felt, error) {
	if seed == nil {
		return nil, nil, fmt.Errorf("%w: nil seed", codec.ErrEncoding)
	}
	h, hint, err := hashToCurve(v.public, seed)
	if err != nil {
		return nil, nil, err
	}
	gamma := h.Mul(v.secret)
	k := v.nonce(h)

	c := challenge(h, gamma, curve.ScalarBaseMult(k), h.Mul(k))

	order := curve.Order()
	s := new(big.Int).Mul(c, v.secret)
	s.Add(s, k).Mod(s, order)

	gx, gy := pointFelts(gamma)
	cf, err := codec.FromBig(c)
	if err != nil {
		return nil, nil, err
	}
	sf, err := codec.FromBig(s)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(log.Fields{"seed": codec.Hex(seed), "gamma_x": codec.Hex(gx)}).Debug("computed vrf proof")
	return &Proof{GammaX: gx, GammaY: gy, C: cf, S: sf}, hint, nil
}

// nonce derives the proof nonce from the secret and the hashed point, in [1, N).
func (v *StarkVRF) nonce(h curve.Point) *big.Int {
	secret, _ := codec.FromBig(v.secret)
	hx, hy := pointFelts(h)
	order := curve.Order()
	for i := uint64(0); ; i++ {
		k := codec.ToBig(crypto.PoseidonArray(secret, hx, hy, codec.FromUint64(i)))
		if k.Mod(k, order).Sign() != 0 {
			return k
		}
	}
}

// Verify checks a proof for seed under the public key (pkx, pky).
func Verify(pkx, pky, seed *felt.Felt, proof *Proof) error {
	if proof == nil || proof.GammaX == nil || proof.GammaY == nil || proof.C == nil || proof.S == nil {
		return fmt.Errorf("%w: incomplete proof", ErrInvalidProof)
	}
	pk, err := curve.NewPoint(codec.ToBig(pkx), codec.ToBig(pky))
	if err != nil {
		return fmt.Errorf("%w: public key: %v", ErrInvalidProof, err)
	}
	gamma, err := curve.NewPoint(codec.ToBig(proof.GammaX), codec.ToBig(proof.GammaY))
	if err != nil {
		return fmt.Errorf("%w: gamma: %v", ErrInvalidProof, err)
	}
	h, _, err := hashToCurve(pk, seed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	c := codec.ToBig(proof.C)
	s := codec.ToBig(proof.S)
	order := curve.Order()
	if c.Cmp(order) >= 0 || s.Cmp(order) >= 0 {
		return fmt.Errorf("%w: scalar out of range", ErrInvalidProof)
	}

	u := curve.ScalarBaseMult(s).Sub(pk.Mul(c))
	w := h.Mul(s).Sub(gamma.Mul(c))
	if challenge(h, gamma, u, w).Cmp(c) != 0 {
		return ErrInvalidProof
	}
	return nil
}

// ProofToHash returns the random value carried by a proof.
func ProofToHash(proof *Proof) (*felt.Felt, error) {
	if proof == nil || proof.GammaX == nil || proof.GammaY == nil {
		return nil, fmt.Errorf("%w: incomplete proof", ErrInvalidProof)
	}
	return crypto.PoseidonArray(proof.GammaX, proof.GammaY), nil
}

func challenge(points ...curve.Point) *big.Int {
	elems := make([]*felt.Felt, 0, 2*len(points))
	for _, p := range points {
		x, y := pointFelts(p)
		elems = append(elems, x, y)
	}
	c := codec.ToBig(crypto.PoseidonArray(elems...))
	return c.Mod(c, curve.Order())
}
