// Package vrf builds the call bundles that consume verifiable randomness from a Starknet VRF
// provider, and proves randomness for its seeds.
package vrf

import (
	"context"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

// Proof is a Stark ECVRF proof: the point gamma and the scalars c and s.
type Proof struct {
	GammaX *felt.Felt
	GammaY *felt.Felt
	C      *felt.Felt
	S      *felt.Felt
}

// CairoSerialize encodes the proof as [gamma_x, gamma_y, c, s].
func (p Proof) CairoSerialize() ([]*felt.Felt, error) {
	if p.GammaX == nil || p.GammaY == nil || p.C == nil || p.S == nil {
		return nil, fmt.Errorf("%w: incomplete proof", codec.ErrEncoding)
	}
	return []*felt.Felt{p.GammaX, p.GammaY, p.C, p.S}, nil
}

// Prover derives proofs and square root hints for seeds under a fixed secret.
type Prover interface {
	Prove(ctx context.Context, seed *felt.Felt) (*Proof, error)
	HashToSqrtRatioHint(ctx context.Context, seed *felt.Felt) (*felt.Felt, error)
}

// HintedProver derives a proof and its hint in one step, so both come from the same
// computation or the same server response.
type HintedProver interface {
	Prover
	ProveWithHint(ctx context.Context, seed *felt.Felt) (*Proof, *felt.Felt, error)
}

// ProveWithHint proves seed with p, in a single step when p is a HintedProver.
func ProveWithHint(ctx context.Context, p Prover, seed *felt.Felt) (*Proof, *felt.Felt, error) {
	if hp, ok := p.(HintedProver); ok {
		return hp.ProveWithHint(ctx, seed)
	}
	proof, err := p.Prove(ctx, seed)
	if err != nil {
		return nil, nil, err
	}
	hint, err := p.HashToSqrtRatioHint(ctx, seed)
	if err != nil {
		return nil, nil, err
	}
	return proof, hint, nil
}

// KeyedProver is a Prover that can report the public key its proofs verify under.
type KeyedProver interface {
	Prover
	PublicKeyInfo(ctx context.Context) (PublicKeyInfo, error)
}

// PublicKeyInfo is the VRF public key as served by GET /info.
type PublicKeyInfo struct {
	PublicKeyX string `json:"public_key_x"`
	PublicKeyY string `json:"public_key_y"`
}

// Decode parses the key coordinates.
func (i PublicKeyInfo) Decode() (*felt.Felt, *felt.Felt, error) {
	values, err := codec.ParseFeltList([]string{i.PublicKeyX, i.PublicKeyY})
	if err != nil {
		return nil, nil, err
	}
	return values[0], values[1], nil
}

// ProverFactory returns a Prover for a secret.
type ProverFactory func(secret string) (Prover, error)
