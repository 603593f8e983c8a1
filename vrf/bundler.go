package vrf

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	log "github.com/sirupsen/logrus"
)

// Provider entry points.
const (
	RequestRandomEntrypoint  = "request_random"
	SubmitRandomEntrypoint   = "submit_random"
	AssertConsumedEntrypoint = "assert_consumed"
	GetNextSeedEntrypoint    = "get_next_seed"
)

// SeedReader reads the next seed the provider will use for a requester.
type SeedReader interface {
	NextSeed(ctx context.Context, provider, requester *felt.Felt) (*felt.Felt, error)
}

// BundleRequest describes one randomness consumption.
type BundleRequest struct {
	Requester *felt.Felt
	Provider  *felt.Felt
	Consumer  models.Call
	Secret    string // empty when the proof is submitted by someone else
}

// Bundler assembles VRF call bundles.
type Bundler struct {
	seeds   SeedReader
	provers ProverFactory
}

// NewBundler returns a Bundler. provers may be nil when bundles are always built without a
// secret.
func NewBundler(seeds SeedReader, provers ProverFactory) *Bundler {
	return &Bundler{seeds: seeds, provers: provers}
}

// BuildBundle returns [submit_random, request_random, consumer, assert_consumed] when a
// secret is given and [request_random, consumer] otherwise. No calls are returned on error.
func (b *Bundler) BuildBundle(ctx context.Context, req BundleRequest) ([]models.Call, error) {
	if req.Requester == nil || req.Provider == nil {
		return nil, fmt.Errorf("%w: requester and provider are required", ErrEncoding)
	}

	seed, err := b.seeds.NextSeed(ctx, req.Provider, req.Requester)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedUnavailable, err)
	}
	if seed == nil {
		return nil, fmt.Errorf("%w: provider returned no seed", ErrSeedUnavailable)
	}
	logger := log.WithFields(log.Fields{
		"requester": codec.Hex(req.Requester),
		"provider":  codec.Hex(req.Provider),
		"seed":      codec.Hex(seed),
	})

	request, err := models.NewCall(req.Provider, RequestRandomEntrypoint)
	if err != nil {
		return nil, err
	}

	switch req.Secret {
	case "":
		logger.Debug("built vrf bundle without proof submission")
		return []models.Call{request, req.Consumer}, nil
	default:
		submit, assert, err := b.proofCalls(ctx, req.Provider, req.Secret, seed)
		if err != nil {
			return nil, err
		}
		logger.Debug("built vrf bundle with proof submission")
		return []models.Call{submit, request, req.Consumer, assert}, nil
	}
}

func (b *Bundler) proofCalls(ctx context.Context, provider *felt.Felt, secret string, seed *felt.Felt) (models.Call, models.Call, error) {
	if b.provers == nil {
		return models.Call{}, models.Call{}, fmt.Errorf("%w: no prover configured", ErrProofGenerationFailed)
	}
	prover, err := b.provers(secret)
	if err != nil {
		return models.Call{}, models.Call{}, fmt.Errorf("%w: %v", ErrProofGenerationFailed, err)
	}
	proof, hint, err := ProveWithHint(ctx, prover, seed)
	if err != nil {
		return models.Call{}, models.Call{}, fmt.Errorf("%w: %v", ErrProofGenerationFailed, err)
	}
	if proof == nil || hint == nil {
		return models.Call{}, models.Call{}, fmt.Errorf("%w: prover returned an empty result", ErrProofGenerationFailed)
	}

	submit, err := SubmitRandomCall(provider, seed, proof, hint)
	if err != nil {
		return models.Call{}, models.Call{}, err
	}
	assert, err := models.NewCall(provider, AssertConsumedEntrypoint, seed)
	if err != nil {
		return models.Call{}, models.Call{}, err
	}
	return submit, assert, nil
}

// SubmitRandomCall encodes submit_random(seed, proof, sqrt_ratio_hint) against provider.
func SubmitRandomCall(provider, seed *felt.Felt, proof *Proof, hint *felt.Felt) (models.Call, error) {
	if proof == nil {
		return models.Call{}, fmt.Errorf("%w: missing proof", ErrEncoding)
	}
	calldata, err := codec.Compile(seed, *proof, hint)
	if err != nil {
		if !errors.Is(err, ErrEncoding) {
			err = fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return models.Call{}, fmt.Errorf("failed encoding submit_random: %w", err)
	}
	return models.NewCall(provider, SubmitRandomEntrypoint, calldata...)
}
