package vrf

import (
	"errors"

	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

var (
	// ErrSeedUnavailable is returned when the provider seed could not be read or was malformed.
	ErrSeedUnavailable = errors.New("seed unavailable")

	// ErrProofGenerationFailed is returned when a secret was given but no proof could be derived.
	ErrProofGenerationFailed = errors.New("proof generation failed")

	// ErrEncoding is returned when a value cannot be represented as calldata.
	ErrEncoding = codec.ErrEncoding

	// ErrInvalidProof is returned by Verify for a proof that does not match the seed.
	ErrInvalidProof = errors.New("invalid vrf proof")
)
