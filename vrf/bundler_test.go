package vrf

import (
	"context"
	"errors"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSeeds struct {
	seed  *felt.Felt
	err   error
	calls int
}

func (s *stubSeeds) NextSeed(_ context.Context, _, _ *felt.Felt) (*felt.Felt, error) {
	s.calls++
	return s.seed, s.err
}

type stubProver struct {
	proof    *Proof
	hint     *felt.Felt
	proveErr error
	hintErr  error
	seeds    []*felt.Felt
}

func (p *stubProver) Prove(_ context.Context, seed *felt.Felt) (*Proof, error) {
	p.seeds = append(p.seeds, seed)
	return p.proof, p.proveErr
}

func (p *stubProver) HashToSqrtRatioHint(_ context.Context, seed *felt.Felt) (*felt.Felt, error) {
	p.seeds = append(p.seeds, seed)
	return p.hint, p.hintErr
}

var (
	requester = codec.MustParseFelt("0xA1")
	provider  = codec.MustParseFelt("0xB2")
	consumer  = models.MustNewCall(codec.MustParseFelt("0xC3"), "roll_dice", codec.FromUint64(1))

	stubProof = &Proof{
		GammaX: codec.MustParseFelt("0x11"),
		GammaY: codec.MustParseFelt("0x12"),
		C:      codec.MustParseFelt("0x13"),
		S:      codec.MustParseFelt("0x14"),
	}
	stubHint = codec.MustParseFelt("0x15")
)

func factoryFor(p Prover, secrets *[]string) ProverFactory {
	return func(secret string) (Prover, error) {
		*secrets = append(*secrets, secret)
		return p, nil
	}
}

func TestBuildBundleWithSecret(t *testing.T) {
	seeds := &stubSeeds{seed: codec.MustParseFelt("0x5")}
	prover := &stubProver{proof: stubProof, hint: stubHint}
	var secrets []string
	b := NewBundler(seeds, factoryFor(prover, &secrets))

	calls, err := b.BuildBundle(context.Background(), BundleRequest{
		Requester: requester,
		Provider:  provider,
		Consumer:  consumer,
		Secret:    "s1",
	})
	require.NoError(t, err)
	require.Len(t, calls, 4)

	assert.Equal(t, []string{"s1"}, secrets)
	for _, s := range prover.seeds {
		assert.Equal(t, "0x5", codec.Hex(s))
	}

	submit, request, consumed, assertion := calls[0], calls[1], calls[2], calls[3]

	assert.True(t, submit.Is(SubmitRandomEntrypoint))
	assert.Equal(t, "0xb2", codec.Hex(submit.To()))
	assert.Equal(t, []string{"0x5", "0x11", "0x12", "0x13", "0x14", "0x15"}, codec.HexList(submit.Calldata()))

	assert.True(t, request.Is(RequestRandomEntrypoint))
	assert.Equal(t, "0xb2", codec.Hex(request.To()))
	assert.Empty(t, request.Calldata())

	assert.Equal(t, consumer, consumed)

	assert.True(t, assertion.Is(AssertConsumedEntrypoint))
	assert.Equal(t, "0xb2", codec.Hex(assertion.To()))
	assert.Equal(t, []string{"0x5"}, codec.HexList(assertion.Calldata()))

	// the submitted and asserted seeds are the same
	assert.True(t, submit.Calldata()[0].Equal(assertion.Calldata()[0]))
}

func TestBuildBundleWithoutSecret(t *testing.T) {
	seeds := &stubSeeds{seed: codec.MustParseFelt("0x5")}
	var secrets []string
	b := NewBundler(seeds, factoryFor(&stubProver{}, &secrets))

	calls, err := b.BuildBundle(context.Background(), BundleRequest{
		Requester: requester,
		Provider:  provider,
		Consumer:  consumer,
	})
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.True(t, calls[0].Is(RequestRandomEntrypoint))
	assert.Equal(t, "0xb2", codec.Hex(calls[0].To()))
	assert.Equal(t, consumer, calls[1])

	// the seed is read even though no proof is submitted
	assert.Equal(t, 1, seeds.calls)
	assert.Empty(t, secrets)
}

func TestBuildBundleWithoutProverFactory(t *testing.T) {
	b := NewBundler(&stubSeeds{seed: codec.FromUint64(5)}, nil)

	calls, err := b.BuildBundle(context.Background(), BundleRequest{Requester: requester, Provider: provider, Consumer: consumer})
	require.NoError(t, err)
	assert.Len(t, calls, 2)

	calls, err = b.BuildBundle(context.Background(), BundleRequest{Requester: requester, Provider: provider, Consumer: consumer, Secret: "s1"})
	assert.ErrorIs(t, err, ErrProofGenerationFailed)
	assert.Nil(t, calls)
}

func TestBuildBundleErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		seeds   *stubSeeds
		prover  *stubProver
		factory func(Prover) ProverFactory
		err     error
	}{
		{
			name:   "seed read fails",
			seeds:  &stubSeeds{err: boom},
			prover: &stubProver{proof: stubProof, hint: stubHint},
			err:    ErrSeedUnavailable,
		},
		{
			name:   "seed missing",
			seeds:  &stubSeeds{},
			prover: &stubProver{proof: stubProof, hint: stubHint},
			err:    ErrSeedUnavailable,
		},
		{
			name:   "prove fails",
			seeds:  &stubSeeds{seed: codec.FromUint64(5)},
			prover: &stubProver{proveErr: boom, hint: stubHint},
			err:    ErrProofGenerationFailed,
		},
		{
			name:   "hint fails",
			seeds:  &stubSeeds{seed: codec.FromUint64(5)},
			prover: &stubProver{proof: stubProof, hintErr: boom},
			err:    ErrProofGenerationFailed,
		},
		{
			name:   "empty proof",
			seeds:  &stubSeeds{seed: codec.FromUint64(5)},
			prover: &stubProver{hint: stubHint},
			err:    ErrProofGenerationFailed,
		},
		{
			name:   "factory fails",
			seeds:  &stubSeeds{seed: codec.FromUint64(5)},
			prover: &stubProver{},
			factory: func(Prover) ProverFactory {
				return func(string) (Prover, error) { return nil, boom }
			},
			err: ErrProofGenerationFailed,
		},
		{
			name:   "incomplete proof",
			seeds:  &stubSeeds{seed: codec.FromUint64(5)},
			prover: &stubProver{proof: &Proof{GammaX: codec.FromUint64(1)}, hint: stubHint},
			err:    ErrEncoding,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var secrets []string
			factory := factoryFor(tt.prover, &secrets)
			if tt.factory != nil {
				factory = tt.factory(tt.prover)
			}
			calls, err := NewBundler(tt.seeds, factory).BuildBundle(context.Background(), BundleRequest{
				Requester: requester,
				Provider:  provider,
				Consumer:  consumer,
				Secret:    "s1",
			})
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, calls)
		})
	}
}

func TestBuildBundleRequiresAddresses(t *testing.T) {
	_, err := NewBundler(&stubSeeds{seed: codec.FromUint64(5)}, nil).BuildBundle(context.Background(), BundleRequest{Provider: provider})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestBundleWithLocalProver(t *testing.T) {
	seeds := &stubSeeds{seed: codec.MustParseFelt("0x5")}
	calls, err := NewBundler(seeds, NewLocalProver).BuildBundle(context.Background(), BundleRequest{
		Requester: requester,
		Provider:  provider,
		Consumer:  consumer,
		Secret:    "0x420",
	})
	require.NoError(t, err)
	require.Len(t, calls, 4)

	calldata := calls[0].Calldata()
	require.Len(t, calldata, 6)
	proof := &Proof{GammaX: calldata[1], GammaY: calldata[2], C: calldata[3], S: calldata[4]}

	v, err := NewStarkVRF("0x420")
	require.NoError(t, err)
	pkx, pky := v.PublicKey()
	assert.NoError(t, Verify(pkx, pky, calldata[0], proof))
}
