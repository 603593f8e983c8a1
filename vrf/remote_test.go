package vrf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type proofServer struct {
	*httptest.Server
	posts atomic.Int32
}

func newProofServer(t *testing.T, v *StarkVRF) *proofServer {
	t.Helper()
	ps := &proofServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/info" && r.Method == http.MethodGet {
			info, err := v.PublicKeyInfo(r.Context())
			require.NoError(t, err)
			_ = json.NewEncoder(w).Encode(info)
			return
		}
		if r.URL.Path != "/proof" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		ps.posts.Add(1)
		var req ProofRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Seed) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		seed, err := codec.ParseFelt(req.Seed[0])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		proof, hint, err := v.ProveWithHint(r.Context(), seed)
		require.NoError(t, err)
		rnd, err := ProofToHash(proof)
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(ProofResponse{Result: NewProofResult(proof, hint, rnd)})
	}))
	return ps
}

func TestRemoteProver(t *testing.T) {
	v, err := NewStarkVRF("0x111")
	require.NoError(t, err)
	srv := newProofServer(t, v)
	defer srv.Close()

	remote := NewRemoteProver(srv.URL+"/", srv.Client())
	seed := codec.FromUint64(5)

	proof, hint, err := ProveWithHint(context.Background(), remote, seed)
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.posts.Load())

	local, localHint, err := v.ProveWithHint(context.Background(), seed)
	require.NoError(t, err)
	assert.True(t, local.C.Equal(proof.C))
	assert.True(t, local.S.Equal(proof.S))
	assert.True(t, localHint.Equal(hint))

	res, err := remote.Fetch(context.Background(), seed)
	require.NoError(t, err)
	rnd, err := ProofToHash(local)
	require.NoError(t, err)
	assert.Equal(t, codec.Hex(rnd), res.Rnd)

	info, err := remote.PublicKeyInfo(context.Background())
	require.NoError(t, err)
	pkx, pky, err := info.Decode()
	require.NoError(t, err)
	assert.NoError(t, Verify(pkx, pky, seed, proof))
}

func TestRemoteProverErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	remote := NewRemoteProver(srv.URL, srv.Client())
	_, err := remote.Prove(context.Background(), codec.FromUint64(5))
	assert.ErrorContains(t, err, "503")

	_, err = remote.Prove(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = remote.PublicKeyInfo(context.Background())
	assert.ErrorContains(t, err, "503")

	_, err = RemoteProverFactory("", nil)("s1")
	assert.Error(t, err)
}

func TestBundleWithRemoteProver(t *testing.T) {
	v, err := NewStarkVRF("0x111")
	require.NoError(t, err)
	srv := newProofServer(t, v)
	defer srv.Close()

	seeds := &stubSeeds{seed: codec.FromUint64(5)}
	calls, err := NewBundler(seeds, RemoteProverFactory(srv.URL, srv.Client())).BuildBundle(context.Background(), BundleRequest{
		Requester: requester,
		Provider:  provider,
		Consumer:  consumer,
		Secret:    "remote",
	})
	require.NoError(t, err)
	require.Len(t, calls, 4)
	assert.True(t, calls[0].Is(SubmitRandomEntrypoint))
	assert.Equal(t, int32(1), srv.posts.Load())
}
