package vrf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	log "github.com/sirupsen/logrus"
)

// ProofRequest is the body of POST /proof.
type ProofRequest struct {
	Seed []string `json:"seed"`
}

// ProofResult carries a proof, its hint and the derived random value as hex strings.
type ProofResult struct {
	GammaX    string `json:"gamma_x"`
	GammaY    string `json:"gamma_y"`
	C         string `json:"c"`
	S         string `json:"s"`
	SqrtRatio string `json:"sqrt_ratio"`
	Rnd       string `json:"rnd"`
}

// ProofResponse is the body returned by POST /proof.
type ProofResponse struct {
	Result ProofResult `json:"result"`
}

// NewProofResult formats a proof for the wire.
func NewProofResult(proof *Proof, hint, rnd *felt.Felt) ProofResult {
	return ProofResult{
		GammaX:    codec.Hex(proof.GammaX),
		GammaY:    codec.Hex(proof.GammaY),
		C:         codec.Hex(proof.C),
		S:         codec.Hex(proof.S),
		SqrtRatio: codec.Hex(hint),
		Rnd:       codec.Hex(rnd),
	}
}

// Decode parses the proof and the hint of a result.
func (r ProofResult) Decode() (*Proof, *felt.Felt, error) {
	values, err := codec.ParseFeltList([]string{r.GammaX, r.GammaY, r.C, r.S, r.SqrtRatio})
	if err != nil {
		return nil, nil, err
	}
	return &Proof{GammaX: values[0], GammaY: values[1], C: values[2], S: values[3]}, values[4], nil
}

// RemoteProver asks a VRF server for proofs. The server holds the secret.
type RemoteProver struct {
	baseURL string
	client  *http.Client
}

// NewRemoteProver returns a prover for the server at baseURL. A nil client gets a default
// client with a 10 second timeout.
func NewRemoteProver(baseURL string, client *http.Client) *RemoteProver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteProver{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// RemoteProverFactory builds remote provers. The secret only switches proof submission on,
// the key stays on the server.
func RemoteProverFactory(baseURL string, client *http.Client) ProverFactory {
	return func(string) (Prover, error) {
		if baseURL == "" {
			return nil, fmt.Errorf("missing vrf server url")
		}
		return NewRemoteProver(baseURL, client), nil
	}
}

// Fetch requests the full proof result for seed.
func (r *RemoteProver) Fetch(ctx context.Context, seed *felt.Felt) (ProofResult, error) {
	if seed == nil {
		return ProofResult{}, fmt.Errorf("%w: nil seed", codec.ErrEncoding)
	}
	body, err := json.Marshal(ProofRequest{Seed: []string{codec.Hex(seed)}})
	if err != nil {
		return ProofResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/proof", bytes.NewReader(body))
	if err != nil {
		return ProofResult{}, fmt.Errorf("failed creating proof request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.WithField("seed", codec.Hex(seed)).Debugf("requesting proof from %s", r.baseURL)
	resp, err := r.client.Do(req)
	if err != nil {
		return ProofResult{}, fmt.Errorf("failed requesting proof: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ProofResult{}, fmt.Errorf("failed reading proof response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ProofResult{}, fmt.Errorf("vrf server returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	var out ProofResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ProofResult{}, fmt.Errorf("failed decoding proof response: %v", err)
	}
	return out.Result, nil
}

func (r *RemoteProver) Prove(ctx context.Context, seed *felt.Felt) (*Proof, error) {
	proof, _, err := r.ProveWithHint(ctx, seed)
	return proof, err
}

func (r *RemoteProver) HashToSqrtRatioHint(ctx context.Context, seed *felt.Felt) (*felt.Felt, error) {
	_, hint, err := r.ProveWithHint(ctx, seed)
	return hint, err
}

// ProveWithHint takes the proof and the hint from a single server response.
func (r *RemoteProver) ProveWithHint(ctx context.Context, seed *felt.Felt) (*Proof, *felt.Felt, error) {
	res, err := r.Fetch(ctx, seed)
	if err != nil {
		return nil, nil, err
	}
	return res.Decode()
}

// PublicKeyInfo reads the key of the server from GET /info.
func (r *RemoteProver) PublicKeyInfo(ctx context.Context) (PublicKeyInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/info", nil)
	if err != nil {
		return PublicKeyInfo{}, fmt.Errorf("failed creating info request: %v", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return PublicKeyInfo{}, fmt.Errorf("failed requesting info: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return PublicKeyInfo{}, fmt.Errorf("vrf server returned %s for /info", resp.Status)
	}
	var info PublicKeyInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return PublicKeyInfo{}, fmt.Errorf("failed decoding info response: %v", err)
	}
	if _, _, err := info.Decode(); err != nil {
		return PublicKeyInfo{}, err
	}
	return info, nil
}
