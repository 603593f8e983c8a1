package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	"github.com/ori-shem-tov/stark-vrf-oracle/typeddata"
	"github.com/ori-shem-tov/stark-vrf-oracle/vrf"
	log "github.com/sirupsen/logrus"
)

const requestRandomEntrypoint = "request_random"

var (
	ErrNoRequestRandom          = errors.New("no request_random call")
	ErrNoCallAfterRequestRandom = errors.New("no call after request_random")
	ErrProvider                 = errors.New("provider error")
)

// OutsideExecutionRequest is the body of POST /outside_execution.
type OutsideExecutionRequest struct {
	Request models.SignedOutsideExecution `json:"request"`
	Context RequestContext                `json:"context"`
}

// OutsideExecutionResponse wraps the outside execution signed by the VRF account.
type OutsideExecutionResponse struct {
	Result models.SignedOutsideExecution `json:"result"`
}

// findRequestRandom returns the first request_random call of calls. It must not be the
// last call since something has to consume the randomness.
func findRequestRandom(calls []models.Call) (models.Call, error) {
	for i, c := range calls {
		if !c.Is(requestRandomEntrypoint) {
			continue
		}
		if i == len(calls)-1 {
			return models.Call{}, ErrNoCallAfterRequestRandom
		}
		return c, nil
	}
	return models.Call{}, ErrNoRequestRandom
}

// seedFor derives the seed the provider contract expects for req on chainID.
func (v *VRFDaemon) seedFor(ctx context.Context, req models.VrfRequest, rc resolvedContext) (*felt.Felt, error) {
	switch req.Source.Kind {
	case models.SourceSalt:
		return crypto.PoseidonArray(req.Source.Value, req.Caller, rc.chainID), nil
	case models.SourceNonce:
		state, err := v.dial(ctx, rc.rpcURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvider, err)
		}
		defer state.Close()

		nonce, err := state.ProviderNonce(ctx, v.Signer.Address(), req.Source.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvider, err)
		}
		return crypto.PoseidonArray(nonce, req.Source.Value, req.Caller, rc.chainID), nil
	default:
		return nil, fmt.Errorf("%w: unknown source variant %d", codec.ErrEncoding, uint64(req.Source.Kind))
	}
}

// OutsideExecution proves the randomness requested by the signed outside execution and
// returns a V2 outside execution, signed by the VRF account, that submits the proof and
// then runs the user's outside execution.
func (v *VRFDaemon) OutsideExecution(ctx context.Context, req OutsideExecutionRequest) (models.SignedOutsideExecution, error) {
	rc, err := v.resolveContext(req.Context)
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}

	call, err := findRequestRandom(req.Request.OutsideExecution.Calls)
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}
	vrfRequest, err := models.ParseVrfRequest(call.Calldata())
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}

	seed, err := v.seedFor(ctx, vrfRequest, rc)
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}
	proof, hint, err := vrf.ProveWithHint(ctx, v.Prover, seed)
	if err != nil {
		return models.SignedOutsideExecution{}, fmt.Errorf("%w: %v", vrf.ErrProofGenerationFailed, err)
	}
	v.metrics.proofs.WithLabelValues(vrfRequest.Source.Kind.String()).Inc()

	submit, err := vrf.SubmitRandomCall(v.Signer.Address(), seed, proof, hint)
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}
	execute, err := req.Request.ExecuteFromOutsideCall()
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}

	nonce, err := v.nonce()
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}
	now := uint64(v.now().Unix())
	msg, err := typeddata.BuildMessage(rc.chainID, typeddata.CallOptions{
		Caller:        typeddata.AnyCaller,
		ExecuteAfter:  0,
		ExecuteBefore: now + outsideExecutionTTL,
	}, nonce, []models.Call{submit, execute}, typeddata.V2)
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}
	signed, err := v.Signer.SignMessage(msg)
	if err != nil {
		return models.SignedOutsideExecution{}, err
	}

	log.WithFields(log.Fields{
		"chain_id": req.Context.ChainID,
		"caller":   codec.Hex(vrfRequest.Caller),
		"source":   vrfRequest.Source.Kind,
		"seed":     codec.Hex(seed),
	}).Info("signed outside execution")
	return signed.OutsideExecution(), nil
}
