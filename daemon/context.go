package daemon

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

var ErrRequestContext = errors.New("request context error")

// RequestContext names the chain an outside execution targets.
type RequestContext struct {
	ChainID string  `json:"chain_id"`
	RPCURL  *string `json:"rpc_url,omitempty"`
}

type resolvedContext struct {
	chainID *felt.Felt
	rpcURL  string
}

func (v *VRFDaemon) resolveContext(c RequestContext) (resolvedContext, error) {
	if c.ChainID == "" {
		return resolvedContext{}, fmt.Errorf("%w: chain_id is required", ErrRequestContext)
	}
	chainID, err := codec.EncodeShortString(c.ChainID)
	if err != nil {
		return resolvedContext{}, fmt.Errorf("%w: chain_id: %v", ErrRequestContext, err)
	}

	if c.RPCURL != nil && *c.RPCURL != "" {
		return resolvedContext{chainID: chainID, rpcURL: *c.RPCURL}, nil
	}
	url, ok := v.Config.rpcURL(c.ChainID)
	if !ok {
		return resolvedContext{}, fmt.Errorf("%w: no rpc_url provided", ErrRequestContext)
	}
	return resolvedContext{chainID: chainID, rpcURL: url}, nil
}
