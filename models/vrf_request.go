package models

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

// SourceKind is the variant index of the Cairo `Source` enum.
type SourceKind uint64

const (
	SourceNonce SourceKind = 0 // seed derived from the provider nonce of an address
	SourceSalt  SourceKind = 1 // seed derived from a caller supplied salt
)

func (k SourceKind) String() string {
	switch k {
	case SourceNonce:
		return "Nonce"
	case SourceSalt:
		return "Salt"
	default:
		return fmt.Sprintf("SourceKind(%d)", uint64(k))
	}
}

// Source selects how the provider derives the seed of a request.
type Source struct {
	Kind  SourceKind
	Value *felt.Felt // an address for SourceNonce, the salt for SourceSalt
}

// VrfRequest is the argument of a `request_random(caller, source)` call.
type VrfRequest struct {
	Caller *felt.Felt
	Source Source
}

// Validate checks that the request can be serialized.
func (r *VrfRequest) Validate() error {
	if r.Caller == nil {
		return fmt.Errorf("%w: request caller is required", codec.ErrEncoding)
	}
	if r.Source.Value == nil {
		return fmt.Errorf("%w: request source value is required", codec.ErrEncoding)
	}
	if r.Source.Kind != SourceNonce && r.Source.Kind != SourceSalt {
		return fmt.Errorf("%w: unknown source variant %d", codec.ErrEncoding, uint64(r.Source.Kind))
	}
	return nil
}

// CairoSerialize encodes the request as `[caller, variant, value]`.
func (r VrfRequest) CairoSerialize() ([]*felt.Felt, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return codec.Compile(r.Caller, uint64(r.Source.Kind), r.Source.Value)
}

// ParseVrfRequest decodes the calldata of a request_random call.
func ParseVrfRequest(calldata []*felt.Felt) (VrfRequest, error) {
	r := codec.NewReader(calldata)
	caller, err := r.Felt()
	if err != nil {
		return VrfRequest{}, fmt.Errorf("request caller: %w", err)
	}
	variant, err := r.Uint64()
	if err != nil {
		return VrfRequest{}, fmt.Errorf("request source: %w", err)
	}
	value, err := r.Felt()
	if err != nil {
		return VrfRequest{}, fmt.Errorf("request source value: %w", err)
	}
	if err := r.Done(); err != nil {
		return VrfRequest{}, err
	}
	req := VrfRequest{Caller: caller, Source: Source{Kind: SourceKind(variant), Value: value}}
	return req, req.Validate()
}

func (r VrfRequest) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{
		"caller": codec.Hex(r.Caller),
		"source": map[string]string{r.Source.Kind.String(): codec.Hex(r.Source.Value)},
	})
}
