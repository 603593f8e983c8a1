package models

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

// OutsideExecutionVersion identifies the execute_from_outside interface an account exposes.
type OutsideExecutionVersion int

const (
	OutsideExecutionV1 OutsideExecutionVersion = iota + 1 // SNIP-9 v1
	OutsideExecutionV2                                    // SNIP-9 v2
	OutsideExecutionV3                                    // controller extension with nonce channels
)

func (v OutsideExecutionVersion) String() string {
	switch v {
	case OutsideExecutionV1:
		return "V1"
	case OutsideExecutionV2:
		return "V2"
	case OutsideExecutionV3:
		return "V3"
	default:
		return fmt.Sprintf("OutsideExecutionVersion(%d)", int(v))
	}
}

// Entrypoint returns the account entry point that executes this version.
func (v OutsideExecutionVersion) Entrypoint() (string, error) {
	switch v {
	case OutsideExecutionV1:
		return "execute_from_outside", nil
	case OutsideExecutionV2:
		return "execute_from_outside_v2", nil
	case OutsideExecutionV3:
		return "execute_from_outside_v3", nil
	default:
		return "", fmt.Errorf("%w: unknown outside execution version %d", codec.ErrEncoding, int(v))
	}
}

// NonceChannel is the (nonce, channel) pair used by V3 outside executions.
type NonceChannel struct {
	Nonce   *felt.Felt
	Channel *big.Int // u128
}

// OutsideExecution authorizes a relayer to run Calls from an account.
type OutsideExecution struct {
	Version       OutsideExecutionVersion
	Caller        *felt.Felt
	Nonce         *felt.Felt    // V1 and V2
	NonceChannel  *NonceChannel // V3
	ExecuteAfter  uint64
	ExecuteBefore uint64
	Calls         []Call
}

func (o *OutsideExecution) validate() error {
	if o.Caller == nil {
		return fmt.Errorf("%w: outside execution caller is required", codec.ErrEncoding)
	}
	switch o.Version {
	case OutsideExecutionV1, OutsideExecutionV2:
		if o.Nonce == nil {
			return fmt.Errorf("%w: outside execution nonce is required", codec.ErrEncoding)
		}
	case OutsideExecutionV3:
		if o.NonceChannel == nil || o.NonceChannel.Nonce == nil || o.NonceChannel.Channel == nil {
			return fmt.Errorf("%w: outside execution nonce channel is required", codec.ErrEncoding)
		}
		if o.NonceChannel.Channel.Sign() < 0 || o.NonceChannel.Channel.BitLen() > 128 {
			return fmt.Errorf("%w: nonce channel does not fit in 128 bits", codec.ErrEncoding)
		}
	default:
		return fmt.Errorf("%w: unknown outside execution version %d", codec.ErrEncoding, int(o.Version))
	}
	return nil
}

// CairoSerialize encodes the struct in the field order of the account interface.
func (o OutsideExecution) CairoSerialize() ([]*felt.Felt, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	var nonce []interface{}
	if o.Version == OutsideExecutionV3 {
		nonce = []interface{}{o.NonceChannel.Nonce, o.NonceChannel.Channel}
	} else {
		nonce = []interface{}{o.Nonce}
	}
	values := []interface{}{o.Caller}
	values = append(values, nonce...)
	values = append(values, o.ExecuteAfter, o.ExecuteBefore, uint64(len(o.Calls)))
	for _, c := range o.Calls {
		values = append(values, c)
	}
	return codec.Compile(values...)
}

type outsideExecutionJSON struct {
	Caller        string          `json:"caller"`
	Nonce         json.RawMessage `json:"nonce"`
	ExecuteAfter  string          `json:"execute_after"`
	ExecuteBefore string          `json:"execute_before"`
	Calls         []Call          `json:"calls"`
}

// MarshalJSON emits the externally tagged form `{"V2": {...}}`.
func (o OutsideExecution) MarshalJSON() ([]byte, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	var nonce interface{}
	if o.Version == OutsideExecutionV3 {
		nonce = []string{codec.Hex(o.NonceChannel.Nonce), "0x" + o.NonceChannel.Channel.Text(16)}
	} else {
		nonce = codec.Hex(o.Nonce)
	}
	rawNonce, err := json.Marshal(nonce)
	if err != nil {
		return nil, err
	}
	calls := o.Calls
	if calls == nil {
		calls = []Call{}
	}
	body := outsideExecutionJSON{
		Caller:        codec.Hex(o.Caller),
		Nonce:         rawNonce,
		ExecuteAfter:  fmt.Sprintf("0x%x", o.ExecuteAfter),
		ExecuteBefore: fmt.Sprintf("0x%x", o.ExecuteBefore),
		Calls:         calls,
	}
	return json.Marshal(map[string]outsideExecutionJSON{o.Version.String(): body})
}

func (o *OutsideExecution) UnmarshalJSON(b []byte) error {
	var tagged map[string]outsideExecutionJSON
	if err := json.Unmarshal(b, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: outside execution must have exactly one version tag", codec.ErrEncoding)
	}
	var (
		tag  string
		body outsideExecutionJSON
	)
	for tag, body = range tagged {
	}

	parsed := OutsideExecution{}
	switch tag {
	case "V1":
		parsed.Version = OutsideExecutionV1
	case "V2":
		parsed.Version = OutsideExecutionV2
	case "V3":
		parsed.Version = OutsideExecutionV3
	default:
		return fmt.Errorf("%w: unknown outside execution version %q", codec.ErrEncoding, tag)
	}

	var err error
	if parsed.Caller, err = codec.ParseFelt(body.Caller); err != nil {
		return fmt.Errorf("outside execution caller: %w", err)
	}
	if parsed.Version == OutsideExecutionV3 {
		var pair []string
		if err := json.Unmarshal(body.Nonce, &pair); err != nil || len(pair) != 2 {
			return fmt.Errorf("%w: V3 nonce must be a [nonce, channel] pair", codec.ErrEncoding)
		}
		nonce, err := codec.ParseFelt(pair[0])
		if err != nil {
			return fmt.Errorf("outside execution nonce: %w", err)
		}
		channel, err := codec.ParseFelt(pair[1])
		if err != nil {
			return fmt.Errorf("outside execution nonce channel: %w", err)
		}
		ch, err := codec.ToUint128(channel)
		if err != nil {
			return err
		}
		parsed.NonceChannel = &NonceChannel{Nonce: nonce, Channel: ch}
	} else {
		var s string
		if err := json.Unmarshal(body.Nonce, &s); err != nil {
			return fmt.Errorf("%w: nonce must be a string", codec.ErrEncoding)
		}
		if parsed.Nonce, err = codec.ParseFelt(s); err != nil {
			return fmt.Errorf("outside execution nonce: %w", err)
		}
	}
	if parsed.ExecuteAfter, err = parseUint64(body.ExecuteAfter); err != nil {
		return fmt.Errorf("outside execution execute_after: %w", err)
	}
	if parsed.ExecuteBefore, err = parseUint64(body.ExecuteBefore); err != nil {
		return fmt.Errorf("outside execution execute_before: %w", err)
	}
	parsed.Calls = body.Calls
	*o = parsed
	return nil
}

func parseUint64(s string) (uint64, error) {
	f, err := codec.ParseFelt(s)
	if err != nil {
		return 0, err
	}
	return codec.ToUint64(f)
}

// SignedOutsideExecution is an outside execution together with the account signature over
// its typed-data hash.
type SignedOutsideExecution struct {
	Address          *felt.Felt
	OutsideExecution OutsideExecution
	Signature        []*felt.Felt
}

type signedOutsideExecutionJSON struct {
	Address          string           `json:"address"`
	OutsideExecution OutsideExecution `json:"outside_execution"`
	Signature        []string         `json:"signature"`
}

func (s SignedOutsideExecution) MarshalJSON() ([]byte, error) {
	if s.Address == nil {
		return nil, fmt.Errorf("%w: signed outside execution address is required", codec.ErrEncoding)
	}
	return json.Marshal(signedOutsideExecutionJSON{
		Address:          codec.Hex(s.Address),
		OutsideExecution: s.OutsideExecution,
		Signature:        codec.HexList(s.Signature),
	})
}

func (s *SignedOutsideExecution) UnmarshalJSON(b []byte) error {
	var raw signedOutsideExecutionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	address, err := codec.ParseFelt(raw.Address)
	if err != nil {
		return fmt.Errorf("signed outside execution address: %w", err)
	}
	signature, err := codec.ParseFeltList(raw.Signature)
	if err != nil {
		return fmt.Errorf("signed outside execution signature: %w", err)
	}
	*s = SignedOutsideExecution{Address: address, OutsideExecution: raw.OutsideExecution, Signature: signature}
	return nil
}

// ExecuteFromOutsideCall builds the call a relayer submits to the account to run the
// signed outside execution.
func (s SignedOutsideExecution) ExecuteFromOutsideCall() (Call, error) {
	entrypoint, err := s.OutsideExecution.Version.Entrypoint()
	if err != nil {
		return Call{}, err
	}
	calldata, err := codec.Compile(s.OutsideExecution, s.Signature)
	if err != nil {
		return Call{}, err
	}
	return NewCall(s.Address, entrypoint, calldata...)
}
