package models

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

// Call is a single contract invocation. It is immutable once built.
type Call struct {
	to         felt.Felt
	selector   felt.Felt
	entrypoint string
	calldata   []felt.Felt
}

// NewCall builds a call to the named entry point of contract `to`.
func NewCall(to *felt.Felt, entrypoint string, calldata ...*felt.Felt) (Call, error) {
	if entrypoint == "" {
		return Call{}, fmt.Errorf("%w: empty entrypoint", codec.ErrEncoding)
	}
	c, err := NewCallWithSelector(to, codec.Selector(entrypoint), calldata...)
	if err != nil {
		return Call{}, err
	}
	c.entrypoint = entrypoint
	return c, nil
}

// NewCallWithSelector builds a call from an already computed selector.
func NewCallWithSelector(to, selector *felt.Felt, calldata ...*felt.Felt) (Call, error) {
	if to == nil || selector == nil {
		return Call{}, fmt.Errorf("%w: call target and selector are required", codec.ErrEncoding)
	}
	c := Call{to: *to, selector: *selector, calldata: make([]felt.Felt, len(calldata))}
	for i, f := range calldata {
		if f == nil {
			return Call{}, fmt.Errorf("%w: nil calldata element %d", codec.ErrEncoding, i)
		}
		c.calldata[i] = *f
	}
	return c, nil
}

// MustNewCall is NewCall for statically known arguments.
func MustNewCall(to *felt.Felt, entrypoint string, calldata ...*felt.Felt) Call {
	c, err := NewCall(to, entrypoint, calldata...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Call) To() *felt.Felt {
	v := c.to
	return &v
}

func (c Call) Selector() *felt.Felt {
	v := c.selector
	return &v
}

// Entrypoint is the function name the call was built from, empty when it was built from a
// raw selector.
func (c Call) Entrypoint() string {
	return c.entrypoint
}

// Calldata returns a copy of the call arguments.
func (c Call) Calldata() []*felt.Felt {
	out := make([]*felt.Felt, len(c.calldata))
	for i := range c.calldata {
		v := c.calldata[i]
		out[i] = &v
	}
	return out
}

// Is reports whether the call targets the named entry point.
func (c Call) Is(entrypoint string) bool {
	return c.selector.Equal(codec.Selector(entrypoint))
}

// CairoSerialize encodes the call as the Cairo `Call` struct: to, selector, calldata array.
func (c Call) CairoSerialize() ([]*felt.Felt, error) {
	return codec.Compile(c.To(), c.Selector(), c.Calldata())
}

type callJSON struct {
	To         string   `json:"to"`
	Selector   string   `json:"selector"`
	Entrypoint string   `json:"entrypoint,omitempty"`
	Calldata   []string `json:"calldata"`
}

func (c Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(callJSON{
		To:         codec.Hex(c.To()),
		Selector:   codec.Hex(c.Selector()),
		Entrypoint: c.entrypoint,
		Calldata:   codec.HexList(c.Calldata()),
	})
}

func (c *Call) UnmarshalJSON(b []byte) error {
	var raw callJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	to, err := codec.ParseFelt(raw.To)
	if err != nil {
		return fmt.Errorf("call to: %w", err)
	}
	var selector *felt.Felt
	switch {
	case raw.Selector != "":
		if selector, err = codec.ParseFelt(raw.Selector); err != nil {
			return fmt.Errorf("call selector: %w", err)
		}
		if raw.Entrypoint != "" && !selector.Equal(codec.Selector(raw.Entrypoint)) {
			return fmt.Errorf("%w: selector %s is not the selector of entrypoint %q",
				codec.ErrEncoding, codec.Hex(selector), raw.Entrypoint)
		}
	case raw.Entrypoint != "":
		selector = codec.Selector(raw.Entrypoint)
	default:
		return fmt.Errorf("%w: call needs a selector or an entrypoint", codec.ErrEncoding)
	}
	calldata, err := codec.ParseFeltList(raw.Calldata)
	if err != nil {
		return fmt.Errorf("call calldata: %w", err)
	}
	parsed, err := NewCallWithSelector(to, selector, calldata...)
	if err != nil {
		return err
	}
	parsed.entrypoint = raw.Entrypoint
	*c = parsed
	return nil
}
