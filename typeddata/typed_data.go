package typeddata

import (
	"fmt"

	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

// TypeMember is one field of a typed-data struct definition.
type TypeMember struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedData is the wallet-facing JSON form of a message, as passed to signTypedData.
type TypedData struct {
	Types       map[string][]TypeMember `json:"types"`
	PrimaryType string                  `json:"primaryType"`
	Domain      map[string]interface{}  `json:"domain"`
	Message     map[string]interface{}  `json:"message"`
}

// TypedData exports the message in the JSON layout of its schema.
func (m Message) TypedData() (TypedData, error) {
	if m.schema == nil {
		return TypedData{}, fmt.Errorf("%w: message was not built", ErrUnsupportedVersion)
	}
	return m.schema.typedData(&m), nil
}

func (revision0) typedData(m *Message) TypedData {
	calls := make([]interface{}, len(m.calls))
	for i, c := range m.calls {
		calldata := c.Calldata()
		calls[i] = map[string]interface{}{
			"to":           codec.Hex(c.To()),
			"selector":     codec.Hex(c.Selector()),
			"calldata_len": len(calldata),
			"calldata":     codec.HexList(calldata),
		}
	}
	return TypedData{
		Types: map[string][]TypeMember{
			"StarkNetDomain": {
				{Name: "name", Type: "felt"},
				{Name: "version", Type: "felt"},
				{Name: "chainId", Type: "felt"},
			},
			"OutsideExecution": {
				{Name: "caller", Type: "felt"},
				{Name: "nonce", Type: "felt"},
				{Name: "execute_after", Type: "felt"},
				{Name: "execute_before", Type: "felt"},
				{Name: "calls_len", Type: "felt"},
				{Name: "calls", Type: "OutsideCall*"},
			},
			"OutsideCall": {
				{Name: "to", Type: "felt"},
				{Name: "selector", Type: "felt"},
				{Name: "calldata_len", Type: "felt"},
				{Name: "calldata", Type: "felt*"},
			},
		},
		PrimaryType: "OutsideExecution",
		Domain: map[string]interface{}{
			"name":    domainName,
			"version": "1",
			"chainId": codec.Hex(&m.chainID),
		},
		Message: map[string]interface{}{
			"caller":         codec.Hex(&m.caller),
			"nonce":          codec.Hex(&m.nonce),
			"execute_after":  m.after,
			"execute_before": m.before,
			"calls_len":      len(m.calls),
			"calls":          calls,
		},
	}
}

func (revision1) typedData(m *Message) TypedData {
	calls := make([]interface{}, len(m.calls))
	for i, c := range m.calls {
		calls[i] = map[string]interface{}{
			"To":       codec.Hex(c.To()),
			"Selector": codec.Hex(c.Selector()),
			"Calldata": codec.HexList(c.Calldata()),
		}
	}
	return TypedData{
		Types: map[string][]TypeMember{
			"StarknetDomain": {
				{Name: "name", Type: "shortstring"},
				{Name: "version", Type: "shortstring"},
				{Name: "chainId", Type: "shortstring"},
				{Name: "revision", Type: "shortstring"},
			},
			"OutsideExecution": {
				{Name: "Caller", Type: "ContractAddress"},
				{Name: "Nonce", Type: "felt"},
				{Name: "Execute After", Type: "u128"},
				{Name: "Execute Before", Type: "u128"},
				{Name: "Calls", Type: "Call*"},
			},
			"Call": {
				{Name: "To", Type: "ContractAddress"},
				{Name: "Selector", Type: "selector"},
				{Name: "Calldata", Type: "felt*"},
			},
		},
		PrimaryType: "OutsideExecution",
		Domain: map[string]interface{}{
			"name":     domainName,
			"version":  "2",
			"chainId":  codec.Hex(&m.chainID),
			"revision": "1",
		},
		Message: map[string]interface{}{
			"Caller":         codec.Hex(&m.caller),
			"Nonce":          codec.Hex(&m.nonce),
			"Execute After":  fmt.Sprintf("0x%x", m.after),
			"Execute Before": fmt.Sprintf("0x%x", m.before),
			"Calls":          calls,
		},
	}
}
