package typeddata

import (
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
)

const domainName = "Account.execute_from_outside"

var starknetMessage = codec.MustEncodeShortString("StarkNet Message")

// schema is the canonical encoder of one typed-data version.
type schema interface {
	messageHash(m *Message, account *felt.Felt) *felt.Felt
	domainHash(chainID *felt.Felt) *felt.Felt
	structHash(m *Message) *felt.Felt
	callHash(c models.Call) *felt.Felt
	typedData(m *Message) TypedData
}

var schemas = map[Version]schema{
	V1: revision0{},
	V2: revision1{},
}

func schemaFor(v Version) (schema, error) {
	s, ok := schemas[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	return s, nil
}

// Revision 0 hashes with Pedersen compute_hash_on_elements.
var (
	v1DomainType           = "StarkNetDomain(name:felt,version:felt,chainId:felt)"
	v1OutsideCallType      = "OutsideCall(to:felt,selector:felt,calldata_len:felt,calldata:felt*)"
	v1OutsideExecutionType = "OutsideExecution(caller:felt,nonce:felt,execute_after:felt,execute_before:felt,calls_len:felt,calls:OutsideCall*)" + v1OutsideCallType

	v1DomainTypeHash           = codec.StarknetKeccak([]byte(v1DomainType))
	v1OutsideCallTypeHash      = codec.StarknetKeccak([]byte(v1OutsideCallType))
	v1OutsideExecutionTypeHash = codec.StarknetKeccak([]byte(v1OutsideExecutionType))
)

type revision0 struct{}

func (revision0) messageHash(m *Message, account *felt.Felt) *felt.Felt {
	return crypto.PedersenArray(starknetMessage, revision0{}.domainHash(&m.chainID), account, revision0{}.structHash(m))
}

func (revision0) domainHash(chainID *felt.Felt) *felt.Felt {
	return crypto.PedersenArray(
		v1DomainTypeHash,
		codec.MustEncodeShortString(domainName),
		codec.FromUint64(1),
		chainID,
	)
}

func (revision0) structHash(m *Message) *felt.Felt {
	callHashes := make([]*felt.Felt, len(m.calls))
	for i, c := range m.calls {
		callHashes[i] = revision0{}.callHash(c)
	}
	return crypto.PedersenArray(
		v1OutsideExecutionTypeHash,
		&m.caller,
		&m.nonce,
		codec.FromUint64(m.after),
		codec.FromUint64(m.before),
		codec.FromUint64(uint64(len(m.calls))),
		crypto.PedersenArray(callHashes...),
	)
}

func (revision0) callHash(c models.Call) *felt.Felt {
	calldata := c.Calldata()
	return crypto.PedersenArray(
		v1OutsideCallTypeHash,
		c.To(),
		c.Selector(),
		codec.FromUint64(uint64(len(calldata))),
		crypto.PedersenArray(calldata...),
	)
}

// Revision 1 hashes with poseidon_hash_many and quotes every name in its type strings.
var (
	v2DomainType           = `"StarknetDomain"("name":"shortstring","version":"shortstring","chainId":"shortstring","revision":"shortstring")`
	v2CallType             = `"Call"("To":"ContractAddress","Selector":"selector","Calldata":"felt*")`
	v2OutsideExecutionType = `"OutsideExecution"("Caller":"ContractAddress","Nonce":"felt","Execute After":"u128","Execute Before":"u128","Calls":"Call*")` + v2CallType

	v2DomainTypeHash           = codec.StarknetKeccak([]byte(v2DomainType))
	v2CallTypeHash             = codec.StarknetKeccak([]byte(v2CallType))
	v2OutsideExecutionTypeHash = codec.StarknetKeccak([]byte(v2OutsideExecutionType))
)

type revision1 struct{}

func (revision1) messageHash(m *Message, account *felt.Felt) *felt.Felt {
	return crypto.PoseidonArray(starknetMessage, revision1{}.domainHash(&m.chainID), account, revision1{}.structHash(m))
}

func (revision1) domainHash(chainID *felt.Felt) *felt.Felt {
	return crypto.PoseidonArray(
		v2DomainTypeHash,
		codec.MustEncodeShortString(domainName),
		codec.FromUint64(2),
		chainID,
		codec.FromUint64(1),
	)
}

func (revision1) structHash(m *Message) *felt.Felt {
	callHashes := make([]*felt.Felt, len(m.calls))
	for i, c := range m.calls {
		callHashes[i] = revision1{}.callHash(c)
	}
	return crypto.PoseidonArray(
		v2OutsideExecutionTypeHash,
		&m.caller,
		&m.nonce,
		codec.FromUint64(m.after),
		codec.FromUint64(m.before),
		crypto.PoseidonArray(callHashes...),
	)
}

func (revision1) callHash(c models.Call) *felt.Felt {
	return crypto.PoseidonArray(
		v2CallTypeHash,
		c.To(),
		c.Selector(),
		crypto.PoseidonArray(c.Calldata()...),
	)
}
