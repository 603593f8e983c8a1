// Package typeddata builds and hashes SNIP-12 typed-data messages authorizing the outside
// execution of a batch of calls.
package typeddata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidWindow      = errors.New("execute_after is later than execute_before")
	ErrEmptyBundle        = errors.New("outside execution has no calls")
	ErrUnsupportedVersion = errors.New("unsupported typed data version")
)

// AnyCaller is the wildcard caller accepted by execute_from_outside.
var AnyCaller = codec.MustEncodeShortString("ANY_CALLER")

// Version selects the typed-data schema.
type Version int

const (
	V1 Version = iota + 1 // SNIP-12 revision 0, Pedersen
	V2                    // SNIP-12 revision 1, Poseidon
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// ParseVersion accepts "1", "2", "v1", "v2" in any case.
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "v1":
		return V1, nil
	case "2", "v2":
		return V2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
	}
}

// CallOptions restrict who may relay the calls and when.
type CallOptions struct {
	Caller        *felt.Felt
	ExecuteAfter  uint64
	ExecuteBefore uint64
}

// Message is a built typed-data message. It is immutable.
type Message struct {
	chainID felt.Felt
	caller  felt.Felt
	after   uint64
	before  uint64
	nonce   felt.Felt
	calls   []models.Call
	version Version
	schema  schema
}

// BuildMessage validates its inputs and binds the message to the schema of version.
func BuildMessage(chainID *felt.Felt, options CallOptions, nonce *felt.Felt, calls []models.Call, version Version) (Message, error) {
	s, err := schemaFor(version)
	if err != nil {
		return Message{}, err
	}
	if options.ExecuteAfter > options.ExecuteBefore {
		return Message{}, fmt.Errorf("%w: %d > %d", ErrInvalidWindow, options.ExecuteAfter, options.ExecuteBefore)
	}
	if len(calls) == 0 {
		return Message{}, ErrEmptyBundle
	}
	if chainID == nil || nonce == nil || options.Caller == nil {
		return Message{}, fmt.Errorf("%w: chain id, nonce and caller are required", codec.ErrEncoding)
	}

	m := Message{
		chainID: *chainID,
		caller:  *options.Caller,
		after:   options.ExecuteAfter,
		before:  options.ExecuteBefore,
		nonce:   *nonce,
		calls:   append([]models.Call(nil), calls...),
		version: version,
		schema:  s,
	}
	log.WithFields(log.Fields{
		"version": version,
		"calls":   len(calls),
		"nonce":   codec.Hex(nonce),
	}).Debug("built typed data message")
	return m, nil
}

func (m Message) ChainID() *felt.Felt {
	v := m.chainID
	return &v
}

func (m Message) Options() CallOptions {
	caller := m.caller
	return CallOptions{Caller: &caller, ExecuteAfter: m.after, ExecuteBefore: m.before}
}

func (m Message) Nonce() *felt.Felt {
	v := m.nonce
	return &v
}

// Calls returns a copy of the call batch.
func (m Message) Calls() []models.Call {
	return append([]models.Call(nil), m.calls...)
}

func (m Message) Version() Version {
	return m.version
}

// Hash computes the message hash for the verifying account. The zero Message is rejected.
func Hash(m Message, account *felt.Felt) (*felt.Felt, error) {
	if m.schema == nil {
		return nil, fmt.Errorf("%w: message was not built", ErrUnsupportedVersion)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account is required", codec.ErrEncoding)
	}
	return m.schema.messageHash(&m, account), nil
}

// Hash moves the message to the hashed stage for account.
func (m Message) Hash(account *felt.Felt) (HashedMessage, error) {
	h, err := Hash(m, account)
	if err != nil {
		return HashedMessage{}, err
	}
	return HashedMessage{message: m, account: *account, hash: *h}, nil
}

// OutsideExecution returns the payload accounts receive through execute_from_outside.
func (m Message) OutsideExecution() models.OutsideExecution {
	version := models.OutsideExecutionV2
	if m.version == V1 {
		version = models.OutsideExecutionV1
	}
	opts := m.Options()
	return models.OutsideExecution{
		Version:       version,
		Caller:        opts.Caller,
		Nonce:         m.Nonce(),
		ExecuteAfter:  m.after,
		ExecuteBefore: m.before,
		Calls:         m.Calls(),
	}
}

// HashedMessage is a message together with its hash under a verifying account. It can
// only be obtained from Message.Hash.
type HashedMessage struct {
	message Message
	account felt.Felt
	hash    felt.Felt
}

func (h HashedMessage) Message() Message {
	return h.message
}

func (h HashedMessage) Account() *felt.Felt {
	v := h.account
	return &v
}

func (h HashedMessage) Hash() *felt.Felt {
	v := h.hash
	return &v
}

// IsZero reports whether h was not produced by Message.Hash.
func (h HashedMessage) IsZero() bool {
	return h.message.schema == nil
}
