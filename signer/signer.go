package signer

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	"github.com/ori-shem-tov/stark-vrf-oracle/typeddata"
	log "github.com/sirupsen/logrus"
)

// SignedMessage is the terminal stage of the outside execution flow. It can only be
// obtained from SignHashed.
type SignedMessage struct {
	hashed    typeddata.HashedMessage
	signature Signature
}

func (s SignedMessage) Hashed() typeddata.HashedMessage {
	return s.hashed
}

func (s SignedMessage) Signature() Signature {
	return s.signature
}

// OutsideExecution returns the payload a relayer submits on behalf of the account.
func (s SignedMessage) OutsideExecution() models.SignedOutsideExecution {
	return models.SignedOutsideExecution{
		Address:          s.hashed.Account(),
		OutsideExecution: s.hashed.Message().OutsideExecution(),
		Signature:        s.signature.Felts(),
	}
}

// Verify checks the signature against pub.
func (s SignedMessage) Verify(pub PublicKey) error {
	return CheckSignature(s.hashed.Hash(), pub, s.signature)
}

// SignHashed signs a hashed message.
func SignHashed(h typeddata.HashedMessage, key *PrivateKey) (SignedMessage, error) {
	if h.IsZero() {
		return SignedMessage{}, errors.New("message has not been hashed")
	}
	sig, err := Sign(h.Hash(), key)
	if err != nil {
		return SignedMessage{}, fmt.Errorf("failed signing message hash: %w", err)
	}
	log.WithFields(log.Fields{
		"account": codec.Hex(h.Account()),
		"hash":    codec.Hex(h.Hash()),
	}).Debug("signed typed data message")
	return SignedMessage{hashed: h, signature: sig}, nil
}

// LocalSigner is an account whose key is held in memory.
type LocalSigner struct {
	address felt.Felt
	key     *PrivateKey
}

func NewLocalSigner(address *felt.Felt, key *PrivateKey) (*LocalSigner, error) {
	if address == nil {
		return nil, fmt.Errorf("%w: signer address is required", codec.ErrEncoding)
	}
	if key == nil {
		return nil, ErrInvalidKey
	}
	return &LocalSigner{address: *address, key: key}, nil
}

func (s *LocalSigner) Address() *felt.Felt {
	v := s.address
	return &v
}

func (s *LocalSigner) PublicKey() PublicKey {
	return s.key.Public()
}

// SignHash signs a raw hash.
func (s *LocalSigner) SignHash(h *felt.Felt) (Signature, error) {
	return Sign(h, s.key)
}

// SignMessage hashes m for the signer's address and signs it.
func (s *LocalSigner) SignMessage(m typeddata.Message) (SignedMessage, error) {
	hashed, err := m.Hash(s.Address())
	if err != nil {
		return SignedMessage{}, err
	}
	return SignHashed(hashed, s.key)
}
