package typeddata

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
)

// RandomNonce returns a fresh outside execution nonce, uniform below the curve order.
func RandomNonce() (*felt.Felt, error) {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed generating nonce: %v", err)
	}
	var b big.Int
	return codec.FromBig(e.BigInt(&b))
}
