package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	"github.com/ori-shem-tov/stark-vrf-oracle/vrf"
)

var (
	noncesVariable = codec.StarknetKeccak([]byte("VrfProvider_nonces"))

	// storage addresses live below 2^251 - 256
	storageAddressBound = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 251), big.NewInt(256))
)

// NextSeed reads get_next_seed(requester) from the provider.
func (c *Client) NextSeed(ctx context.Context, provider, requester *felt.Felt) (*felt.Felt, error) {
	call, err := models.NewCall(provider, vrf.GetNextSeedEntrypoint, requester)
	if err != nil {
		return nil, err
	}
	res, err := c.Call(ctx, call)
	if err != nil {
		return nil, err
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("%w: get_next_seed returned %d values", ErrMalformedResponse, len(res))
	}
	return res[0], nil
}

// NonceStorageKey is the storage address of VrfProvider_nonces[address].
func NonceStorageKey(address *felt.Felt) *felt.Felt {
	return StorageBaseAddress(crypto.Pedersen(noncesVariable, address))
}

// StorageBaseAddress reduces a storage variable hash into the storage address range.
func StorageBaseAddress(h *felt.Felt) *felt.Felt {
	v := codec.ToBig(h)
	key, _ := codec.FromBig(v.Mod(v, storageAddressBound))
	return key
}

// ProviderNonce reads the provider nonce of address stored on the VRF account.
func (c *Client) ProviderNonce(ctx context.Context, vrfAccount, address *felt.Felt) (*felt.Felt, error) {
	return c.StorageAt(ctx, vrfAccount, NonceStorageKey(address))
}
