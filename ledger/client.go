// Package ledger reads Starknet state over JSON-RPC.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/models"
	log "github.com/sirupsen/logrus"
)

// LatestBlock is the block tag used for reads.
const LatestBlock = "latest"

// ErrMalformedResponse is returned when the node answers with something that is not a felt.
var ErrMalformedResponse = errors.New("malformed rpc response")

// Client is a Starknet JSON-RPC client.
type Client struct {
	rpc *rpc.Client
}

type functionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

// Dial connects to a Starknet node.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed dialing starknet rpc %s: %v", url, err)
	}
	return NewClient(c), nil
}

func NewClient(c *rpc.Client) *Client {
	return &Client{rpc: c}
}

func (c *Client) Close() {
	c.rpc.Close()
}

// Call runs a read-only call at the latest block.
func (c *Client) Call(ctx context.Context, call models.Call) ([]*felt.Felt, error) {
	req := functionCall{
		ContractAddress:    codec.Hex(call.To()),
		EntryPointSelector: codec.Hex(call.Selector()),
		Calldata:           codec.HexList(call.Calldata()),
	}
	var res []string
	if err := c.rpc.CallContext(ctx, &res, "starknet_call", req, LatestBlock); err != nil {
		return nil, fmt.Errorf("starknet_call %s: %w", call.Entrypoint(), err)
	}
	out, err := codec.ParseFeltList(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	log.WithFields(log.Fields{
		"contract":   req.ContractAddress,
		"entrypoint": call.Entrypoint(),
		"result":     res,
	}).Debug("starknet_call")
	return out, nil
}

// StorageAt reads a storage slot at the latest block.
func (c *Client) StorageAt(ctx context.Context, contract, key *felt.Felt) (*felt.Felt, error) {
	var res string
	if err := c.rpc.CallContext(ctx, &res, "starknet_getStorageAt", codec.Hex(contract), codec.Hex(key), LatestBlock); err != nil {
		return nil, fmt.Errorf("starknet_getStorageAt: %w", err)
	}
	v, err := codec.ParseFelt(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}

// ChainID returns the chain id of the node, e.g. the short string SN_SEPOLIA.
func (c *Client) ChainID(ctx context.Context) (*felt.Felt, error) {
	var res string
	if err := c.rpc.CallContext(ctx, &res, "starknet_chainId"); err != nil {
		return nil, fmt.Errorf("starknet_chainId: %w", err)
	}
	v, err := codec.ParseFelt(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}
