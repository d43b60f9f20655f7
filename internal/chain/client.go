package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Caller performs read-only contract calls. A nil block means the client's default block.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client wraps go-ethereum RPC and optionally pins reads to one block.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu     sync.RWMutex
	pinned *big.Int
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// Pin fixes the block used by calls that do not name one, so every read of a
// run observes the same chain state.
func (c *Client) Pin(ctx context.Context) (uint64, error) {
	latest, err := c.LatestBlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.pinned = new(big.Int).SetUint64(latest)
	c.mu.Unlock()
	return latest, nil
}

// PinnedBlock returns the pinned block, or nil when reads follow latest.
func (c *Client) PinnedBlock() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pinned == nil {
		return nil
	}
	return new(big.Int).Set(c.pinned)
}

// CallContract performs an eth_call. Nothing is signed or broadcast.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if blockNumber == nil {
		blockNumber = c.PinnedBlock()
	}
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
