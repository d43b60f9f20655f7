// Package feed reads reference prices from Chainlink aggregators.
package feed

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"shinacap/internal/chain"
)

// DefaultDecimals is the scale of USD-denominated Chainlink answers.
const DefaultDecimals uint8 = 8

const aggregatorABIJSON = `[
  {"inputs": [], "name": "latestAnswer", "outputs": [{"internalType": "int256", "name": "", "type": "int256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	aggregatorABI     abi.ABI
	aggregatorABIOnce sync.Once
	aggregatorABIErr  error
)

// AggregatorABI returns the parsed aggregator ABI subset.
func AggregatorABI() (abi.ABI, error) {
	aggregatorABIOnce.Do(func() {
		aggregatorABI, aggregatorABIErr = abi.JSON(strings.NewReader(aggregatorABIJSON))
	})
	return aggregatorABI, aggregatorABIErr
}

// Chainlink reads a price aggregator contract.
type Chainlink struct {
	caller  chain.Caller
	address common.Address
}

func NewChainlink(caller chain.Caller, address common.Address) *Chainlink {
	return &Chainlink{caller: caller, address: address}
}

// LatestAnswer returns the raw, scaled answer of the aggregator.
func (c *Chainlink) LatestAnswer(ctx context.Context) (*big.Int, error) {
	values, err := c.call(ctx, "latestAnswer")
	if err != nil {
		return nil, err
	}
	answer, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("latestAnswer unexpected type %T", values[0])
	}
	return answer, nil
}

// Decimals returns the scale of the aggregator's answers.
func (c *Chainlink) Decimals(ctx context.Context) (uint8, error) {
	values, err := c.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}
	return decimals, nil
}

func (c *Chainlink) call(ctx context.Context, method string) ([]interface{}, error) {
	if c.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	parsed, err := AggregatorABI()
	if err != nil {
		return nil, fmt.Errorf("parse aggregator abi: %w", err)
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return values, nil
}

// FormatPrice divides a raw answer by 10^decimals and renders it with two decimals.
func FormatPrice(answer *big.Int, decimals uint8) (string, error) {
	if answer == nil {
		return "", fmt.Errorf("answer is nil")
	}
	if answer.Sign() <= 0 {
		return "", fmt.Errorf("non-positive answer %s", answer.String())
	}
	return decimal.NewFromBigInt(answer, -int32(decimals)).StringFixed(2), nil
}
