package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"shinacap/internal/chain"
)

// QuoteParams describes a hypothetical single-hop exact-input swap.
type QuoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               uint32
	AmountIn          *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Quoter simulates swaps against the V3 quoter contract.
type Quoter struct {
	caller  chain.Caller
	address common.Address
}

func NewQuoter(caller chain.Caller, address common.Address) *Quoter {
	return &Quoter{caller: caller, address: address}
}

// QuoteExactInputSingle returns the simulated output amount in base units of TokenOut.
// The call goes through eth_call, so no state changes and no gas is spent.
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, params QuoteParams) (*big.Int, error) {
	if params.AmountIn == nil || params.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}
	limit := params.SqrtPriceLimitX96
	if limit == nil {
		limit = new(big.Int)
	}

	quoter, err := QuoterABI()
	if err != nil {
		return nil, fmt.Errorf("parse quoter abi: %w", err)
	}

	values, err := callMethod(ctx, q.caller, q.address, quoter, "quoteExactInputSingle",
		params.TokenIn,
		params.TokenOut,
		new(big.Int).SetUint64(uint64(params.Fee)),
		params.AmountIn,
		limit,
	)
	if err != nil {
		return nil, err
	}
	out, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("amount out: %w", err)
	}
	return out, nil
}
