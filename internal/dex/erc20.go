package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"shinacap/internal/chain"
)

// ERC20 reads an ERC20 token contract.
type ERC20 struct {
	caller  chain.Caller
	address common.Address
}

func NewERC20(caller chain.Caller, address common.Address) *ERC20 {
	return &ERC20{caller: caller, address: address}
}

// BalanceOf returns the raw balance of owner in base units.
func (t *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, t.caller, t.address, parsed, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf unexpected type %T", values[0])
	}
	return bal, nil
}

// Decimals returns the token's declared decimal precision.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, t.caller, t.address, parsed, "decimals")
	if err != nil {
		return 0, err
	}
	return asUint8(values[0])
}
