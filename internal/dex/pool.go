package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"shinacap/internal/chain"
	"shinacap/internal/model"
)

// Pool reads a V3 pool contract.
type Pool struct {
	caller  chain.Caller
	address common.Address
}

func NewPool(caller chain.Caller, address common.Address) *Pool {
	return &Pool{caller: caller, address: address}
}

// Immutables loads factory, tokens, fee, tick spacing and max liquidity per tick
// with one concurrent call each.
func (p *Pool) Immutables(ctx context.Context) (model.PoolImmutables, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolImmutables{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var out model.PoolImmutables
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "factory")
		if err != nil {
			return err
		}
		addr, err := asAddress(values[0])
		if err != nil {
			return fmt.Errorf("factory: %w", err)
		}
		out.Factory = addr.Hex()
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "token0")
		if err != nil {
			return err
		}
		addr, err := asAddress(values[0])
		if err != nil {
			return fmt.Errorf("token0: %w", err)
		}
		out.Token0 = addr.Hex()
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "token1")
		if err != nil {
			return err
		}
		addr, err := asAddress(values[0])
		if err != nil {
			return fmt.Errorf("token1: %w", err)
		}
		out.Token1 = addr.Hex()
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "fee")
		if err != nil {
			return err
		}
		feeInt, err := asBigInt(values[0])
		if err != nil {
			return fmt.Errorf("fee: %w", err)
		}
		fee, err := uint24FromBig(feeInt)
		if err != nil {
			return fmt.Errorf("fee: %w", err)
		}
		out.Fee = fee
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "tickSpacing")
		if err != nil {
			return err
		}
		tickSpacingInt, err := asBigInt(values[0])
		if err != nil {
			return fmt.Errorf("tick spacing: %w", err)
		}
		tickSpacing, err := int24FromBig(tickSpacingInt)
		if err != nil {
			return fmt.Errorf("tick spacing: %w", err)
		}
		out.TickSpacing = tickSpacing
		return nil
	})
	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "maxLiquidityPerTick")
		if err != nil {
			return err
		}
		maxLiq, err := asBigInt(values[0])
		if err != nil {
			return fmt.Errorf("max liquidity per tick: %w", err)
		}
		out.MaxLiquidityPerTick = maxLiq
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.PoolImmutables{}, err
	}
	return out, nil
}

// State loads liquidity and slot0.
func (p *Pool) State(ctx context.Context) (model.PoolState, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var state model.PoolState
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "liquidity")
		if err != nil {
			return err
		}
		liq, err := asBigInt(values[0])
		if err != nil {
			return fmt.Errorf("liquidity: %w", err)
		}
		state.Liquidity = liq
		return nil
	})

	var slot []interface{}
	g.Go(func() error {
		values, err := callMethod(gctx, p.caller, p.address, poolABI, "slot0")
		if err != nil {
			return err
		}
		if len(values) != 7 {
			return fmt.Errorf("slot0 return size %d", len(values))
		}
		slot = values
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.PoolState{}, err
	}

	sqrt, err := asBigInt(slot[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(slot[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}
	obsIndex, err := asUint16(slot[2])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 observation index: %w", err)
	}
	obsCard, err := asUint16(slot[3])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 observation cardinality: %w", err)
	}
	obsNext, err := asUint16(slot[4])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 observation cardinality next: %w", err)
	}
	feeProtocol, err := asUint8(slot[5])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 fee protocol: %w", err)
	}
	unlocked, ok := slot[6].(bool)
	if !ok {
		return model.PoolState{}, fmt.Errorf("slot0 unlocked: unsupported type %T", slot[6])
	}

	state.SqrtPriceX96 = sqrt
	state.Tick = tick
	state.ObservationIndex = obsIndex
	state.ObservationCardinality = obsCard
	state.ObservationCardinalityNext = obsNext
	state.FeeProtocol = feeProtocol
	state.Unlocked = unlocked
	return state, nil
}
