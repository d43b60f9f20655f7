package collector

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"shinacap/internal/dex"
	"shinacap/internal/model"
)

// readBalances reads the pool's holdings of both tokens and the dead wallet's
// base token balance concurrently.
func (c *Collector) readBalances(ctx context.Context, baseDecimals, quoteDecimals uint8) (model.Balances, string, error) {
	var (
		balances model.Balances
		burnt    string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.deps.BaseToken.BalanceOf(gctx, c.cfg.PoolAddress)
		if err != nil {
			return fmt.Errorf("%w: pool base token balance: %w", ErrRemoteRead, err)
		}
		balances.BaseToken = dex.FormatUnits(v, baseDecimals)
		return nil
	})
	g.Go(func() error {
		v, err := c.deps.QuoteToken.BalanceOf(gctx, c.cfg.PoolAddress)
		if err != nil {
			return fmt.Errorf("%w: pool quote token balance: %w", ErrRemoteRead, err)
		}
		balances.QuoteToken = dex.FormatUnits(v, quoteDecimals)
		return nil
	})
	g.Go(func() error {
		v, err := c.deps.BaseToken.BalanceOf(gctx, c.cfg.DeadWallet)
		if err != nil {
			return fmt.Errorf("%w: burnt balance: %w", ErrRemoteRead, err)
		}
		burnt = dex.FormatUnits(v, baseDecimals)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Balances{}, "", err
	}
	return balances, burnt, nil
}
