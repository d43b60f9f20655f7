package collector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"shinacap/internal/dex"
	"shinacap/internal/feed"
)

// quote simulates selling the configured amount of token0 for token1 and
// returns the output as a decimal string.
func (c *Collector) quote(ctx context.Context, logger *zap.Logger, inDecimals, outDecimals uint8) (string, error) {
	im, err := c.deps.Pool.Immutables(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: pool immutables: %w", ErrRemoteRead, err)
	}
	token0 := common.HexToAddress(im.Token0)
	token1 := common.HexToAddress(im.Token1)
	if c.cfg.BaseToken != (common.Address{}) && token0 != c.cfg.BaseToken {
		logger.Warn("pool token0 is not the base token",
			zap.String("token0", token0.Hex()),
			zap.String("base_token", c.cfg.BaseToken.Hex()),
		)
	}

	amountIn, err := dex.ParseUnits(c.cfg.SellAmount, inDecimals)
	if err != nil {
		return "", fmt.Errorf("scale sell amount: %w", err)
	}

	out, err := c.deps.Quoter.QuoteExactInputSingle(ctx, dex.QuoteParams{
		TokenIn:           token0,
		TokenOut:          token1,
		Fee:               im.Fee,
		AmountIn:          amountIn,
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return "", fmt.Errorf("%w: quote exact input: %w", ErrRemoteRead, err)
	}

	quote := dex.FormatUnits(out, outDecimals)
	logger.Debug("quote read",
		zap.Uint32("fee", im.Fee),
		zap.String("amount_in", amountIn.String()),
		zap.String("quote", quote),
	)
	return quote, nil
}

// logPoolState reads liquidity and slot0. The values are diagnostic only.
func (c *Collector) logPoolState(ctx context.Context, logger *zap.Logger) error {
	state, err := c.deps.Pool.State(ctx)
	if err != nil {
		return fmt.Errorf("%w: pool state: %w", ErrRemoteRead, err)
	}
	logger.Debug("pool state",
		zap.String("liquidity", bigString(state.Liquidity)),
		zap.String("sqrt_price_x96", bigString(state.SqrtPriceX96)),
		zap.Int32("tick", state.Tick),
		zap.Uint16("observation_index", state.ObservationIndex),
		zap.Uint8("fee_protocol", state.FeeProtocol),
		zap.Bool("unlocked", state.Unlocked),
	)
	return nil
}

func (c *Collector) readPrice(ctx context.Context, decimals uint8) (string, error) {
	answer, err := c.deps.PriceFeed.LatestAnswer(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: oracle latest answer: %w", ErrRemoteRead, err)
	}
	price, err := feed.FormatPrice(answer, decimals)
	if err != nil {
		return "", fmt.Errorf("%w: oracle answer: %w", ErrRemoteRead, err)
	}
	return price, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
