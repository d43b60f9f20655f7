package model

import "math/big"

// PoolImmutables captures the static configuration of a V3 pool.
type PoolImmutables struct {
	Factory             string   `json:"factory"`
	Token0              string   `json:"token0"`
	Token1              string   `json:"token1"`
	Fee                 uint32   `json:"fee"`
	TickSpacing         int32    `json:"tick_spacing"`
	MaxLiquidityPerTick *big.Int `json:"max_liquidity_per_tick"`
}

// PoolState is the live slot0/liquidity view of a pool.
type PoolState struct {
	Liquidity                  *big.Int `json:"liquidity"`
	SqrtPriceX96               *big.Int `json:"sqrt_price_x96"`
	Tick                       int32    `json:"tick"`
	ObservationIndex           uint16   `json:"observation_index"`
	ObservationCardinality     uint16   `json:"observation_cardinality"`
	ObservationCardinalityNext uint16   `json:"observation_cardinality_next"`
	FeeProtocol                uint8    `json:"fee_protocol"`
	Unlocked                   bool     `json:"unlocked"`
}
