package collector

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shinacap/internal/archive"
	"shinacap/internal/dex"
	"shinacap/internal/feed"
	"shinacap/internal/lock"
	"shinacap/internal/metrics"
	"shinacap/internal/model"
	"shinacap/internal/snapshot"
)

// ErrRemoteRead wraps every failed chain or oracle read.
var ErrRemoteRead = errors.New("remote read failed")

// PoolReader reads Uniswap V3 pool parameters.
type PoolReader interface {
	Immutables(ctx context.Context) (model.PoolImmutables, error)
	State(ctx context.Context) (model.PoolState, error)
}

// SwapQuoter simulates a single-hop exact-input swap.
type SwapQuoter interface {
	QuoteExactInputSingle(ctx context.Context, params dex.QuoteParams) (*big.Int, error)
}

// TokenReader reads ERC-20 balances.
type TokenReader interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
}

// PriceFeed returns the raw oracle answer and its scale.
type PriceFeed interface {
	LatestAnswer(ctx context.Context) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
}

// Archive persists a finished snapshot.
type Archive interface {
	Persist(ctx context.Context, data model.MarketData) (archive.Result, error)
}

// Mirror receives a copy of every persisted snapshot.
type Mirror interface {
	UpsertSnapshot(ctx context.Context, version string, data model.MarketData) error
}

// Pinner fixes the block all reads of a run observe.
type Pinner interface {
	Pin(ctx context.Context) (uint64, error)
}

// Config holds the per-run constants.
type Config struct {
	PoolAddress      common.Address
	BaseToken        common.Address
	DeadWallet       common.Address
	SellAmount       decimal.Decimal
	TokenDecimals    uint8
	OracleDecimals   uint8
	OnchainDecimals  bool
	IncludePoolState bool
	Version          string
	Params           snapshot.Params
}

// Deps are the collaborators of a Collector. Mirror, Locker, Pinner and
// Metrics are optional.
type Deps struct {
	Pool       PoolReader
	Quoter     SwapQuoter
	BaseToken  TokenReader
	QuoteToken TokenReader
	PriceFeed  PriceFeed
	Archive    Archive
	Mirror     Mirror
	Locker     lock.Locker
	Pinner     Pinner
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// Report is the outcome of a successful run.
type Report struct {
	RunID   string
	Block   uint64
	Data    model.MarketData
	Archive archive.Result
}

// Collector takes one market-cap snapshot per Run.
type Collector struct {
	cfg       Config
	deps      Deps
	assembler *snapshot.Assembler
	logger    *zap.Logger
}

// New builds a Collector with its dependencies.
func New(cfg Config, deps Deps, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = lock.Noop{}
	}
	if cfg.TokenDecimals == 0 {
		cfg.TokenDecimals = dex.DefaultDecimals
	}
	if cfg.OracleDecimals == 0 {
		cfg.OracleDecimals = feed.DefaultDecimals
	}
	return &Collector{
		cfg:       cfg,
		deps:      deps,
		assembler: snapshot.NewAssembler(cfg.Params, deps.Now),
		logger:    logger,
	}
}

// readings are the joined results of the concurrent reads.
type readings struct {
	quote    string
	burnt    string
	balances model.Balances
	usd      string
}

// Run reads the chain, assembles the snapshot and writes it to the archive.
// Nothing is written unless every read succeeded.
func (c *Collector) Run(ctx context.Context) (report Report, err error) {
	if err := c.validate(); err != nil {
		return Report{}, err
	}

	started := time.Now()
	report.RunID = uuid.NewString()
	logger := c.logger.With(zap.String("run_id", report.RunID))

	defer func() {
		c.deps.Metrics.ObserveRun(started, err)
		if perr := c.deps.Metrics.Push(context.WithoutCancel(ctx)); perr != nil {
			logger.Warn("metrics push failed", zap.Error(perr))
		}
	}()

	release, err := c.deps.Locker.Acquire(ctx)
	if err != nil {
		logger.Error("acquire run lock failed", zap.Error(err))
		return Report{}, err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			logger.Warn("release run lock failed", zap.Error(rerr))
		}
	}()

	if c.deps.Pinner != nil {
		block, err := c.deps.Pinner.Pin(ctx)
		if err != nil {
			logger.Error("pin block failed", zap.Error(err))
			return Report{}, fmt.Errorf("%w: pin block: %w", ErrRemoteRead, err)
		}
		report.Block = block
		logger = logger.With(zap.Uint64("block", block))
	}

	dec, err := c.resolveDecimals(ctx)
	if err != nil {
		logger.Error("read token decimals failed", zap.Error(err))
		return Report{}, err
	}

	var r readings
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quote, err := c.quote(gctx, logger, dec.base, dec.quote)
		r.quote = quote
		return err
	})
	g.Go(func() error {
		balances, burnt, err := c.readBalances(gctx, dec.base, dec.quote)
		r.balances, r.burnt = balances, burnt
		return err
	})
	g.Go(func() error {
		usd, err := c.readPrice(gctx, dec.oracle)
		r.usd = usd
		return err
	})
	if c.cfg.IncludePoolState {
		g.Go(func() error {
			return c.logPoolState(gctx, logger)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("read market inputs failed", zap.Error(err))
		return Report{}, err
	}

	data, err := c.assembler.Assemble(snapshot.Inputs{
		Quote:               r.quote,
		BurntAmount:         r.burnt,
		Balances:            r.balances,
		USDPerQuoteCurrency: r.usd,
	})
	if err != nil {
		logger.Error("assemble snapshot failed", zap.Error(err))
		return Report{}, fmt.Errorf("assemble snapshot: %w", err)
	}
	c.deps.Metrics.ObserveSnapshot(data)

	res, err := c.deps.Archive.Persist(ctx, data)
	if err != nil {
		logger.Error("persist snapshot failed", zap.Error(err))
		return Report{}, fmt.Errorf("persist snapshot: %w", err)
	}
	c.deps.Metrics.ObserveArchive(res.Records)

	if c.deps.Mirror != nil {
		if err := c.deps.Mirror.UpsertSnapshot(ctx, c.cfg.Version, data); err != nil {
			logger.Error("mirror snapshot failed", zap.Error(err))
			return Report{}, fmt.Errorf("mirror snapshot: %w", err)
		}
	}

	logger.Info("snapshot stored",
		zap.String("timestamp", data.Timestamp),
		zap.String("mcap", data.MarketCapInBaseCurrency),
		zap.String("usd_mcap", data.USDMarketCap),
		zap.String("year_key", res.YearKey),
		zap.Int("records", res.Records),
		zap.Duration("elapsed", time.Since(started)),
	)

	report.Data = data
	report.Archive = res
	return report, nil
}

func (c *Collector) validate() error {
	switch {
	case c.deps.Pool == nil:
		return fmt.Errorf("pool reader is nil")
	case c.deps.Quoter == nil:
		return fmt.Errorf("quoter is nil")
	case c.deps.BaseToken == nil || c.deps.QuoteToken == nil:
		return fmt.Errorf("token readers are nil")
	case c.deps.PriceFeed == nil:
		return fmt.Errorf("price feed is nil")
	case c.deps.Archive == nil:
		return fmt.Errorf("archive is nil")
	}
	return nil
}

type decimalsSet struct {
	base   uint8
	quote  uint8
	oracle uint8
}

// resolveDecimals returns the token and oracle decimals, read on-chain when enabled.
func (c *Collector) resolveDecimals(ctx context.Context) (decimalsSet, error) {
	if !c.cfg.OnchainDecimals {
		return decimalsSet{
			base:   c.cfg.TokenDecimals,
			quote:  c.cfg.TokenDecimals,
			oracle: c.cfg.OracleDecimals,
		}, nil
	}

	var out decimalsSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.deps.BaseToken.Decimals(gctx)
		if err != nil {
			return fmt.Errorf("%w: base token decimals: %w", ErrRemoteRead, err)
		}
		out.base = d
		return nil
	})
	g.Go(func() error {
		d, err := c.deps.QuoteToken.Decimals(gctx)
		if err != nil {
			return fmt.Errorf("%w: quote token decimals: %w", ErrRemoteRead, err)
		}
		out.quote = d
		return nil
	})
	g.Go(func() error {
		d, err := c.deps.PriceFeed.Decimals(gctx)
		if err != nil {
			return fmt.Errorf("%w: oracle decimals: %w", ErrRemoteRead, err)
		}
		out.oracle = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return decimalsSet{}, err
	}
	return out, nil
}
