package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shinacap/internal/archive"
	"shinacap/internal/chain"
	"shinacap/internal/collector"
	"shinacap/internal/config"
	"shinacap/internal/dex"
	"shinacap/internal/feed"
	"shinacap/internal/lock"
	"shinacap/internal/metrics"
	"shinacap/internal/snapshot"
	"shinacap/internal/storage"
	"shinacap/internal/storage/file"
	"shinacap/internal/storage/memory"
	"shinacap/internal/storage/postgres"
	s3store "shinacap/internal/storage/s3"
)

func newObjectStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	switch cfg.Store {
	case config.StoreS3:
		store, err := s3store.New(ctx, cfg.Region, cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("init s3 store: %w", err)
		}
		return store, nil
	case config.StoreFile:
		return file.NewStore(cfg.FileRoot), nil
	case config.StoreMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrConfiguration, cfg.Store)
	}
}

func newArchive(store storage.ObjectStore, cfg config.Config, logger *zap.Logger) *archive.Writer {
	return archive.NewWriter(store, archive.Config{
		Folder:             cfg.Folder,
		Version:            cfg.Version,
		TolerateReadErrors: cfg.TolerateArchiveReadErrors,
	}, logger)
}

// buildCollector connects every backend named in cfg. The returned cleanup
// closes them and must be called even when Run fails.
func buildCollector(ctx context.Context, cfg config.Config, logger *zap.Logger) (*collector.Collector, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}

	chainClient, err := chain.NewClient(ctx, cfg.Endpoint())
	if err != nil {
		return nil, cleanup, fmt.Errorf("connect rpc: %w", err)
	}
	closers = append(closers, chainClient.Close)

	deps := collector.Deps{
		Pool:       dex.NewPool(chainClient, config.MustAddress(cfg.Pool)),
		Quoter:     dex.NewQuoter(chainClient, config.MustAddress(cfg.Quoter)),
		BaseToken:  dex.NewERC20(chainClient, config.MustAddress(cfg.BaseToken)),
		QuoteToken: dex.NewERC20(chainClient, config.MustAddress(cfg.QuoteToken)),
		PriceFeed:  feed.NewChainlink(chainClient, config.MustAddress(cfg.PriceFeed)),
		Archive:    newArchive(store, cfg, logger),
	}
	if cfg.PinBlock {
		deps.Pinner = chainClient
	}

	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Mirror = pg
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closers = append(closers, func() { _ = client.Close() })
		locker, err := lock.NewRedis(client, lock.Key(cfg.Bucket, cfg.Folder), cfg.LockTTL)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Locker = locker
	}

	if cfg.Pushgateway != "" {
		deps.Metrics = metrics.New(cfg.Pushgateway)
	}

	c := collector.New(collector.Config{
		PoolAddress:      config.MustAddress(cfg.Pool),
		BaseToken:        config.MustAddress(cfg.BaseToken),
		DeadWallet:       config.MustAddress(cfg.DeadWallet),
		SellAmount:       cfg.SellAmountValue(),
		TokenDecimals:    cfg.TokenDecimals,
		OracleDecimals:   cfg.OracleDecimals,
		OnchainDecimals:  cfg.OnchainDecimals,
		IncludePoolState: cfg.IncludePoolState,
		Version:          cfg.Version,
		Params: snapshot.Params{
			PriceScaleFactor: cfg.PriceScaleFactorValue(),
			TotalSupply:      cfg.TotalSupplyValue(),
		},
	}, deps, logger)

	return c, cleanup, nil
}

// runOnce performs a single snapshot with fresh connections.
func runOnce(ctx context.Context, cfg config.Config, logger *zap.Logger) (collector.Report, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	c, cleanup, err := buildCollector(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		logger.Error("build collector failed", zap.Error(err))
		return collector.Report{}, err
	}
	return c.Run(ctx)
}

// loadConfig reads configuration for cmd, validates it and builds the logger.
func loadConfig(cmd *cobra.Command, validate func(config.Config) error) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := validate(cfg); err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
