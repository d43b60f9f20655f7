package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shinacap/internal/config"
	"shinacap/internal/model"
	"shinacap/internal/storage/postgres"
)

func runLatest(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, config.Config.ValidateStorage)
	if err != nil {
		return err
	}
	defer logger.Sync()

	source, _ := cmd.Flags().GetString("source")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var data model.MarketData
	switch source {
	case "archive":
		store, err := newObjectStore(ctx, cfg)
		if err != nil {
			return err
		}
		data, err = newArchive(store, cfg, logger).LoadLatest(ctx)
		if err != nil {
			return fmt.Errorf("load latest: %w", err)
		}
	case "postgres":
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		var found bool
		data, found, err = pg.LatestSnapshot(ctx, cfg.Version)
		if err != nil {
			return fmt.Errorf("load latest: %w", err)
		}
		if !found {
			return fmt.Errorf("no snapshot for version %s", cfg.Version)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", config.ErrConfiguration, source)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
