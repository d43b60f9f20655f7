package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shinacap/internal/config"
	"shinacap/internal/trigger"
)

func runOnceCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, config.Config.Validate)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("snapshot start",
		zap.String("rpc", cfg.RedactedEndpoint()),
		zap.String("store", cfg.Store),
		zap.String("bucket", cfg.Bucket),
		zap.String("folder", cfg.Folder),
		zap.String("version", cfg.Version),
		zap.Bool("pin_block", cfg.PinBlock),
	)

	handler := trigger.NewHandler(func(ctx context.Context) error {
		_, err := runOnce(ctx, cfg, logger)
		return err
	}, logger)

	resp, err := handler.Handle(ctx, nil)
	if err != nil {
		return err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
