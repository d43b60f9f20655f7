package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shinacap/internal/config"
	"shinacap/internal/trigger"
)

func runLambda(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, config.Config.Validate)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("lambda start",
		zap.String("rpc", cfg.RedactedEndpoint()),
		zap.String("bucket", cfg.Bucket),
		zap.String("folder", cfg.Folder),
		zap.String("version", cfg.Version),
	)

	handler := trigger.NewHandler(func(ctx context.Context) error {
		_, err := runOnce(ctx, cfg, logger)
		return err
	}, logger)

	// Blocks for the lifetime of the execution environment.
	lambda.Start(handler.Handle)
	return nil
}
