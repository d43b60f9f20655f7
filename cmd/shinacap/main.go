package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "shinacap",
		Short:        "SHINA market-cap snapshot collector",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Take one snapshot and archive it",
		RunE:  runOnceCmd,
	}
	addChainFlags(runCmd.Flags())
	addStoreFlags(runCmd.Flags())
	addRunFlags(runCmd.Flags())
	root.AddCommand(runCmd)

	lambdaCmd := &cobra.Command{
		Use:   "lambda",
		Short: "Serve snapshot invocations as an AWS Lambda function",
		RunE:  runLambda,
	}
	addChainFlags(lambdaCmd.Flags())
	addStoreFlags(lambdaCmd.Flags())
	addRunFlags(lambdaCmd.Flags())
	root.AddCommand(lambdaCmd)

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the latest archived snapshot",
		RunE:  runLatest,
	}
	addStoreFlags(latestCmd.Flags())
	latestCmd.Flags().String("source", "archive", "where to read from (archive, postgres)")
	latestCmd.Flags().String("pg-dsn", "", "Postgres DSN (source=postgres)")
	latestCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(latestCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "Ethereum RPC URL (overrides infura-project-id)")
	fs.String("infura-project-id", "", "Infura project id")
	fs.String("pool", "0x959C7D5706AC0B5a29F506a1019Ba7F2a1C70c70", "Uniswap V3 pool address")
	fs.String("quoter", "0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6", "Uniswap V3 quoter address")
	fs.String("base-token", "0x243cACb4D5fF6814AD668C3e225246efA886AD5a", "base token address")
	fs.String("quote-token", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "quote token address")
	fs.String("price-feed", "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419", "Chainlink quote/USD aggregator address")
	fs.String("dead-wallet", "0x000000000000000000000000000000000000dEaD", "burn address")
	fs.String("sell-amount", "200000000", "base token amount sold in the quote")
	fs.String("price-scale-factor", "100000", "multiplier from quote to market cap")
	fs.String("total-supply", "20000000000000", "base token total supply")
	fs.Int("token-decimals", 18, "token decimals when not read on-chain")
	fs.Int("oracle-decimals", 8, "oracle answer decimals")
	fs.Bool("onchain-decimals", false, "read token and oracle decimals from the contracts")
	fs.Bool("include-pool-state", false, "also read slot0/liquidity and log them")
	fs.Bool("pin-block", true, "pin all reads of a run to one block")
}

func addStoreFlags(fs *pflag.FlagSet) {
	fs.String("store", "s3", "archive backend (s3, file, memory)")
	fs.String("bucket", "", "S3 bucket")
	fs.String("folder", "", "archive folder inside the bucket")
	fs.String("region", "us-east-1", "AWS region")
	fs.String("file-root", "./data", "root directory for store=file")
	fs.String("version", "v2", "archive file version suffix")
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.Bool("tolerate-archive-read-errors", false, "treat unreadable yearly archives as empty")
	fs.Duration("timeout", 0, "deadline for one run, 0 means none")
	fs.String("pg-dsn", "", "Postgres DSN for the snapshot mirror")
	fs.String("redis-addr", "", "Redis address for the run lock")
	fs.Duration("lock-ttl", 2*time.Minute, "run lock TTL")
	fs.String("pushgateway", "", "Prometheus Pushgateway URL")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
