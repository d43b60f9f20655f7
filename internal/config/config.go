package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrConfiguration marks a missing or invalid setting.
var ErrConfiguration = errors.New("configuration error")

// Store backends.
const (
	StoreS3     = "s3"
	StoreFile   = "file"
	StoreMemory = "memory"
)

const infuraURLPrefix = "https://mainnet.infura.io/v3/"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	InfuraProjectID string

	Bucket   string
	Folder   string
	Region   string
	Store    string
	FileRoot string

	Pool       string
	Quoter     string
	BaseToken  string
	QuoteToken string
	PriceFeed  string
	DeadWallet string

	SellAmount       string
	PriceScaleFactor string
	TotalSupply      string
	TokenDecimals    uint8
	OracleDecimals   uint8
	Version          string

	IncludePoolState          bool
	OnchainDecimals           bool
	PinBlock                  bool
	TolerateArchiveReadErrors bool
	Timeout                   time.Duration

	PGDSN       string
	RedisAddr   string
	LockTTL     time.Duration
	Pushgateway string

	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHINACAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Names used by the original deployment.
	legacy := map[string]string{
		"infura-project-id": "INFURA_PROJ_ID",
		"bucket":            "BUCKET_NAME",
		"folder":            "BUCKET_FOLDER",
	}
	for key, env := range legacy {
		prefixed := "SHINACAP_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("region", "us-east-1")
	v.SetDefault("store", StoreS3)
	v.SetDefault("file-root", "./data")
	v.SetDefault("pool", "0x959C7D5706AC0B5a29F506a1019Ba7F2a1C70c70")
	v.SetDefault("quoter", "0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6")
	v.SetDefault("base-token", "0x243cACb4D5fF6814AD668C3e225246efA886AD5a")
	v.SetDefault("quote-token", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("price-feed", "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419")
	v.SetDefault("dead-wallet", "0x000000000000000000000000000000000000dEaD")
	v.SetDefault("sell-amount", "200000000")
	v.SetDefault("price-scale-factor", "100000")
	v.SetDefault("total-supply", "20000000000000")
	v.SetDefault("token-decimals", 18)
	v.SetDefault("oracle-decimals", 8)
	v.SetDefault("version", "v2")
	v.SetDefault("include-pool-state", false)
	v.SetDefault("onchain-decimals", false)
	v.SetDefault("pin-block", true)
	v.SetDefault("tolerate-archive-read-errors", false)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("lock-ttl", 2*time.Minute)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	tokenDecimals, err := getUint8(v, "token-decimals")
	if err != nil {
		return Config{}, err
	}
	oracleDecimals, err := getUint8(v, "oracle-decimals")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:                    strings.TrimSpace(v.GetString("rpc")),
		InfuraProjectID:           strings.TrimSpace(v.GetString("infura-project-id")),
		Bucket:                    strings.TrimSpace(v.GetString("bucket")),
		Folder:                    strings.Trim(strings.TrimSpace(v.GetString("folder")), "/"),
		Region:                    v.GetString("region"),
		Store:                     strings.ToLower(v.GetString("store")),
		FileRoot:                  v.GetString("file-root"),
		Pool:                      v.GetString("pool"),
		Quoter:                    v.GetString("quoter"),
		BaseToken:                 v.GetString("base-token"),
		QuoteToken:                v.GetString("quote-token"),
		PriceFeed:                 v.GetString("price-feed"),
		DeadWallet:                v.GetString("dead-wallet"),
		SellAmount:                v.GetString("sell-amount"),
		PriceScaleFactor:          v.GetString("price-scale-factor"),
		TotalSupply:               v.GetString("total-supply"),
		TokenDecimals:             tokenDecimals,
		OracleDecimals:            oracleDecimals,
		Version:                   v.GetString("version"),
		IncludePoolState:          v.GetBool("include-pool-state"),
		OnchainDecimals:           v.GetBool("onchain-decimals"),
		PinBlock:                  v.GetBool("pin-block"),
		TolerateArchiveReadErrors: v.GetBool("tolerate-archive-read-errors"),
		Timeout:                   v.GetDuration("timeout"),
		PGDSN:                     v.GetString("pg-dsn"),
		RedisAddr:                 v.GetString("redis-addr"),
		LockTTL:                   v.GetDuration("lock-ttl"),
		Pushgateway:               v.GetString("pushgateway"),
		LogLevel:                  v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate fails fast on anything that would otherwise surface mid-run.
func (c Config) Validate() error {
	problems := c.storageProblems()

	if c.RPCURL == "" && c.InfuraProjectID == "" {
		problems = append(problems, "infura project id (or rpc url) is required")
	}

	for name, value := range map[string]string{
		"pool":        c.Pool,
		"quoter":      c.Quoter,
		"base-token":  c.BaseToken,
		"quote-token": c.QuoteToken,
		"price-feed":  c.PriceFeed,
		"dead-wallet": c.DeadWallet,
	} {
		if _, err := ParseAddress(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}

	for name, value := range map[string]string{
		"sell-amount":        c.SellAmount,
		"price-scale-factor": c.PriceScaleFactor,
		"total-supply":       c.TotalSupply,
	} {
		if _, err := parsePositive(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if c.Timeout < 0 {
		problems = append(problems, "timeout must not be negative")
	}
	if c.RedisAddr != "" && c.LockTTL <= 0 {
		problems = append(problems, "lock ttl must be positive")
	}

	return joinProblems(problems)
}

// ValidateStorage checks only the archive location, for commands that never touch the chain.
func (c Config) ValidateStorage() error {
	return joinProblems(c.storageProblems())
}

func (c Config) storageProblems() []string {
	var problems []string
	if c.Folder == "" {
		problems = append(problems, "folder is required")
	}
	switch c.Store {
	case StoreS3:
		if c.Bucket == "" {
			problems = append(problems, "bucket is required")
		}
	case StoreFile:
		if c.FileRoot == "" {
			problems = append(problems, "file root is required for file store")
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown store %q", c.Store))
	}
	if c.Version == "" {
		problems = append(problems, "version is required")
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
}

// Endpoint returns the RPC URL, derived from the Infura project id when not set explicitly.
func (c Config) Endpoint() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return infuraURLPrefix + c.InfuraProjectID
}

// RedactedEndpoint hides the project id for logging.
func (c Config) RedactedEndpoint() string {
	if c.RPCURL != "" {
		return redact(c.RPCURL)
	}
	return infuraURLPrefix + "***"
}

// SellAmountValue returns the parsed sell amount.
func (c Config) SellAmountValue() decimal.Decimal {
	return decimal.RequireFromString(c.SellAmount)
}

// PriceScaleFactorValue returns the parsed price scale factor.
func (c Config) PriceScaleFactorValue() decimal.Decimal {
	return decimal.RequireFromString(c.PriceScaleFactor)
}

// TotalSupplyValue returns the parsed total supply.
func (c Config) TotalSupplyValue() decimal.Decimal {
	return decimal.RequireFromString(c.TotalSupply)
}

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// MustAddress is ParseAddress for values already checked by Validate.
func MustAddress(input string) common.Address {
	addr, err := ParseAddress(input)
	if err != nil {
		panic(err)
	}
	return addr
}

func parsePositive(input string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q", input)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("must be positive, got %s", input)
	}
	return d, nil
}

func getUint8(v *viper.Viper, key string) (uint8, error) {
	val := v.GetInt(key)
	if val < 0 || val > 255 {
		return 0, fmt.Errorf("%w: %s out of range: %d", ErrConfiguration, key, val)
	}
	return uint8(val), nil
}

func redact(raw string) string {
	idx := strings.LastIndex(raw, "/")
	if idx < len("https://") || idx == len(raw)-1 {
		return raw
	}
	return raw[:idx+1] + "***"
}
