package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"INFURA_PROJ_ID", "BUCKET_NAME", "BUCKET_FOLDER",
		"SHINACAP_INFURA_PROJECT_ID", "SHINACAP_BUCKET", "SHINACAP_FOLDER",
		"SHINACAP_RPC", "SHINACAP_VERSION", "SHINACAP_STORE",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Version != "v2" {
		t.Fatalf("version: got %q", cfg.Version)
	}
	if cfg.SellAmount != "200000000" || cfg.PriceScaleFactor != "100000" || cfg.TotalSupply != "20000000000000" {
		t.Fatalf("amount defaults: %+v", cfg)
	}
	if cfg.TokenDecimals != 18 || cfg.OracleDecimals != 8 {
		t.Fatalf("decimals: %d %d", cfg.TokenDecimals, cfg.OracleDecimals)
	}
	if !cfg.PinBlock || cfg.IncludePoolState || cfg.TolerateArchiveReadErrors {
		t.Fatalf("flag defaults: %+v", cfg)
	}
	if cfg.Store != StoreS3 || cfg.Region != "us-east-1" {
		t.Fatalf("store defaults: %q %q", cfg.Store, cfg.Region)
	}
	if cfg.LockTTL != 2*time.Minute {
		t.Fatalf("lock ttl: %s", cfg.LockTTL)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("INFURA_PROJ_ID", "abc123")
	t.Setenv("BUCKET_NAME", "shina-bucket")
	t.Setenv("BUCKET_FOLDER", "/mcap/")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InfuraProjectID != "abc123" || cfg.Bucket != "shina-bucket" {
		t.Fatalf("legacy env not bound: %+v", cfg)
	}
	if cfg.Folder != "mcap" {
		t.Fatalf("folder: got %q", cfg.Folder)
	}
	if got := cfg.Endpoint(); got != "https://mainnet.infura.io/v3/abc123" {
		t.Fatalf("endpoint: got %q", got)
	}
	if got := cfg.RedactedEndpoint(); strings.Contains(got, "abc123") {
		t.Fatalf("endpoint not redacted: %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHINACAP_VERSION", "v9")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("version", "", "")
	flags.String("rpc", "", "")
	if err := flags.Parse([]string{"--version=v3", "--rpc=http://localhost:8545/key"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Version != "v3" {
		t.Fatalf("version: got %q", cfg.Version)
	}
	if cfg.Endpoint() != "http://localhost:8545/key" {
		t.Fatalf("endpoint: got %q", cfg.Endpoint())
	}
	if cfg.RedactedEndpoint() != "http://localhost:8545/***" {
		t.Fatalf("redacted: got %q", cfg.RedactedEndpoint())
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "shinacap.yaml")
	body := "bucket: from-file\nfolder: snaps\ninfura-project-id: file-id\nstore: file\ninclude-pool-state: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bucket != "from-file" || cfg.Folder != "snaps" || cfg.Store != StoreFile || !cfg.IncludePoolState {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func validConfig() Config {
	return Config{
		InfuraProjectID:  "id",
		Bucket:           "bucket",
		Folder:           "folder",
		Store:            StoreS3,
		Pool:             "0x959C7D5706AC0B5a29F506a1019Ba7F2a1C70c70",
		Quoter:           "0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6",
		BaseToken:        "0x243cACb4D5fF6814AD668C3e225246efA886AD5a",
		QuoteToken:       "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		PriceFeed:        "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419",
		DeadWallet:       "0x000000000000000000000000000000000000dEaD",
		SellAmount:       "200000000",
		PriceScaleFactor: "100000",
		TotalSupply:      "20000000000000",
		Version:          "v2",
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "missing credential", mutate: func(c *Config) { c.InfuraProjectID = "" }, want: "infura project id"},
		{name: "rpc replaces credential", mutate: func(c *Config) { c.InfuraProjectID = ""; c.RPCURL = "http://node" }},
		{name: "missing bucket", mutate: func(c *Config) { c.Bucket = "" }, want: "bucket is required"},
		{name: "file store needs no bucket", mutate: func(c *Config) { c.Bucket = ""; c.Store = StoreFile; c.FileRoot = "/tmp/x" }},
		{name: "missing folder", mutate: func(c *Config) { c.Folder = "" }, want: "folder is required"},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "gcs" }, want: "unknown store"},
		{name: "bad address", mutate: func(c *Config) { c.Pool = "0x1234" }, want: "pool: invalid address"},
		{name: "zero sell amount", mutate: func(c *Config) { c.SellAmount = "0" }, want: "sell-amount"},
		{name: "garbage supply", mutate: func(c *Config) { c.TotalSupply = "lots" }, want: "total-supply"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, want: "timeout"},
		{name: "lock without ttl", mutate: func(c *Config) { c.RedisAddr = "localhost:6379" }, want: "lock ttl"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("error does not wrap ErrConfiguration: %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x000000000000000000000000000000000000dEaD ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr.Hex() != "0x000000000000000000000000000000000000dEaD" {
		t.Fatalf("address: got %s", addr.Hex())
	}
	if _, err := ParseAddress("dead"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestValidateStorage(t *testing.T) {
	cfg := validConfig()
	cfg.InfuraProjectID = ""
	if err := cfg.ValidateStorage(); err != nil {
		t.Fatalf("storage validation should ignore chain settings: %v", err)
	}
	cfg.Folder = ""
	if err := cfg.ValidateStorage(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
