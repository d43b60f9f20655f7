package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shinacap/internal/model"
	"shinacap/internal/snapshot"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS market_snapshots (
	version          TEXT        NOT NULL,
	ts               TIMESTAMPTZ NOT NULL,
	mcap_eth         TEXT        NOT NULL,
	burnt_amount     TEXT        NOT NULL,
	base_balance     TEXT        NOT NULL,
	quote_balance    TEXT        NOT NULL,
	eth_usd          TEXT        NOT NULL,
	total_supply     TEXT        NOT NULL,
	usd_mcap         TEXT        NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (version, ts)
)`

// Store mirrors snapshots into Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the snapshot table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// UpsertSnapshot inserts or replaces the row for (version, timestamp).
func (s *Store) UpsertSnapshot(ctx context.Context, version string, data model.MarketData) error {
	ts, err := parseTimestamp(data.Timestamp)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO market_snapshots (
			version, ts, mcap_eth, burnt_amount, base_balance, quote_balance, eth_usd, total_supply, usd_mcap
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (version, ts)
		DO UPDATE SET
			mcap_eth = EXCLUDED.mcap_eth,
			burnt_amount = EXCLUDED.burnt_amount,
			base_balance = EXCLUDED.base_balance,
			quote_balance = EXCLUDED.quote_balance,
			eth_usd = EXCLUDED.eth_usd,
			total_supply = EXCLUDED.total_supply,
			usd_mcap = EXCLUDED.usd_mcap
	`,
		version,
		ts,
		data.MarketCapInBaseCurrency,
		data.BurntAmount,
		data.BaseTokenPoolBalance,
		data.QuoteTokenPoolBalance,
		data.USDPerQuoteCurrency,
		data.TotalSupply,
		data.USDMarketCap,
	)
	return err
}

// LatestSnapshot returns the newest mirrored snapshot for version.
func (s *Store) LatestSnapshot(ctx context.Context, version string) (model.MarketData, bool, error) {
	var (
		data model.MarketData
		ts   time.Time
	)
	row := s.pool.QueryRow(ctx, `
		SELECT ts, mcap_eth, burnt_amount, base_balance, quote_balance, eth_usd, total_supply, usd_mcap
		FROM market_snapshots WHERE version=$1 ORDER BY ts DESC LIMIT 1
	`, version)
	if err := row.Scan(
		&ts,
		&data.MarketCapInBaseCurrency,
		&data.BurntAmount,
		&data.BaseTokenPoolBalance,
		&data.QuoteTokenPoolBalance,
		&data.USDPerQuoteCurrency,
		&data.TotalSupply,
		&data.USDMarketCap,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MarketData{}, false, nil
		}
		return model.MarketData{}, false, err
	}
	data.Timestamp = formatTimestamp(ts)
	return data, true, nil
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse snapshot timestamp: %w", err)
	}
	return ts, nil
}

// formatTimestamp renders a stored timestamp the way the archive does.
func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(snapshot.TimestampLayout)
}
