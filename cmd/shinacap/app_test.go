package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shinacap/internal/config"
	"shinacap/internal/model"
	"shinacap/internal/storage/file"
	"shinacap/internal/storage/memory"
)

func TestNewObjectStore(t *testing.T) {
	ctx := context.Background()

	store, err := newObjectStore(ctx, config.Config{Store: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)

	store, err = newObjectStore(ctx, config.Config{Store: config.StoreFile, FileRoot: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, store)

	_, err = newObjectStore(ctx, config.Config{Store: "gcs"})
	require.True(t, errors.Is(err, config.ErrConfiguration))
}

func TestNewArchiveKeys(t *testing.T) {
	cfg := config.Config{Folder: "mcap", Version: "v2"}
	w := newArchive(memory.NewStore(), cfg, nil)
	assert.Equal(t, "mcap/latestv2.json", w.LatestKey())
	assert.Equal(t, "mcap/2025v2.json", w.YearKey(2025))
}

func TestNewArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Folder: "mcap", Version: "v2"}
	w := newArchive(file.NewStore(t.TempDir()), cfg, nil)

	rec := model.MarketData{MarketCapInBaseCurrency: "1", Timestamp: "2025-03-01T00:00:00.000Z"}
	_, err := w.Persist(ctx, rec)
	require.NoError(t, err)

	got, err := w.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = newLogger("loud")
	require.Error(t, err)
}
