package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shinacap/internal/model"
)

func TestTimestampRoundTrip(t *testing.T) {
	const stamp = "2024-05-06T07:08:09.120Z"
	ts, err := parseTimestamp(stamp)
	require.NoError(t, err)
	assert.Equal(t, stamp, formatTimestamp(ts))

	// pgx hands back TIMESTAMPTZ in the session zone.
	local := ts.In(time.FixedZone("UTC+2", 2*60*60))
	assert.Equal(t, stamp, formatTimestamp(local))
}

func TestUpsertSnapshotRejectsBadTimestamp(t *testing.T) {
	err := (&Store{}).UpsertSnapshot(context.Background(), "v2", model.MarketData{Timestamp: "yesterday"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse snapshot timestamp")
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.Error(t, err)
}
