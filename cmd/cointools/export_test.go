package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/cointools/internal/config"
	"github.com/newthinker/cointools/internal/core"
	"github.com/newthinker/cointools/internal/storage/archive"
)

func TestPrintSnapshots(t *testing.T) {
	store, err := openArchive(config.ArchiveConfig{Type: "localfs", Path: filepath.Join(t.TempDir(), "archive")})
	require.NoError(t, err)
	ctx := context.Background()

	taken := time.Date(2018, 5, 23, 10, 30, 0, 0, time.UTC)
	coins := []core.CoinData{
		{Listing: core.Listing{NumericID: 1, Symbol: "BTC", TextID: "bitcoin"}, Rank: 1},
		{Listing: core.Listing{NumericID: 1027, Symbol: "ETH", TextID: "ethereum"}, Rank: 2},
	}
	path, err := archive.WriteSnapshot(ctx, store, archive.NewSnapshot("coinmarketcap", "EUR", taken, coins))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSnapshots(ctx, &buf, store, taken))
	out := buf.String()
	assert.Contains(t, out, "2018-05-23 10:30:00")
	assert.Contains(t, out, "coinmarketcap")
	assert.Contains(t, out, "EUR")
	assert.Contains(t, out, path)

	buf.Reset()
	require.NoError(t, printSnapshots(ctx, &buf, store, taken.AddDate(0, 0, 1)))
	assert.Equal(t, "No snapshots on 2018-05-24.\n", buf.String())
}

func TestOpenArchive_UnknownType(t *testing.T) {
	_, err := openArchive(config.ArchiveConfig{Type: "ftp"})
	assert.Error(t, err)
}
