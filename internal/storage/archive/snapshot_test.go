package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/cointools/internal/core"
)

func sampleCoins() []core.CoinData {
	updated := time.Unix(1527070772, 0)
	return []core.CoinData{
		{
			Listing:        core.Listing{NumericID: 1, Name: "Bitcoin", Symbol: "BTC", TextID: "bitcoin"},
			Rank:           1,
			MarketCap:      decimal.NewNullDecimal(decimal.RequireFromString("135767215740")),
			USDPrice:       decimal.NewNullDecimal(decimal.RequireFromString("7975.65")),
			BTCPrice:       decimal.NewNullDecimal(decimal.NewFromInt(1)),
			ConvertedPrice: decimal.NewNullDecimal(decimal.RequireFromString("6792.17")),
			LastUpdated:    &updated,
		},
		{
			Listing:  core.Listing{NumericID: 1027, Name: "Ethereum", Symbol: "ETH", TextID: "ethereum"},
			Rank:     2,
			USDPrice: decimal.NewNullDecimal(decimal.RequireFromString("598.66")),
		},
	}
}

func TestSnapshot_Path(t *testing.T) {
	taken := time.Date(2018, 5, 23, 23, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	s := NewSnapshot("coinmarketcap", "EUR", taken, nil)

	assert.Equal(t, "snapshots/2018-05-23/"+s.ID.String()+".json", s.Path())
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.NotNil(t, s.Coins)
}

func TestSnapshot_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := NewSnapshot("coinmarketcap", "", now, nil)
	b := NewSnapshot("coinmarketcap", "", now, nil)
	assert.NotEqual(t, a.Path(), b.Path())
}

func TestWriteReadSnapshot(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	taken := time.Date(2018, 5, 23, 10, 0, 0, 0, time.UTC)
	s := NewSnapshot("coinmarketcap", "EUR", taken, sampleCoins())

	p, err := WriteSnapshot(ctx, store, s)
	require.NoError(t, err)
	assert.Equal(t, s.Path(), p)

	got, err := ReadSnapshot(ctx, store, p)
	require.NoError(t, err)

	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "coinmarketcap", got.Provider)
	assert.Equal(t, "EUR", got.Convert)
	assert.True(t, taken.Equal(got.TakenAt))
	require.Len(t, got.Coins, 2)

	btc := got.Coins[0]
	assert.Equal(t, "bitcoin", btc.Slug)
	assert.True(t, btc.USDPrice.Valid)
	assert.True(t, btc.USDPrice.Decimal.Equal(decimal.RequireFromString("7975.65")))
	require.NotNil(t, btc.LastUpdated)
	assert.Equal(t, int64(1527070772), btc.LastUpdated.Unix())

	eth := got.Coins[1]
	assert.False(t, eth.MarketCap.Valid)
	assert.False(t, eth.ConvertedPrice.Valid)
	assert.Nil(t, eth.LastUpdated)
}

func TestWriteSnapshot_NullPricesEncodeAsNull(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	s := NewSnapshot("coinmarketcap", "", time.Now(), sampleCoins()[1:])
	p, err := WriteSnapshot(ctx, store, s)
	require.NoError(t, err)

	data, err := store.Read(ctx, p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"market_cap": null`)
	assert.NotContains(t, string(data), "last_updated")
}

func TestListSnapshots(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	day := time.Date(2018, 5, 23, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		_, err := WriteSnapshot(ctx, store, NewSnapshot("coinmarketcap", "", day, nil))
		require.NoError(t, err)
	}
	_, err = WriteSnapshot(ctx, store, NewSnapshot("coinmarketcap", "", day.AddDate(0, 0, 1), nil))
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "snapshots/2018-05-23/notes.txt", []byte("x")))

	paths, err := ListSnapshots(ctx, store, day)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	for _, p := range paths {
		assert.True(t, strings.HasPrefix(p, "snapshots/2018-05-23/"), p)
	}

	paths, err = ListSnapshots(ctx, store, day.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestReadSnapshot_Invalid(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ReadSnapshot(ctx, store, "snapshots/missing.json")
	assert.Error(t, err)

	require.NoError(t, store.Write(ctx, "snapshots/bad.json", []byte("{")))
	_, err = ReadSnapshot(ctx, store, "snapshots/bad.json")
	assert.ErrorContains(t, err, "decoding snapshot")
}
