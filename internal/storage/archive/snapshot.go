package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/newthinker/cointools/internal/core"
)

const snapshotRoot = "snapshots"

// Snapshot is one full price download written by the export command.
type Snapshot struct {
	ID       uuid.UUID      `json:"id"`
	Provider string         `json:"provider"`
	Convert  string         `json:"convert,omitempty"`
	TakenAt  time.Time      `json:"taken_at"`
	Coins    []SnapshotCoin `json:"coins"`
}

// SnapshotCoin is the archived form of core.CoinData.
type SnapshotCoin struct {
	Rank           int64               `json:"rank"`
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Symbol         string              `json:"symbol"`
	Slug           string              `json:"slug"`
	MarketCap      decimal.NullDecimal `json:"market_cap"`
	USDPrice       decimal.NullDecimal `json:"usd_price"`
	BTCPrice       decimal.NullDecimal `json:"btc_price"`
	ConvertedPrice decimal.NullDecimal `json:"converted_price"`
	LastUpdated    *time.Time          `json:"last_updated,omitempty"`
}

// NewSnapshot builds a snapshot with a fresh random ID.
func NewSnapshot(provider, convert string, takenAt time.Time, coins []core.CoinData) *Snapshot {
	s := &Snapshot{
		ID:       uuid.New(),
		Provider: provider,
		Convert:  convert,
		TakenAt:  takenAt.UTC(),
		Coins:    make([]SnapshotCoin, 0, len(coins)),
	}
	for _, c := range coins {
		s.Coins = append(s.Coins, SnapshotCoin{
			Rank:           c.Rank,
			ID:             c.NumericID,
			Name:           c.Name,
			Symbol:         c.Symbol,
			Slug:           c.TextID,
			MarketCap:      c.MarketCap,
			USDPrice:       c.USDPrice,
			BTCPrice:       c.BTCPrice,
			ConvertedPrice: c.ConvertedPrice,
			LastUpdated:    c.LastUpdated,
		})
	}
	return s
}

// Path returns the archive path, snapshots/<yyyy-mm-dd>/<id>.json, keyed by
// the UTC day the snapshot was taken.
func (s *Snapshot) Path() string {
	return path.Join(snapshotRoot, s.TakenAt.UTC().Format(time.DateOnly), s.ID.String()+".json")
}

// WriteSnapshot stores s and returns the path it was written to.
func WriteSnapshot(ctx context.Context, store Storage, s *Snapshot) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	p := s.Path()
	if err := store.Write(ctx, p, data); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return p, nil
}

// ReadSnapshot loads a snapshot previously written with WriteSnapshot.
func ReadSnapshot(ctx context.Context, store Storage, p string) (*Snapshot, error) {
	data, err := store.Read(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", p, err)
	}
	return &s, nil
}

// ListSnapshots returns the snapshot paths taken on the given day.
func ListSnapshots(ctx context.Context, store Storage, day time.Time) ([]string, error) {
	prefix := path.Join(snapshotRoot, day.UTC().Format(time.DateOnly))
	paths, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := paths[:0]
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") {
			out = append(out, p)
		}
	}
	return out, nil
}
