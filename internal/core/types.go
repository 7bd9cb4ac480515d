package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataPoint is a price observation returned by a provider. Providers fill
// only the fields their API reports; Time is nil for current prices.
type DataPoint struct {
	Price          decimal.NullDecimal
	USDPrice       decimal.NullDecimal
	EURPrice       decimal.NullDecimal
	BTCPrice       decimal.NullDecimal
	ConvertedPrice decimal.NullDecimal

	Time *time.Time

	// Cryptowatch API allowance
	APITimeSpent     *int64
	APITimeRemaining *int64
}

// IsCurrent reports whether the point carries no historical anchor.
func (d DataPoint) IsCurrent() bool {
	return d.Time == nil
}

// HasPrice checks if at least one price field is set
func (d DataPoint) HasPrice() bool {
	return d.Price.Valid || d.USDPrice.Valid || d.EURPrice.Valid || d.BTCPrice.Valid || d.ConvertedPrice.Valid
}

// Listing is a provider's static identity record for a coin.
type Listing struct {
	NumericID int64
	Name      string
	Symbol    string
	TextID    string // slug, used as lookup key
}

// CoinData is a listing together with its current market data.
type CoinData struct {
	Listing

	Rank           int64
	MarketCap      decimal.NullDecimal
	USDPrice       decimal.NullDecimal
	BTCPrice       decimal.NullDecimal
	ConvertedPrice decimal.NullDecimal
	LastUpdated    *time.Time
}

// Candle is one OHLCV record of a time series. Any price may be null when
// the provider sent null.
type Candle struct {
	Time   int64 // unix timestamp at the provider's resolution
	Open   decimal.NullDecimal
	High   decimal.NullDecimal
	Low    decimal.NullDecimal
	Close  decimal.NullDecimal
	Volume decimal.NullDecimal
}
