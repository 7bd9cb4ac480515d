package crypto

import (
	"context"
	"time"

	"github.com/newthinker/cointools/internal/core"
)

// Query describes a single price lookup.
type Query struct {
	Exchange string    // cryptowatch only
	Symbol   string    // market, coin id or coin symbol depending on provider
	Time     time.Time // zero means current price
	Convert  string    // optional fiat code
	Fast     bool      // prefer a cheaper, granularity limited history query
}

// Provider defines the interface for cryptocurrency price sources
type Provider interface {
	// Name returns the provider identifier (e.g., "cryptowatch", "coincap")
	Name() string

	// FetchPrice answers a query with a data point. Providers without
	// historical data reject a non-zero Time with InvalidDateError.
	FetchPrice(ctx context.Context, q Query) (*core.DataPoint, error)
}

// RejectHistory returns an InvalidDateError when q asks for a past price.
func RejectHistory(provider string, q Query) error {
	if q.Time.IsZero() {
		return nil
	}
	return core.InputError(core.ErrInvalidDate, provider+" does not support historical prices")
}

// RejectConvert fails when q asks for a fiat conversion the provider cannot
// do. Unknown codes are reported as such before the missing capability.
func RejectConvert(provider string, q Query) error {
	if q.Convert == "" {
		return nil
	}
	code, err := NormalizeFiat(q.Convert)
	if err != nil {
		return err
	}
	return core.InputError(core.ErrInvalidFiatCurrency, provider+" cannot convert prices to "+code)
}
