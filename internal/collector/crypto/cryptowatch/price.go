package cryptowatch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/core"
)

// How far back each OHLC period (in seconds) is expected to reach. The API
// does not guarantee these; they only pick a cheaper query.
var windows = []crypto.Window{
	{Granularity: 60, Lookback: crypto.Days(3)},
	{Granularity: 180, Lookback: crypto.Days(10)},
	{Granularity: 300, Lookback: crypto.Days(15)},
	{Granularity: 900, Lookback: crypto.Days(60)},
	{Granularity: 1800, Lookback: crypto.Days(120)},
	{Granularity: 3600, Lookback: crypto.Days(240)},
	{Granularity: 7200, Lookback: crypto.Days(365)},
	{Granularity: 14400, Lookback: crypto.Days(547)},
	{Granularity: 21600, Lookback: crypto.Days(730)},
	{Granularity: 43200, Lookback: crypto.Days(1095)},
	{Granularity: 86400, Lookback: crypto.Days(1460)},
}

var priceClassifier = crypto.Classifier{
	Expect:   crypto.ShapeObject,
	NotFound: core.KindUnknownCoin,
}

// GetCurrentPrice fetches the last price of a market.
func (c *Cryptowatch) GetCurrentPrice(ctx context.Context, exchange, market string) (*core.DataPoint, error) {
	if err := validateMarket(exchange, market); err != nil {
		return nil, err
	}

	resp, result, allowance, err := c.fetchResult(ctx, marketPath(exchange, market)+"/price")
	if err != nil {
		return nil, err
	}

	price, err := crypto.Decimal(result.Get("price"))
	if err != nil {
		return nil, c.structureError(resp, err)
	}
	if !price.Valid {
		return nil, c.client.Fail(name, resp.Error(core.KindNoData, ""))
	}

	data := withAllowance(allowance)
	data.Price = price
	return data, nil
}

// GetPrice returns the price closest to at, searching every OHLC period
// the API returns. A zero time asks for the current price.
func (c *Cryptowatch) GetPrice(ctx context.Context, exchange, market string, at time.Time) (*core.DataPoint, error) {
	return c.getPrice(ctx, exchange, market, at, false)
}

// GetPriceFast is like GetPrice but asks only for the finest period
// expected to still cover at. Times too old for any period fall back to
// GetPrice.
func (c *Cryptowatch) GetPriceFast(ctx context.Context, exchange, market string, at time.Time) (*core.DataPoint, error) {
	return c.getPrice(ctx, exchange, market, at, true)
}

// GetPriceAt is GetPrice with a time given as text.
func (c *Cryptowatch) GetPriceAt(ctx context.Context, exchange, market, at string) (*core.DataPoint, error) {
	t, err := parseAt(exchange, market, at)
	if err != nil {
		return nil, err
	}
	return c.GetPrice(ctx, exchange, market, t)
}

// GetPriceFastAt is GetPriceFast with a time given as text.
func (c *Cryptowatch) GetPriceFastAt(ctx context.Context, exchange, market, at string) (*core.DataPoint, error) {
	t, err := parseAt(exchange, market, at)
	if err != nil {
		return nil, err
	}
	return c.GetPriceFast(ctx, exchange, market, t)
}

// FetchPrice answers a provider query. Prices are in the market's quote
// currency, so a convert code is rejected.
func (c *Cryptowatch) FetchPrice(ctx context.Context, q crypto.Query) (*core.DataPoint, error) {
	if err := crypto.RejectConvert(name, q); err != nil {
		return nil, err
	}
	return c.getPrice(ctx, q.Exchange, q.Symbol, q.Time, q.Fast)
}

func (c *Cryptowatch) getPrice(ctx context.Context, exchange, market string, at time.Time, fast bool) (*core.DataPoint, error) {
	if err := validateMarket(exchange, market); err != nil {
		return nil, err
	}
	if at.IsZero() {
		return c.GetCurrentPrice(ctx, exchange, market)
	}

	now := c.now()
	if err := crypto.ValidateTime(at, now); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/ohlc?after=%d", marketPath(exchange, market), at.Unix())
	if fast {
		if period, ok := crypto.SelectGranularity(windows, at, now); ok {
			path += "&periods=" + strconv.FormatInt(period, 10)
		}
	}

	resp, result, allowance, err := c.fetchResult(ctx, path)
	if err != nil {
		return nil, err
	}

	buckets, err := parseBuckets(result)
	if err != nil {
		return nil, c.structureError(resp, err)
	}

	best, ok := crypto.BestMatch(buckets, at.Unix(), now.Unix())
	if !ok || !best.Open.Valid {
		return nil, c.client.Fail(name, resp.Error(core.KindNoData, "No price data returned"))
	}

	data := withAllowance(allowance)
	data.Price = best.Open
	data.Time = crypto.Unix(best.Time)
	return data, nil
}

// fetchResult returns the result and allowance objects of a market response.
func (c *Cryptowatch) fetchResult(ctx context.Context, path string) (*crypto.Response, *fastjson.Value, *fastjson.Value, error) {
	resp, json, err := c.fetch(ctx, path, priceClassifier)
	if err != nil {
		return nil, nil, nil, err
	}

	result, allowance := json.Get("result"), json.Get("allowance")
	if result == nil || result.Type() != fastjson.TypeObject ||
		allowance == nil || allowance.Type() != fastjson.TypeObject {
		return nil, nil, nil, c.client.Fail(name, resp.Error(core.KindJSON, ""))
	}
	return resp, result, allowance, nil
}

func withAllowance(allowance *fastjson.Value) *core.DataPoint {
	return &core.DataPoint{
		APITimeSpent:     crypto.OptionalInt(allowance.Get("cost")),
		APITimeRemaining: crypto.OptionalInt(allowance.Get("remaining")),
	}
}

// parseBuckets reads {"<period>": [[t, o, h, l, c, v], ...], ...}. Null
// periods are skipped.
func parseBuckets(result *fastjson.Value) ([]crypto.Bucket, error) {
	obj, _ := result.Object()

	var (
		buckets []crypto.Bucket
		err     error
	)
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if err != nil || v.Type() == fastjson.TypeNull {
			return
		}
		period, perr := strconv.ParseInt(string(key), 10, 64)
		if perr != nil {
			err = fmt.Errorf("invalid period %q", key)
			return
		}
		candles, cerr := parseCandles(v)
		if cerr != nil {
			err = fmt.Errorf("period %d: %w", period, cerr)
			return
		}
		buckets = append(buckets, crypto.Bucket{Granularity: period, Candles: candles})
	})
	return buckets, err
}

func parseCandles(v *fastjson.Value) ([]core.Candle, error) {
	records, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("expected a list of records")
	}

	candles := make([]core.Candle, 0, len(records))
	for i, r := range records {
		fields, err := r.Array()
		if err != nil || len(fields) < 2 {
			return nil, fmt.Errorf("record %d: expected [time, open, ...]", i)
		}
		ts, ok := crypto.Int(fields[0])
		if !ok {
			return nil, fmt.Errorf("record %d: invalid timestamp", i)
		}

		candle := core.Candle{Time: ts}
		dst := []*decimal.NullDecimal{&candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume}
		for j, d := range dst {
			if j+1 >= len(fields) {
				break
			}
			if *d, err = crypto.Decimal(fields[j+1]); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func validateMarket(exchange, market string) error {
	if err := crypto.ValidateExchange(exchange); err != nil {
		return err
	}
	return crypto.ValidateSymbol(market)
}

func parseAt(exchange, market, at string) (time.Time, error) {
	if err := validateMarket(exchange, market); err != nil {
		return time.Time{}, err
	}
	return crypto.ParseTime(at)
}

func marketPath(exchange, market string) string {
	return "/markets/" + url.PathEscape(exchange) + "/" + url.PathEscape(market)
}
