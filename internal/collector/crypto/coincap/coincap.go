package coincap

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/core"
)

const (
	baseURL = "https://coincap.io"
	name    = "coincap"
)

// History endpoints exist for these periods, in days. The upstream windows
// are a little shorter than the nominal period, hence the two hour slack.
var periods = func() []crypto.Window {
	days := []int64{1, 7, 30, 90, 180, 365}
	table := make([]crypto.Window, len(days))
	for i, d := range days {
		table[i] = crypto.Window{Granularity: d, Lookback: crypto.Days(float64(d)) - 2*time.Hour}
	}
	return table
}()

var classifier = crypto.Classifier{
	Expect:    crypto.ShapeObject,
	NotFound:  core.KindUnknownCoin,
	EmptyKind: core.KindUnknownCoin,
}

// CoinCap implements the crypto Provider interface for coincap.io
type CoinCap struct {
	client  *crypto.Client
	baseURL string
	now     func() time.Time
}

// New creates a CoinCap provider with a default client
func New() *CoinCap {
	return NewWithClient(nil, "")
}

// NewWithClient creates a CoinCap provider sharing client. An empty base URL
// selects the public API.
func NewWithClient(client *crypto.Client, base string) *CoinCap {
	if client == nil {
		client = crypto.DefaultClient()
	}
	if base == "" {
		base = baseURL
	}
	return &CoinCap{client: client, baseURL: base, now: time.Now}
}

// NewWithBaseURL creates a CoinCap provider with custom base URL (for testing)
func NewWithBaseURL(url string) *CoinCap {
	return NewWithClient(nil, url)
}

func (c *CoinCap) Name() string {
	return name
}

// GetCurrentPrice fetches USD, EUR and BTC prices of a coin.
func (c *CoinCap) GetCurrentPrice(ctx context.Context, symbol string) (*core.DataPoint, error) {
	if err := crypto.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	resp, json, err := c.fetch(ctx, "/page/"+coinPath(symbol))
	if err != nil {
		return nil, err
	}

	var data core.DataPoint
	if data.USDPrice, err = crypto.Decimal(json.Get("price_usd")); err != nil {
		return nil, c.structureError(resp, err)
	}
	if data.EURPrice, err = crypto.Decimal(json.Get("price_eur")); err != nil {
		return nil, c.structureError(resp, err)
	}
	if data.BTCPrice, err = crypto.Decimal(json.Get("price_btc")); err != nil {
		return nil, c.structureError(resp, err)
	}

	if !data.HasPrice() {
		return nil, c.client.Fail(name, resp.Error(core.KindNoData, ""))
	}
	return &data, nil
}

// GetPrice returns the USD price closest to at. A zero time asks for the
// current price.
func (c *CoinCap) GetPrice(ctx context.Context, symbol string, at time.Time) (*core.DataPoint, error) {
	if err := crypto.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if at.IsZero() {
		return c.GetCurrentPrice(ctx, symbol)
	}

	now := c.now()
	if err := crypto.ValidateTime(at, now); err != nil {
		return nil, err
	}

	path := "/history/" + coinPath(symbol)
	if period, ok := crypto.SelectGranularity(periods, at, now); ok {
		path = fmt.Sprintf("/history/%dday/%s", period, coinPath(symbol))
	}

	resp, json, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	candles, err := parseHistory(json.Get("price"))
	if err != nil {
		return nil, c.structureError(resp, err)
	}

	best, ok := crypto.BestMatch([]crypto.Bucket{{Candles: candles}}, at.Unix()*1000, now.UnixMilli())
	if !ok || !best.Open.Valid {
		return nil, c.client.Fail(name, resp.Error(core.KindNoData, ""))
	}

	return &core.DataPoint{
		Time:     crypto.Unix(best.Time / 1000),
		USDPrice: best.Open,
	}, nil
}

// GetPriceAt is GetPrice with a time given as text.
func (c *CoinCap) GetPriceAt(ctx context.Context, symbol, at string) (*core.DataPoint, error) {
	if err := crypto.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	t, err := crypto.ParseTime(at)
	if err != nil {
		return nil, err
	}
	return c.GetPrice(ctx, symbol, t)
}

// FetchPrice answers a provider query. Prices come in USD, EUR and BTC only,
// so a convert code is rejected.
func (c *CoinCap) FetchPrice(ctx context.Context, q crypto.Query) (*core.DataPoint, error) {
	if err := crypto.RejectConvert(name, q); err != nil {
		return nil, err
	}
	return c.GetPrice(ctx, q.Symbol, q.Time)
}

func (c *CoinCap) fetch(ctx context.Context, path string) (*crypto.Response, *fastjson.Value, error) {
	resp, err := c.client.Get(ctx, name, c.baseURL+path)
	if err != nil {
		return nil, nil, c.client.Fail(name, err)
	}
	json, err := classifier.Classify(resp)
	if err != nil {
		return nil, nil, c.client.Fail(name, err)
	}
	return resp, json, nil
}

func (c *CoinCap) structureError(resp *crypto.Response, cause error) error {
	e := resp.Error(core.KindJSON, "")
	e.Cause = cause
	return c.client.Fail(name, e)
}

func coinPath(symbol string) string {
	return url.PathEscape(strings.ToUpper(symbol))
}

// parseHistory reads [[ms_timestamp, price], ...] into candles ordered by time.
func parseHistory(v *fastjson.Value) ([]core.Candle, error) {
	if v == nil || v.Type() != fastjson.TypeArray {
		return nil, fmt.Errorf("price history is not an array")
	}
	records, _ := v.Array()

	candles := make([]core.Candle, 0, len(records))
	for i, r := range records {
		pair, err := r.Array()
		if err != nil || len(pair) < 2 {
			return nil, fmt.Errorf("record %d: expected [timestamp, price]", i)
		}
		ts, ok := crypto.Int(pair[0])
		if !ok {
			return nil, fmt.Errorf("record %d: invalid timestamp", i)
		}
		price, err := crypto.Decimal(pair[1])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		candles = append(candles, core.Candle{Time: ts, Open: price, Close: price})
	}

	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Time < candles[j].Time })
	return candles, nil
}
