package coinmarketcap

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/core"
)

// envelope classifies the {data, metadata} wrapper every endpoint uses.
var envelope = crypto.Classifier{
	Expect:   crypto.ShapeObject,
	Embedded: metadataError,
}

// metadataError reads metadata.error, which the API sets on failed calls.
func metadataError(v *fastjson.Value) (string, bool) {
	e := v.Get("metadata", "error")
	if !crypto.Present(e) || e.Type() == fastjson.TypeFalse {
		return "", false
	}
	if s, ok := crypto.String(e); ok {
		return s, true
	}
	return e.String(), true
}

// parseEnvelope classifies resp and returns its data member, which must be
// of the given type.
func parseEnvelope(resp *crypto.Response, c crypto.Classifier, data fastjson.Type) (*fastjson.Value, error) {
	json, err := c.Classify(resp)
	if err != nil {
		return nil, err
	}
	if !crypto.Present(json.Get("metadata")) {
		return nil, resp.Error(core.KindJSON, "")
	}
	d := json.Get("data")
	if d == nil || d.Type() != data {
		return nil, resp.Error(core.KindJSON, "")
	}
	return d, nil
}

func parseListing(v *fastjson.Value) (core.Listing, error) {
	if v.Type() != fastjson.TypeObject {
		return core.Listing{}, errors.New("invalid listing record")
	}

	id, ok := crypto.Int(v.Get("id"))
	if !ok {
		return core.Listing{}, errors.New("missing id field")
	}

	var l core.Listing
	l.NumericID = id
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"name", &l.Name},
		{"symbol", &l.Symbol},
		{"website_slug", &l.TextID},
	} {
		s, ok := crypto.String(v.Get(f.key))
		if !ok {
			return core.Listing{}, fmt.Errorf("missing %s field", f.key)
		}
		*f.dst = s
	}
	return l, nil
}

// parseCoinData reads a ticker record. code is the requested fiat currency,
// empty when BTC prices were requested.
func parseCoinData(v *fastjson.Value, code string) (*core.CoinData, error) {
	listing, err := parseListing(v)
	if err != nil {
		return nil, err
	}
	coin := &core.CoinData{Listing: listing}

	rank := v.Get("rank")
	if !crypto.Present(rank) {
		return nil, errors.New("missing rank field")
	}
	if coin.Rank, _ = crypto.Int(rank); coin.Rank <= 0 {
		return nil, errors.New("invalid rank field")
	}

	quotes := v.Get("quotes")
	if !crypto.Present(quotes) {
		return nil, errors.New("missing quotes field")
	}
	if quotes.Type() != fastjson.TypeObject {
		return nil, errors.New("invalid quotes field")
	}

	usd := quotes.Get("USD")
	if !crypto.Present(usd) {
		return nil, errors.New("missing USD quote info")
	}
	if usd.Type() != fastjson.TypeObject {
		return nil, errors.New("invalid USD quote info")
	}
	if coin.USDPrice, err = crypto.Decimal(usd.Get("price")); err != nil {
		return nil, fmt.Errorf("invalid USD price: %w", err)
	}
	if coin.MarketCap, err = crypto.Decimal(usd.Get("market_cap")); err != nil {
		return nil, fmt.Errorf("invalid market cap: %w", err)
	}

	quote := quoteCode(code)
	if q := quotes.Get(quote); crypto.Present(q) {
		if q.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("invalid %s quote info", quote)
		}
		price, err := crypto.Decimal(q.Get("price"))
		if err != nil {
			return nil, fmt.Errorf("invalid %s price: %w", quote, err)
		}
		if code == "" {
			coin.BTCPrice = price
		} else {
			coin.ConvertedPrice = price
		}
	}

	if ts := crypto.OptionalInt(v.Get("last_updated")); ts != nil {
		coin.LastUpdated = crypto.Unix(*ts)
	}
	return coin, nil
}
