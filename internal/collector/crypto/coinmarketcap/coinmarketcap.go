package coinmarketcap

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/core"
)

const (
	baseURL  = "https://api.coinmarketcap.com"
	name     = "coinmarketcap"
	pageSize = 100
)

// CoinMarketCap implements the crypto Provider interface for the
// CoinMarketCap v2 public API. Listings are loaded once and memoized until
// LoadListings is called again.
type CoinMarketCap struct {
	client  *crypto.Client
	baseURL string

	mu        sync.Mutex
	idMap     map[string]core.Listing
	symbolMap map[string]core.Listing
}

// New creates a CoinMarketCap provider with a default client
func New() *CoinMarketCap {
	return NewWithClient(nil, "")
}

// NewWithClient creates a CoinMarketCap provider sharing client. An empty
// base URL selects the public API.
func NewWithClient(client *crypto.Client, base string) *CoinMarketCap {
	if client == nil {
		client = crypto.DefaultClient()
	}
	if base == "" {
		base = baseURL
	}
	return &CoinMarketCap{client: client, baseURL: base}
}

// NewWithBaseURL creates a CoinMarketCap provider with custom base URL (for testing)
func NewWithBaseURL(url string) *CoinMarketCap {
	return NewWithClient(nil, url)
}

func (c *CoinMarketCap) Name() string {
	return name
}

// LoadListings fetches all listings and replaces both lookup maps. The maps
// are left untouched when anything fails. It returns the listing count.
func (c *CoinMarketCap) LoadListings(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadListings(ctx)
}

func (c *CoinMarketCap) loadListings(ctx context.Context) (int, error) {
	resp, err := c.client.Get(ctx, name, c.baseURL+"/v2/listings/")
	if err != nil {
		return 0, c.client.Fail(name, err)
	}

	data, err := parseEnvelope(resp, envelope, fastjson.TypeArray)
	if err != nil {
		return 0, c.client.Fail(name, err)
	}
	records, _ := data.Array()

	ids := make(map[string]core.Listing, len(records))
	symbols := make(map[string]core.Listing, len(records))
	for _, record := range records {
		listing, err := parseListing(record)
		if err != nil {
			return 0, c.client.Fail(name, resp.Error(core.KindJSON, err.Error()))
		}
		ids[listing.TextID] = listing
		symbols[listing.Symbol] = listing
	}

	c.idMap, c.symbolMap = ids, symbols
	c.client.RecordCacheLoad(name, "listings")
	return len(records), nil
}

// IDMap returns listings keyed by text id, loading them on first use. The
// returned map must not be modified.
func (c *CoinMarketCap) IDMap(ctx context.Context) (map[string]core.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idMap == nil {
		if _, err := c.loadListings(ctx); err != nil {
			return nil, err
		}
	}
	return c.idMap, nil
}

// SymbolMap returns listings keyed by symbol, loading them on first use. The
// returned map must not be modified.
func (c *CoinMarketCap) SymbolMap(ctx context.Context) (map[string]core.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.symbolMap == nil {
		if _, err := c.loadListings(ctx); err != nil {
			return nil, err
		}
	}
	return c.symbolMap, nil
}

// GetPrice fetches market data for a coin identified by its text id
// (e.g. "bitcoin"). An empty convert code means BTC.
func (c *CoinMarketCap) GetPrice(ctx context.Context, textID, convert string) (*core.CoinData, error) {
	return c.getPriceFrom(ctx, textID, convert, c.IDMap)
}

// GetPriceBySymbol is GetPrice keyed by coin symbol (e.g. "BTC").
func (c *CoinMarketCap) GetPriceBySymbol(ctx context.Context, symbol, convert string) (*core.CoinData, error) {
	return c.getPriceFrom(ctx, symbol, convert, c.SymbolMap)
}

func (c *CoinMarketCap) getPriceFrom(
	ctx context.Context,
	key, convert string,
	lookup func(context.Context) (map[string]core.Listing, error),
) (*core.CoinData, error) {
	if err := crypto.ValidateSymbol(key); err != nil {
		return nil, err
	}
	code, err := normalizeConvert(convert)
	if err != nil {
		return nil, err
	}

	listings, err := lookup(ctx)
	if err != nil {
		return nil, err
	}
	listing, ok := listings[key]
	if !ok {
		return nil, core.InputError(core.ErrInvalidSymbol, fmt.Sprintf("Unknown coin: %s", key))
	}

	return c.fetchTicker(ctx, listing, code)
}

// GetPriceForListing fetches market data for an already known listing.
func (c *CoinMarketCap) GetPriceForListing(ctx context.Context, listing core.Listing, convert string) (*core.CoinData, error) {
	code, err := normalizeConvert(convert)
	if err != nil {
		return nil, err
	}
	return c.fetchTicker(ctx, listing, code)
}

func (c *CoinMarketCap) fetchTicker(ctx context.Context, listing core.Listing, code string) (*core.CoinData, error) {
	u := fmt.Sprintf("%s/v2/ticker/%d/?convert=%s", c.baseURL, listing.NumericID, quoteCode(code))
	resp, err := c.client.Get(ctx, name, u)
	if err != nil {
		return nil, c.client.Fail(name, err)
	}

	classifier := envelope
	classifier.NotFound = core.KindUnknownCoin
	record, err := parseEnvelope(resp, classifier, fastjson.TypeObject)
	if err != nil {
		return nil, c.client.Fail(name, err)
	}

	coin, err := parseCoinData(record, code)
	if err != nil {
		return nil, c.client.Fail(name, resp.Error(core.KindJSON, err.Error()))
	}
	return coin, nil
}

// GetAllPrices downloads the full ticker one page at a time. onBatch, when
// not nil, receives every non-empty page as it arrives. The result is
// sorted by rank.
func (c *CoinMarketCap) GetAllPrices(ctx context.Context, convert string, onBatch func([]core.CoinData)) ([]core.CoinData, error) {
	code, err := normalizeConvert(convert)
	if err != nil {
		return nil, err
	}

	var coins []core.CoinData
	for {
		batch, err := c.fetchTickerPage(ctx, code, len(coins))
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		if onBatch != nil {
			onBatch(batch)
		}
		coins = append(coins, batch...)
	}

	sort.SliceStable(coins, func(i, j int) bool { return coins[i].Rank < coins[j].Rank })
	return coins, nil
}

// fetchTickerPage returns an empty batch at the end of the data.
func (c *CoinMarketCap) fetchTickerPage(ctx context.Context, code string, start int) ([]core.CoinData, error) {
	u := fmt.Sprintf("%s/v2/ticker/?structure=array&sort=id&limit=%d&convert=%s&start=%d",
		c.baseURL, pageSize, quoteCode(code), start)
	resp, err := c.client.Get(ctx, name, u)
	if err != nil {
		return nil, c.client.Fail(name, err)
	}
	c.client.RecordPage(name)

	if resp.Class() == crypto.StatusNotFound {
		return nil, nil
	}

	data, err := parseEnvelope(resp, envelope, fastjson.TypeArray)
	if err != nil {
		return nil, c.client.Fail(name, err)
	}
	records, _ := data.Array()

	batch := make([]core.CoinData, 0, len(records))
	for _, record := range records {
		coin, err := parseCoinData(record, code)
		if err != nil {
			return nil, c.client.Fail(name, resp.Error(core.KindJSON, err.Error()))
		}
		batch = append(batch, *coin)
	}
	return batch, nil
}

// FetchPrice answers a provider query. The symbol may be a text id or a
// coin symbol; text ids win when both match.
func (c *CoinMarketCap) FetchPrice(ctx context.Context, q crypto.Query) (*core.DataPoint, error) {
	if err := crypto.RejectHistory(name, q); err != nil {
		return nil, err
	}
	if err := crypto.ValidateSymbol(q.Symbol); err != nil {
		return nil, err
	}
	if _, err := normalizeConvert(q.Convert); err != nil {
		return nil, err
	}

	ids, err := c.IDMap(ctx)
	if err != nil {
		return nil, err
	}
	lookup := c.IDMap
	if _, ok := ids[q.Symbol]; !ok {
		lookup = c.SymbolMap
	}

	coin, err := c.getPriceFrom(ctx, q.Symbol, q.Convert, lookup)
	if err != nil {
		return nil, err
	}
	return &core.DataPoint{
		USDPrice:       coin.USDPrice,
		BTCPrice:       coin.BTCPrice,
		ConvertedPrice: coin.ConvertedPrice,
	}, nil
}

func normalizeConvert(convert string) (string, error) {
	if convert == "" {
		return "", nil
	}
	return crypto.NormalizeFiat(convert)
}

// quoteCode is the convert parameter sent upstream. Without a fiat code
// the BTC quote is requested.
func quoteCode(code string) string {
	if code == "" {
		return "BTC"
	}
	return code
}
