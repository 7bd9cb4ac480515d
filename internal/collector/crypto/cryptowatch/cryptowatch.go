package cryptowatch

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/core"
)

const (
	baseURL = "https://api.cryptowat.ch"
	name    = "cryptowatch"
)

// Cryptowatch implements the crypto Provider interface for api.cryptowat.ch.
// The exchange list is fetched once and kept until ReloadExchanges.
type Cryptowatch struct {
	client  *crypto.Client
	baseURL string
	now     func() time.Time

	mu        sync.Mutex
	exchanges []string
}

// New creates a Cryptowatch provider with a default client
func New() *Cryptowatch {
	return NewWithClient(nil, "")
}

// NewWithClient creates a Cryptowatch provider sharing client. An empty
// base URL selects the public API.
func NewWithClient(client *crypto.Client, base string) *Cryptowatch {
	if client == nil {
		client = crypto.DefaultClient()
	}
	if base == "" {
		base = baseURL
	}
	return &Cryptowatch{client: client, baseURL: base, now: time.Now}
}

// NewWithBaseURL creates a Cryptowatch provider with custom base URL (for testing)
func NewWithBaseURL(url string) *Cryptowatch {
	return NewWithClient(nil, url)
}

func (c *Cryptowatch) Name() string {
	return name
}

// Exchanges returns the sorted symbols of active exchanges, fetching them on
// first use.
func (c *Cryptowatch) Exchanges(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exchanges == nil {
		if err := c.loadExchanges(ctx); err != nil {
			return nil, err
		}
	}
	return c.exchanges, nil
}

// ReloadExchanges refetches the exchange list even when it is cached.
func (c *Cryptowatch) ReloadExchanges(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadExchanges(ctx); err != nil {
		return nil, err
	}
	return c.exchanges, nil
}

func (c *Cryptowatch) loadExchanges(ctx context.Context) error {
	resp, json, err := c.fetch(ctx, "/exchanges", crypto.Classifier{Expect: crypto.ShapeObject})
	if err != nil {
		return err
	}

	symbols, err := activeNames(json.Get("result"), "symbol")
	if err != nil {
		return c.structureError(resp, err)
	}

	c.exchanges = symbols
	c.client.RecordCacheLoad(name, "exchanges")
	return nil
}

// GetMarkets returns the sorted pairs actively traded on exchange.
func (c *Cryptowatch) GetMarkets(ctx context.Context, exchange string) ([]string, error) {
	if err := crypto.ValidateExchange(exchange); err != nil {
		return nil, err
	}

	classifier := crypto.Classifier{Expect: crypto.ShapeObject, NotFound: core.KindUnknownExchange}
	resp, json, err := c.fetch(ctx, "/markets/"+url.PathEscape(exchange), classifier)
	if err != nil {
		return nil, err
	}

	pairs, err := activeNames(json.Get("result"), "pair")
	if err != nil {
		return nil, c.structureError(resp, err)
	}
	return pairs, nil
}

// activeNames reads [{<key>, active}, ...] and returns the sorted keys of
// active entries.
func activeNames(v *fastjson.Value, key string) ([]string, error) {
	if v == nil || v.Type() != fastjson.TypeArray {
		return nil, fmt.Errorf("result is not an array")
	}
	items, _ := v.Array()

	names := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
		if active := item.Get("active"); active == nil || active.Type() != fastjson.TypeTrue {
			continue
		}
		s, ok := crypto.String(item.Get(key))
		if !ok {
			return nil, fmt.Errorf("entry %d: missing %s", i, key)
		}
		names = append(names, s)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Cryptowatch) fetch(ctx context.Context, path string, classifier crypto.Classifier) (*crypto.Response, *fastjson.Value, error) {
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

func (c *Cryptowatch) structureError(resp *crypto.Response, cause error) error {
	e := resp.Error(core.KindJSON, "")
	e.Cause = cause
	return c.client.Fail(name, e)
}
