package bitbay

import (
	"context"
	"fmt"
	"net/url"

	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/core"
)

const (
	baseURL = "https://bitbay.net/API/Public"
	name    = "bitbay"
)

// BitBay implements the crypto Provider interface for the BitBay ticker API.
// It only knows current prices.
type BitBay struct {
	client  *crypto.Client
	baseURL string
}

// New creates a BitBay provider with a default client
func New() *BitBay {
	return NewWithClient(nil, "")
}

// NewWithClient creates a BitBay provider sharing client. An empty base URL
// selects the public API.
func NewWithClient(client *crypto.Client, base string) *BitBay {
	if client == nil {
		client = crypto.DefaultClient()
	}
	if base == "" {
		base = baseURL
	}
	return &BitBay{client: client, baseURL: base}
}

// NewWithBaseURL creates a BitBay provider with custom base URL (for testing)
func NewWithBaseURL(url string) *BitBay {
	return NewWithClient(nil, url)
}

func (b *BitBay) Name() string {
	return name
}

var classifier = crypto.Classifier{
	Expect:       crypto.ShapeObject,
	NotFound:     core.KindUnknownCoin,
	Embedded:     embeddedError,
	EmbeddedKind: core.KindErrorResponse,
}

// embeddedError reads the {code, message} pair BitBay returns with status 200.
func embeddedError(v *fastjson.Value) (string, bool) {
	code := v.Get("code")
	if !crypto.Present(code) {
		return "", false
	}
	msg, _ := crypto.String(v.Get("message"))
	return fmt.Sprintf("%s %s", plain(code), msg), true
}

func plain(v *fastjson.Value) string {
	if s, ok := crypto.String(v); ok {
		return s
	}
	return v.String()
}

// GetPrice fetches the last traded price for a market such as "btcpln".
func (b *BitBay) GetPrice(ctx context.Context, market string) (*core.DataPoint, error) {
	if err := crypto.ValidateSymbol(market); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s/ticker.json", b.baseURL, url.PathEscape(market))
	resp, err := b.client.Get(ctx, name, u)
	if err != nil {
		return nil, b.client.Fail(name, err)
	}

	json, err := classifier.Classify(resp)
	if err != nil {
		return nil, b.client.Fail(name, err)
	}

	price, err := crypto.Decimal(json.Get("last"))
	if err != nil {
		e := resp.Error(core.KindJSON, "")
		e.Cause = err
		return nil, b.client.Fail(name, e)
	}
	if !price.Valid {
		return nil, b.client.Fail(name, resp.Error(core.KindNoData, ""))
	}

	return &core.DataPoint{Price: price}, nil
}

// FetchPrice answers a provider query. Historical and converted queries
// are rejected.
func (b *BitBay) FetchPrice(ctx context.Context, q crypto.Query) (*core.DataPoint, error) {
	if err := crypto.RejectHistory(name, q); err != nil {
		return nil, err
	}
	if err := crypto.RejectConvert(name, q); err != nil {
		return nil, err
	}
	return b.GetPrice(ctx, q.Symbol)
}
