package crypto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/cointools/internal/core"
	"github.com/newthinker/cointools/internal/metrics"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "cointools/" + Version

// Version of the library, reported in the User-Agent header.
const Version = "0.6.0"

const defaultTimeout = 10 * time.Second

// StatusClass groups HTTP statuses the way response classification needs them.
type StatusClass int

const (
	StatusSuccess StatusClass = iota
	StatusNotFound
	StatusClientError
	StatusServerError
)

func (c StatusClass) String() string {
	switch c {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusClientError:
		return "client_error"
	default:
		return "server_error"
	}
}

// Response is a fully read provider response.
type Response struct {
	StatusCode int
	Status     string // status line, e.g. "404 Not Found"
	Body       []byte
}

// Class returns the status class of the response. Anything that is neither
// 2xx nor 4xx counts as a server error.
func (r *Response) Class() StatusClass {
	switch {
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return StatusSuccess
	case r.StatusCode == http.StatusNotFound:
		return StatusNotFound
	case r.StatusCode >= 400 && r.StatusCode < 500:
		return StatusClientError
	default:
		return StatusServerError
	}
}

// Error builds a typed error of the given kind tied to this response.
func (r *Response) Error(kind core.Kind, message string) *core.Error {
	return core.ResponseError(kind, r.StatusCode, r.Status, message)
}

// ClientConfig configures the shared HTTP client.
type ClientConfig struct {
	Timeout    time.Duration
	UserAgent  string
	Logger     *zap.Logger
	Metrics    *metrics.Registry
	HTTPClient *http.Client
}

// Client issues GET requests on behalf of providers.
type Client struct {
	http      *http.Client
	userAgent string
	log       *zap.Logger
	metrics   *metrics.Registry
}

// NewClient creates a client. Zero config values fall back to defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	} else {
		hc = http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Metrics != nil {
		hc.Transport = metrics.HTTPTransport(cfg.Metrics, hc.Transport)
	}

	return &Client{
		http:      &hc,
		userAgent: cfg.UserAgent,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// DefaultClient returns a client with default settings.
func DefaultClient() *Client {
	return NewClient(ClientConfig{})
}

// UserAgent returns the User-Agent header value sent with requests.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Get performs a GET request and reads the whole body. Failures to complete
// the request are reported as ServiceUnavailableError.
func (c *Client) Get(ctx context.Context, provider, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrServiceUnavailable, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(provider, "transport_error", start)
		c.log.Warn("provider request failed",
			zap.String("provider", provider),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, core.WrapError(core.ErrServiceUnavailable, fmt.Errorf("fetching %s: %w", url, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(provider, "transport_error", start)
		return nil, core.WrapError(core.ErrServiceUnavailable, fmt.Errorf("reading response: %w", err))
	}

	r := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
	c.observe(provider, r.Class().String(), start)

	c.log.Debug("provider request",
		zap.String("provider", provider),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return r, nil
}

func (c *Client) observe(provider, class string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordProviderRequest(provider, class, time.Since(start).Seconds())
	}
}

// Fail records a typed provider error in metrics and returns it unchanged.
func (c *Client) Fail(provider string, err error) error {
	if err == nil || c.metrics == nil {
		return err
	}
	var typed *core.Error
	if errors.As(err, &typed) {
		c.metrics.RecordProviderError(provider, string(typed.Kind))
	}
	return err
}

// RecordPage records one fetched page of a paginated download.
func (c *Client) RecordPage(provider string) {
	if c.metrics != nil {
		c.metrics.RecordPage(provider)
	}
}

// RecordCacheLoad records a memoized list being loaded.
func (c *Client) RecordCacheLoad(provider, cache string) {
	if c.metrics != nil {
		c.metrics.RecordCacheLoad(provider, cache)
	}
}
