// Package coingecko fetches spot prices from the CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}

// Client is a price oracle backed by CoinGecko.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    cache
	cacheTTL time.Duration
}

type option func(*Client)

// WithCache caches prices for ttl.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCache(c cache, ttl time.Duration) option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithHTTPClient replaces the default instrumented client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHTTPClient(c *http.Client) option {
	return func(cl *Client) {
		cl.http = c
	}
}

// MustNewClient reads payments.oracle.* from configuration.
func MustNewClient(opts ...option) *Client {
	baseURL := viper.GetString("payments.oracle.base_url")
	if baseURL == "" {
		panic("coingecko: payments.oracle.base_url is required")
	}

	timeout := time.Duration(viper.GetInt("payments.oracle.timeout_seconds")) * time.Second

	return NewClient(baseURL, append([]option{
		WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		}),
	}, opts...)...)
}

func NewClient(baseURL string, opts ...option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Price returns the price of one unit of coin (a CoinGecko id such as
// "solana") in the fiat currency vs, e.g. "usd".
func (c *Client) Price(ctx context.Context, coin, vs string) (decimal.Decimal, error) {
	coin, vs = strings.ToLower(coin), strings.ToLower(vs)

	var key string
	if c.cache != nil {
		key = c.cache.GenerateKey("price", coin+":"+vs)
		cached, err := c.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("Failed to read cached price", "error", err)
		} else if cached != "" {
			if price, err := decimal.NewFromString(cached); err == nil {
				return price, nil
			}
		}
	}

	price, err := c.fetch(ctx, coin, vs)
	if err != nil {
		return decimal.Zero, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, price.String(), c.cacheTTL); err != nil {
			slog.Warn("Failed to cache price", "error", err)
		}
	}

	return price, nil
}

func (c *Client) fetch(ctx context.Context, coin, vs string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", coin)
	q.Set("vs_currencies", vs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("failed to fetch price: unexpected status %d", resp.StatusCode)
	}

	var body map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}

	price, ok := body[coin][vs]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("no %s price for %s", vs, coin)
	}

	return price, nil
}
