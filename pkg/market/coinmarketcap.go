// Package market provides quote providers for the tracked asset.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/raykavin/dogewatch/pkg/core"
)

const (
	defaultCMCBaseURL = "https://pro-api.coinmarketcap.com"
	quotesPath        = "/v1/cryptocurrency/quotes/latest"
	cmcAPIKeyHeader   = "X-CMC_PRO_API_KEY"

	defaultHTTPTimeout = 10 * time.Second
)

// CoinMarketCap fetches quotes from the CoinMarketCap quotes endpoint.
type CoinMarketCap struct {
	apiKey  string
	symbol  string
	convert string
	baseURL string
	client  *http.Client
}

// CMCOption configures a CoinMarketCap provider.
type CMCOption func(*CoinMarketCap)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) CMCOption {
	return func(c *CoinMarketCap) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) CMCOption {
	return func(c *CoinMarketCap) {
		c.client = client
	}
}

// NewCoinMarketCap creates a provider for the given asset symbol quoted in
// the given settlement currency.
func NewCoinMarketCap(apiKey, symbol, convert string, options ...CMCOption) *CoinMarketCap {
	provider := &CoinMarketCap{
		apiKey:  apiKey,
		symbol:  symbol,
		convert: convert,
		baseURL: defaultCMCBaseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}

	for _, option := range options {
		option(provider)
	}

	return provider
}

type cmcQuote struct {
	Price            *float64 `json:"price"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	MarketCap        *float64 `json:"market_cap"`
}

type cmcAsset struct {
	Quote map[string]cmcQuote `json:"quote"`
}

type cmcResponse struct {
	Data map[string]cmcAsset `json:"data"`
}

// Quote implements core.QuoteProvider.
func (c *CoinMarketCap) Quote(ctx context.Context) (*core.Quote, error) {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, quotesPath, url.Values{
		"symbol":  {c.symbol},
		"convert": {c.convert},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set(cmcAPIKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coinmarketcap returned status %d", resp.StatusCode)
	}

	var payload cmcResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	asset, ok := payload.Data[c.symbol]
	if !ok {
		return nil, fmt.Errorf("%w: symbol %s missing from response", core.ErrNoQuote, c.symbol)
	}

	quote, ok := asset.Quote[c.convert]
	if !ok {
		return nil, fmt.Errorf("%w: currency %s missing from response", core.ErrNoQuote, c.convert)
	}

	if quote.Price == nil || quote.PercentChange24h == nil || quote.MarketCap == nil {
		return nil, fmt.Errorf("%w: incomplete quote for %s", core.ErrNoQuote, c.symbol)
	}

	return &core.Quote{
		Price:            *quote.Price,
		PercentChange24h: *quote.PercentChange24h,
		MarketCap:        quote.MarketCap,
	}, nil
}
