package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raykavin/dogewatch/pkg/core"
	"github.com/stretchr/testify/require"
)

func newTestCMC(t *testing.T, handler http.HandlerFunc) *CoinMarketCap {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCoinMarketCap("test-key", "DOGE", "USD", WithBaseURL(server.URL))
}

func TestCoinMarketCap_Quote(t *testing.T) {
	provider := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/cryptocurrency/quotes/latest", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-CMC_PRO_API_KEY"))
		require.Equal(t, "DOGE", r.URL.Query().Get("symbol"))
		require.Equal(t, "USD", r.URL.Query().Get("convert"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"DOGE": {
					"quote": {
						"USD": {
							"price": 0.123456,
							"percent_change_24h": -1.5,
							"market_cap": 1234567.891
						}
					}
				}
			}
		}`))
	})

	quote, err := provider.Quote(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 0.123456, quote.Price, 1e-9)
	require.InDelta(t, -1.5, quote.PercentChange24h, 1e-9)
	require.NotNil(t, quote.MarketCap)
	require.InDelta(t, 1234567.891, *quote.MarketCap, 1e-6)
}

func TestCoinMarketCap_NonOKStatus(t *testing.T) {
	provider := newTestCMC(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.Quote(context.Background())
	require.ErrorContains(t, err, "status 401")
}

func TestCoinMarketCap_MissingSymbol(t *testing.T) {
	provider := newTestCMC(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {}}`))
	})

	_, err := provider.Quote(context.Background())
	require.ErrorIs(t, err, core.ErrNoQuote)
}

func TestCoinMarketCap_MissingField(t *testing.T) {
	provider := newTestCMC(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {
				"DOGE": {
					"quote": {
						"USD": {"price": 0.1, "percent_change_24h": 2.0}
					}
				}
			}
		}`))
	})

	_, err := provider.Quote(context.Background())
	require.ErrorIs(t, err, core.ErrNoQuote)
}
