package market

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/raykavin/dogewatch/pkg/core"
)

// Binance is a secondary quote provider backed by the public Binance 24h
// ticker. It carries no market cap, so quotes it produces have a nil
// MarketCap.
type Binance struct {
	client *binance.Client
	pair   string
}

// NewBinance creates a provider for the given trading pair (e.g. DOGEUSDT).
// The 24h ticker is a public endpoint, so no credentials are needed.
func NewBinance(pair string) *Binance {
	return &Binance{
		client: binance.NewClient("", ""),
		pair:   pair,
	}
}

// Quote implements core.QuoteProvider.
func (b *Binance) Quote(ctx context.Context) (*core.Quote, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(b.pair).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance ticker request failed: %w", err)
	}

	if len(stats) == 0 {
		return nil, fmt.Errorf("%w: no ticker for %s", core.ErrNoQuote, b.pair)
	}

	price, err := strconv.ParseFloat(stats[0].LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last price: %w", err)
	}

	change, err := strconv.ParseFloat(stats[0].PriceChangePercent, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price change: %w", err)
	}

	return &core.Quote{
		Price:            price,
		PercentChange24h: change,
	}, nil
}
