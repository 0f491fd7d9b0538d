package market

import (
	"context"

	"github.com/raykavin/dogewatch/pkg/core"
	"github.com/raykavin/dogewatch/pkg/logger"
)

// FallbackChain tries each provider in order and returns the first quote.
type FallbackChain struct {
	providers []core.QuoteProvider
	log       logger.Logger
}

// Fallback builds a provider chain. At least one provider is expected.
func Fallback(log logger.Logger, providers ...core.QuoteProvider) *FallbackChain {
	return &FallbackChain{
		providers: providers,
		log:       log,
	}
}

// Quote implements core.QuoteProvider.
func (f *FallbackChain) Quote(ctx context.Context) (*core.Quote, error) {
	var lastErr error = core.ErrNoQuote

	for _, provider := range f.providers {
		quote, err := provider.Quote(ctx)
		if err == nil {
			return quote, nil
		}

		f.log.WithError(err).Warn("quote provider failed, trying next")
		lastErr = err
	}

	return nil, lastErr
}
