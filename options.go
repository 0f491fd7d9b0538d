package dogewatch

import "github.com/raykavin/dogewatch/pkg/core"

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithStorage sets the subscriber storage backend. Required when the
// configured backend is "sql" (pass a storage.SQLStore built with the
// desired dialector).
func WithStorage(store core.SubscriberStorage) Option {
	return func(bot *Bot) {
		bot.storage = store
	}
}

// WithQuoteProvider overrides the default CoinMarketCap provider chain.
func WithQuoteProvider(provider core.QuoteProvider) Option {
	return func(bot *Bot) {
		bot.quotes = provider
	}
}

// WithNewsProvider overrides the default NewsData.io provider.
func WithNewsProvider(provider core.NewsProvider) Option {
	return func(bot *Bot) {
		bot.news = provider
	}
}

// WithSeenStore overrides the seen-article store built from the settings.
func WithSeenStore(seen core.SeenStore) Option {
	return func(bot *Bot) {
		bot.seen = seen
	}
}

// WithNotifier registers an operational digest channel next to Telegram.
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Bot) {
		bot.notifier = notifier
	}
}
