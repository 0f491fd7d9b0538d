// Package dogewatch wires the price fetcher, the news fetcher, the Telegram
// command surface, and the scheduled update pipeline into one bot.
package dogewatch

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/dogewatch/internal/instance"
	"github.com/raykavin/dogewatch/pkg/core"
	"github.com/raykavin/dogewatch/pkg/logger"
	"github.com/raykavin/dogewatch/pkg/market"
	"github.com/raykavin/dogewatch/pkg/news"
	"github.com/raykavin/dogewatch/pkg/notification"
	"github.com/raykavin/dogewatch/pkg/storage"
	"github.com/raykavin/dogewatch/pkg/update"
)

// Bot is the composed application.
type Bot struct {
	settings *core.Settings
	storage  core.SubscriberStorage
	quotes   core.QuoteProvider
	news     core.NewsProvider
	seen     core.SeenStore
	notifier core.Notifier
	telegram *notification.Telegram
	pipeline *update.Pipeline
	log      logger.Logger
}

// NewBot creates a new Bot instance with the provided settings and
// dependencies. Collaborators not supplied via options are built from the
// settings.
func NewBot(settings *core.Settings, log logger.Logger, options ...Option) (*Bot, error) {
	if err := validate(settings, log); err != nil {
		return nil, err
	}

	bot := &Bot{
		settings: settings,
		log:      log,
	}

	for _, option := range options {
		option(bot)
	}

	if err := initializeStorage(bot); err != nil {
		return nil, err
	}
	initializeProviders(bot)

	if bot.notifier == nil && settings.Mail.Enabled {
		bot.notifier = notification.NewMail(settings.Mail)
	}

	telegram, err := notification.NewTelegram(settings, bot.storage, bot.quotes, bot.news, log)
	if err != nil {
		return nil, err
	}
	bot.telegram = telegram

	pipelineOptions := make([]update.Option, 0, 2)
	if bot.seen != nil {
		pipelineOptions = append(pipelineOptions, update.WithSeenStore(bot.seen))
	}
	if bot.notifier != nil {
		pipelineOptions = append(pipelineOptions, update.WithNotifier(bot.notifier))
	}

	bot.pipeline = update.New(settings, bot.storage, bot.quotes, bot.news, telegram, log, pipelineOptions...)

	return bot, nil
}

// Run starts the bot. In one-shot mode it executes a single update cycle and
// returns; otherwise it takes the instance lock, starts the Telegram
// long-poller, and runs the pipeline on the poll interval until the context
// is canceled.
func (b *Bot) Run(ctx context.Context) error {
	defer b.closeSeen()

	if b.settings.Update.RunOnce {
		b.log.Info("running single scheduled cycle")
		return b.pipeline.Run(ctx)
	}

	lock, err := instance.Acquire(b.settings.LockFile)
	if err != nil {
		return err
	}
	defer lock.Release()

	b.telegram.Start()
	defer b.telegram.Stop()

	b.log.WithField("interval", b.settings.Update.PollInterval).Info("bot started")

	ticker := time.NewTicker(b.settings.Update.PollInterval)
	defer ticker.Stop()

	for {
		if err := b.pipeline.Run(ctx); err != nil {
			b.log.WithError(err).Error("update cycle failed")
		}

		select {
		case <-ctx.Done():
			b.log.Info("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// initializeStorage selects the subscriber backend and opens the optional
// seen-article store.
func initializeStorage(bot *Bot) error {
	if bot.storage == nil {
		switch bot.settings.Storage.Backend {
		case "", "file":
			bot.storage = storage.NewFileStore(bot.settings.Storage.SubscribersFile)
		default:
			return fmt.Errorf("storage backend %q requires an explicit store (use WithStorage)", bot.settings.Storage.Backend)
		}
	}

	if bot.seen == nil && bot.settings.Storage.SeenDB != "" {
		seen, err := storage.NewSeenStore(bot.settings.Storage.SeenDB, bot.settings.Storage.SeenTTL)
		if err != nil {
			return err
		}
		bot.seen = seen
	}

	return nil
}

// initializeProviders builds the default quote and news providers.
func initializeProviders(bot *Bot) {
	settings := bot.settings

	if bot.quotes == nil {
		providers := []core.QuoteProvider{
			market.NewCoinMarketCap(
				settings.Market.CoinMarketCapKey,
				settings.Asset.Ticker,
				settings.Asset.Currency,
			),
		}

		if settings.Market.BinanceFallback {
			pair := settings.Asset.Ticker + "USDT"
			providers = append(providers, market.NewBinance(pair))
		}

		bot.quotes = market.Fallback(bot.log, providers...)
	}

	if bot.news == nil {
		bot.news = news.NewNewsData(settings.News, settings.Asset)
	}
}

func (b *Bot) closeSeen() {
	if b.seen == nil {
		return
	}
	if err := b.seen.Close(); err != nil {
		b.log.WithError(err).Error("failed to close seen store")
	}
}

// validate checks the minimum startup requirements.
func validate(settings *core.Settings, log logger.Logger) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}

	if settings.Telegram.Token == "" {
		return fmt.Errorf("telegram token cannot be empty")
	}

	if log == nil {
		return fmt.Errorf("logger cannot be nil")
	}

	return nil
}
