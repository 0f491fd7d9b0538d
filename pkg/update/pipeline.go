// Package update implements the scheduled update cycle: fetch the quote and
// the news, filter, format, and fan the messages out to every subscriber.
package update

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/StudioSol/set"
	"github.com/raykavin/dogewatch/pkg/core"
	"github.com/raykavin/dogewatch/pkg/logger"
	"github.com/raykavin/dogewatch/pkg/notification"
	"github.com/samber/lo"
)

// pubDateLayouts are the publish-date formats seen in upstream responses.
var pubDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC1123,
}

// Pipeline runs one update cycle per Run invocation. All I/O is sequential;
// there is no parallelism between subscribers or between the two fetches.
type Pipeline struct {
	settings *core.Settings
	storage  core.SubscriberStorage
	quotes   core.QuoteProvider
	news     core.NewsProvider
	sender   core.Sender
	seen     core.SeenStore
	notifier core.Notifier
	log      logger.Logger
	now      func() time.Time
}

// Option is a functional option for configuring a Pipeline instance
type Option func(*Pipeline)

// WithSeenStore enables cross-cycle article dedup.
func WithSeenStore(seen core.SeenStore) Option {
	return func(p *Pipeline) {
		p.seen = seen
	}
}

// WithNotifier registers an operational digest channel.
func WithNotifier(notifier core.Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = notifier
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline with the given collaborators.
func New(
	settings *core.Settings,
	storage core.SubscriberStorage,
	quotes core.QuoteProvider,
	news core.NewsProvider,
	sender core.Sender,
	log logger.Logger,
	options ...Option,
) *Pipeline {
	pipeline := &Pipeline{
		settings: settings,
		storage:  storage,
		quotes:   quotes,
		news:     news,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}

	for _, option := range options {
		option(pipeline)
	}

	return pipeline
}

// Run executes one update cycle. With no subscribers or no articles it is a
// logged no-op: no messages are sent and the store is not written.
func (p *Pipeline) Run(ctx context.Context) error {
	subscribers, err := p.storage.Load()
	if err != nil {
		p.log.WithError(err).Error("failed to load subscribers")
	}
	if subscribers == nil {
		subscribers = set.NewLinkedHashSetINT64()
	}

	if subscribers.Length() == 0 {
		p.log.Info("no subscribers, skipping update cycle")
		return nil
	}

	quote, err := p.quotes.Quote(ctx)
	if err != nil {
		p.log.WithError(err).Error("failed to fetch quote")
		quote = nil
	}

	articles, err := p.news.Latest(ctx)
	if err != nil {
		p.log.WithError(err).Error("failed to fetch news")
		articles = nil
	}

	articles = p.selectArticles(p.unseen(articles))
	if len(articles) == 0 {
		p.log.Info("no articles found for update")
		return nil
	}

	p.log.WithFields(map[string]any{
		"subscribers": subscribers.Length(),
		"articles":    len(articles),
	}).Info("sending scheduled update")

	priceMessage := notification.FormatQuote(p.settings.Asset.Name, quote)
	header := notification.NewsHeader(p.settings.Asset.Name)

	// Iterate over a snapshot; prune mutations are batched and persisted
	// once after the loop.
	removals := make([]int64, 0)
	delivered := 0
	for chatID := range subscribers.Iter() {
		if gone := p.deliver(chatID, priceMessage, header, articles); gone {
			removals = append(removals, chatID)
			continue
		}
		delivered++
	}

	if len(removals) > 0 {
		subscribers.Remove(removals...)
		if err := p.storage.Save(subscribers); err != nil {
			p.log.WithError(err).Error("failed to persist pruned subscribers")
		} else {
			p.log.WithField("count", len(removals)).Info("pruned stale subscribers")
		}
	}

	p.markSeen(articles)

	if p.notifier != nil {
		p.notifier.Notify(fmt.Sprintf(
			"update cycle: %d article(s) delivered to %d subscriber(s), %d pruned",
			len(articles), delivered, len(removals),
		))
	}

	return nil
}

// deliver sends the price message, the header, and each article to one chat.
// Every send is independent; a failure is logged and does not block the next
// message. It reports whether the recipient is gone for good.
func (p *Pipeline) deliver(chatID int64, priceMessage, header string, articles []core.Article) bool {
	sends := make([]func() error, 0, len(articles)+2)
	sends = append(sends,
		func() error { return p.sender.SendMarkdown(chatID, priceMessage) },
		func() error { return p.sender.Send(chatID, header) },
	)
	for _, article := range articles {
		sends = append(sends, func() error {
			return p.sender.SendMarkdown(chatID, notification.FormatArticle(article))
		})
	}

	for _, send := range sends {
		err := send()
		if err == nil {
			continue
		}

		p.log.WithField("chat", chatID).WithError(err).Error("failed to deliver update")
		if errors.Is(err, core.ErrRecipientGone) {
			return true
		}
	}

	return false
}

// unseen drops articles already delivered in an earlier cycle.
func (p *Pipeline) unseen(articles []core.Article) []core.Article {
	if p.seen == nil {
		return articles
	}

	return lo.Filter(articles, func(article core.Article, _ int) bool {
		return !p.seen.Seen(article.Link)
	})
}

// selectArticles applies the configured delivery policy. The upstream API
// returns results newest first, so "latest" is the head of the slice.
func (p *Pipeline) selectArticles(articles []core.Article) []core.Article {
	switch p.settings.Update.Mode {
	case core.UpdateModeAll:
		return articles

	case core.UpdateModeWindow:
		cutoff := p.now().Add(-p.settings.Update.Window)
		return lo.Filter(articles, func(article core.Article, _ int) bool {
			published, err := parsePubDate(article.PubDate)
			return err == nil && !published.Before(cutoff)
		})

	default:
		if len(articles) > 1 {
			return articles[:1]
		}
		return articles
	}
}

func (p *Pipeline) markSeen(articles []core.Article) {
	if p.seen == nil {
		return
	}

	for _, article := range articles {
		if err := p.seen.MarkSeen(article.Link); err != nil {
			p.log.WithError(err).Error("failed to mark article seen")
		}
	}
}

func parsePubDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range pubDateLayouts {
		published, err := time.Parse(layout, value)
		if err == nil {
			return published, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
