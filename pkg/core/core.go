package core

import (
	"context"
	"errors"

	"github.com/StudioSol/set"
)

// ErrRecipientGone marks a delivery failure caused by the recipient no longer
// being reachable (chat deleted, bot blocked). Senders wrap their transport
// errors with it so the update pipeline can prune the subscriber.
var ErrRecipientGone = errors.New("recipient gone")

// ErrNoQuote is returned when a provider answered but carried no usable
// quote for the configured asset.
var ErrNoQuote = errors.New("no quote data")

// Quote is a point-in-time market snapshot for the tracked asset.
// MarketCap is nil when the provider cannot supply it.
type Quote struct {
	Price            float64
	PercentChange24h float64
	MarketCap        *float64
}

// Article is a news record as returned by the upstream API. Fields are kept
// verbatim; only the relevance filter is applied locally.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
}

// QuoteProvider fetches the current quote for the configured asset.
type QuoteProvider interface {
	Quote(ctx context.Context) (*Quote, error)
}

// NewsProvider fetches the latest relevant articles for the configured asset.
type NewsProvider interface {
	Latest(ctx context.Context) ([]Article, error)
}

// SubscriberStorage persists the set of subscribed chat IDs. Load returns an
// empty set when no state exists yet; a non-nil error comes with the
// best-effort set read so far, and callers are expected to log it and carry
// on (last-writer-wins, no locking).
type SubscriberStorage interface {
	Load() (*set.LinkedHashSetINT64, error)
	Save(subscribers *set.LinkedHashSetINT64) error
}

// SeenStore remembers article links already delivered in earlier cycles.
type SeenStore interface {
	Seen(link string) bool
	MarkSeen(link string) error
	Close() error
}

// Sender delivers a single message to a single chat.
type Sender interface {
	Send(chatID int64, text string) error
	SendMarkdown(chatID int64, text string) error
}

// Notifier receives free-form operational notifications (cycle digests).
type Notifier interface {
	Notify(text string)
}
