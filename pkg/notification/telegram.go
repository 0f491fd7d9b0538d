// Package notification provides the Telegram command surface, message
// formatting, and auxiliary notification channels.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/StudioSol/set"
	"github.com/jpillora/backoff"
	"github.com/raykavin/dogewatch/pkg/core"
	"github.com/raykavin/dogewatch/pkg/logger"
	tb "gopkg.in/tucnak/telebot.v2"
)

const (
	pollingTimeout = 10 * time.Second

	// Attempts for the initial getMe handshake before giving up.
	maxStartupAttempts = 5

	genericErrorReply = "Sorry, something went wrong. Please try again later."
)

// Telegram runs the command surface and delivers messages to chats. It
// implements core.Sender for the update pipeline.
type Telegram struct {
	settings    *core.Settings
	storage     core.SubscriberStorage
	quotes      core.QuoteProvider
	news        core.NewsProvider
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         logger.Logger
}

// NewTelegram creates and initializes the Telegram service.
func NewTelegram(
	settings *core.Settings,
	storage core.SubscriberStorage,
	quotes core.QuoteProvider,
	news core.NewsProvider,
	log logger.Logger,
) (*Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}

	client, err := initializeBotClient(settings)
	if err != nil {
		return nil, err
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		storage:     storage,
		quotes:      quotes,
		news:        news,
		defaultMenu: menu,
		client:      client,
		log:         log,
	}

	registerHandlers(client, bot)

	return bot, nil
}

// initializeBotClient creates the Telegram bot client, retrying the initial
// handshake with backoff so a transient network blip does not kill startup.
func initializeBotClient(settings *core.Settings) (*tb.Bot, error) {
	return connectWithRetry(func() (*tb.Bot, error) {
		return tb.NewBot(tb.Settings{
			ParseMode: tb.ModeMarkdown,
			Token:     settings.Telegram.Token,
			Poller:    &tb.LongPoller{Timeout: pollingTimeout},
		})
	}, time.Sleep)
}

// connectWithRetry runs connect up to maxStartupAttempts times with backoff
// between attempts. The final failure is returned without a trailing sleep.
func connectWithRetry(connect func() (*tb.Bot, error), sleep func(time.Duration)) (*tb.Bot, error) {
	retry := &backoff.Backoff{
		Min: time.Second,
		Max: 30 * time.Second,
	}

	var (
		client *tb.Bot
		err    error
	)

	for attempt := 0; attempt < maxStartupAttempts; attempt++ {
		client, err = connect()
		if err == nil {
			return client, nil
		}

		if attempt < maxStartupAttempts-1 {
			sleep(retry.Duration())
		}
	}

	return nil, fmt.Errorf("failed to create telegram bot: %w", err)
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		priceBtn = menu.Text("/price")
		newsBtn  = menu.Text("/news")
		startBtn = menu.Text("/start")
		stopBtn  = menu.Text("/stop")
		helpBtn  = menu.Text("/help")
	)

	menu.Reply(
		menu.Row(priceBtn, newsBtn),
		menu.Row(startBtn, stopBtn, helpBtn),
	)
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/start", Description: "Subscribe to scheduled updates"},
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/price", Description: "Current price snapshot"},
		{Text: "/news", Description: "Price snapshot and latest news"},
		{Text: "/stop", Description: "Unsubscribe from updates"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/start", bot.wrap(bot.StartHandle))
	client.Handle("/help", bot.wrap(bot.HelpHandle))
	client.Handle("/price", bot.wrap(bot.PriceHandle))
	client.Handle("/news", bot.wrap(bot.NewsHandle))
	client.Handle("/stop", bot.wrap(bot.StopHandle))
}

// wrap converts any handler failure into a single generic reply so the user
// is never shown a raw error or left without a response.
func (t *Telegram) wrap(handler func(m *tb.Message) error) func(m *tb.Message) {
	return func(m *tb.Message) {
		if err := handler(m); err != nil {
			t.log.WithField("chat", m.Chat.ID).WithError(err).Error("command handler failed")
			t.sendMessage(m.Chat.ID, genericErrorReply, t.defaultMenu)
		}
	}
}

// Start begins the Telegram long-polling loop.
func (t *Telegram) Start() {
	go t.client.Start()
}

// Stop terminates the long-polling loop.
func (t *Telegram) Stop() {
	t.client.Stop()
}

// Command handlers
// ---------------

// StartHandle subscribes the caller and sends the welcome message. Calling it
// twice leaves a single entry for the chat.
func (t *Telegram) StartHandle(m *tb.Message) error {
	if err := subscribe(t.storage, m.Chat.ID, t.log); err != nil {
		return err
	}

	t.log.WithField("chat", m.Chat.ID).Info("chat subscribed")

	welcome := fmt.Sprintf(
		"👋 Welcome to the %s News Bot!\n\n"+
			"I'll keep you updated with the latest news and price updates about %s. "+
			"Use /help to see available commands.",
		t.settings.Asset.Name, t.settings.Asset.Name,
	)
	return t.sendMessage(m.Chat.ID, welcome, t.defaultMenu)
}

// HelpHandle displays available commands
func (t *Telegram) HelpHandle(m *tb.Message) error {
	commands, err := t.client.GetCommands()
	if err != nil {
		return fmt.Errorf("failed to get commands: %w", err)
	}

	lines := make([]string, 0, len(commands)+1)
	lines = append(lines, "🤖 Available commands:\n")
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}

	return t.sendMessage(m.Chat.ID, strings.Join(lines, "\n"))
}

// PriceHandle replies with the current quote. A failed fetch degrades to the
// fixed no-data message instead of an error reply.
func (t *Telegram) PriceHandle(m *tb.Message) error {
	if err := t.sendMessage(m.Chat.ID, fmt.Sprintf("🔍 Fetching latest %s price...", t.settings.Asset.Name)); err != nil {
		return err
	}

	quote := t.fetchQuote()
	return t.SendMarkdown(m.Chat.ID, FormatQuote(t.settings.Asset.Name, quote))
}

// NewsHandle replies with the quote followed by up to MaxInteractive relevant
// articles. With no articles it still reports the price and says so.
func (t *Telegram) NewsHandle(m *tb.Message) error {
	if err := t.sendMessage(m.Chat.ID, fmt.Sprintf("🔍 Fetching latest %s news...", t.settings.Asset.Name)); err != nil {
		return err
	}

	quote := t.fetchQuote()
	if err := t.SendMarkdown(m.Chat.ID, FormatQuote(t.settings.Asset.Name, quote)); err != nil {
		return err
	}

	articles, err := t.news.Latest(context.Background())
	if err != nil {
		t.log.WithError(err).Error("failed to fetch news")
	}

	if len(articles) == 0 {
		return t.sendMessage(m.Chat.ID, fmt.Sprintf(
			"Sorry, I couldn't find any recent news about %s. Please try again later.",
			t.settings.Asset.Name,
		))
	}

	if max := t.settings.Update.MaxInteractive; max > 0 && len(articles) > max {
		articles = articles[:max]
	}

	for _, article := range articles {
		if err := t.SendMarkdown(m.Chat.ID, FormatArticle(article)); err != nil {
			// One bad article must not block the rest.
			t.log.WithField("chat", m.Chat.ID).WithError(err).Error("failed to send article")
		}
	}

	return nil
}

// StopHandle unsubscribes the caller.
func (t *Telegram) StopHandle(m *tb.Message) error {
	if err := unsubscribe(t.storage, m.Chat.ID, t.log); err != nil {
		return err
	}

	t.log.WithField("chat", m.Chat.ID).Info("chat unsubscribed")

	return t.sendMessage(m.Chat.ID, fmt.Sprintf(
		"You've been unsubscribed from %s updates. Send /start to subscribe again.",
		t.settings.Asset.Name,
	))
}

// subscribe adds the chat to the persisted set. Adding an already-subscribed
// chat leaves a single entry.
func subscribe(storage core.SubscriberStorage, chatID int64, log logger.Logger) error {
	subscribers, err := storage.Load()
	if err != nil {
		log.WithError(err).Error("failed to load subscribers")
	}
	if subscribers == nil {
		subscribers = set.NewLinkedHashSetINT64()
	}

	subscribers.Add(chatID)
	if err := storage.Save(subscribers); err != nil {
		return fmt.Errorf("failed to persist subscription: %w", err)
	}

	return nil
}

// unsubscribe removes the chat from the persisted set.
func unsubscribe(storage core.SubscriberStorage, chatID int64, log logger.Logger) error {
	subscribers, err := storage.Load()
	if err != nil {
		log.WithError(err).Error("failed to load subscribers")
	}
	if subscribers == nil {
		subscribers = set.NewLinkedHashSetINT64()
	}

	subscribers.Remove(chatID)
	if err := storage.Save(subscribers); err != nil {
		return fmt.Errorf("failed to persist unsubscription: %w", err)
	}

	return nil
}

// Delivery
// --------

// Send implements core.Sender.
func (t *Telegram) Send(chatID int64, text string) error {
	return t.sendMessage(chatID, text)
}

// SendMarkdown implements core.Sender with web-page previews disabled, so a
// linked article does not unfurl under every message.
func (t *Telegram) SendMarkdown(chatID int64, text string) error {
	return t.sendMessage(chatID, text, &tb.SendOptions{
		ParseMode:             tb.ModeMarkdown,
		DisableWebPagePreview: true,
	})
}

func (t *Telegram) sendMessage(chatID int64, text string, options ...any) error {
	_, err := t.client.Send(&tb.User{ID: chatID}, text, options...)
	if err == nil {
		return nil
	}

	if isRecipientGone(err) {
		return fmt.Errorf("%w: %v", core.ErrRecipientGone, err)
	}

	return err
}

func (t *Telegram) fetchQuote() *core.Quote {
	quote, err := t.quotes.Quote(context.Background())
	if err != nil {
		t.log.WithError(err).Error("failed to fetch quote")
		return nil
	}
	return quote
}

// isRecipientGone reports whether the delivery error means the chat can never
// be reached again.
func isRecipientGone(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "chat not found") ||
		strings.Contains(msg, "blocked by the user") ||
		strings.Contains(msg, "user is deactivated")
}
