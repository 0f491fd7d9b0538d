package core

import "time"

// UpdateMode selects how many articles a scheduled cycle delivers.
type UpdateMode string

const (
	// UpdateModeLatest sends only the single most recent article.
	UpdateModeLatest UpdateMode = "latest"
	// UpdateModeWindow sends every article published within Update.Window.
	UpdateModeWindow UpdateMode = "window"
	// UpdateModeAll sends every relevant article the fetch returned.
	UpdateModeAll UpdateMode = "all"
)

// Settings represents the main configuration for the application
type Settings struct {
	Asset    AssetSettings
	Telegram TelegramSettings
	Market   MarketSettings
	News     NewsSettings
	Update   UpdateSettings
	Storage  StorageSettings
	Mail     MailSettings
	LockFile string
}

// AssetSettings identifies the tracked asset.
type AssetSettings struct {
	Name     string // Full asset name, e.g. "Dogecoin"
	Ticker   string // Short ticker form, e.g. "DOGE"
	Currency string // Settlement currency, e.g. "USD"
}

// TelegramSettings holds configuration for the Telegram bot
type TelegramSettings struct {
	Token string
}

// MarketSettings holds quote provider configuration.
type MarketSettings struct {
	CoinMarketCapKey string
	BinanceFallback  bool // Query the Binance 24h ticker when CoinMarketCap fails
}

// NewsSettings holds news provider configuration.
type NewsSettings struct {
	APIKey   string
	Query    string
	Language string
	Keywords []string // Topical keywords required when only the ticker matches
}

// UpdateSettings controls the scheduled update cycle.
type UpdateSettings struct {
	Mode           UpdateMode
	Window         time.Duration // Recency window for UpdateModeWindow
	PollInterval   time.Duration
	RunOnce        bool
	MaxInteractive int // Article cap for the /news command
}

// StorageSettings selects and locates the persistence backends.
type StorageSettings struct {
	Backend         string // "file" (default) or "sql"
	SubscribersFile string
	SeenDB          string // Empty disables cross-cycle article dedup
	SeenTTL         time.Duration
}

// MailSettings configures the optional SMTP cycle digest.
type MailSettings struct {
	Enabled  bool
	Host     string
	Port     int
	From     string
	To       string
	Password string
}
