// Package config handles application configuration management using Viper
package config

import (
	"fmt"
	"strings"

	"github.com/raykavin/dogewatch/pkg/core"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Defaults for every tunable. The API key fallbacks mirror the keys the bot
// shipped with historically; they are rate-limited free-tier keys.
const (
	DefaultAssetName     = "Dogecoin"
	DefaultAssetTicker   = "DOGE"
	DefaultQuoteCurrency = "USD"

	DefaultCoinMarketCapKey = "bd1eb80b-e7df-4547-85a4-9138db279efe"
	DefaultNewsDataKey      = "pub_747026d7148da05676417a4f83d51505e3025"

	DefaultNewsQuery    = "Dogecoin"
	DefaultNewsLanguage = "en"
	DefaultNewsKeywords = "cryptocurrency,crypto,coin,token,blockchain,trading,price,market"

	DefaultUpdateMode     = string(core.UpdateModeLatest)
	DefaultUpdateWindow   = "6h"
	DefaultPollInterval   = "1h"
	DefaultMaxInteractive = 5

	DefaultStorageBackend  = "file"
	DefaultSubscribersFile = "subscribed_users.txt"
	DefaultSeenTTL         = "7d"
	DefaultLockFile        = "dogewatch.pid"
)

// Load builds the application settings from environment variables.
func Load() (*core.Settings, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ASSET_NAME", DefaultAssetName)
	v.SetDefault("ASSET_TICKER", DefaultAssetTicker)
	v.SetDefault("QUOTE_CURRENCY", DefaultQuoteCurrency)
	v.SetDefault("COINMARKETCAP_API_KEY", DefaultCoinMarketCapKey)
	v.SetDefault("NEWSDATA_API_KEY", DefaultNewsDataKey)
	v.SetDefault("BINANCE_FALLBACK", false)
	v.SetDefault("NEWS_QUERY", DefaultNewsQuery)
	v.SetDefault("NEWS_LANGUAGE", DefaultNewsLanguage)
	v.SetDefault("NEWS_KEYWORDS", DefaultNewsKeywords)
	v.SetDefault("UPDATE_MODE", DefaultUpdateMode)
	v.SetDefault("UPDATE_WINDOW", DefaultUpdateWindow)
	v.SetDefault("POLL_INTERVAL", DefaultPollInterval)
	v.SetDefault("MAX_INTERACTIVE_ARTICLES", DefaultMaxInteractive)
	v.SetDefault("RUN_ONCE", false)
	v.SetDefault("STORAGE_BACKEND", DefaultStorageBackend)
	v.SetDefault("SUBSCRIBERS_FILE", DefaultSubscribersFile)
	v.SetDefault("SEEN_DB", "")
	v.SetDefault("SEEN_TTL", DefaultSeenTTL)
	v.SetDefault("LOCK_FILE", DefaultLockFile)
	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("MAIL_PORT", 587)

	pollInterval, err := str2duration.ParseDuration(v.GetString("POLL_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}

	window, err := str2duration.ParseDuration(v.GetString("UPDATE_WINDOW"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPDATE_WINDOW: %w", err)
	}

	seenTTL, err := str2duration.ParseDuration(v.GetString("SEEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEEN_TTL: %w", err)
	}

	mode, err := parseUpdateMode(v.GetString("UPDATE_MODE"))
	if err != nil {
		return nil, err
	}

	// GITHUB_ACTIONS selects the one-shot mode so an external scheduler can
	// drive the cycle, matching the historical deployment.
	runOnce := v.GetBool("RUN_ONCE") || v.GetString("GITHUB_ACTIONS") != ""

	settings := &core.Settings{
		Asset: core.AssetSettings{
			Name:     v.GetString("ASSET_NAME"),
			Ticker:   v.GetString("ASSET_TICKER"),
			Currency: v.GetString("QUOTE_CURRENCY"),
		},
		Telegram: core.TelegramSettings{
			Token: v.GetString("TELEGRAM_BOT_TOKEN"),
		},
		Market: core.MarketSettings{
			CoinMarketCapKey: v.GetString("COINMARKETCAP_API_KEY"),
			BinanceFallback:  v.GetBool("BINANCE_FALLBACK"),
		},
		News: core.NewsSettings{
			APIKey:   v.GetString("NEWSDATA_API_KEY"),
			Query:    v.GetString("NEWS_QUERY"),
			Language: v.GetString("NEWS_LANGUAGE"),
			Keywords: splitList(v.GetString("NEWS_KEYWORDS")),
		},
		Update: core.UpdateSettings{
			Mode:           mode,
			Window:         window,
			PollInterval:   pollInterval,
			RunOnce:        runOnce,
			MaxInteractive: v.GetInt("MAX_INTERACTIVE_ARTICLES"),
		},
		Storage: core.StorageSettings{
			Backend:         v.GetString("STORAGE_BACKEND"),
			SubscribersFile: v.GetString("SUBSCRIBERS_FILE"),
			SeenDB:          v.GetString("SEEN_DB"),
			SeenTTL:         seenTTL,
		},
		Mail: core.MailSettings{
			Enabled:  v.GetBool("MAIL_ENABLED"),
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			From:     v.GetString("MAIL_FROM"),
			To:       v.GetString("MAIL_TO"),
			Password: v.GetString("MAIL_PASSWORD"),
		},
		LockFile: v.GetString("LOCK_FILE"),
	}

	return settings, nil
}

func parseUpdateMode(value string) (core.UpdateMode, error) {
	switch mode := core.UpdateMode(strings.ToLower(value)); mode {
	case core.UpdateModeLatest, core.UpdateModeWindow, core.UpdateModeAll:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid UPDATE_MODE: %q", value)
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
