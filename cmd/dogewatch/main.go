package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/dogewatch"
	"github.com/raykavin/dogewatch/pkg/config"
	"github.com/raykavin/dogewatch/pkg/market"
	"github.com/raykavin/dogewatch/pkg/news"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	once bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "dogewatch",
		Short:   "Asset price and news notification bot for Telegram",
		Version: "1.0.0",
		RunE:    runBot,
	}

	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single update cycle and exit")
	rootCmd.AddCommand(buildFetchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	if once {
		settings.Update.RunOnce = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := dogewatch.NewBot(settings, dogewatch.DefaultLog)
	if err != nil {
		return err
	}

	return bot.Run(ctx)
}

// buildFetchCmd builds a debug command that queries both upstream APIs once
// and prints the results, without touching Telegram or the store.
func buildFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the current quote and relevant articles and print them",
		RunE:  runFetch,
	}
}

func runFetch(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	quotes := market.NewCoinMarketCap(
		settings.Market.CoinMarketCapKey,
		settings.Asset.Ticker,
		settings.Asset.Currency,
	)

	quote, err := quotes.Quote(ctx)
	if err != nil {
		fmt.Printf("%s quote: no data (%v)\n", settings.Asset.Name, err)
	} else {
		marketCap := "n/a"
		if quote.MarketCap != nil {
			marketCap = fmt.Sprintf("%.2f %s", *quote.MarketCap, settings.Asset.Currency)
		}
		fmt.Printf("%s: %.6f %s (%+.2f%% 24h, market cap %s)\n",
			settings.Asset.Name, quote.Price, settings.Asset.Currency,
			quote.PercentChange24h, marketCap)
	}

	articles, err := news.NewNewsData(settings.News, settings.Asset).Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch news: %w", err)
	}

	fmt.Printf("\n%d relevant article(s):\n", len(articles))
	if len(articles) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Title", "Published", "Link"})
	for _, article := range articles {
		table.Append([]string{truncate(article.Title, 60), article.PubDate, article.Link})
	}
	table.Render()

	return nil
}

// truncate shortens s to at most max runes, ending with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
