package notification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raykavin/dogewatch/pkg/core"
)

const (
	noDescriptionText = "No description available."
	noDateText        = "Date not available"
)

// markdownEscaper neutralizes the characters Telegram Markdown treats as
// markup inside free-text fields.
var markdownEscaper = strings.NewReplacer(
	"[", "\\[",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
)

// FormatQuote renders a quote into a Markdown message. A nil quote yields the
// fixed no-data string.
func FormatQuote(assetName string, quote *core.Quote) string {
	if quote == nil {
		return fmt.Sprintf("Sorry, couldn't fetch %s price data at the moment.", assetName)
	}

	marketCap := "not available"
	if quote.MarketCap != nil {
		marketCap = "$" + groupThousands(*quote.MarketCap)
	}

	return fmt.Sprintf(
		"🐕 *%s Price Update*\n\n"+
			"💰 Price: $%.6f\n"+
			"📈 24h Change: %+.2f%%\n"+
			"💎 Market Cap: %s",
		assetName, quote.Price, quote.PercentChange24h, marketCap,
	)
}

// FormatArticle renders a news article into a Markdown message. Missing
// optional fields render as literal placeholder text.
func FormatArticle(article core.Article) string {
	description := noDescriptionText
	if article.Description != "" {
		description = markdownEscaper.Replace(article.Description)
	}

	pubDate := article.PubDate
	if pubDate == "" {
		pubDate = noDateText
	}

	return fmt.Sprintf(
		"📰 *%s*\n\n"+
			"%s\n\n"+
			"🔗 [Read more](%s)\n"+
			"📅 Published: %s",
		markdownEscaper.Replace(article.Title), description, article.Link, pubDate,
	)
}

// NewsHeader is the line sent between the price message and the articles.
func NewsHeader(assetName string) string {
	return fmt.Sprintf("🔄 Here's your %s news update:", assetName)
}

// groupThousands renders a value with a thousands-grouped integer part and
// two decimal places, e.g. 1234567.891 -> "1,234,567.89".
func groupThousands(value float64) string {
	formatted := strconv.FormatFloat(value, 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(formatted, "-") {
		sign, formatted = "-", formatted[1:]
	}

	intPart, fracPart, _ := strings.Cut(formatted, ".")

	var sb strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(digit)
	}

	return sign + sb.String() + "." + fracPart
}
