package news

import (
	"strings"

	"github.com/raykavin/dogewatch/pkg/core"
	"github.com/samber/lo"
)

// Relevant returns the articles that concern the tracked asset. The filter is
// pure and order-preserving; input records are never mutated.
//
// An article qualifies when the asset's full name appears (case-insensitive)
// in the title or description. When only the ticker form appears, at least
// one topical keyword must also appear in the combined title+description, so
// that e.g. a story about shiba inus mentioning "doge" is not mistaken for
// market news.
func Relevant(articles []core.Article, asset core.AssetSettings, keywords []string) []core.Article {
	name := strings.ToLower(asset.Name)
	ticker := strings.ToLower(asset.Ticker)

	return lo.Filter(articles, func(article core.Article, _ int) bool {
		return isRelevant(article, name, ticker, keywords)
	})
}

func isRelevant(article core.Article, name, ticker string, keywords []string) bool {
	if article.Title == "" || article.Link == "" {
		return false
	}

	title := strings.ToLower(article.Title)
	description := strings.ToLower(article.Description)

	if strings.Contains(title, name) || strings.Contains(description, name) {
		return true
	}

	if !strings.Contains(title, ticker) && !strings.Contains(description, ticker) {
		return false
	}

	content := title + " " + description
	return lo.SomeBy(keywords, func(keyword string) bool {
		return strings.Contains(content, strings.ToLower(keyword))
	})
}
