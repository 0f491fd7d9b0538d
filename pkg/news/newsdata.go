// Package news provides the news fetcher and the relevance filter for the
// tracked asset.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/raykavin/dogewatch/pkg/core"
)

const (
	defaultNewsDataBaseURL = "https://newsdata.io"
	newsPath               = "/api/1/news"

	statusSuccess = "success"

	defaultNewsTimeout = 30 * time.Second
)

// NewsData fetches articles from the NewsData.io search endpoint and applies
// the relevance filter before returning them.
type NewsData struct {
	apiKey   string
	query    string
	language string
	asset    core.AssetSettings
	keywords []string
	baseURL  string
	client   *http.Client
}

// NewsDataOption configures a NewsData provider.
type NewsDataOption func(*NewsData)

// WithNewsBaseURL overrides the API base URL.
func WithNewsBaseURL(baseURL string) NewsDataOption {
	return func(n *NewsData) {
		n.baseURL = baseURL
	}
}

// WithNewsHTTPClient overrides the HTTP client.
func WithNewsHTTPClient(client *http.Client) NewsDataOption {
	return func(n *NewsData) {
		n.client = client
	}
}

// NewNewsData creates a provider querying for the given settings.
func NewNewsData(settings core.NewsSettings, asset core.AssetSettings, options ...NewsDataOption) *NewsData {
	provider := &NewsData{
		apiKey:   settings.APIKey,
		query:    settings.Query,
		language: settings.Language,
		asset:    asset,
		keywords: settings.Keywords,
		baseURL:  defaultNewsDataBaseURL,
		client:   &http.Client{Timeout: defaultNewsTimeout},
	}

	for _, option := range options {
		option(provider)
	}

	return provider
}

type newsDataResponse struct {
	Status  string          `json:"status"`
	Results *[]core.Article `json:"results"`
}

// Latest implements core.NewsProvider. Validation happens in order: HTTP
// status, body status field, results shape. Any violation is an error and the
// caller degrades to an empty sequence.
func (n *NewsData) Latest(ctx context.Context) ([]core.Article, error) {
	endpoint := fmt.Sprintf("%s%s?%s", n.baseURL, newsPath, url.Values{
		"apikey":   {n.apiKey},
		"q":        {n.query},
		"language": {n.language},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build news request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsdata returned status %d", resp.StatusCode)
	}

	var payload newsDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode news response: %w", err)
	}

	if payload.Status != statusSuccess {
		return nil, fmt.Errorf("newsdata reported status %q", payload.Status)
	}

	if payload.Results == nil {
		return nil, fmt.Errorf("newsdata response missing results")
	}

	return Relevant(*payload.Results, n.asset, n.keywords), nil
}
