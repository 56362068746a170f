// Package newsapi implements the primary structured news provider.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsCaster/internal/config"
	"NewsCaster/internal/news"
)

// Client queries a NewsAPI-compatible service: top-headlines for general
// requests, everything-search for topics.
type Client struct {
	baseURL string
	apiKey  string
	sources []string
	http    *http.Client
}

var _ news.Provider = (*Client)(nil)

// NewClient builds the provider from configuration.
func NewClient(cfg config.NewsAPIConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		sources: cfg.Sources,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Name() string { return "newsapi" }

// Fetch dispatches on request kind. Missing credentials count as a
// provider failure so the aggregator can fall through to the next source.
func (c *Client) Fetch(ctx context.Context, req news.Request) ([]news.RawArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: no api key configured")
	}

	if req.Kind == news.KindTopic {
		return c.search(ctx, req)
	}
	return c.headlines(ctx, req)
}

// headlines prefers the configured source list; when that query is
// rejected it retries by country.
func (c *Client) headlines(ctx context.Context, req news.Request) ([]news.RawArticle, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("pageSize", strconv.Itoa(req.Limit))
	if len(c.sources) > 0 {
		params.Set("sources", strings.Join(c.sources, ","))
	} else {
		params.Set("country", req.Country)
	}

	articles, err := c.get(ctx, "/top-headlines", params)
	if err != nil && len(c.sources) > 0 {
		fallback := url.Values{}
		fallback.Set("apiKey", c.apiKey)
		fallback.Set("pageSize", strconv.Itoa(req.Limit))
		fallback.Set("country", req.Country)
		return c.get(ctx, "/top-headlines", fallback)
	}
	return articles, err
}

// search looks back two days and sorts by publication date so the
// aggregator's recency window has fresh candidates.
func (c *Client) search(ctx context.Context, req news.Request) ([]news.RawArticle, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("q", req.Query)
	params.Set("language", req.Language)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(req.Limit))
	params.Set("from", time.Now().AddDate(0, 0, -2).Format("2006-01-02"))

	return c.get(ctx, "/everything", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]news.RawArticle, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned %s", resp.Status)
	}

	var parsed struct {
		Status   string            `json:"status"`
		Message  string            `json:"message"`
		Articles []news.RawArticle `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s", parsed.Message)
	}

	return parsed.Articles, nil
}
