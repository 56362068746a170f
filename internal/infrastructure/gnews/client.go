// Package gnews implements the secondary structured news provider.
package gnews

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

// Client queries a GNews-compatible service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ news.Provider = (*Client)(nil)

// NewClient builds the provider from configuration.
func NewClient(cfg config.GNewsConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Name() string { return "gnews" }

// Fetch queries top-headlines for general requests and search for topics.
func (c *Client) Fetch(ctx context.Context, req news.Request) ([]news.RawArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gnews: no api key configured")
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("lang", req.Language)
	params.Set("max", strconv.Itoa(req.Limit))

	path := "/top-headlines"
	if req.Kind == news.KindTopic {
		path = "/search"
		params.Set("q", req.Query)
	} else {
		params.Set("country", req.Country)
	}

	endpoint := c.baseURL + path + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gnews returned %s", resp.Status)
	}

	var parsed struct {
		Articles []news.RawArticle `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return parsed.Articles, nil
}
