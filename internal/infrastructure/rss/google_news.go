// Package rss implements the tertiary feed-scrape provider over the
// Google News RSS endpoint.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCaster/internal/config"
	"NewsCaster/internal/news"
)

// Scraper pulls the public news feed, used when the structured APIs are
// unavailable or came up short.
type Scraper struct {
	baseURL string
	client  *http.Client
}

var _ news.Provider = (*Scraper)(nil)

// NewScraper wires an HTTP client over the configured feed base URL.
func NewScraper(cfg config.FeedConfig, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Scraper{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  client,
	}
}

func (s *Scraper) Name() string { return "google-news-rss" }

// Fetch downloads the feed (search endpoint for topics) and extracts up
// to Limit items.
func (s *Scraper) Fetch(ctx context.Context, req news.Request) ([]news.RawArticle, error) {
	doc, err := s.fetchDocument(ctx, s.feedURL(req))
	if err != nil {
		return nil, err
	}

	var articles []news.RawArticle
	doc.Find("item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= req.Limit {
			return false
		}
		articles = append(articles, parseItem(item))
		return true
	})

	return articles, nil
}

func (s *Scraper) feedURL(req news.Request) string {
	geo := url.Values{}
	geo.Set("hl", req.Language)
	geo.Set("gl", strings.ToUpper(req.Country))
	geo.Set("ceid", strings.ToUpper(req.Country)+":"+req.Language)

	if req.Kind == news.KindTopic && req.Query != "" {
		return s.baseURL + "/search?q=" + url.QueryEscape(req.Query) + "&" + geo.Encode()
	}
	return s.baseURL + "?" + geo.Encode()
}

func (s *Scraper) fetchDocument(ctx context.Context, feedURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsCaster/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return doc, nil
}

func parseItem(item *goquery.Selection) news.RawArticle {
	title := strings.TrimSpace(item.Find("title").First().Text())
	description := strings.TrimSpace(item.Find("description").First().Text())

	// The HTML parser treats <link> as a void element, so the URL ends up
	// as a text node after it rather than inside it.
	link := strings.TrimSpace(item.Find("link").First().Text())
	if link == "" {
		if nodes := item.Find("link").Nodes; len(nodes) > 0 && nodes[0].NextSibling != nil {
			link = strings.TrimSpace(nodes[0].NextSibling.Data)
		}
	}
	if link == "" {
		link = strings.TrimSpace(item.Find("guid").First().Text())
	}

	return news.RawArticle{
		Title:       title,
		Description: description,
		Content:     description,
		Source:      news.SourceRef{Name: sourceFromTitle(title)},
		URL:         link,
		PublishedAt: strings.TrimSpace(item.Find("pubdate").First().Text()),
	}
}

// sourceFromTitle extracts the publisher from the feed's "Title - Source"
// convention.
func sourceFromTitle(title string) string {
	if idx := strings.LastIndex(title, " - "); idx >= 0 {
		if source := strings.TrimSpace(title[idx+3:]); source != "" {
			return source
		}
	}
	return "Google News"
}
