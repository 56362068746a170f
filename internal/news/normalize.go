package news

import (
	"strings"
	"time"

	"NewsCaster/internal/domain"
)

const unknownSource = "Unknown"

// Date layouts seen across NewsAPI, GNews and feed pubDate fields.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 Jan 2006",
}

// Normalize reduces a raw provider record to the Article shape. Missing
// content falls back to the description; an unparseable or absent
// timestamp is treated as now, which deliberately biases such records
// toward inclusion in the recency window.
func Normalize(raw RawArticle, now time.Time) domain.Article {
	content := raw.Content
	if strings.TrimSpace(content) == "" {
		content = raw.Description
	}

	source := strings.TrimSpace(raw.Source.Name)
	if source == "" {
		source = unknownSource
	}

	published := parseWhen(raw.PublishedAt, now)

	return domain.Article{
		Title:       strings.TrimSpace(raw.Title),
		Description: raw.Description,
		Content:     content,
		Source:      source,
		URL:         raw.URL,
		PublishedAt: &published,
	}
}

func parseWhen(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return now
}
