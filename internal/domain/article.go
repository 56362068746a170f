package domain

import (
	"strings"
	"time"
)

// Article is the normalized shape every provider record is reduced to
// before entering the pipeline.
type Article struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// NormalizedTitle is the deduplication key: case-folded, trimmed title.
// An empty result means the article does not participate in dedup.
func (a Article) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(a.Title))
}

// DedupArticles drops later occurrences of the same normalized title,
// preserving first-occurrence order. Untitled articles are kept as-is.
func DedupArticles(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		key := a.NormalizedTitle()
		if key == "" {
			out = append(out, a)
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
