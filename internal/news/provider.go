package news

import "context"

// Kind selects which provider query family a fetch uses.
type Kind string

const (
	KindGeneral Kind = "general"
	KindTopic   Kind = "topic"
)

// Request carries all parameters required to query a provider.
type Request struct {
	Kind     Kind
	Query    string // topic or search terms; empty for general
	Language string
	Country  string
	Limit    int // candidate count the provider is asked for
}

// SourceRef carries the provider's source attribution. Structured APIs
// return it as a nested object; feed scrapers fill Name directly.
type SourceRef struct {
	Name string `json:"name"`
}

// RawArticle is a provider record before normalization. PublishedAt stays
// a string because providers disagree on date formats.
type RawArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Source      SourceRef `json:"source"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"publishedAt"`
}

// Provider is a single ranked news source. Implementations must treat
// their own upstream failures as errors; the aggregator absorbs them.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]RawArticle, error)
}
