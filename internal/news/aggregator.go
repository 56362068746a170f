package news

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"NewsCaster/internal/domain"
)

const (
	// Candidate multiplier: ask each provider for more than we need so
	// dedup and recency filtering still leave enough.
	candidateFactor = 3

	generalWindow = 24 * time.Hour
	topicWindow   = 72 * time.Hour
)

// Aggregator queries ranked providers, normalizes and deduplicates the
// combined pool, and applies recency-preferring fallback selection.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
	language  string
	country   string
	logger    *slog.Logger
	now       func() time.Time
}

// NewAggregator wires the ranked provider list. Order is priority order.
func NewAggregator(providers []Provider, timeout time.Duration, language, country string, logger *slog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Aggregator{
		providers: providers,
		timeout:   timeout,
		language:  language,
		country:   country,
		logger:    logger,
		now:       time.Now,
	}
}

// Fetch returns up to desired articles for the request kind. The result is
// non-empty whenever at least one provider returned at least one record;
// an empty combined pool is the only case yielding an empty result.
func (a *Aggregator) Fetch(ctx context.Context, kind Kind, query string, desired int) []domain.Article {
	if desired <= 0 {
		return nil
	}

	req := Request{
		Kind:     kind,
		Query:    query,
		Language: a.language,
		Country:  a.country,
		Limit:    desired * candidateFactor,
	}

	// One slot per provider so the merged pool keeps priority order no
	// matter which query finishes first.
	raw := make([][]RawArticle, len(a.providers))
	p := pool.New()
	for i, provider := range a.providers {
		p.Go(func() {
			queryCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			records, err := provider.Fetch(queryCtx, req)
			if err != nil {
				a.debug("provider failed", "provider", provider.Name(), "error", err)
				return
			}
			a.debug("provider returned", "provider", provider.Name(), "count", len(records))
			raw[i] = records
		})
	}
	p.Wait()

	now := a.now()
	combined := make([]domain.Article, 0, desired*candidateFactor)
	for _, records := range raw {
		for _, record := range records {
			combined = append(combined, Normalize(record, now))
		}
	}

	unique := domain.DedupArticles(combined)
	selected := selectRecent(unique, windowFor(kind), now, desired)

	a.debug("aggregation done", "kind", kind, "pool", len(combined), "unique", len(unique), "selected", len(selected))
	return selected
}

func windowFor(kind Kind) time.Duration {
	if kind == KindTopic {
		return topicWindow
	}
	return generalWindow
}

// selectRecent partitions articles into within-window and older, sorts each
// most-recent-first, and tops up from older only when the window does not
// cover desired on its own.
func selectRecent(articles []domain.Article, window time.Duration, now time.Time, desired int) []domain.Article {
	cutoff := now.Add(-window)

	var recent, older []domain.Article
	for _, a := range articles {
		if a.PublishedAt == nil || !a.PublishedAt.Before(cutoff) {
			recent = append(recent, a)
		} else {
			older = append(older, a)
		}
	}

	byNewest(recent)
	byNewest(older)

	result := recent
	if len(result) < desired {
		need := desired - len(result)
		if need > len(older) {
			need = len(older)
		}
		result = append(result, older[:need]...)
	}

	if len(result) > desired {
		result = result[:desired]
	}
	return result
}

func byNewest(articles []domain.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, tj := articles[i].PublishedAt, articles[j].PublishedAt
		if ti == nil || tj == nil {
			// A missing timestamp counts as maximally recent.
			return ti == nil && tj != nil
		}
		return ti.After(*tj)
	})
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
