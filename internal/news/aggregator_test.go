package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCaster/internal/domain"
)

type stubProvider struct {
	name     string
	articles []RawArticle
	err      error
	delay    time.Duration
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(ctx context.Context, req Request) ([]RawArticle, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.articles, nil
}

func raw(title, published string) RawArticle {
	return RawArticle{Title: title, Description: "desc", PublishedAt: published}
}

func newTestAggregator(now time.Time, providers ...Provider) *Aggregator {
	agg := NewAggregator(providers, time.Second, "en", "us", nil)
	agg.now = func() time.Time { return now }
	return agg
}

func TestAggregatorMergesInPriorityOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(time.RFC3339)

	primary := &stubProvider{name: "primary", articles: []RawArticle{raw("From Primary", fresh)}}
	// The slower secondary provider must still land after the primary in
	// the merged pool.
	secondary := &stubProvider{
		name:     "secondary",
		delay:    50 * time.Millisecond,
		articles: []RawArticle{raw("From Secondary", fresh)},
	}

	agg := newTestAggregator(now, primary, secondary)
	articles := agg.Fetch(context.Background(), KindGeneral, "", 5)

	require.Len(t, articles, 2)
	assert.Equal(t, "From Primary", articles[0].Title)
	assert.Equal(t, "From Secondary", articles[1].Title)
}

func TestAggregatorAbsorbsProviderFailures(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(time.RFC3339)

	broken := &stubProvider{name: "broken", err: errors.New("upstream 500")}
	working := &stubProvider{name: "working", articles: []RawArticle{raw("Still Here", fresh)}}

	agg := newTestAggregator(now, broken, working)
	articles := agg.Fetch(context.Background(), KindGeneral, "", 5)

	require.Len(t, articles, 1)
	assert.Equal(t, "Still Here", articles[0].Title)
}

func TestAggregatorEmptyOnlyWhenAllProvidersEmpty(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	agg := newTestAggregator(now,
		&stubProvider{name: "a", err: errors.New("down")},
		&stubProvider{name: "b"},
	)
	assert.Empty(t, agg.Fetch(context.Background(), KindGeneral, "", 5))
}

func TestAggregatorDeduplicatesAcrossProviders(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(time.RFC3339)

	a := &stubProvider{name: "a", articles: []RawArticle{raw("Shared Headline", fresh), raw("Only A", fresh)}}
	b := &stubProvider{name: "b", articles: []RawArticle{raw("shared headline", fresh), raw("Only B", fresh)}}

	agg := newTestAggregator(now, a, b)
	articles := agg.Fetch(context.Background(), KindGeneral, "", 10)

	require.Len(t, articles, 3)
	assert.Equal(t, "Shared Headline", articles[0].Title)
}

func TestAggregatorPrefersRecencyThenTopsUpFromOlder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	within := now.Add(-6 * time.Hour).Format(time.RFC3339)
	older := now.Add(-48 * time.Hour).Format(time.RFC3339)
	oldest := now.Add(-96 * time.Hour).Format(time.RFC3339)

	p := &stubProvider{name: "p", articles: []RawArticle{
		raw("Two Days Old", older),
		raw("Fresh", within),
		raw("Ancient", oldest),
	}}

	agg := newTestAggregator(now, p)

	// General requests use the 24h window; only one article is within it,
	// so the rest is topped up from older entries, newest first.
	articles := agg.Fetch(context.Background(), KindGeneral, "", 2)
	require.Len(t, articles, 2)
	assert.Equal(t, "Fresh", articles[0].Title)
	assert.Equal(t, "Two Days Old", articles[1].Title)

	// Topic requests widen the window to 72h.
	articles = agg.Fetch(context.Background(), KindTopic, "anything", 2)
	require.Len(t, articles, 2)
	assert.Equal(t, "Fresh", articles[0].Title)
	assert.Equal(t, "Two Days Old", articles[1].Title)
}

func TestAggregatorTruncatesToDesired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(time.RFC3339)

	var pool []RawArticle
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		pool = append(pool, raw(title, fresh))
	}

	agg := newTestAggregator(now, &stubProvider{name: "p", articles: pool})
	articles := agg.Fetch(context.Background(), KindGeneral, "", 3)
	assert.Len(t, articles, 3)
}

func TestAggregatorZeroDesired(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(time.Now(), &stubProvider{name: "p"})
	assert.Nil(t, agg.Fetch(context.Background(), KindGeneral, "", 0))
}

func TestSelectRecentMissingTimestampCountsAsFresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	old := now.Add(-30 * time.Hour)

	articles := selectRecent([]domain.Article{
		{Title: "Dated", PublishedAt: &old},
		{Title: "Undated"},
	}, generalWindow, now, 2)

	require.Len(t, articles, 2)
	assert.Equal(t, "Undated", articles[0].Title)
}
