package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFallbacks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	article := Normalize(RawArticle{
		Title:       "  Headline  ",
		Description: "the description",
	}, now)

	assert.Equal(t, "Headline", article.Title)
	assert.Equal(t, "the description", article.Content, "content falls back to description")
	assert.Equal(t, "Unknown", article.Source)
	require.NotNil(t, article.PublishedAt)
	assert.True(t, article.PublishedAt.Equal(now), "missing date is treated as now")
}

func TestNormalizeParsesProviderDates(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"rfc3339", "2026-08-27T08:30:00Z", time.Date(2026, 8, 27, 8, 30, 0, 0, time.UTC)},
		{"rfc1123z", "Thu, 27 Aug 2026 08:30:00 +0000", time.Date(2026, 8, 27, 8, 30, 0, 0, time.UTC)},
		{"date only", "2026-08-27", time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)},
		{"garbage", "yesterday-ish", now},
		{"empty", "", now},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			article := Normalize(RawArticle{Title: "x", PublishedAt: tc.value}, now)
			require.NotNil(t, article.PublishedAt)
			assert.True(t, article.PublishedAt.Equal(tc.want), "got %v want %v", article.PublishedAt, tc.want)
		})
	}
}
