package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"daily", "topic", "debate", "question"} {
		mode, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), mode)
	}

	_, err := ParseMode("weekly")
	require.ErrorIs(t, err, ErrValidation)

	_, err = ParseMode("")
	require.ErrorIs(t, err, ErrValidation)
}

func TestModeRequiresInput(t *testing.T) {
	t.Parallel()

	assert.False(t, ModeDaily.RequiresInput())
	assert.True(t, ModeTopic.RequiresInput())
	assert.True(t, ModeDebate.RequiresInput())
	assert.True(t, ModeQuestion.RequiresInput())
}

func TestMergeAccumulatesArticles(t *testing.T) {
	t.Parallel()

	existing := DayState{
		ConversationID: "c1",
		Date:           "2026-08-28",
		Articles: []Article{
			{Title: "Alpha", Source: "BBC"},
			{Title: "Beta", Source: "Reuters"},
		},
	}
	next := DayState{
		ConversationID: "c1",
		Date:           "2026-08-28",
		Articles: []Article{
			{Title: "beta", Source: "GNews"}, // duplicate up to case
			{Title: "Gamma", Source: "AP"},
		},
	}

	merged := Merge(existing, next)

	require.Len(t, merged.Articles, 3)
	// Existing entries come first and win over duplicates.
	assert.Equal(t, "Alpha", merged.Articles[0].Title)
	assert.Equal(t, "Beta", merged.Articles[1].Title)
	assert.Equal(t, "Reuters", merged.Articles[1].Source)
	assert.Equal(t, "Gamma", merged.Articles[2].Title)
}

func TestMergeScalarsTakeNewValueOnlyWhenSet(t *testing.T) {
	t.Parallel()

	existing := DayState{
		Script:   "morning script",
		Answer:   "earlier answer",
		AudioRef: "/tmp/morning.wav",
	}

	next := DayState{Answer: "fresh answer"}
	merged := Merge(existing, next)

	assert.Equal(t, "morning script", merged.Script)
	assert.Equal(t, "fresh answer", merged.Answer)
	assert.Equal(t, "/tmp/morning.wav", merged.AudioRef)

	overwrite := DayState{Script: "evening script", AudioRef: "/tmp/evening.wav"}
	merged = Merge(existing, overwrite)

	assert.Equal(t, "evening script", merged.Script)
	assert.Equal(t, "/tmp/evening.wav", merged.AudioRef)
}

func TestMergeConversationNeverShrinks(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	existing := DayState{Conversation: []Message{
		{Role: "user", Content: "morning news?", Timestamp: at},
		{Role: "assistant", Content: "here it is", Timestamp: at.Add(time.Minute)},
	}}

	// A run that started from stale state produces a shorter log; the
	// longer persisted history wins.
	shorter := DayState{Conversation: existing.Conversation[:1]}
	merged := Merge(existing, shorter)
	assert.Len(t, merged.Conversation, 2)

	longer := DayState{Conversation: append(append([]Message{}, existing.Conversation...),
		Message{Role: "user", Content: "and sports?", Timestamp: at.Add(time.Hour)},
	)}
	merged = Merge(existing, longer)
	require.Len(t, merged.Conversation, 3)
	assert.Equal(t, "and sports?", merged.Conversation[2].Content)
}

// A later topic run the same day must keep the morning digest's articles
// and script while adding its own.
func TestMergeSecondRunSameDay(t *testing.T) {
	t.Parallel()

	morning := DayState{
		ConversationID: "c1",
		Date:           "2026-08-28",
		Mode:           ModeDaily,
		Articles:       []Article{{Title: "Headline One"}, {Title: "Headline Two"}},
		Script:         "daily digest script",
		AudioRef:       "/audio/daily.wav",
	}

	afternoon := DayState{
		ConversationID: "c1",
		Date:           "2026-08-28",
		Mode:           ModeTopic,
		UserInput:      "space",
		Articles: []Article{
			{Title: "Headline Two"}, // carried over
			{Title: "Rocket Launch"},
		},
		Script:   "topic segment script",
		AudioRef: "/audio/topic.wav",
	}

	merged := Merge(morning, afternoon)

	require.Len(t, merged.Articles, 3)
	assert.Equal(t, ModeTopic, merged.Mode)
	assert.Equal(t, "space", merged.UserInput)
	assert.Equal(t, "topic segment script", merged.Script)
	assert.Equal(t, "/audio/topic.wav", merged.AudioRef)
}

func TestNewDayStateCarriesPriorHistory(t *testing.T) {
	t.Parallel()

	prior := DayState{
		Articles:     []Article{{Title: "Old"}},
		Conversation: []Message{{Role: "user", Content: "hi"}},
	}

	state := NewDayState("c1", "2026-08-28", ModeQuestion, "what happened?", &prior)

	assert.Equal(t, "c1", state.ConversationID)
	assert.Equal(t, ModeQuestion, state.Mode)
	assert.Equal(t, TriUnknown, state.ContextSufficient)
	assert.Len(t, state.Articles, 1)
	assert.Len(t, state.Conversation, 1)

	fresh := NewDayState("c1", "2026-08-28", ModeDaily, "", nil)
	assert.Empty(t, fresh.Articles)
	assert.Empty(t, fresh.Conversation)
}

func TestTriString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", TriUnknown.String())
	assert.Equal(t, "yes", TriYes.String())
	assert.Equal(t, "no", TriNo.String())
}
