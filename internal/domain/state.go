package domain

import (
	"fmt"
	"time"
)

// Mode selects which stage sequence a run executes. Immutable for the
// lifetime of one run.
type Mode string

const (
	ModeDaily    Mode = "daily"
	ModeTopic    Mode = "topic"
	ModeDebate   Mode = "debate"
	ModeQuestion Mode = "question"
)

// ParseMode validates a mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeDaily, ModeTopic, ModeDebate, ModeQuestion:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrValidation, value)
	}
}

// RequiresInput reports whether the mode needs a user-supplied topic or
// question to run.
func (m Mode) RequiresInput() bool {
	return m == ModeTopic || m == ModeDebate || m == ModeQuestion
}

// Tri is a tri-state flag for decisions that start out undetermined.
type Tri int

const (
	TriUnknown Tri = iota
	TriYes
	TriNo
)

func (t Tri) String() string {
	switch t {
	case TriYes:
		return "yes"
	case TriNo:
		return "no"
	default:
		return "unknown"
	}
}

// Message is one entry of a day's conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DayState is the per-(conversation, date) state threaded through a run
// and persisted via Merge at run completion.
type DayState struct {
	ConversationID string `json:"conversation_id"`
	Date           string `json:"date"` // YYYY-MM-DD

	Mode      Mode   `json:"mode"`
	UserInput string `json:"user_input,omitempty"`

	Articles         []Article `json:"articles"`
	ExternalArticles []Article `json:"external_articles,omitempty"`

	Script   string `json:"script,omitempty"`
	Answer   string `json:"answer,omitempty"`
	AudioRef string `json:"audio_ref,omitempty"`

	ContextSufficient Tri `json:"context_sufficient"`

	Conversation []Message `json:"conversation"`
}

// NewDayState creates the initial state for a run, carrying over articles
// and conversation history accumulated earlier the same day.
func NewDayState(conversationID, date string, mode Mode, userInput string, prior *DayState) DayState {
	state := DayState{
		ConversationID:    conversationID,
		Date:              date,
		Mode:              mode,
		UserInput:         userInput,
		ContextSufficient: TriUnknown,
	}
	if prior != nil {
		state.Articles = append(state.Articles, prior.Articles...)
		state.ExternalArticles = append(state.ExternalArticles, prior.ExternalArticles...)
		state.Conversation = append(state.Conversation, prior.Conversation...)
	}
	return state
}

// Merge combines the state persisted earlier in the day with the state
// produced by the run that just finished. Articles accumulate without
// duplicate normalized titles, existing-first. Scalars take the new value
// only when set. Conversation history never shrinks: entries from next
// beyond the shared prefix are appended, a shorter next log is ignored.
func Merge(existing, next DayState) DayState {
	merged := next

	merged.Articles = appendNewArticles(existing.Articles, next.Articles)
	merged.ExternalArticles = appendNewArticles(existing.ExternalArticles, next.ExternalArticles)

	if next.Script == "" {
		merged.Script = existing.Script
	}
	if next.Answer == "" {
		merged.Answer = existing.Answer
	}
	if next.AudioRef == "" {
		merged.AudioRef = existing.AudioRef
	}

	merged.Conversation = mergeConversations(existing.Conversation, next.Conversation)

	return merged
}

func appendNewArticles(existing, next []Article) []Article {
	seen := make(map[string]struct{}, len(existing))
	out := make([]Article, 0, len(existing)+len(next))
	for _, a := range existing {
		if key := a.NormalizedTitle(); key != "" {
			seen[key] = struct{}{}
		}
		out = append(out, a)
	}
	for _, a := range next {
		key := a.NormalizedTitle()
		if key != "" {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, a)
	}
	return out
}

func mergeConversations(existing, next []Message) []Message {
	if len(next) <= len(existing) {
		return existing
	}
	out := make([]Message, 0, len(next))
	out = append(out, existing...)
	out = append(out, next[len(existing):]...)
	return out
}
