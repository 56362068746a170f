package ports

import (
	"context"

	"NewsCaster/internal/domain"
)

// Oracle is the external language generation service. Output is opaque
// text; callers own any structured interpretation of it.
type Oracle interface {
	Generate(ctx context.Context, instructions, content string) (string, error)
}

// Synthesizer turns a validated script into an audio reference. It must
// never receive text without a non-failed guardrail verdict.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, filename string) (string, error)
}

// Transport delivers run output to the conversation channel.
type Transport interface {
	SendText(ctx context.Context, conversationID, text string) error
	SendAudio(ctx context.Context, conversationID, audioRef, caption string) error
}

// StateRepository persists per-(conversation, date) day state plus the
// independent append-only conversation log.
type StateRepository interface {
	Load(ctx context.Context, conversationID, date string) (*domain.DayState, error)
	Save(ctx context.Context, state domain.DayState) error
	Delete(ctx context.Context, conversationID, date string) error
	AppendLog(ctx context.Context, conversationID, date string, messages []domain.Message) error
	History(ctx context.Context, conversationID string, days int) ([]domain.Message, error)
}

// Scheduler controls when the daily digest fires.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
}
