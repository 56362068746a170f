// Package usecase orchestrates single runs: state load, graph execution,
// merge and persistence.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/graph"
	"NewsCaster/internal/ports"
)

// Request is one inbound pipeline invocation: a user command, a scheduled
// trigger or a free-text question.
type Request struct {
	ConversationID string
	Mode           domain.Mode
	UserInput      string
	Date           string // YYYY-MM-DD; empty means today
}

// Service threads day state through the graph and persists the merged
// result. Runs for the same (conversation, date) key are serialized;
// runs for different keys proceed independently.
type Service struct {
	graph      *graph.Graph
	repository ports.StateRepository
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService constructs the run orchestrator.
func NewService(g *graph.Graph, repository ports.StateRepository, logger *slog.Logger) *Service {
	return &Service{
		graph:      g,
		repository: repository,
		logger:     logger,
		locks:      map[string]*sync.Mutex{},
	}
}

// HandleRequest executes one run and returns its final state. A
// persistence failure is logged but never degrades the live result.
func (s *Service) HandleRequest(ctx context.Context, req Request) (domain.DayState, error) {
	if req.ConversationID == "" {
		return domain.DayState{}, fmt.Errorf("%w: missing conversation id", domain.ErrValidation)
	}
	mode, err := domain.ParseMode(string(req.Mode))
	if err != nil {
		return domain.DayState{}, err
	}
	if mode.RequiresInput() && req.UserInput == "" {
		return domain.DayState{}, fmt.Errorf("%w: mode %s requires user input", domain.ErrValidation, mode)
	}

	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	lock := s.keyLock(req.ConversationID, date)
	lock.Lock()
	defer lock.Unlock()

	prior, err := s.repository.Load(ctx, req.ConversationID, date)
	if err != nil {
		// A read failure must not block the run; start from a fresh state.
		s.logger.Warn("state load failed, starting fresh", "conversation", req.ConversationID, "date", date, "error", err)
		prior = nil
	}

	initial := domain.NewDayState(req.ConversationID, date, mode, req.UserInput, prior)
	result := s.graph.Run(ctx, initial)

	final := result.DayState
	if prior != nil {
		final = domain.Merge(*prior, result.DayState)
	}

	if err := s.repository.Save(ctx, final); err != nil {
		s.logger.Error("state save failed", "conversation", req.ConversationID, "date", date, "error", err)
	} else if added := newMessages(prior, result.DayState); len(added) > 0 {
		if err := s.repository.AppendLog(ctx, req.ConversationID, date, added); err != nil {
			s.logger.Error("conversation log append failed", "conversation", req.ConversationID, "error", err)
		}
	}

	s.logger.Info("run handled",
		"run_id", result.RunID,
		"conversation", req.ConversationID,
		"mode", mode,
		"stages", len(result.Records),
		"failed", result.Failed,
		"duration", result.Duration,
	)

	return final, nil
}

// newMessages returns the conversation entries this run appended beyond
// the prior state's history.
func newMessages(prior *domain.DayState, next domain.DayState) []domain.Message {
	offset := 0
	if prior != nil {
		offset = len(prior.Conversation)
	}
	if offset >= len(next.Conversation) {
		return nil
	}
	return next.Conversation[offset:]
}

func (s *Service) keyLock(conversationID, date string) *sync.Mutex {
	key := conversationID + "|" + date
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}
