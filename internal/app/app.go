package app

import (
	"context"
	"fmt"
	"log/slog"

	"NewsCaster/internal/config"
	"NewsCaster/internal/domain"
	"NewsCaster/internal/graph"
	"NewsCaster/internal/guardrail"
	"NewsCaster/internal/infrastructure/gnews"
	"NewsCaster/internal/infrastructure/llm"
	"NewsCaster/internal/infrastructure/newsapi"
	"NewsCaster/internal/infrastructure/rss"
	"NewsCaster/internal/infrastructure/scheduler"
	"NewsCaster/internal/infrastructure/storage"
	"NewsCaster/internal/infrastructure/telegram"
	"NewsCaster/internal/infrastructure/tts"
	"NewsCaster/internal/logging"
	"NewsCaster/internal/news"
	"NewsCaster/internal/usecase"
)

// Application wires every collaborator once at startup and passes them by
// reference into each run; no process-wide singletons.
type Application struct {
	cfg       config.Config
	service   *usecase.Service
	scheduler *scheduler.DailyScheduler
	logger    *slog.Logger
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}
	repository := storage.NewPostgresRepository(db)
	if err := repository.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init storage schema: %w", err)
	}

	providers := []news.Provider{
		newsapi.NewClient(cfg.News.NewsAPI),
		gnews.NewClient(cfg.News.GNews),
		rss.NewScraper(cfg.News.Feed, nil),
	}
	aggregator := news.NewAggregator(
		providers,
		cfg.News.ProviderTimeout,
		cfg.News.Language,
		cfg.News.Country,
		logging.Component(baseLogger, "aggregator"),
	)

	scriptGate := guardrail.NewScriptGuardrail(guardrail.Options{
		Openings:      cfg.Guardrail.Openings,
		Closings:      cfg.Guardrail.Closings,
		Sensitive:     cfg.Guardrail.Sensitive,
		Hallucination: cfg.Guardrail.Hallucination,
	}, logging.Component(baseLogger, "guardrail"))
	inputGate := guardrail.NewInputGuardrail(cfg.Guardrail.Prohibited)

	nodes := graph.NewNodes(
		aggregator,
		llm.NewOpenAIClient(cfg.Oracle),
		tts.NewClient(cfg.TTS),
		telegram.NewTransport(cfg.Telegram.BotToken),
		scriptGate,
		inputGate,
		cfg.Guardrail.RetryOnce,
		cfg.News.GeneralCount,
		cfg.News.TopicCount,
		logging.Component(baseLogger, "nodes"),
	)

	pipeline := graph.New(nodes, cfg.Run.Budget, logging.Component(baseLogger, "graph"))
	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage graph: %w", err)
	}

	service := usecase.NewService(pipeline, repository, logging.Component(baseLogger, "service"))
	daily := scheduler.NewDailyScheduler(cfg.Scheduler.Hour, cfg.Scheduler.Minute, cfg.Scheduler.Location())

	return &Application{
		cfg:       cfg,
		service:   service,
		scheduler: daily,
		logger:    baseLogger,
	}, nil
}

// Service exposes the run orchestrator for transports and tests.
func (a *Application) Service() *usecase.Service {
	return a.service
}

// Run starts the daily trigger and blocks until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	job := func(jobCtx context.Context) {
		for _, conversationID := range a.cfg.Scheduler.Conversations {
			if _, err := a.service.HandleRequest(jobCtx, usecase.Request{
				ConversationID: conversationID,
				Mode:           domain.ModeDaily,
			}); err != nil {
				a.logger.Error("scheduled run failed", "conversation", conversationID, "error", err)
			}
		}
	}

	if err := a.scheduler.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		_ = a.scheduler.Stop(context.WithoutCancel(ctx))
	}()

	<-ctx.Done()
	return nil
}
