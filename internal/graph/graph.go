// Package graph implements the stage graph executor: a fixed, declarative
// node/edge topology per mode, threading one mutable run state and
// recording an audit entry per stage.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/guardrail"
)

// Node names of the fixed topology.
const (
	NodeEntry           = "entry"
	NodeFetchGeneral    = "fetch-general"
	NodeFetchTopic      = "fetch-topic"
	NodeWrite           = "write"
	NodeEvaluateContext = "evaluate-context"
	NodeFetchExtra      = "fetch-extra"
	NodeAnswerPlain     = "answer-plain"
	NodeAnswerAugmented = "answer-augmented"
	NodeNarrate         = "narrate"
	NodePublish         = "publish"
	NodeFinalize        = "finalize"
)

// RunState is the mutable state threaded through one run. It embeds the
// persistable day state plus run-scoped control fields.
type RunState struct {
	domain.DayState

	RunID    string
	Verdict  guardrail.Verdict
	Records  []domain.StageRecord
	Duration time.Duration

	// Failed forces the publish stage to emit a generic failure notice
	// instead of content.
	Failed bool
}

func (s *RunState) record(rec domain.StageRecord) {
	s.Records = append(s.Records, rec)
}

// Handler executes one stage against the run state.
type Handler func(ctx context.Context, s *RunState) error

// Router picks the next node after its source stage completed.
type Router func(s *RunState) string

// Graph is a declarative stage topology: handlers, static edges and
// conditional routers are registered separately from handler bodies.
type Graph struct {
	entry    string
	handlers map[string]Handler
	edges    map[string]string
	routers  map[string]Router
	budget   time.Duration
	logger   *slog.Logger
}

// New assembles the fixed topology over the supplied handlers.
func New(nodes *Nodes, budget time.Duration, logger *slog.Logger) *Graph {
	g := &Graph{
		entry:    NodeEntry,
		handlers: map[string]Handler{},
		edges:    map[string]string{},
		routers:  map[string]Router{},
		budget:   budget,
		logger:   logger,
	}

	g.handlers[NodeEntry] = nodes.Entry
	g.handlers[NodeFetchGeneral] = nodes.FetchGeneral
	g.handlers[NodeFetchTopic] = nodes.FetchTopic
	g.handlers[NodeWrite] = nodes.Write
	g.handlers[NodeEvaluateContext] = nodes.EvaluateContext
	g.handlers[NodeFetchExtra] = nodes.FetchExtra
	g.handlers[NodeAnswerPlain] = nodes.AnswerPlain
	g.handlers[NodeAnswerAugmented] = nodes.AnswerAugmented
	g.handlers[NodeNarrate] = nodes.Narrate
	g.handlers[NodePublish] = nodes.Publish
	g.handlers[NodeFinalize] = nodes.Finalize

	g.routers[NodeEntry] = routeByMode
	g.routers[NodeEvaluateContext] = routeByContext

	g.edges[NodeFetchGeneral] = NodeWrite
	g.edges[NodeFetchTopic] = NodeWrite
	g.edges[NodeWrite] = NodeNarrate
	g.edges[NodeFetchExtra] = NodeAnswerAugmented
	g.edges[NodeAnswerPlain] = NodePublish
	g.edges[NodeAnswerAugmented] = NodePublish
	g.edges[NodeNarrate] = NodePublish
	g.edges[NodePublish] = NodeFinalize
	g.edges[NodeFinalize] = ""

	return g
}

// routeByMode selects the first real stage. Deterministic on mode alone.
func routeByMode(s *RunState) string {
	switch s.Mode {
	case domain.ModeDaily:
		return NodeFetchGeneral
	case domain.ModeTopic, domain.ModeDebate:
		return NodeFetchTopic
	default:
		return NodeEvaluateContext
	}
}

// routeByContext branches on the evaluator decision. Anything but an
// explicit yes takes the augmentation path.
func routeByContext(s *RunState) string {
	if s.ContextSufficient == domain.TriYes {
		return NodeAnswerPlain
	}
	return NodeFetchExtra
}

// Validate statically checks that every edge and router target is a
// registered node and that every node reaches finalize.
func (g *Graph) Validate() error {
	targets := map[string][]string{}
	for from, to := range g.edges {
		if to != "" {
			targets[from] = append(targets[from], to)
		}
	}
	targets[NodeEntry] = []string{NodeFetchGeneral, NodeFetchTopic, NodeEvaluateContext}
	targets[NodeEvaluateContext] = []string{NodeAnswerPlain, NodeFetchExtra}

	for from, tos := range targets {
		if _, ok := g.handlers[from]; !ok {
			return fmt.Errorf("edge source %q is not a registered node", from)
		}
		for _, to := range tos {
			if _, ok := g.handlers[to]; !ok {
				return fmt.Errorf("edge %s -> %s targets unregistered node", from, to)
			}
		}
	}

	for node := range g.handlers {
		if !g.reaches(node, NodeFinalize, targets, map[string]bool{}) {
			return fmt.Errorf("node %q cannot reach %s", node, NodeFinalize)
		}
	}
	return nil
}

func (g *Graph) reaches(from, goal string, targets map[string][]string, seen map[string]bool) bool {
	if from == goal {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, next := range targets[from] {
		if g.reaches(next, goal, targets, seen) {
			return true
		}
	}
	return false
}

// Run executes the mode-appropriate stage sequence under the run budget.
// A stage failure aborts everything downstream of narration/answer
// generation but still forces a generic failure publish: the pipeline
// never terminates silently.
func (g *Graph) Run(ctx context.Context, state domain.DayState) RunState {
	s := RunState{DayState: state, RunID: uuid.NewString()}
	started := time.Now()

	runCtx := ctx
	cancel := func() {}
	if g.budget > 0 {
		runCtx, cancel = context.WithTimeout(ctx, g.budget)
	}
	defer cancel()

	current := g.entry
	for current != "" {
		if runCtx.Err() != nil && current != NodePublish && current != NodeFinalize {
			g.info("run budget exceeded", "run_id", s.RunID, "at", current)
			s.Failed = true
			// Publish the failure notice on a detached context so the
			// exhausted budget cannot swallow the apology.
			runCtx = context.WithoutCancel(ctx)
			current = NodePublish
			continue
		}

		// The guardrail gate is the executor's invariant, not a handler
		// convention: narration is unreachable without a non-failed
		// verdict for the candidate script.
		if current == NodeNarrate && (s.Script == "" || s.Verdict.Blocks()) {
			g.info("narration blocked by guardrail", "run_id", s.RunID, "rules", s.Verdict.Rules)
			s.Failed = true
			s.record(domain.StageRecord{Stage: NodeNarrate, Status: domain.StageFailed, Err: "guardrail verdict blocks narration"})
			current = NodePublish
			continue
		}

		rec := domain.StageRecord{Stage: current, Status: domain.StageRunning, Input: summarizeInput(&s)}
		err := g.handlers[current](runCtx, &s)
		if err != nil {
			rec.Status = domain.StageFailed
			rec.Err = err.Error()
			s.record(rec)
			g.info("stage failed", "run_id", s.RunID, "stage", current, "error", err)

			switch current {
			case NodePublish:
				// A failed publish is recorded and the run still finalizes.
				current = NodeFinalize
			case NodeFinalize:
				current = ""
			default:
				s.Failed = true
				current = NodePublish
			}
			// The budget may have expired inside the failed handler; the
			// remaining publish/finalize stages must not inherit the dead
			// context or the failure notice is swallowed.
			if runCtx.Err() != nil {
				runCtx = context.WithoutCancel(ctx)
			}
			continue
		}

		rec.Status = domain.StageCompleted
		rec.Output = summarizeOutput(current, &s)
		s.record(rec)

		if router, ok := g.routers[current]; ok {
			current = router(&s)
			continue
		}
		current = g.edges[current]
	}

	s.Duration = time.Since(started)
	return s
}

func summarizeInput(s *RunState) string {
	return fmt.Sprintf("mode=%s articles=%d external=%d", s.Mode, len(s.Articles), len(s.ExternalArticles))
}

func summarizeOutput(node string, s *RunState) string {
	switch node {
	case NodeFetchGeneral, NodeFetchTopic:
		return fmt.Sprintf("%d articles", len(s.Articles))
	case NodeFetchExtra:
		return fmt.Sprintf("%d external articles", len(s.ExternalArticles))
	case NodeWrite:
		return fmt.Sprintf("script %d words, verdict %s", wordCount(s.Script), s.Verdict.Status)
	case NodeEvaluateContext:
		return fmt.Sprintf("context_sufficient=%s", s.ContextSufficient)
	case NodeAnswerPlain, NodeAnswerAugmented:
		return fmt.Sprintf("answer %d chars", len(s.Answer))
	case NodeNarrate:
		return s.AudioRef
	default:
		return ""
	}
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func (g *Graph) info(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Info(msg, args...)
	}
}
