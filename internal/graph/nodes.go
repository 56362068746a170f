package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/guardrail"
	"NewsCaster/internal/news"
	"NewsCaster/internal/ports"
)

const failureNotice = "Sorry, I could not prepare your news update right now. Please try again later."

// maxTelegramText bounds fallback text sends.
const maxTelegramText = 4000

// Nodes holds the stage handlers and every collaborator they delegate to.
// The executor itself performs no I/O beyond sequencing.
type Nodes struct {
	Aggregator   *news.Aggregator
	Oracle       ports.Oracle
	Synthesizer  ports.Synthesizer
	Transport    ports.Transport
	Script       *guardrail.ScriptGuardrail
	Input        *guardrail.InputGuardrail
	RetryOnce    bool
	GeneralCount int
	TopicCount   int
	Logger       *slog.Logger

	now func() time.Time
}

// NewNodes wires the handler set. Counts fall back to sane defaults.
func NewNodes(agg *news.Aggregator, oracle ports.Oracle, synth ports.Synthesizer, transport ports.Transport,
	script *guardrail.ScriptGuardrail, input *guardrail.InputGuardrail, retryOnce bool,
	generalCount, topicCount int, logger *slog.Logger) *Nodes {
	if generalCount <= 0 {
		generalCount = 10
	}
	if topicCount <= 0 {
		topicCount = 8
	}
	return &Nodes{
		Aggregator:   agg,
		Oracle:       oracle,
		Synthesizer:  synth,
		Transport:    transport,
		Script:       script,
		Input:        input,
		RetryOnce:    retryOnce,
		GeneralCount: generalCount,
		TopicCount:   topicCount,
		Logger:       logger,
		now:          time.Now,
	}
}

// Entry validates the request and appends the user turn to the history.
func (n *Nodes) Entry(ctx context.Context, s *RunState) error {
	if _, err := domain.ParseMode(string(s.Mode)); err != nil {
		return err
	}

	if s.Mode.RequiresInput() {
		verdict := n.Input.Validate(s.UserInput)
		if verdict.Blocks() {
			return fmt.Errorf("%w: %s", domain.ErrValidation, verdict.Message)
		}
		s.Conversation = append(s.Conversation, domain.Message{
			Role:      "user",
			Content:   s.UserInput,
			Timestamp: n.now(),
		})
	}
	return nil
}

// FetchGeneral pulls the day's headline pool into the state.
func (n *Nodes) FetchGeneral(ctx context.Context, s *RunState) error {
	fetched := n.Aggregator.Fetch(ctx, news.KindGeneral, "", n.GeneralCount)
	s.Articles = domain.DedupArticles(append(s.Articles, fetched...))
	return nil
}

// FetchTopic pulls topic-focused articles for topic and debate runs.
func (n *Nodes) FetchTopic(ctx context.Context, s *RunState) error {
	fetched := n.Aggregator.Fetch(ctx, news.KindTopic, s.UserInput, n.TopicCount)
	s.Articles = domain.DedupArticles(append(s.Articles, fetched...))
	return nil
}

// Write asks the oracle for a narration script and gates it through the
// guardrail, optionally retrying generation once on a failed verdict.
func (n *Nodes) Write(ctx context.Context, s *RunState) error {
	if len(s.Articles) == 0 {
		return fmt.Errorf("%w: no articles to write about", domain.ErrGeneration)
	}

	instructions := writerInstructions(s.Mode, s.UserInput)
	content := formatArticles(s.Articles)

	script, err := n.Oracle.Generate(ctx, instructions, content)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	verdict := n.Script.Validate(script, s.Mode)
	if verdict.Blocks() && n.RetryOnce {
		n.info("regenerating script after guardrail failure", "rules", verdict.Rules)
		retry := instructions + "\n\nThe previous draft was rejected (" +
			strings.Join(verdict.Rules, ", ") + "). Follow the length and structure rules strictly."
		if script2, err2 := n.Oracle.Generate(ctx, retry, content); err2 == nil {
			if v2 := n.Script.Validate(script2, s.Mode); !v2.Blocks() || len(v2.Rules) < len(verdict.Rules) {
				script, verdict = script2, v2
			}
		}
	}

	s.Script = script
	s.Verdict = verdict
	if verdict.Blocks() {
		return fmt.Errorf("%w: %s", domain.ErrGuardrail, verdict.Message)
	}
	return nil
}

// EvaluateContext asks the oracle for a binary sufficiency decision over
// the day's articles and recent conversation. Any ambiguity, emptiness or
// error defaults to insufficient.
func (n *Nodes) EvaluateContext(ctx context.Context, s *RunState) error {
	if strings.TrimSpace(s.UserInput) == "" || len(s.Articles) == 0 {
		s.ContextSufficient = domain.TriNo
		return nil
	}

	instructions := "You judge whether the given context is sufficient to answer the user's question. " +
		"Reply with exactly YES or NO. Be conservative: when in doubt, reply NO."
	content := fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", formatContext(s), s.UserInput)

	reply, err := n.Oracle.Generate(ctx, instructions, content)
	if err != nil {
		n.info("context evaluation failed, defaulting to insufficient", "error", err)
		s.ContextSufficient = domain.TriNo
		return nil
	}

	if isAffirmative(reply) {
		s.ContextSufficient = domain.TriYes
	} else {
		s.ContextSufficient = domain.TriNo
	}
	return nil
}

// Affirmative reply prefixes accepted from the evaluator. The list is not
// assumed complete; anything unrecognized stays on the conservative path.
// A bare "y" is deliberately absent: it would swallow the Spanish
// conjunction ("Y no hay...") and flip a negative reply to yes.
var affirmativePrefixes = []string{"yes", "sí", "si"}

func isAffirmative(reply string) bool {
	reply = strings.ToLower(strings.TrimSpace(reply))
	if reply == "" {
		return false
	}
	for _, prefix := range affirmativePrefixes {
		if reply == prefix || strings.HasPrefix(reply, prefix+" ") || strings.HasPrefix(reply, prefix+".") ||
			strings.HasPrefix(reply, prefix+",") {
			return true
		}
	}
	return false
}

// FetchExtra searches for additional articles when the day's context
// cannot answer the question.
func (n *Nodes) FetchExtra(ctx context.Context, s *RunState) error {
	terms := searchTerms(s.UserInput)
	fetched := n.Aggregator.Fetch(ctx, news.KindTopic, terms, 5)
	s.ExternalArticles = domain.DedupArticles(append(s.ExternalArticles, fetched...))
	return nil
}

// AnswerPlain answers from the day's articles and conversation alone.
func (n *Nodes) AnswerPlain(ctx context.Context, s *RunState) error {
	return n.answer(ctx, s, false)
}

// AnswerAugmented answers with the extra fetched articles included.
func (n *Nodes) AnswerAugmented(ctx context.Context, s *RunState) error {
	return n.answer(ctx, s, true)
}

func (n *Nodes) answer(ctx context.Context, s *RunState, augmented bool) error {
	instructions := "You are a concise news assistant. Answer the user's question using only the provided " +
		"context. If the context does not cover the question, say so plainly instead of speculating."

	content := fmt.Sprintf("CONTEXT:\n%s", formatContext(s))
	if augmented && len(s.ExternalArticles) > 0 {
		content += "\n\nADDITIONAL ARTICLES:\n" + formatArticles(s.ExternalArticles)
	}
	content += "\n\nQUESTION:\n" + s.UserInput

	answer, err := n.Oracle.Generate(ctx, instructions, content)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	s.Answer = answer
	s.Conversation = append(s.Conversation, domain.Message{
		Role:      "assistant",
		Content:   answer,
		Timestamp: n.now(),
	})
	return nil
}

// Narrate synthesizes the validated script. The executor guarantees the
// guardrail verdict is non-failed before this handler runs.
func (n *Nodes) Narrate(ctx context.Context, s *RunState) error {
	filename := fmt.Sprintf("cast_%s_%s_%s_%s.wav", s.ConversationID, s.Date, s.Mode, n.now().Format("150405"))
	ref, err := n.Synthesizer.Synthesize(ctx, s.Script, filename)
	if err != nil {
		return fmt.Errorf("narrate: %w", err)
	}
	s.AudioRef = ref
	return nil
}

// Publish delivers the run's output: audio first, then a textual answer,
// else a generic failure notice. An audio send failure falls back to
// sending the underlying script as text.
func (n *Nodes) Publish(ctx context.Context, s *RunState) error {
	switch {
	case !s.Failed && s.AudioRef != "":
		if err := n.Transport.SendAudio(ctx, s.ConversationID, s.AudioRef, captionFor(s)); err != nil {
			n.info("audio send failed, falling back to script text", "error", err)
			if s.Script == "" {
				return fmt.Errorf("%w: %v", domain.ErrPublish, err)
			}
			if err := n.Transport.SendText(ctx, s.ConversationID, truncateRunes(s.Script, maxTelegramText)); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrPublish, err)
			}
		}
	case !s.Failed && s.Answer != "":
		if err := n.Transport.SendText(ctx, s.ConversationID, truncateRunes(s.Answer, maxTelegramText)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPublish, err)
		}
	default:
		if err := n.Transport.SendText(ctx, s.ConversationID, failureNotice); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPublish, err)
		}
	}
	return nil
}

// Finalize closes the run; it only logs, keeping every path terminating
// in one place.
func (n *Nodes) Finalize(ctx context.Context, s *RunState) error {
	n.info("run finished", "run_id", s.RunID, "mode", s.Mode, "stages", len(s.Records), "failed", s.Failed)
	return nil
}

func captionFor(s *RunState) string {
	switch s.Mode {
	case domain.ModeDaily:
		return "Your daily news digest"
	case domain.ModeDebate:
		return fmt.Sprintf("Debate: %s", s.UserInput)
	default:
		return fmt.Sprintf("News segment: %s", s.UserInput)
	}
}

func writerInstructions(mode domain.Mode, topic string) string {
	base := "You are a professional news narrator. Write a script meant to be read aloud: " +
		"no markup, no placeholders, natural transitions between items. " +
		"Open with a greeting and close with a sign-off such as \"thanks for listening\"."

	switch mode {
	case domain.ModeTopic:
		return base + fmt.Sprintf(" Write a short segment of roughly 220 words about %q.", topic)
	case domain.ModeDebate:
		return base + fmt.Sprintf(" Write a debate of roughly 800 words about %q, presenting several clearly "+
			"framed viewpoints with a distinct voice each, and close with a neutral summary.", topic)
	default:
		return base + " Write a daily digest of roughly 550 words covering the given headlines."
	}
}

func formatArticles(articles []domain.Article) string {
	if len(articles) == 0 {
		return "No articles available."
	}
	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "[%d] %s\n    Source: %s\n    %s\n", i+1, a.Title, a.Source, a.Description)
		if a.Content != "" {
			fmt.Fprintf(&b, "    %s\n", truncateRunes(a.Content, 500))
		}
	}
	return b.String()
}

func formatContext(s *RunState) string {
	var parts []string
	if len(s.Articles) > 0 {
		parts = append(parts, "TODAY'S ARTICLES:\n"+formatArticles(s.Articles))
	} else {
		parts = append(parts, "TODAY'S ARTICLES: none loaded")
	}
	if len(s.Conversation) > 0 {
		recent := s.Conversation
		if len(recent) > 10 {
			recent = recent[len(recent)-10:]
		}
		var b strings.Builder
		for _, msg := range recent {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(msg.Role), msg.Content)
		}
		parts = append(parts, "RECENT CONVERSATION:\n"+b.String())
	}
	return strings.Join(parts, "\n\n")
}

// Interrogative filler stripped from questions before searching.
var searchStopWords = map[string]struct{}{
	"what": {}, "which": {}, "who": {}, "whom": {}, "whose": {}, "when": {}, "where": {}, "why": {}, "how": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "has": {}, "have": {}, "had": {}, "does": {}, "did": {}, "do": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {}, "about": {}, "for": {}, "with": {},
	"can": {}, "could": {}, "tell": {}, "me": {}, "you": {}, "please": {}, "news": {}, "any": {}, "there": {},
}

func searchTerms(question string) string {
	cleaned := strings.NewReplacer("?", "", "¿", "", "!", "", ",", "").Replace(strings.ToLower(question))
	var kept []string
	for _, word := range strings.Fields(cleaned) {
		if _, stop := searchStopWords[word]; stop || len([]rune(word)) <= 2 {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) < 2 {
		return question
	}
	return strings.Join(kept, " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (n *Nodes) info(msg string, args ...any) {
	if n.Logger != nil {
		n.Logger.Info(msg, args...)
	}
}
