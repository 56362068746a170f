package guardrail

import (
	"log/slog"

	"NewsCaster/internal/domain"
)

// lengthWindow is the mode-specific word budget for narrated scripts.
type lengthWindow struct {
	min, max, target int
}

var lengthByMode = map[domain.Mode]lengthWindow{
	domain.ModeDaily:  {min: 400, max: 700, target: 550},
	domain.ModeTopic:  {min: 150, max: 300, target: 220},
	domain.ModeDebate: {min: 500, max: 1200, target: 800},
}

// Default structural phrases a narrated segment must carry. Matching is
// case-insensitive substring.
var (
	DefaultOpenings = []string{"welcome", "hello", "good morning", "good evening", "here are"}
	DefaultClosings = []string{"goodbye", "see you", "thanks for listening", "that's all for today", "until next time"}
)

// ScriptGuardrail validates generated scripts before narration.
type ScriptGuardrail struct {
	openings      []string
	closings      []string
	sensitive     *PatternRule
	hallucination *PatternRule
	logger        *slog.Logger
}

// Options overrides the built-in catalogs; empty slices keep defaults.
type Options struct {
	Openings      []string
	Closings      []string
	Sensitive     []string
	Hallucination []string
}

// NewScriptGuardrail builds the composed script gate.
func NewScriptGuardrail(opts Options, logger *slog.Logger) *ScriptGuardrail {
	openings := opts.Openings
	if len(openings) == 0 {
		openings = DefaultOpenings
	}
	closings := opts.Closings
	if len(closings) == 0 {
		closings = DefaultClosings
	}
	sensitive := opts.Sensitive
	if len(sensitive) == 0 {
		sensitive = DefaultSensitivePatterns
	}
	hallucination := opts.Hallucination
	if len(hallucination) == 0 {
		hallucination = DefaultHallucinationPatterns
	}

	return &ScriptGuardrail{
		openings:      openings,
		closings:      closings,
		sensitive:     NewPatternRule(RuleSensitive, SeverityWarning, "sensitive topic", sensitive),
		hallucination: NewPatternRule(RuleHallucination, SeverityFailure, "hallucination indicator", hallucination),
		logger:        logger,
	}
}

// Validate runs the full rule set for the given mode.
func (g *ScriptGuardrail) Validate(text string, mode domain.Mode) Verdict {
	if len(text) == 0 {
		return Verdict{Status: StatusFailed, Message: "script is empty", Rules: []string{RuleLengthMin}}
	}

	window, ok := lengthByMode[mode]
	if !ok {
		window = lengthByMode[domain.ModeDaily]
	}

	rules := []Rule{
		LengthRule{MinWords: window.min, MaxWords: window.max, Target: window.target},
		StructureRule{Openings: g.openings, Closings: g.closings},
		FormatRule{},
		g.sensitive,
		g.hallucination,
	}

	verdict := Compose(text, rules)
	if g.logger != nil {
		g.logger.Info("script validated", "mode", mode, "status", verdict.Status, "rules", verdict.Rules)
	}
	return verdict
}
