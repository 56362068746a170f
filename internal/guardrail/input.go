package guardrail

import (
	"fmt"
	"regexp"
	"strings"
)

// Input rule identifiers.
const (
	RuleInputEmpty      = "input.empty"
	RuleInputLength     = "input.length"
	RuleInputControl    = "input.control-chars"
	RuleInputInjection  = "input.injection"
	RuleInputProhibited = "input.prohibited"
)

const (
	minInputLength = 2
	maxInputLength = 500
)

var (
	controlCharExprs = []*regexp.Regexp{
		regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]"),
		regexp.MustCompile("[​-‏]"),
		regexp.MustCompile("[  ]"),
	}

	injectionExprs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore\s+(previous|all|above)\s+(instructions?|prompts?)`),
		regexp.MustCompile(`(?i)disregard\s+(previous|all|above)`),
		regexp.MustCompile(`(?i)forget\s+(everything|all|previous)`),
		regexp.MustCompile(`(?i)new\s+instructions?:`),
		regexp.MustCompile(`(?i)system\s*:\s*`),
		regexp.MustCompile(`<\|[^|]*\|>`),
		regexp.MustCompile(`(?i)\[/?INST\]`),
		regexp.MustCompile(`(?i)pretend\s+(you\s+are|to\s+be)`),
		regexp.MustCompile(`(?i)jailbreak`),
	}

	// DefaultProhibitedTopics keeps the narrated channel away from
	// requests the service will not cover. Illustrative, config-replaceable.
	DefaultProhibitedTopics = []string{
		`(?i)\b(bomb[- ]?making|explosive\s+recipe)\b`,
		`(?i)\bhow\s+to\s+(hack|exploit)\b`,
		`(?i)\b(malware|ransomware)\s+(code|sample)\b`,
	}
)

// InputGuardrail validates user-supplied topics and questions before a
// run enters the pipeline.
type InputGuardrail struct {
	prohibited *PatternRule
}

// NewInputGuardrail builds the entry gate; empty patterns keep defaults.
func NewInputGuardrail(prohibited []string) *InputGuardrail {
	if len(prohibited) == 0 {
		prohibited = DefaultProhibitedTopics
	}
	return &InputGuardrail{
		prohibited: NewPatternRule(RuleInputProhibited, SeverityFailure, "prohibited topic", prohibited),
	}
}

// Validate checks the user input. Any failure blocks the run.
func (g *InputGuardrail) Validate(input string) Verdict {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Verdict{Status: StatusFailed, Message: "input is empty", Rules: []string{RuleInputEmpty}}
	}
	if n := len([]rune(trimmed)); n < minInputLength || n > maxInputLength {
		return Verdict{
			Status:  StatusFailed,
			Message: fmt.Sprintf("input length %d outside [%d,%d]", n, minInputLength, maxInputLength),
			Rules:   []string{RuleInputLength},
		}
	}

	for _, expr := range controlCharExprs {
		if expr.MatchString(trimmed) {
			return Verdict{Status: StatusFailed, Message: "input contains control characters", Rules: []string{RuleInputControl}}
		}
	}
	for _, expr := range injectionExprs {
		if expr.MatchString(trimmed) {
			return Verdict{Status: StatusFailed, Message: "input looks like a prompt injection", Rules: []string{RuleInputInjection}}
		}
	}
	if issues := g.prohibited.Check(trimmed); len(issues) > 0 {
		return foldIssues(issues)
	}

	return Verdict{Status: StatusPassed, Message: "input accepted"}
}
