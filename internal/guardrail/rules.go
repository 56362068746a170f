package guardrail

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule identifiers reported in verdicts.
const (
	RuleLengthMin     = "length.min"
	RuleLengthMax     = "length.max"
	RuleOpening       = "structure.opening"
	RuleClosing       = "structure.closing"
	RulePlaceholder   = "format.placeholder"
	RuleMarkup        = "format.markup"
	RuleSensitive     = "content.sensitive"
	RuleHallucination = "content.hallucination"
)

// LengthRule enforces a word-count window. Below the minimum is a
// failure, above the maximum only a warning.
type LengthRule struct {
	MinWords int
	MaxWords int
	Target   int
}

func (r LengthRule) Name() string { return "length" }

func (r LengthRule) Check(text string) []Issue {
	words := len(strings.Fields(text))
	if words < r.MinWords {
		return []Issue{{
			Rule:     RuleLengthMin,
			Severity: SeverityFailure,
			Message:  fmt.Sprintf("script too short: %d words (minimum %d)", words, r.MinWords),
		}}
	}
	if words > r.MaxWords {
		return []Issue{{
			Rule:     RuleLengthMax,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("script long: %d words (recommended maximum %d)", words, r.MaxWords),
		}}
	}
	return nil
}

// StructureRule requires at least one recognized opening and closing
// phrase. A missing opening fails, a missing closing only warns: an
// un-introduced segment is worse than an un-closed one.
type StructureRule struct {
	Openings []string
	Closings []string
}

func (r StructureRule) Name() string { return "structure" }

func (r StructureRule) Check(text string) []Issue {
	lower := strings.ToLower(text)
	var issues []Issue
	if !containsAny(lower, r.Openings) {
		issues = append(issues, Issue{
			Rule:     RuleOpening,
			Severity: SeverityFailure,
			Message:  "missing opening phrase",
		})
	}
	if !containsAny(lower, r.Closings) {
		issues = append(issues, Issue{
			Rule:     RuleClosing,
			Severity: SeverityWarning,
			Message:  "missing closing phrase",
		})
	}
	return issues
}

func containsAny(lower string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// Residue that must never reach narration: unresolved template
// placeholders and leftover markup syntax.
var (
	placeholderExprs = []*regexp.Regexp{
		regexp.MustCompile(`\[[^\]\n]*\]`),
		regexp.MustCompile(`\{[^}\n]*\}`),
		regexp.MustCompile(`(?i)TODO:?`),
		regexp.MustCompile(`(?i)FIXME`),
		regexp.MustCompile(`XXX`),
	}
	markupExprs = []*regexp.Regexp{
		regexp.MustCompile(`\*\*[^*\n]+\*\*`),
		regexp.MustCompile(`(?m)^#{1,4}\s`),
	}
)

// FormatRule scans for template and markup residue. Any match fails.
type FormatRule struct{}

func (FormatRule) Name() string { return "format" }

func (FormatRule) Check(text string) []Issue {
	var issues []Issue
	for _, expr := range placeholderExprs {
		if match := expr.FindString(text); match != "" {
			issues = append(issues, Issue{
				Rule:     RulePlaceholder,
				Severity: SeverityFailure,
				Message:  fmt.Sprintf("unresolved placeholder %q", truncate(match, 40)),
			})
			break
		}
	}
	for _, expr := range markupExprs {
		if expr.MatchString(text) {
			issues = append(issues, Issue{
				Rule:     RuleMarkup,
				Severity: SeverityFailure,
				Message:  "markup syntax left in script",
			})
			break
		}
	}
	return issues
}

// Default pattern catalogs. These are an illustrative starting point, not
// an authoritative list; config may replace them wholesale.
var (
	DefaultSensitivePatterns = []string{
		`(?i)\b(kill(ing)?|murder|massacre|execution)\b`,
		`(?i)\b(racist|xenophob\w*|hate\s+speech)\b`,
		`(?i)\b(pornograph\w*|obscen\w*|explicit\s+content)\b`,
		`(?i)\b(fake\s+news|disinformation)\b`,
	}
	DefaultHallucinationPatterns = []string{
		`(?i)as\s+(a|an)\s+(ai|language)\s+model`,
		`(?i)i\s+(do\s+not|don't)\s+have\s+access\s+to\s+(current|real[- ]time)`,
		`(?i)my\s+(knowledge|training)\s+(cutoff|data)`,
		`(?i)i\s+cannot\s+verify`,
		`(?i)based\s+on\s+my\s+training`,
	}
)

// PatternRule scans against a regex catalog with a fixed severity per
// catalog: sensitive-topic matches warn, hallucination indicators fail.
type PatternRule struct {
	ID       string
	Severity Severity
	Label    string
	patterns []*regexp.Regexp
}

// NewPatternRule compiles the catalog; invalid expressions are skipped.
func NewPatternRule(id string, severity Severity, label string, patterns []string) *PatternRule {
	rule := &PatternRule{ID: id, Severity: severity, Label: label}
	for _, raw := range patterns {
		if expr, err := regexp.Compile(raw); err == nil {
			rule.patterns = append(rule.patterns, expr)
		}
	}
	return rule
}

func (r *PatternRule) Name() string { return r.ID }

func (r *PatternRule) Check(text string) []Issue {
	for _, expr := range r.patterns {
		if match := expr.FindString(text); match != "" {
			return []Issue{{
				Rule:     r.ID,
				Severity: r.Severity,
				Message:  fmt.Sprintf("%s: %q", r.Label, truncate(match, 60)),
			}}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
