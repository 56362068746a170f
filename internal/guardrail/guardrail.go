// Package guardrail gates generated text before it may be narrated or
// published. Checks are independent rules composed into a single verdict:
// any failed rule fails the verdict, warnings alone downgrade it to
// warning, otherwise it passes.
package guardrail

// Status is the outcome of a validation.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// Severity grades a single rule violation.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFailure
)

// Issue is one violated rule.
type Issue struct {
	Rule     string
	Severity Severity
	Message  string
}

// Verdict is the composed validation result. Rules lists the identifiers
// of every violated rule so callers can drive retry logic.
type Verdict struct {
	Status  Status
	Message string
	Rules   []string
}

// Blocks reports whether the verdict forbids narration/publication.
func (v Verdict) Blocks() bool {
	return v.Status == StatusFailed
}

// Rule is a single independently testable check.
type Rule interface {
	Name() string
	Check(text string) []Issue
}

// Compose runs every rule over the text and folds the issues into one
// verdict.
func Compose(text string, rules []Rule) Verdict {
	var issues []Issue
	for _, rule := range rules {
		issues = append(issues, rule.Check(text)...)
	}
	return foldIssues(issues)
}

func foldIssues(issues []Issue) Verdict {
	var (
		failed   int
		warnings int
		rules    []string
		message  string
	)
	for _, issue := range issues {
		rules = append(rules, issue.Rule)
		switch issue.Severity {
		case SeverityFailure:
			failed++
			if message == "" {
				message = issue.Message
			}
		case SeverityWarning:
			warnings++
		}
	}

	switch {
	case failed > 0:
		return Verdict{Status: StatusFailed, Message: message, Rules: rules}
	case warnings > 0:
		return Verdict{Status: StatusWarning, Message: issues[0].Message, Rules: rules}
	default:
		return Verdict{Status: StatusPassed, Message: "all checks passed"}
	}
}
