package domain

import (
	"time"
)

type Location struct {
	Field string `json:"field"`
	Match string `json:"match,omitempty"`
}

// Violation copies severity and category from the rule at evaluation time so
// later catalog changes never alter a produced result.
type Violation struct {
	RuleID     string    `json:"rule_id"`
	Ruleset    string    `json:"ruleset"`
	Severity   Severity  `json:"severity"`
	Category   string    `json:"category"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Location   *Location `json:"location,omitempty"`
}

type CheckOptions struct {
	Industry   Industry `json:"industry,omitempty"`
	Rulesets   []string `json:"rulesets,omitempty"`
	SkipRules  []string `json:"skip_rules,omitempty"`
	StrictMode bool     `json:"strict_mode,omitempty"`
}

type CheckResult struct {
	ContentID    string      `json:"content_id,omitempty"`
	IsCompliant  bool        `json:"is_compliant"`
	Score        int         `json:"score"`
	Violations   []Violation `json:"violations"`
	Warnings     []Violation `json:"warnings"`
	Info         []Violation `json:"info"`
	Summary      string      `json:"summary"`
	RulesChecked int         `json:"rules_checked"`
	CheckedAt    time.Time   `json:"checked_at"`
	Error        string      `json:"error,omitempty"`
}

func (r *CheckResult) Failed() bool {
	return r.Error != ""
}

func (r *CheckResult) FindingCount() int {
	return len(r.Violations) + len(r.Warnings) + len(r.Info)
}

// HasRule reports whether any finding in the result came from ruleID.
func (r *CheckResult) HasRule(ruleID string) bool {
	for _, group := range [][]Violation{r.Violations, r.Warnings, r.Info} {
		for _, v := range group {
			if v.RuleID == ruleID {
				return true
			}
		}
	}
	return false
}
