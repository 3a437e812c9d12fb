package domain

import (
	"fmt"
	"slices"
	"strings"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	default:
		return false
	}
}

func ParseSeverity(value string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity: %q", value)
	}
	return s, nil
}

type RuleSource string

const (
	SourceDefault RuleSource = "default"
	SourceDynamic RuleSource = "dynamic"
)

// Predicate is the detection logic of a rule. A nil Detection means the
// rule did not fire.
type Predicate interface {
	Evaluate(content Content) (*Detection, error)
}

type Detection struct {
	Detail   string
	Location *Location
}

// Rule is immutable once it has been registered.
type Rule struct {
	ID          string
	Name        string
	Description string
	Ruleset     string
	Severity    Severity
	Category    string
	Platforms   []Platform
	Industries  []Industry
	Message     string
	Suggestion  string
	Predicate   Predicate
	Source      RuleSource
}

func (r *Rule) AppliesToPlatform(platform Platform) bool {
	return len(r.Platforms) == 0 || slices.Contains(r.Platforms, platform)
}

func (r *Rule) AppliesToIndustry(industry Industry) bool {
	return len(r.Industries) == 0 || slices.Contains(r.Industries, industry)
}

// RuleInfo is the outward view of a rule; detection logic is never exposed.
type RuleInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Ruleset     string     `json:"ruleset"`
	Severity    Severity   `json:"severity"`
	Category    string     `json:"category"`
	Platforms   []Platform `json:"platforms,omitempty"`
	Industries  []Industry `json:"industries,omitempty"`
	Source      RuleSource `json:"source"`
}

func (r *Rule) Metadata() RuleInfo {
	return RuleInfo{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Ruleset:     r.Ruleset,
		Severity:    r.Severity,
		Category:    r.Category,
		Platforms:   slices.Clone(r.Platforms),
		Industries:  slices.Clone(r.Industries),
		Source:      r.Source,
	}
}

// PersistedRule is the storage shape of an externally defined rule.
type PersistedRule struct {
	ID       string `json:"id" yaml:"id"`
	Ruleset  string `json:"ruleset" yaml:"ruleset"`
	Severity string `json:"severity" yaml:"severity"`
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
}
