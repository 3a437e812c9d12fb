package compliance

import (
	"content_compliance/internal/domain"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

var ErrRuleEvaluation = errors.New("rule evaluation failed")

type Evaluator struct {
	logger  *slog.Logger
	metrics Recorder
	now     func() time.Time
}

func NewEvaluator(logger *slog.Logger, metrics Recorder) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}

	return &Evaluator{
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Evaluate runs the scoped rule set against one content snapshot. It performs
// no I/O; a rule that errors or panics is logged and skipped.
func (e *Evaluator) Evaluate(ctx context.Context, registry *Registry, content domain.Content, opts domain.CheckOptions) *domain.CheckResult {
	content.Hashtags = slices.Clone(content.Hashtags)

	rules := e.scopeRules(registry, content, opts)

	var findings []domain.Violation
	for _, rule := range rules {
		violation, err := e.evaluateRule(rule, content)
		if err != nil {
			e.metrics.RecordRuleFailure(rule.ID)
			e.logger.ErrorContext(ctx, "Failed to evaluate rule",
				slog.String("rule_id", rule.ID),
				slog.String("content_id", content.ID),
				slog.String("error", err.Error()))
			continue
		}

		if violation != nil {
			findings = append(findings, *violation)
			e.logger.DebugContext(ctx, "Rule triggered",
				slog.String("rule_id", rule.ID),
				slog.String("severity", string(rule.Severity)),
				slog.String("content_id", content.ID))
		}
	}

	violations, warnings, info := Partition(findings)
	compliant := IsCompliant(violations, warnings, opts.StrictMode)

	return &domain.CheckResult{
		ContentID:    content.ID,
		IsCompliant:  compliant,
		Score:        Score(findings),
		Violations:   violations,
		Warnings:     warnings,
		Info:         info,
		Summary:      Summarize(len(violations), len(warnings), len(info), compliant),
		RulesChecked: len(rules),
		CheckedAt:    e.now().UTC(),
	}
}

// scopeRules resolves the candidate rules and applies the platform, industry
// and skip filters, in that order.
func (e *Evaluator) scopeRules(registry *Registry, content domain.Content, opts domain.CheckOptions) []*domain.Rule {
	var candidates []*domain.Rule
	if len(opts.Rulesets) > 0 {
		seen := make(map[string]struct{}, len(opts.Rulesets))
		for _, name := range opts.Rulesets {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			candidates = append(candidates, registry.Ruleset(name)...)
		}
	} else {
		candidates = registry.AllRules()
	}

	skip := make(map[string]struct{}, len(opts.SkipRules))
	for _, id := range opts.SkipRules {
		skip[id] = struct{}{}
	}

	scoped := make([]*domain.Rule, 0, len(candidates))
	ids := make(map[string]struct{}, len(candidates))
	for _, rule := range candidates {
		if !rule.AppliesToPlatform(content.Platform) {
			continue
		}
		if opts.Industry != "" && !rule.AppliesToIndustry(opts.Industry) {
			continue
		}
		if _, skipped := skip[rule.ID]; skipped {
			continue
		}
		if _, dup := ids[rule.ID]; dup {
			continue
		}
		ids[rule.ID] = struct{}{}
		scoped = append(scoped, rule)
	}

	return scoped
}

func (e *Evaluator) evaluateRule(rule *domain.Rule, content domain.Content) (violation *domain.Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			violation = nil
			err = fmt.Errorf("%w: rule %s panicked: %v", ErrRuleEvaluation, rule.ID, r)
		}
	}()

	if rule.Predicate == nil {
		return nil, nil
	}

	detection, err := rule.Predicate.Evaluate(content)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %s: %v", ErrRuleEvaluation, rule.ID, err)
	}
	if detection == nil {
		return nil, nil
	}

	message := rule.Message
	if message == "" {
		message = detection.Detail
	}

	return &domain.Violation{
		RuleID:     rule.ID,
		Ruleset:    rule.Ruleset,
		Severity:   rule.Severity,
		Category:   rule.Category,
		Message:    message,
		Suggestion: rule.Suggestion,
		Location:   detection.Location,
	}, nil
}
