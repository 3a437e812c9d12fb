package compliance

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// RuleSet is a named group of rules that callers can select independently.
type RuleSet struct {
	Name  string
	Rules []domain.Rule
}

// Registry is the read-only rule catalog. It is produced by a
// RegistryBuilder and never changes afterwards, so it is safe for concurrent
// readers without locking. Returned rules must not be modified.
type Registry struct {
	order    []string
	rulesets map[string][]*domain.Rule
	all      []*domain.Rule
}

func (r *Registry) Ruleset(name string) []*domain.Rule {
	return slices.Clone(r.rulesets[name])
}

func (r *Registry) HasRuleset(name string) bool {
	_, ok := r.rulesets[name]
	return ok
}

func (r *Registry) RulesetNames() []string {
	return slices.Clone(r.order)
}

func (r *Registry) AllRules() []*domain.Rule {
	return slices.Clone(r.all)
}

func (r *Registry) Size() int {
	return len(r.all)
}

// RuleByID returns the first rule with id, scanning rulesets in registration
// order.
func (r *Registry) RuleByID(id string) (*domain.Rule, bool) {
	for _, rule := range r.all {
		if rule.ID == id {
			return rule, true
		}
	}
	return nil, false
}

func (r *Registry) RulesForIndustry(industry domain.Industry) []*domain.Rule {
	var result []*domain.Rule
	for _, rule := range r.all {
		if rule.AppliesToIndustry(industry) {
			result = append(result, rule)
		}
	}
	return result
}

func (r *Registry) RulesForPlatform(platform domain.Platform) []*domain.Rule {
	var result []*domain.Rule
	for _, rule := range r.all {
		if rule.AppliesToPlatform(platform) {
			result = append(result, rule)
		}
	}
	return result
}

// RegistryBuilder collects rulesets during initialization. It is not safe for
// concurrent use.
type RegistryBuilder struct {
	order    []string
	rulesets map[string][]*domain.Rule
	logger   *slog.Logger
}

func NewRegistryBuilder(logger *slog.Logger) *RegistryBuilder {
	if logger == nil {
		logger = slog.Default()
	}

	return &RegistryBuilder{
		rulesets: make(map[string][]*domain.Rule),
		logger:   logger,
	}
}

// RegisterRuleset adds or replaces a named ruleset. The last registration for
// a name wins but keeps the position of the first one.
func (b *RegistryBuilder) RegisterRuleset(name string, rules []domain.Rule) *RegistryBuilder {
	if _, exists := b.rulesets[name]; !exists {
		b.order = append(b.order, name)
	}

	registered := make([]*domain.Rule, 0, len(rules))
	for _, rule := range rules {
		rule.Ruleset = name
		if rule.Source == "" {
			rule.Source = domain.SourceDefault
		}
		rule.Platforms = slices.Clone(rule.Platforms)
		rule.Industries = slices.Clone(rule.Industries)
		registered = append(registered, &rule)
	}
	b.rulesets[name] = registered

	return b
}

func (b *RegistryBuilder) ruleIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, rules := range b.rulesets {
		for _, rule := range rules {
			ids[rule.ID] = struct{}{}
		}
	}
	return ids
}

// LoadDynamicRules appends persisted rules to their rulesets, skipping any id
// already registered. A failing source is logged and reported but leaves the
// builder usable with what it already holds.
func (b *RegistryBuilder) LoadDynamicRules(ctx context.Context, source repository.RuleSource) (int, error) {
	if source == nil {
		return 0, nil
	}

	persisted, err := source.ListPersistedRules(ctx)
	if err != nil {
		b.logger.WarnContext(ctx, "Persisted rules unavailable, continuing with defaults",
			slog.String("error", err.Error()))
		if errors.Is(err, repository.ErrRuleSourceUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", repository.ErrRuleSourceUnavailable, err)
	}

	ids := b.ruleIDs()
	added := 0

	for _, p := range persisted {
		if _, exists := ids[p.ID]; exists {
			b.logger.DebugContext(ctx, "Skipping persisted rule shadowed by existing rule",
				slog.String("rule_id", p.ID))
			continue
		}

		rule, err := ruleFromPersisted(p)
		if err != nil {
			b.logger.WarnContext(ctx, "Dropping invalid persisted rule",
				slog.String("rule_id", p.ID),
				slog.String("error", err.Error()))
			continue
		}

		if _, exists := b.rulesets[rule.Ruleset]; !exists {
			b.order = append(b.order, rule.Ruleset)
		}
		b.rulesets[rule.Ruleset] = append(b.rulesets[rule.Ruleset], rule)
		ids[rule.ID] = struct{}{}
		added++
	}

	b.logger.InfoContext(ctx, "Persisted rules loaded",
		slog.Int("received", len(persisted)),
		slog.Int("added", added))

	return added, nil
}

func (b *RegistryBuilder) Build() *Registry {
	r := &Registry{
		order:    slices.Clone(b.order),
		rulesets: make(map[string][]*domain.Rule, len(b.rulesets)),
	}

	seen := make(map[string]string)
	for _, name := range b.order {
		rules := slices.Clone(b.rulesets[name])
		r.rulesets[name] = rules
		for _, rule := range rules {
			if other, dup := seen[rule.ID]; dup {
				b.logger.Warn("Rule id registered in more than one ruleset",
					slog.String("rule_id", rule.ID),
					slog.String("first_ruleset", other),
					slog.String("ruleset", name))
			} else {
				seen[rule.ID] = name
			}
			r.all = append(r.all, rule)
		}
	}

	return r
}

func ruleFromPersisted(p domain.PersistedRule) (*domain.Rule, error) {
	id := strings.TrimSpace(p.ID)
	ruleset := strings.TrimSpace(p.Ruleset)
	if id == "" || ruleset == "" {
		return nil, fmt.Errorf("rule id and ruleset are required")
	}

	severity, err := domain.ParseSeverity(p.Severity)
	if err != nil {
		return nil, err
	}

	predicate := Keywords(strings.Split(p.Text, ",")...)
	if len(predicate.keywords) == 0 {
		return nil, fmt.Errorf("rule %s has no text to match", id)
	}

	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = CategoryCustom
	}
	message := strings.TrimSpace(p.Message)
	if message == "" {
		message = fmt.Sprintf("Content contains language restricted by the %s ruleset", ruleset)
	}

	return &domain.Rule{
		ID:          id,
		Name:        id,
		Description: fmt.Sprintf("Flags content containing: %s", strings.Join(predicate.keywords, ", ")),
		Ruleset:     ruleset,
		Severity:    severity,
		Category:    category,
		Message:     message,
		Predicate:   predicate,
		Source:      domain.SourceDynamic,
	}, nil
}

// NewDefaultRegistry registers the built-in catalog and then appends rules
// from source, if any.
func NewDefaultRegistry(ctx context.Context, source repository.RuleSource, logger *slog.Logger) *Registry {
	b := NewRegistryBuilder(logger)
	for _, set := range DefaultRulesets() {
		b.RegisterRuleset(set.Name, set.Rules)
	}
	_, _ = b.LoadDynamicRules(ctx, source)
	return b.Build()
}
