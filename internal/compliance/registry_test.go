package compliance

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"content_compliance/internal/repository/memory"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegistryBuilder_RegisterRulesetReplaceKeepsOrder(t *testing.T) {
	b := NewRegistryBuilder(nil)
	b.RegisterRuleset("first", []domain.Rule{{ID: "a", Severity: domain.SeverityLow}})
	b.RegisterRuleset("second", []domain.Rule{{ID: "b", Severity: domain.SeverityLow}})
	b.RegisterRuleset("first", []domain.Rule{{ID: "c", Severity: domain.SeverityLow}})

	r := b.Build()

	names := r.RulesetNames()
	if len(names) != 2 || names[0] != "first" || names[1] != "second" {
		t.Errorf("expected [first second], got %v", names)
	}
	rules := r.Ruleset("first")
	if len(rules) != 1 || rules[0].ID != "c" {
		t.Errorf("expected replaced ruleset with rule c, got %v", rules)
	}
	if rules[0].Ruleset != "first" || rules[0].Source != domain.SourceDefault {
		t.Errorf("expected ruleset and source stamped, got %+v", rules[0])
	}
}

func TestRegistry_UnknownRulesetIsEmpty(t *testing.T) {
	r := NewRegistryBuilder(nil).Build()

	if got := r.Ruleset("missing"); len(got) != 0 {
		t.Errorf("expected empty ruleset, got %v", got)
	}
	if r.HasRuleset("missing") {
		t.Error("expected HasRuleset to be false")
	}
}

func TestRegistry_RuleByIDFirstRegistrationWins(t *testing.T) {
	b := NewRegistryBuilder(nil)
	b.RegisterRuleset("one", []domain.Rule{{ID: "dup", Severity: domain.SeverityLow}})
	b.RegisterRuleset("two", []domain.Rule{{ID: "dup", Severity: domain.SeverityHigh}})

	r := b.Build()

	rule, ok := r.RuleByID("dup")
	if !ok || rule.Ruleset != "one" {
		t.Errorf("expected dup from ruleset one, got %+v", rule)
	}
	if r.Size() != 2 {
		t.Errorf("expected both duplicates kept, got size %d", r.Size())
	}
}

func TestRegistry_ScopeQueries(t *testing.T) {
	r := NewDefaultRegistry(context.Background(), nil, nil)

	for _, rule := range r.RulesForIndustry(domain.IndustryFinance) {
		if !rule.AppliesToIndustry(domain.IndustryFinance) {
			t.Errorf("rule %s does not apply to finance", rule.ID)
		}
	}
	for _, rule := range r.RulesForPlatform(domain.PlatformTwitter) {
		if rule.ID == "youtube_title_length" {
			t.Error("youtube rule returned for twitter")
		}
	}
	if _, ok := r.RuleByID("twitter_caption_length"); !ok {
		t.Error("expected twitter_caption_length in default catalog")
	}
}

func TestDefaultRulesets_Valid(t *testing.T) {
	ids := map[string]bool{}
	for _, set := range DefaultRulesets() {
		if len(set.Rules) == 0 {
			t.Errorf("ruleset %s is empty", set.Name)
		}
		for _, rule := range set.Rules {
			if ids[rule.ID] {
				t.Errorf("duplicate default rule id %s", rule.ID)
			}
			ids[rule.ID] = true
			if !rule.Severity.Valid() || rule.Predicate == nil || rule.Category == "" {
				t.Errorf("rule %s is incomplete: %+v", rule.ID, rule)
			}
		}
	}
}

func TestRegistryBuilder_LoadDynamicRules(t *testing.T) {
	ctx := context.Background()
	rules := memory.NewRuleRepository()
	_ = rules.Save(ctx, domain.PersistedRule{ID: "cure_claims", Ruleset: RulesetMedical, Severity: "low", Text: "shadowed"})
	_ = rules.Save(ctx, domain.PersistedRule{ID: "crypto_shill", Ruleset: RulesetFinancial, Severity: "HIGH", Text: "moon, to the moon"})
	_ = rules.Save(ctx, domain.PersistedRule{ID: "brand_terms", Ruleset: "brand", Severity: "medium", Text: "competitorco"})
	_ = rules.Save(ctx, domain.PersistedRule{ID: "broken", Ruleset: "brand", Severity: "severe", Text: "x"})

	b := NewRegistryBuilder(nil)
	for _, set := range DefaultRulesets() {
		b.RegisterRuleset(set.Name, set.Rules)
	}

	added, err := b.LoadDynamicRules(ctx, rules)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 rules added, got %d", added)
	}
	r := b.Build()
	cure, _ := r.RuleByID("cure_claims")
	if cure.Severity != domain.SeverityCritical {
		t.Errorf("expected default cure_claims to be kept, got %s", cure.Severity)
	}
	shill, ok := r.RuleByID("crypto_shill")
	if !ok || shill.Source != domain.SourceDynamic || shill.Category != CategoryCustom || shill.Severity != domain.SeverityHigh {
		t.Errorf("unexpected dynamic rule: %+v", shill)
	}
	if !r.HasRuleset("brand") {
		t.Error("expected new ruleset brand")
	}
	if _, ok := r.RuleByID("broken"); ok {
		t.Error("expected rule with unknown severity to be dropped")
	}

	d, _ := shill.Predicate.Evaluate(domain.Content{Caption: "Going TO THE MOON"})
	if d == nil {
		t.Error("expected comma separated text to match as keywords")
	}
}

func TestRegistryBuilder_LoadDynamicRulesUnavailable(t *testing.T) {
	rules := memory.NewRuleRepository()
	rules.SetUnavailable(errors.New("connection refused"))

	b := NewRegistryBuilder(nil)
	b.RegisterRuleset(RulesetPII, PIIRuleSet().Rules)

	_, err := b.LoadDynamicRules(context.Background(), rules)

	if !errors.Is(err, repository.ErrRuleSourceUnavailable) {
		t.Errorf("expected ErrRuleSourceUnavailable, got %v", err)
	}
	if err != nil && strings.Count(err.Error(), repository.ErrRuleSourceUnavailable.Error()) != 1 {
		t.Errorf("expected the source error to be wrapped once, got %q", err)
	}
	if got := b.Build().Size(); got != len(PIIRuleSet().Rules) {
		t.Errorf("expected defaults to remain, got %d rules", got)
	}
}

type plainFailingSource struct{}

func (plainFailingSource) ListPersistedRules(context.Context) ([]domain.PersistedRule, error) {
	return nil, errors.New("disk error")
}

func TestRegistryBuilder_LoadDynamicRulesWrapsPlainErrors(t *testing.T) {
	_, err := NewRegistryBuilder(nil).LoadDynamicRules(context.Background(), plainFailingSource{})

	if !errors.Is(err, repository.ErrRuleSourceUnavailable) || !strings.Contains(err.Error(), "disk error") {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}
