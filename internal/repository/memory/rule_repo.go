package memory

import (
	"cmp"
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"fmt"
	"slices"
	"sync"
)

type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]domain.PersistedRule
	err   error
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		rules: make(map[string]domain.PersistedRule),
	}
}

func (r *RuleRepository) Save(ctx context.Context, rule domain.PersistedRule) error {
	if rule.ID == "" || rule.Ruleset == "" {
		return fmt.Errorf("%w: rule id and ruleset are required", repository.ErrInvalidRecord)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; exists {
		return fmt.Errorf("%w: rule %s", repository.ErrDuplicate, rule.ID)
	}

	r.rules[rule.ID] = rule

	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[id]; !exists {
		return fmt.Errorf("%w: rule %s", repository.ErrNotFound, id)
	}
	delete(r.rules, id)

	return nil
}

// SetUnavailable makes ListPersistedRules fail until cleared with nil.
func (r *RuleRepository) SetUnavailable(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *RuleRepository) ListPersistedRules(ctx context.Context) ([]domain.PersistedRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrRuleSourceUnavailable, r.err)
	}

	result := make([]domain.PersistedRule, 0, len(r.rules))
	for _, rule := range r.rules {
		result = append(result, rule)
	}

	slices.SortFunc(result, func(a, b domain.PersistedRule) int {
		if c := cmp.Compare(a.Ruleset, b.Ruleset); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return result, nil
}
