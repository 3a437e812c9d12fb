// Package rulefile reads persisted compliance rules from a YAML or JSON file.
package rulefile

import (
	"bytes"
	"cmp"
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk layout:
//
//	rules:
//	  - id: crypto_shill
//	    ruleset: financial_general
//	    severity: high
//	    text: to the moon, 100x
type Document struct {
	Rules []domain.PersistedRule `yaml:"rules"`
}

// Source is a RuleSource backed by a file. The file is re-read on every
// call so a reload picks up edits.
type Source struct {
	path string
}

func New(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Path() string {
	return s.path
}

func (s *Source) ListPersistedRules(ctx context.Context) ([]domain.PersistedRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", repository.ErrRuleSourceUnavailable, s.path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrRuleSourceUnavailable, s.path, err)
	}
	return rules, nil
}

// Parse decodes a rule document. YAML is a superset of JSON, so both formats
// are accepted. Unknown fields are rejected.
func Parse(data []byte) ([]domain.PersistedRule, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	for i, rule := range doc.Rules {
		if strings.TrimSpace(rule.ID) == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
	}

	slices.SortStableFunc(doc.Rules, func(a, b domain.PersistedRule) int {
		if c := cmp.Compare(a.Ruleset, b.Ruleset); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return doc.Rules, nil
}

// Write stores rules at path in the YAML layout Parse reads.
func Write(path string, rules []domain.PersistedRule) error {
	data, err := yaml.Marshal(Document{Rules: rules})
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var _ repository.RuleSource = (*Source)(nil)
