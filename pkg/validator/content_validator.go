package validator

import (
	"content_compliance/internal/domain"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingPlatform = errors.New("platform is required")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrUnknownIndustry = errors.New("unknown industry")
	ErrEmptyContent    = errors.New("content has no text or media")
	ErrUnknownRuleset  = errors.New("unknown ruleset")
	ErrNoContentIDs    = errors.New("at least one content id is required")
	ErrTooManyIDs      = errors.New("too many content ids")
	ErrInvalidID       = errors.New("invalid content id")
)

var knownIndustries = map[domain.Industry]struct{}{
	domain.IndustryHealthcare: {},
	domain.IndustryFinance:    {},
	domain.IndustryLegal:      {},
	domain.IndustryGeneral:    {},
}

// RulesetLookup reports whether a ruleset name is registered.
type RulesetLookup func(name string) bool

type ContentValidator struct {
	maxBatchIDs   int
	rulesetExists RulesetLookup
}

// NewContentValidator builds a validator. A nil lookup accepts any ruleset
// name; a non-positive maxBatchIDs disables the batch size limit.
func NewContentValidator(maxBatchIDs int, rulesetExists RulesetLookup) *ContentValidator {
	return &ContentValidator{
		maxBatchIDs:   maxBatchIDs,
		rulesetExists: rulesetExists,
	}
}

// ValidateContent normalizes platform and industry in place and reports every
// problem found.
func (v *ContentValidator) ValidateContent(content *domain.Content) error {
	var errs []error

	if strings.TrimSpace(string(content.Platform)) == "" {
		errs = append(errs, ErrMissingPlatform)
	} else if p, err := domain.ParsePlatform(string(content.Platform)); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownPlatform, content.Platform))
	} else {
		content.Platform = p
	}

	if content.Industry != "" {
		industry := domain.ParseIndustry(string(content.Industry))
		if _, ok := knownIndustries[industry]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownIndustry, content.Industry))
		} else {
			content.Industry = industry
		}
	}

	if content.IsEmpty() {
		errs = append(errs, ErrEmptyContent)
	}

	return errors.Join(errs...)
}

func (v *ContentValidator) ValidateOptions(opts *domain.CheckOptions) error {
	var errs []error

	if opts.Industry != "" {
		industry := domain.ParseIndustry(string(opts.Industry))
		if _, ok := knownIndustries[industry]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownIndustry, opts.Industry))
		} else {
			opts.Industry = industry
		}
	}

	if v.rulesetExists != nil {
		for _, name := range opts.Rulesets {
			if !v.rulesetExists(name) {
				errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownRuleset, name))
			}
		}
	}

	return errors.Join(errs...)
}

// ValidateBatch trims ids and rejects empty ones. Duplicates are kept; the
// engine collapses them.
func (v *ContentValidator) ValidateBatch(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrNoContentIDs
	}
	if v.maxBatchIDs > 0 && len(ids) > v.maxBatchIDs {
		return nil, fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyIDs, len(ids), v.maxBatchIDs)
	}

	cleaned := make([]string, 0, len(ids))
	var errs []error
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			errs = append(errs, fmt.Errorf("%w: position %d is empty", ErrInvalidID, i))
			continue
		}
		cleaned = append(cleaned, id)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cleaned, nil
}
