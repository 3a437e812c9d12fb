package main

import (
	"content_compliance/internal/compliance"
	"content_compliance/pkg/validator"
)

// newValidator checks ruleset names against whichever registry is active at
// request time.
func newValidator(engine *compliance.Engine, maxBatchIDs int) *validator.ContentValidator {
	return validator.NewContentValidator(maxBatchIDs, func(name string) bool {
		return engine.Registry().HasRuleset(name)
	})
}
