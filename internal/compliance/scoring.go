package compliance

import (
	"content_compliance/internal/domain"
)

const maxScore = 100

var severityWeights = map[domain.Severity]int{
	domain.SeverityCritical: 50,
	domain.SeverityHigh:     25,
	domain.SeverityMedium:   10,
	domain.SeverityLow:      5,
	domain.SeverityInfo:     0,
}

func SeverityWeight(s domain.Severity) int {
	return severityWeights[s]
}

// Score weighs every violation, including the ones that do not break
// compliance, and clamps at zero.
func Score(violations []domain.Violation) int {
	score := maxScore
	for _, v := range violations {
		score -= SeverityWeight(v.Severity)
	}
	return max(score, 0)
}

// Partition splits findings into blocking violations, warnings and info.
func Partition(findings []domain.Violation) (violations, warnings, info []domain.Violation) {
	violations = []domain.Violation{}
	warnings = []domain.Violation{}
	info = []domain.Violation{}

	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityCritical, domain.SeverityHigh:
			violations = append(violations, f)
		case domain.SeverityMedium:
			warnings = append(warnings, f)
		default:
			info = append(info, f)
		}
	}
	return violations, warnings, info
}

func IsCompliant(violations, warnings []domain.Violation, strict bool) bool {
	if len(violations) > 0 {
		return false
	}
	return !strict || len(warnings) == 0
}
