package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditEvent struct {
	ID             string    `json:"id"`
	ContentID      string    `json:"content_id"`
	IsCompliant    bool      `json:"is_compliant"`
	Score          int       `json:"score"`
	ViolationCount int       `json:"violation_count"`
	WarningCount   int       `json:"warning_count"`
	RulesChecked   int       `json:"rules_checked"`
	RecordedAt     time.Time `json:"recorded_at"`
}

func NewAuditEvent(result *CheckResult) AuditEvent {
	return AuditEvent{
		ID:             uuid.NewString(),
		ContentID:      result.ContentID,
		IsCompliant:    result.IsCompliant,
		Score:          result.Score,
		ViolationCount: len(result.Violations),
		WarningCount:   len(result.Warnings),
		RulesChecked:   result.RulesChecked,
		RecordedAt:     time.Now().UTC(),
	}
}
