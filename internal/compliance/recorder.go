package compliance

import (
	"content_compliance/internal/domain"
	"context"
	"time"
)

// Recorder receives engine measurements. pkg/metrics provides the Prometheus
// implementation.
type Recorder interface {
	RecordCheck(duration time.Duration, result *domain.CheckResult)
	RecordRuleFailure(ruleID string)
	RecordBatch(size int, failed int)
	SetRegistryRules(n int)
}

// AuditRecorder persists audit events without blocking the check that
// produced them.
type AuditRecorder interface {
	RecordAsync(ctx context.Context, event domain.AuditEvent)
}

type noopRecorder struct{}

func (noopRecorder) RecordCheck(time.Duration, *domain.CheckResult) {}
func (noopRecorder) RecordRuleFailure(string)                       {}
func (noopRecorder) RecordBatch(int, int)                           {}
func (noopRecorder) SetRegistryRules(int)                           {}
