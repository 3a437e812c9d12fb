package repository

import (
	"content_compliance/internal/domain"
	"context"
	"errors"
)

type ContentRepository interface {
	Save(ctx context.Context, content *domain.Content) error
	GetByID(ctx context.Context, id string) (*domain.Content, error)
}

// RuleSource lists rules defined outside the default catalog. It is read once
// while the registry is built and may be unavailable.
type RuleSource interface {
	ListPersistedRules(ctx context.Context) ([]domain.PersistedRule, error)
}

type RuleRepository interface {
	RuleSource
	Save(ctx context.Context, rule domain.PersistedRule) error
	Delete(ctx context.Context, id string) error
}

type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

type AuditRepository interface {
	AuditSink
	ListByContent(ctx context.Context, contentID string) ([]domain.AuditEvent, error)
}

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicate             = errors.New("duplicate entry")
	ErrRuleSourceUnavailable = errors.New("rule source unavailable")
	ErrInvalidRecord         = errors.New("invalid record")
)
