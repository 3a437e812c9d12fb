package memory

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"fmt"
	"sort"
	"sync"
)

type AuditRepository struct {
	mu     sync.RWMutex
	events map[string]domain.AuditEvent
	index  map[string][]string
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{
		events: make(map[string]domain.AuditEvent),
		index:  make(map[string][]string),
	}
}

func (r *AuditRepository) Record(ctx context.Context, event domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return fmt.Errorf("%w: audit event %s", repository.ErrDuplicate, event.ID)
	}

	r.events[event.ID] = event
	r.index[event.ContentID] = append(r.index[event.ContentID], event.ID)

	return nil
}

func (r *AuditRepository) ListByContent(ctx context.Context, contentID string) ([]domain.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.index[contentID]
	result := make([]domain.AuditEvent, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.events[id])
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})

	return result, nil
}

func (r *AuditRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}
