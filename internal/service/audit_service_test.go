package service

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository/memory"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type countingMetrics struct {
	mu       sync.Mutex
	failures int
	dropped  int
}

func (m *countingMetrics) RecordAuditFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *countingMetrics) RecordAuditDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

type failingSink struct{}

func (failingSink) Record(context.Context, domain.AuditEvent) error {
	return errors.New("disk full")
}

// gateSink blocks every write until release is closed.
type gateSink struct {
	release chan struct{}
}

func (s gateSink) Record(ctx context.Context, _ domain.AuditEvent) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func event(contentID string, n int) domain.AuditEvent {
	return domain.AuditEvent{
		ID:         fmt.Sprintf("e%d", n),
		ContentID:  contentID,
		RecordedAt: time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
	}
}

func TestAuditService_RecordAsyncPersistsOnShutdown(t *testing.T) {
	repo := memory.NewAuditRepository()
	svc := NewAuditService(repo, AuditOptions{Workers: 2})

	for i := 0; i < 10; i++ {
		svc.RecordAsync(context.Background(), event("c1", i))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("unexpected error on Shutdown: %v", err)
	}
	if repo.Count() != 10 {
		t.Errorf("expected 10 persisted events, got %d", repo.Count())
	}
}

func TestAuditService_DropsWhenQueueFull(t *testing.T) {
	sink := gateSink{release: make(chan struct{})}
	metrics := &countingMetrics{}
	svc := NewAuditService(sink, AuditOptions{Workers: 1, QueueSize: 1, Metrics: metrics})

	for i := 0; i < 5; i++ {
		svc.RecordAsync(context.Background(), event("c1", i))
	}
	close(sink.release)
	_ = svc.Shutdown(context.Background())

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.dropped < 3 {
		t.Errorf("expected at least 3 dropped events, got %d", metrics.dropped)
	}
}

func TestAuditService_SinkFailureCounted(t *testing.T) {
	metrics := &countingMetrics{}
	svc := NewAuditService(failingSink{}, AuditOptions{Metrics: metrics})

	svc.RecordAsync(context.Background(), event("c1", 1))
	_ = svc.Shutdown(context.Background())

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.failures != 1 {
		t.Errorf("expected 1 failure, got %d", metrics.failures)
	}
}

func TestAuditService_EnqueueAfterShutdown(t *testing.T) {
	svc := NewAuditService(memory.NewAuditRepository(), AuditOptions{})
	_ = svc.Shutdown(context.Background())

	if err := svc.Enqueue(context.Background(), event("c1", 1)); !errors.Is(err, ErrServiceClosed) {
		t.Errorf("expected ErrServiceClosed, got %v", err)
	}
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Errorf("expected second Shutdown to succeed, got %v", err)
	}
}
