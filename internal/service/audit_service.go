package service

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrServiceClosed = errors.New("audit service is shut down")

const defaultQueueSize = 1000

// FailureRecorder counts audit events that never reached the sink.
type FailureRecorder interface {
	RecordAuditFailure()
	RecordAuditDropped()
}

// AuditService persists audit events from a bounded queue so a slow sink
// never delays a compliance check.
type AuditService struct {
	sink         repository.AuditSink
	queue        chan auditMessage
	workers      int
	writeTimeout time.Duration
	metrics      FailureRecorder
	shutdownChan chan struct{}
	closeOnce    sync.Once
	mu           sync.RWMutex
	closed       bool
	wg           sync.WaitGroup
	logger       *slog.Logger
}

type AuditOptions struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
	Metrics      FailureRecorder
	Logger       *slog.Logger
}

type auditMessage struct {
	event    domain.AuditEvent
	queuedAt time.Time
}

func NewAuditService(sink repository.AuditSink, opts AuditOptions) *AuditService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	service := &AuditService{
		sink:         sink,
		queue:        make(chan auditMessage, opts.QueueSize),
		workers:      opts.Workers,
		writeTimeout: opts.WriteTimeout,
		metrics:      opts.Metrics,
		shutdownChan: make(chan struct{}),
		logger:       opts.Logger,
	}

	service.startWorkers()

	return service
}

// RecordAsync enqueues event and returns immediately. Events are dropped when
// the queue is full or the service has shut down.
func (s *AuditService) RecordAsync(ctx context.Context, event domain.AuditEvent) {
	if err := s.Enqueue(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Audit event dropped",
			slog.String("event_id", event.ID),
			slog.String("content_id", event.ContentID),
			slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.RecordAuditDropped()
		}
	}
}

var errQueueFull = errors.New("audit queue is full")

func (s *AuditService) Enqueue(ctx context.Context, event domain.AuditEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrServiceClosed
	}

	select {
	case s.queue <- auditMessage{event: event, queuedAt: time.Now()}:
		s.logger.DebugContext(ctx, "Audit event queued",
			slog.String("event_id", event.ID),
			slog.String("content_id", event.ContentID))
		return nil
	default:
		return errQueueFull
	}
}

func (s *AuditService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("Audit worker started", slog.Int("worker_id", id))

	for {
		select {
		case msg := <-s.queue:
			s.persist(msg, id)
		case <-s.shutdownChan:
			// drain what was accepted before shutdown
			for {
				select {
				case msg := <-s.queue:
					s.persist(msg, id)
				default:
					s.logger.Debug("Audit worker stopping", slog.Int("worker_id", id))
					return
				}
			}
		}
	}
}

func (s *AuditService) persist(msg auditMessage, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	startTime := time.Now()
	err := s.sink.Record(ctx, msg.event)
	duration := time.Since(startTime)

	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordAuditFailure()
		}
		s.logger.Error("Failed to persist audit event",
			slog.String("event_id", msg.event.ID),
			slog.String("content_id", msg.event.ContentID),
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
		return
	}

	s.logger.Debug("Audit event persisted",
		slog.String("event_id", msg.event.ID),
		slog.Int("worker_id", workerID),
		slog.Duration("queued", startTime.Sub(msg.queuedAt)),
		slog.Duration("duration", duration))
}

// Shutdown stops accepting events and waits for the workers to drain the
// queue.
func (s *AuditService) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.shutdownChan)
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Audit service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
