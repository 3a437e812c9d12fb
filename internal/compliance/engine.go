package compliance

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var ErrCheckTimeout = errors.New("compliance check timed out")

const (
	defaultBatchWorkers = 8
	defaultItemTimeout  = 10 * time.Second
)

type EngineOptions struct {
	BatchWorkers int
	ItemTimeout  time.Duration
	Audit        AuditRecorder
	Metrics      Recorder
	Logger       *slog.Logger
}

// Engine orchestrates compliance checks. The registry it evaluates against is
// swapped atomically, so checks never lock and always see one consistent
// catalog.
type Engine struct {
	registry     atomic.Pointer[Registry]
	evaluator    *Evaluator
	contents     repository.ContentRepository
	audit        AuditRecorder
	metrics      Recorder
	batchWorkers int
	itemTimeout  time.Duration
	logger       *slog.Logger
}

func NewEngine(registry *Registry, contents repository.ContentRepository, opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopRecorder{}
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = defaultBatchWorkers
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = defaultItemTimeout
	}

	e := &Engine{
		evaluator:    NewEvaluator(opts.Logger, opts.Metrics),
		contents:     contents,
		audit:        opts.Audit,
		metrics:      opts.Metrics,
		batchWorkers: opts.BatchWorkers,
		itemTimeout:  opts.ItemTimeout,
		logger:       opts.Logger,
	}
	e.SwapRegistry(registry)

	return e
}

func (e *Engine) Registry() *Registry {
	return e.registry.Load()
}

func (e *Engine) SwapRegistry(registry *Registry) {
	if registry == nil {
		registry = NewRegistryBuilder(e.logger).Build()
	}
	e.registry.Store(registry)
	e.metrics.SetRegistryRules(registry.Size())
}

// ReloadRules rebuilds the catalog from the default rulesets plus source and
// swaps it in. When source fails the current registry stays in place.
func (e *Engine) ReloadRules(ctx context.Context, source repository.RuleSource) error {
	b := NewRegistryBuilder(e.logger)
	for _, set := range DefaultRulesets() {
		b.RegisterRuleset(set.Name, set.Rules)
	}
	if _, err := b.LoadDynamicRules(ctx, source); err != nil {
		return err
	}

	registry := b.Build()
	e.SwapRegistry(registry)
	e.logger.InfoContext(ctx, "Rule registry reloaded",
		slog.Int("rules", registry.Size()),
		slog.Int("rulesets", len(registry.RulesetNames())))

	return nil
}

func (e *Engine) CheckContent(ctx context.Context, content domain.Content, opts domain.CheckOptions) *domain.CheckResult {
	start := time.Now()
	result := e.evaluator.Evaluate(ctx, e.registry.Load(), content, opts)
	e.metrics.RecordCheck(time.Since(start), result)
	return result
}

func (e *Engine) CheckContentByID(ctx context.Context, contentID string, opts domain.CheckOptions) (*domain.CheckResult, error) {
	content, err := e.fetchContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	content.ID = contentID
	result := e.CheckContent(ctx, *content, opts)
	result.ContentID = contentID

	if e.audit != nil {
		e.audit.RecordAsync(context.WithoutCancel(ctx), domain.NewAuditEvent(result))
	}

	return result, nil
}

// fetchContent gives up as soon as ctx is done, even if the store does not.
func (e *Engine) fetchContent(ctx context.Context, contentID string) (*domain.Content, error) {
	if e.contents == nil {
		return nil, fmt.Errorf("content store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type fetched struct {
		content *domain.Content
		err     error
	}
	ch := make(chan fetched, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- fetched{err: fmt.Errorf("content store panicked: %v", r)}
			}
		}()
		content, err := e.contents.GetByID(ctx, contentID)
		ch <- fetched{content: content, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f := <-ch:
		if f.err != nil {
			return nil, f.err
		}
		if f.content == nil {
			return nil, fmt.Errorf("%w: content %s", repository.ErrNotFound, contentID)
		}
		return f.content, nil
	}
}

// BatchCheck returns exactly one result per distinct id. Items run
// concurrently up to the configured worker limit; any failure is turned into
// a failed result instead of aborting the batch.
func (e *Engine) BatchCheck(ctx context.Context, contentIDs []string, opts domain.CheckOptions) map[string]*domain.CheckResult {
	results := make(map[string]*domain.CheckResult, len(contentIDs))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(e.batchWorkers)

	seen := make(map[string]struct{}, len(contentIDs))
	for _, id := range contentIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			result := e.checkBatchItem(ctx, id, opts)
			mu.Lock()
			results[id] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	e.metrics.RecordBatch(len(results), failed)
	e.logger.InfoContext(ctx, "Batch check completed",
		slog.Int("requested", len(contentIDs)),
		slog.Int("checked", len(results)),
		slog.Int("failed", failed))

	return results
}

func (e *Engine) checkBatchItem(ctx context.Context, contentID string, opts domain.CheckOptions) (result *domain.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			result = e.failedResult(contentID, fmt.Errorf("unexpected error: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return e.failedResult(contentID, fmt.Errorf("%w: %v", ErrCheckTimeout, err))
	}

	itemCtx, cancel := context.WithTimeout(ctx, e.itemTimeout)
	defer cancel()

	result, err := e.CheckContentByID(itemCtx, contentID, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %v", ErrCheckTimeout, err)
		}
		return e.failedResult(contentID, err)
	}
	return result
}

func (e *Engine) failedResult(contentID string, err error) *domain.CheckResult {
	e.logger.Warn("Batch item failed",
		slog.String("content_id", contentID),
		slog.String("error", err.Error()))

	return &domain.CheckResult{
		ContentID:   contentID,
		IsCompliant: false,
		Score:       0,
		Violations:  []domain.Violation{},
		Warnings:    []domain.Violation{},
		Info:        []domain.Violation{},
		Summary:     fmt.Sprintf("Compliance check failed: %s", err.Error()),
		CheckedAt:   time.Now().UTC(),
		Error:       err.Error(),
	}
}

func (e *Engine) CheckForPII(ctx context.Context, content domain.Content) *domain.CheckResult {
	return e.CheckContent(ctx, content, domain.CheckOptions{Rulesets: []string{RulesetPII}})
}

func (e *Engine) CheckForMedicalClaims(ctx context.Context, content domain.Content) *domain.CheckResult {
	return e.CheckContent(ctx, content, domain.CheckOptions{Rulesets: []string{RulesetMedical}})
}

func (e *Engine) CheckForFinancialClaims(ctx context.Context, content domain.Content) *domain.CheckResult {
	return e.CheckContent(ctx, content, domain.CheckOptions{Rulesets: []string{RulesetFinancial}})
}

func (e *Engine) CheckForLegalClaims(ctx context.Context, content domain.Content) *domain.CheckResult {
	return e.CheckContent(ctx, content, domain.CheckOptions{Rulesets: []string{RulesetLegal}})
}

func (e *Engine) ListRulesets() []string {
	return e.registry.Load().RulesetNames()
}

// RulesetInfo describes the rules of a ruleset without their detection logic.
func (e *Engine) RulesetInfo(name string) ([]domain.RuleInfo, bool) {
	registry := e.registry.Load()
	if !registry.HasRuleset(name) {
		return nil, false
	}

	rules := registry.Ruleset(name)
	infos := make([]domain.RuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, rule.Metadata())
	}
	return infos, true
}

func (e *Engine) Rule(id string) (domain.RuleInfo, bool) {
	rule, ok := e.registry.Load().RuleByID(id)
	if !ok {
		return domain.RuleInfo{}, false
	}
	return rule.Metadata(), true
}
