package metrics

import (
	"content_compliance/internal/domain"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeCompliant    = "compliant"
	OutcomeNonCompliant = "non_compliant"
	OutcomeFailed       = "failed"
)

type MetricsCollector struct {
	registry          *prometheus.Registry
	checksTotal       *prometheus.CounterVec
	checkDuration     prometheus.Histogram
	scoreDistribution prometheus.Histogram
	violationsTotal   *prometheus.CounterVec
	ruleFailures      *prometheus.CounterVec
	batchSize         prometheus.Histogram
	batchFailures     prometheus.Counter
	auditFailures     prometheus.Counter
	auditDropped      prometheus.Counter
	registryRules     prometheus.Gauge
	server            *http.Server
	logger            *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	collector := &MetricsCollector{
		registry: registry,
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_checks_total",
			Help: "Total number of compliance checks by outcome",
		}, []string{"outcome"}),
		checkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_check_duration_seconds",
			Help:    "Time taken to evaluate one content snapshot",
			Buckets: prometheus.DefBuckets,
		}),
		scoreDistribution: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_score_distribution",
			Help:    "Distribution of compliance scores",
			Buckets: []float64{0, 25, 50, 75, 90, 100},
		}),
		violationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_violations_total",
			Help: "Findings produced by severity",
		}, []string{"severity"}),
		ruleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_rule_failures_total",
			Help: "Rules that errored or panicked during evaluation",
		}, []string{"rule_id"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_batch_size",
			Help:    "Number of distinct content items per batch",
			Buckets: []float64{1, 5, 10, 50, 100, 250, 500},
		}),
		batchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "compliance_batch_item_failures_total",
			Help: "Batch items that could not be checked",
		}),
		auditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "compliance_audit_failures_total",
			Help: "Audit events that could not be persisted",
		}),
		auditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "compliance_audit_dropped_total",
			Help: "Audit events dropped because the queue was full",
		}),
		registryRules: factory.NewGauge(prometheus.GaugeOpts{
			Name: "compliance_registry_rules",
			Help: "Rules in the active registry",
		}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordCheck(duration time.Duration, result *domain.CheckResult) {
	m.checkDuration.Observe(duration.Seconds())

	switch {
	case result.Failed():
		m.checksTotal.WithLabelValues(OutcomeFailed).Inc()
		return
	case result.IsCompliant:
		m.checksTotal.WithLabelValues(OutcomeCompliant).Inc()
	default:
		m.checksTotal.WithLabelValues(OutcomeNonCompliant).Inc()
	}

	m.scoreDistribution.Observe(float64(result.Score))
	for _, group := range [][]domain.Violation{result.Violations, result.Warnings, result.Info} {
		for _, v := range group {
			m.violationsTotal.WithLabelValues(string(v.Severity)).Inc()
		}
	}
}

func (m *MetricsCollector) RecordRuleFailure(ruleID string) {
	m.ruleFailures.WithLabelValues(ruleID).Inc()
}

func (m *MetricsCollector) RecordBatch(size int, failed int) {
	m.batchSize.Observe(float64(size))
	m.batchFailures.Add(float64(failed))
}

func (m *MetricsCollector) SetRegistryRules(n int) {
	m.registryRules.Set(float64(n))
}

func (m *MetricsCollector) RecordAuditFailure() {
	m.auditFailures.Inc()
}

func (m *MetricsCollector) RecordAuditDropped() {
	m.auditDropped.Inc()
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.server = server

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.server != nil {
		if err := m.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
