package main

import (
	"content_compliance/internal/api"
	"content_compliance/internal/compliance"
	"content_compliance/internal/config"
	"content_compliance/internal/repository"
	"content_compliance/internal/repository/memory"
	"content_compliance/internal/repository/rulefile"
	"content_compliance/internal/repository/sqlite"
	"content_compliance/internal/service"
	"content_compliance/pkg/crypto"
	"content_compliance/pkg/metrics"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	appName = "content_compliance"
)

type stores struct {
	contents repository.ContentRepository
	rules    repository.RuleSource
	audits   repository.AuditRepository
	closer   io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting application",
		slog.String("name", appName))

	if cfg.SigningKey == "" {
		logger.Error("RESULT_SIGNING_KEY is required")
		os.Exit(1)
	}

	st, err := openStores(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(cfg.SigningKey, logger)
	auditService := service.NewAuditService(st.audits, service.AuditOptions{
		Workers:   cfg.AuditWorkers,
		QueueSize: cfg.AuditQueueSize,
		Metrics:   metricsCollector,
		Logger:    logger,
	})

	// Serve the default catalog right away; persisted rules are swapped in
	// once they load.
	engine := compliance.NewEngine(compliance.NewDefaultRegistry(context.Background(), nil, logger), st.contents, compliance.EngineOptions{
		BatchWorkers: cfg.BatchWorkers,
		ItemTimeout:  cfg.ItemTimeout,
		Audit:        auditService,
		Metrics:      metricsCollector,
		Logger:       logger,
	})
	go loadDynamicRules(engine, st.rules, cfg.RuleLoadTimeout, logger)

	v := newValidator(engine, cfg.BatchMaxIDs)
	apiHandler := api.NewAPIHandler(engine, v, signer, logger).
		WithRuleSource(st.rules).
		WithAuditLog(st.audits).
		WithRequestTimeout(cfg.RequestTimeout)

	metricsCollector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(apiHandler, cfg, logger)
	waitForShutdown(logger, httpServer, metricsCollector, auditService, st.closer)
	logger.Info("Application shutdown complete")
}

func setupLogger(cfg config.AppConfig) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func openStores(ctx context.Context, cfg config.AppConfig) (stores, error) {
	var st stores

	if cfg.DBPath != "" {
		db, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return stores{}, err
		}
		st = stores{contents: db, rules: db.Rules(), audits: db.Audit(), closer: db}
	} else {
		st = stores{
			contents: memory.NewContentRepository(),
			rules:    memory.NewRuleRepository(),
			audits:   memory.NewAuditRepository(),
		}
	}

	if cfg.RulesFile != "" {
		st.rules = rulefile.New(cfg.RulesFile)
	}
	return st, nil
}

func loadDynamicRules(engine *compliance.Engine, rules repository.RuleSource, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := engine.ReloadRules(ctx, rules); err != nil {
		logger.Warn("Continuing with default rules only", slog.String("error", err.Error()))
	}
}

func startHTTPServer(apiHandler *api.APIHandler, cfg config.AppConfig, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, appName)
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsCollector *metrics.MetricsCollector,
	auditService *service.AuditService,
	storage io.Closer,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := auditService.Shutdown(ctx); err != nil {
		logger.Error("Audit service shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			logger.Error("Storage close failed", slog.String("error", err.Error()))
		}
	}
}
