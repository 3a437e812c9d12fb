package api

import (
	"content_compliance/internal/compliance"
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"content_compliance/pkg/crypto"
	"content_compliance/pkg/validator"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const SignatureHeader = "X-Compliance-Signature"

type APIHandler struct {
	engine         *compliance.Engine
	validator      *validator.ContentValidator
	signer         *crypto.Signer
	rules          repository.RuleSource
	audits         repository.AuditRepository
	logger         *slog.Logger
	requestTimeout time.Duration
	startedAt      time.Time
}

func NewAPIHandler(
	engine *compliance.Engine,
	validator *validator.ContentValidator,
	signer *crypto.Signer,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		engine:         engine,
		validator:      validator,
		signer:         signer,
		logger:         logger,
		requestTimeout: 30 * time.Second,
		startedAt:      time.Now(),
	}
}

// WithRuleSource enables POST /api/v1/rules/reload.
func (h *APIHandler) WithRuleSource(rules repository.RuleSource) *APIHandler {
	h.rules = rules
	return h
}

// WithAuditLog enables GET /api/v1/compliance/content/{id}/audit.
func (h *APIHandler) WithAuditLog(audits repository.AuditRepository) *APIHandler {
	h.audits = audits
	return h
}

func (h *APIHandler) WithRequestTimeout(timeout time.Duration) *APIHandler {
	if timeout > 0 {
		h.requestTimeout = timeout
	}
	return h
}

type CheckRequest struct {
	Content domain.Content      `json:"content"`
	Options domain.CheckOptions `json:"options"`
}

type BatchRequest struct {
	ContentIDs []string            `json:"content_ids"`
	Options    domain.CheckOptions `json:"options"`
}

type BatchResponse struct {
	Results map[string]*domain.CheckResult `json:"results"`
	Checked int                            `json:"checked"`
	Failed  int                            `json:"failed"`
}

type RulesetResponse struct {
	Name  string            `json:"name"`
	Rules []domain.RuleInfo `json:"rules"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) CheckContentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := errors.Join(h.validator.ValidateContent(&req.Content), h.validator.ValidateOptions(&req.Options)); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	result := h.engine.CheckContent(ctx, req.Content, req.Options)

	h.sendSignedResult(w, result)
	h.logger.Info("Content checked",
		slog.String("content_id", result.ContentID),
		slog.Bool("is_compliant", result.IsCompliant),
		slog.Int("score", result.Score))
}

func (h *APIHandler) CheckContentByIDHandler(w http.ResponseWriter, r *http.Request) {
	contentID := strings.TrimSpace(r.PathValue("id"))
	if contentID == "" {
		h.sendError(w, "Content ID is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	opts := optionsFromQuery(r.URL.Query())
	if err := h.validator.ValidateOptions(&opts); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.engine.CheckContentByID(ctx, contentID, opts)
	if err != nil {
		h.sendEngineError(w, err, contentID)
		return
	}

	h.sendSignedResult(w, result)
}

func (h *APIHandler) BatchCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	ids, err := h.validator.ValidateBatch(req.ContentIDs)
	if err = errors.Join(err, h.validator.ValidateOptions(&req.Options)); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	results := h.engine.BatchCheck(ctx, ids, req.Options)

	response := BatchResponse{Results: results, Checked: len(results)}
	for _, result := range results {
		if result.Failed() {
			response.Failed++
		}
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) ListRulesetsHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string][]string{"rulesets": h.engine.ListRulesets()}, http.StatusOK)
}

func (h *APIHandler) GetRulesetHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rules, ok := h.engine.RulesetInfo(name)
	if !ok {
		h.sendError(w, "Ruleset not found", http.StatusNotFound, "NOT_FOUND")
		return
	}
	h.sendJSON(w, RulesetResponse{Name: name, Rules: rules}, http.StatusOK)
}

func (h *APIHandler) GetRuleHandler(w http.ResponseWriter, r *http.Request) {
	rule, ok := h.engine.Rule(r.PathValue("id"))
	if !ok {
		h.sendError(w, "Rule not found", http.StatusNotFound, "NOT_FOUND")
		return
	}
	h.sendJSON(w, rule, http.StatusOK)
}

func (h *APIHandler) ReloadRulesHandler(w http.ResponseWriter, r *http.Request) {
	if h.rules == nil {
		h.sendError(w, "No rule source configured", http.StatusNotImplemented, "NOT_CONFIGURED")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if err := h.engine.ReloadRules(ctx, h.rules); err != nil {
		h.logger.Error("Rule reload failed", slog.String("error", err.Error()))
		h.sendError(w, "Rule source unavailable, current rules kept", http.StatusServiceUnavailable, "RULE_SOURCE_UNAVAILABLE")
		return
	}

	h.sendJSON(w, map[string]int{"rules": h.engine.Registry().Size()}, http.StatusOK)
}

func (h *APIHandler) AuditLogHandler(w http.ResponseWriter, r *http.Request) {
	if h.audits == nil {
		h.sendError(w, "Audit log not configured", http.StatusNotImplemented, "NOT_CONFIGURED")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	events, err := h.audits.ListByContent(ctx, r.PathValue("id"))
	if err != nil {
		h.logger.Error("Failed to list audit events", slog.String("error", err.Error()))
		h.sendError(w, "Failed to list audit events", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}
	h.sendJSON(w, map[string][]domain.AuditEvent{"events": events}, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"rules":     h.engine.Registry().Size(),
	}
	h.sendJSON(w, response, http.StatusOK)
}

// optionsFromQuery reads industry, rulesets, skip_rules and strict. List
// values are comma separated or repeated.
func optionsFromQuery(q url.Values) domain.CheckOptions {
	opts := domain.CheckOptions{
		Industry:  domain.Industry(q.Get("industry")),
		Rulesets:  splitList(q["rulesets"]),
		SkipRules: splitList(q["skip_rules"]),
	}
	if strict, err := strconv.ParseBool(q.Get("strict")); err == nil {
		opts.StrictMode = strict
	}
	return opts
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *APIHandler) sendSignedResult(w http.ResponseWriter, result *domain.CheckResult) {
	if h.signer != nil {
		w.Header().Set(SignatureHeader, h.signer.SignResult(result.ContentID, result.Score, result.IsCompliant, result.CheckedAt))
	}
	h.sendJSON(w, result, http.StatusOK)
}

func (h *APIHandler) sendEngineError(w http.ResponseWriter, err error, contentID string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.sendError(w, "Content not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, compliance.ErrCheckTimeout):
		h.sendError(w, "Compliance check timed out", http.StatusGatewayTimeout, "TIMEOUT")
	default:
		h.logger.Error("Compliance check failed",
			slog.String("content_id", contentID),
			slog.String("error", err.Error()))
		h.sendError(w, "Compliance check failed", http.StatusInternalServerError, "SERVER_ERROR")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/compliance/check", h.CheckContentHandler)
	mux.HandleFunc("GET /api/v1/compliance/content/{id}", h.CheckContentByIDHandler)
	mux.HandleFunc("GET /api/v1/compliance/content/{id}/audit", h.AuditLogHandler)
	mux.HandleFunc("POST /api/v1/compliance/batch", h.BatchCheckHandler)
	mux.HandleFunc("GET /api/v1/rulesets", h.ListRulesetsHandler)
	mux.HandleFunc("GET /api/v1/rulesets/{name}", h.GetRulesetHandler)
	mux.HandleFunc("GET /api/v1/rules/{id}", h.GetRuleHandler)
	mux.HandleFunc("POST /api/v1/rules/reload", h.ReloadRulesHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
