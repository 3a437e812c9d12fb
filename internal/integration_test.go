package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"content_compliance/internal/api"
	"content_compliance/internal/compliance"
	"content_compliance/internal/domain"
	"content_compliance/internal/repository/memory"
	"content_compliance/internal/service"
	"content_compliance/pkg/crypto"
	"content_compliance/pkg/metrics"
	"content_compliance/pkg/validator"
)

type testEnv struct {
	contents *memory.ContentRepository
	rules    *memory.RuleRepository
	audits   *memory.AuditRepository

	engine  *compliance.Engine
	audit   *service.AuditService
	signer  *crypto.Signer
	handler *api.APIHandler
	mux     *http.ServeMux
	logger  *slog.Logger
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	contents := memory.NewContentRepository()
	rules := memory.NewRuleRepository()
	audits := memory.NewAuditRepository()
	logger := slog.Default()

	metricsCollector := metrics.NewMetricsCollector(logger)
	auditService := service.NewAuditService(audits, service.AuditOptions{Workers: 2, Metrics: metricsCollector, Logger: logger})
	t.Cleanup(func() { _ = auditService.Shutdown(context.Background()) })

	registry := compliance.NewDefaultRegistry(context.Background(), rules, logger)
	engine := compliance.NewEngine(registry, contents, compliance.EngineOptions{
		BatchWorkers: 4,
		ItemTimeout:  time.Second,
		Audit:        auditService,
		Metrics:      metricsCollector,
		Logger:       logger,
	})
	signer := crypto.NewSigner("test-secret", nil)
	v := validator.NewContentValidator(50, func(name string) bool { return engine.Registry().HasRuleset(name) })

	handler := api.NewAPIHandler(engine, v, signer, logger).
		WithRuleSource(rules).
		WithAuditLog(audits)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testEnv{
		contents: contents,
		rules:    rules,
		audits:   audits,
		engine:   engine,
		audit:    auditService,
		signer:   signer,
		handler:  handler,
		mux:      mux,
		logger:   logger,
	}
}

func mustSaveContent(t *testing.T, env *testEnv, content *domain.Content) {
	t.Helper()
	if err := env.contents.Save(context.Background(), content); err != nil {
		t.Fatalf("save content failed: %v", err)
	}
}

func call(t *testing.T, env *testEnv, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.mux.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return v
}

func TestIntegration_CheckContentSigned(t *testing.T) {
	env := setup(t)

	req := api.CheckRequest{
		Content: domain.Content{Script: "This supplement cures anxiety, guaranteed!", Platform: "tiktok"},
		Options: domain.CheckOptions{Rulesets: []string{compliance.RulesetMedical}},
	}

	w := call(t, env, http.MethodPost, "/api/v1/compliance/check", req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	signature := w.Header().Get(api.SignatureHeader)
	result := decode[domain.CheckResult](t, w)

	if result.IsCompliant || result.Score > 50 || !result.HasRule("cure_claims") {
		t.Fatalf("unexpected result %+v", result)
	}
	if err := env.signer.VerifyResult(result.ContentID, result.Score, result.IsCompliant, result.CheckedAt, signature); err != nil {
		t.Fatalf("signature did not verify: %v", err)
	}
}

func TestIntegration_CheckContentValidation(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing platform", api.CheckRequest{Content: domain.Content{Caption: "hi"}}},
		{"empty content", api.CheckRequest{Content: domain.Content{Platform: "TIKTOK"}}},
		{"unknown ruleset", api.CheckRequest{
			Content: domain.Content{Caption: "hi", Platform: "TIKTOK"},
			Options: domain.CheckOptions{Rulesets: []string{"horoscope"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(t, env, http.MethodPost, "/api/v1/compliance/check", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/compliance/check", strings.NewReader("{"))
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestIntegration_CheckContentByIDAudited(t *testing.T) {
	env := setup(t)
	mustSaveContent(t, env, &domain.Content{ID: "post-1", Caption: "Contact me at 555-123-4567", Platform: domain.PlatformInstagram})

	w := call(t, env, http.MethodGet, "/api/v1/compliance/content/post-1?rulesets=privacy_pii", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := decode[domain.CheckResult](t, w)
	if result.ContentID != "post-1" || result.Score != 75 || !result.HasRule("phone_number") {
		t.Fatalf("unexpected result %+v", result)
	}
	if w.Header().Get(api.SignatureHeader) == "" {
		t.Error("expected signature header")
	}

	if err := env.audit.Shutdown(context.Background()); err != nil {
		t.Fatalf("audit shutdown: %v", err)
	}
	w = call(t, env, http.MethodGet, "/api/v1/compliance/content/post-1/audit", nil)
	events := decode[map[string][]domain.AuditEvent](t, w)["events"]
	if len(events) != 1 || events[0].Score != 75 || events[0].ViolationCount != 1 {
		t.Fatalf("expected one audit event, got %+v", events)
	}
}

func TestIntegration_CheckContentByIDNotFound(t *testing.T) {
	env := setup(t)

	w := call(t, env, http.MethodGet, "/api/v1/compliance/content/missing", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestIntegration_StrictModeQuery(t *testing.T) {
	env := setup(t)
	mustSaveContent(t, env, &domain.Content{ID: "post-2", Caption: "Write to someone@example.com", Platform: domain.PlatformFacebook})

	lenient := decode[domain.CheckResult](t, call(t, env, http.MethodGet, "/api/v1/compliance/content/post-2?rulesets=privacy_pii", nil))
	strict := decode[domain.CheckResult](t, call(t, env, http.MethodGet, "/api/v1/compliance/content/post-2?rulesets=privacy_pii&strict=true", nil))

	if !lenient.IsCompliant || strict.IsCompliant {
		t.Fatalf("expected strict mode to flip compliance, got %v/%v", lenient.IsCompliant, strict.IsCompliant)
	}
	if lenient.Score != strict.Score {
		t.Fatalf("expected equal scores, got %d/%d", lenient.Score, strict.Score)
	}
}

func TestIntegration_BatchCheck(t *testing.T) {
	env := setup(t)
	for i := 0; i < 5; i++ {
		mustSaveContent(t, env, &domain.Content{
			ID:       fmt.Sprintf("post-%d", i),
			Caption:  "Weekend vibes",
			Hashtags: []string{"#fun"},
			Platform: domain.PlatformTikTok,
		})
	}

	req := api.BatchRequest{ContentIDs: []string{"post-0", "post-1", "post-2", "post-3", "post-4", "ghost", "post-0"}}
	w := call(t, env, http.MethodPost, "/api/v1/compliance/batch", req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[api.BatchResponse](t, w)

	if resp.Checked != 6 || resp.Failed != 1 {
		t.Fatalf("expected 6 checked and 1 failed, got %d/%d", resp.Checked, resp.Failed)
	}
	ghost := resp.Results["ghost"]
	if ghost == nil || ghost.Score != 0 || ghost.IsCompliant || ghost.Error == "" {
		t.Fatalf("unexpected failed result %+v", ghost)
	}
	if resp.Results["post-3"].Score != 100 {
		t.Fatalf("expected clean post, got %+v", resp.Results["post-3"])
	}
}

func TestIntegration_BatchValidation(t *testing.T) {
	env := setup(t)

	w := call(t, env, http.MethodPost, "/api/v1/compliance/batch", api.BatchRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", w.Code)
	}

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	w = call(t, env, http.MethodPost, "/api/v1/compliance/batch", api.BatchRequest{ContentIDs: ids})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized batch, got %d", w.Code)
	}
}

func TestIntegration_Rulesets(t *testing.T) {
	env := setup(t)

	names := decode[map[string][]string](t, call(t, env, http.MethodGet, "/api/v1/rulesets", nil))["rulesets"]
	if len(names) != len(compliance.DefaultRulesets()) {
		t.Fatalf("unexpected rulesets %v", names)
	}

	w := call(t, env, http.MethodGet, "/api/v1/rulesets/privacy_pii", nil)
	ruleset := decode[api.RulesetResponse](t, w)
	if ruleset.Name != "privacy_pii" || len(ruleset.Rules) != len(compliance.PIIRuleSet().Rules) {
		t.Fatalf("unexpected ruleset %+v", ruleset)
	}

	if w := call(t, env, http.MethodGet, "/api/v1/rulesets/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := call(t, env, http.MethodGet, "/api/v1/rules/ssn", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for known rule, got %d", w.Code)
	}
}

func TestIntegration_ReloadRules(t *testing.T) {
	env := setup(t)
	if err := env.rules.Save(context.Background(), domain.PersistedRule{
		ID: "brand_terms", Ruleset: "brand", Severity: "high", Text: "competitorco",
	}); err != nil {
		t.Fatalf("save rule: %v", err)
	}

	if w := call(t, env, http.MethodPost, "/api/v1/rules/reload", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	req := api.CheckRequest{
		Content: domain.Content{Caption: "Cheaper than CompetitorCo", Platform: "LINKEDIN"},
		Options: domain.CheckOptions{Rulesets: []string{"brand"}},
	}
	result := decode[domain.CheckResult](t, call(t, env, http.MethodPost, "/api/v1/compliance/check", req))
	if !result.HasRule("brand_terms") || result.IsCompliant {
		t.Fatalf("expected dynamic rule violation, got %+v", result)
	}

	env.rules.SetUnavailable(fmt.Errorf("connection reset"))
	if w := call(t, env, http.MethodPost, "/api/v1/rules/reload", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !env.engine.Registry().HasRuleset("brand") {
		t.Fatal("expected previous registry to stay active")
	}
}

func TestIntegration_Health(t *testing.T) {
	env := setup(t)

	w := call(t, env, http.MethodGet, "/api/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestIntegration_ConcurrentChecks(t *testing.T) {
	env := setup(t)
	req := api.CheckRequest{
		Content: domain.Content{Caption: "Contact me at 555-123-4567", Platform: "INSTAGRAM"},
		Options: domain.CheckOptions{Rulesets: []string{compliance.RulesetPII}},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := call(t, env, http.MethodPost, "/api/v1/compliance/check", req)
			if w.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", w.Code)
				return
			}
			var result domain.CheckResult
			if err := json.NewDecoder(w.Body).Decode(&result); err != nil || result.Score != 75 {
				t.Errorf("unexpected result %+v err=%v", result, err)
			}
		}()
	}
	wg.Wait()
}
