package sqlite

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "compliance.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compliance.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		_ = store.Close()
	}
}

func TestStore_ContentRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	input := &domain.Content{
		ID:       "c1",
		Title:    "Title",
		Script:   "Script",
		Caption:  "Caption",
		Hashtags: []string{"#one", "#two"},
		Platform: domain.PlatformYouTube,
		Industry: domain.IndustryFinance,
		MediaURL: "https://cdn.example.com/v.mp4",
	}

	if err := store.Save(ctx, input); err != nil {
		t.Fatalf("save content: %v", err)
	}
	got, err := store.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if got.Title != input.Title || got.Platform != input.Platform || got.Industry != input.Industry || got.MediaURL != input.MediaURL {
		t.Fatalf("content = %+v, want %+v", got, input)
	}
	if len(got.Hashtags) != 2 || got.Hashtags[1] != "#two" {
		t.Fatalf("hashtags = %v", got.Hashtags)
	}

	if err := store.Save(ctx, input); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRuleStore_ListSaveDelete(t *testing.T) {
	t.Parallel()

	rules := openTempStore(t).Rules()
	ctx := context.Background()
	for _, rule := range []domain.PersistedRule{
		{ID: "z_rule", Ruleset: "brand", Severity: "low", Text: "a"},
		{ID: "a_rule", Ruleset: "brand", Severity: "high", Text: "b", Category: "custom", Message: "m"},
		{ID: "m_rule", Ruleset: "alpha", Severity: "medium", Text: "c"},
	} {
		if err := rules.Save(ctx, rule); err != nil {
			t.Fatalf("save rule %s: %v", rule.ID, err)
		}
	}

	list, err := rules.ListPersistedRules(ctx)
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(list) != 3 || list[0].ID != "m_rule" || list[1].ID != "a_rule" || list[2].ID != "z_rule" {
		t.Fatalf("unexpected order %+v", list)
	}
	if list[1].Message != "m" || list[1].Category != "custom" {
		t.Fatalf("unexpected fields %+v", list[1])
	}

	if err := rules.Delete(ctx, "a_rule"); err != nil {
		t.Fatalf("delete rule: %v", err)
	}
	if err := rules.Delete(ctx, "a_rule"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRuleStore_UnavailableAfterClose(t *testing.T) {
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	_ = store.Close()

	if _, err := store.Rules().ListPersistedRules(context.Background()); !errors.Is(err, repository.ErrRuleSourceUnavailable) {
		t.Fatalf("expected ErrRuleSourceUnavailable, got %v", err)
	}
}

func TestAuditStore_RecordAndList(t *testing.T) {
	t.Parallel()

	audit := openTempStore(t).Audit()
	ctx := context.Background()
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	events := []domain.AuditEvent{
		{ID: "e2", ContentID: "c1", Score: 75, ViolationCount: 1, RulesChecked: 5, RecordedAt: base.Add(time.Minute)},
		{ID: "e1", ContentID: "c1", IsCompliant: true, Score: 100, RulesChecked: 5, RecordedAt: base},
		{ID: "e3", ContentID: "c2", Score: 90, RecordedAt: base},
	}
	for _, e := range events {
		if err := audit.Record(ctx, e); err != nil {
			t.Fatalf("record %s: %v", e.ID, err)
		}
	}

	got, err := audit.ListByContent(ctx, "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
		t.Fatalf("unexpected events %+v", got)
	}
	if !got[0].IsCompliant || got[1].ViolationCount != 1 || !got[1].RecordedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("fields not preserved: %+v", got)
	}
	if err := audit.Record(ctx, events[0]); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
