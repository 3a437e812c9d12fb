package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected addresses %q %q", cfg.HTTPAddr, cfg.MetricsAddr)
	}
	if cfg.BatchWorkers != 8 || cfg.ItemTimeout != 10*time.Second || cfg.BatchMaxIDs != 500 {
		t.Errorf("unexpected batch settings %+v", cfg)
	}
	if cfg.DBPath != "" {
		t.Errorf("expected in-memory default, got %q", cfg.DBPath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "3")
	t.Setenv("ITEM_TIMEOUT", "250ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RULES_FILE", "/etc/compliance/rules.yaml")

	cfg, err := Load()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BatchWorkers != 3 || cfg.ItemTimeout != 250*time.Millisecond || cfg.RulesFile != "/etc/compliance/rules.yaml" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "0")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()

	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_Unparseable(t *testing.T) {
	t.Setenv("ITEM_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseLevel(t *testing.T) {
	if level, err := ParseLevel("WARN"); err != nil || level != slog.LevelWarn {
		t.Errorf("expected warn, got %v %v", level, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
