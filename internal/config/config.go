package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig holds the service settings read from the environment.
type AppConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR"         envDefault:":8080"`
	MetricsAddr     string        `env:"METRICS_ADDR"      envDefault:":9090"`
	LogLevel        string        `env:"LOG_LEVEL"         envDefault:"info"`
	DBPath          string        `env:"DB_PATH"`
	RulesFile       string        `env:"RULES_FILE"`
	BatchWorkers    int           `env:"BATCH_WORKERS"     envDefault:"8"`
	ItemTimeout     time.Duration `env:"ITEM_TIMEOUT"      envDefault:"10s"`
	BatchMaxIDs     int           `env:"BATCH_MAX_IDS"     envDefault:"500"`
	AuditWorkers    int           `env:"AUDIT_WORKERS"     envDefault:"2"`
	AuditQueueSize  int           `env:"AUDIT_QUEUE_SIZE"  envDefault:"1000"`
	RuleLoadTimeout time.Duration `env:"RULE_LOAD_TIMEOUT" envDefault:"5s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"   envDefault:"30s"`
	SigningKey      string        `env:"RESULT_SIGNING_KEY"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Load parses the environment and validates the result.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	var problems []string
	if c.BatchWorkers <= 0 {
		problems = append(problems, "BATCH_WORKERS must be positive")
	}
	if c.BatchMaxIDs <= 0 {
		problems = append(problems, "BATCH_MAX_IDS must be positive")
	}
	if c.AuditWorkers <= 0 {
		problems = append(problems, "AUDIT_WORKERS must be positive")
	}
	if c.AuditQueueSize <= 0 {
		problems = append(problems, "AUDIT_QUEUE_SIZE must be positive")
	}
	if c.ItemTimeout <= 0 {
		problems = append(problems, "ITEM_TIMEOUT must be positive")
	}
	if c.RuleLoadTimeout <= 0 {
		problems = append(problems, "RULE_LOAD_TIMEOUT must be positive")
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "REQUEST_TIMEOUT must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: unknown level %q", value)
	}
	return level, nil
}
