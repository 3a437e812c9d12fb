// Package sqlite provides SQLite-backed content, rule and audit storage.
package sqlite

import (
	"content_compliance/internal/domain"
	"content_compliance/internal/repository"
	"content_compliance/internal/repository/sqlite/migrations"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) Save(ctx context.Context, content *domain.Content) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if content == nil || strings.TrimSpace(content.ID) == "" {
		return fmt.Errorf("%w: content id is required", repository.ErrInvalidRecord)
	}

	hashtags, err := json.Marshal(content.Hashtags)
	if err != nil {
		return fmt.Errorf("encode hashtags: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO contents (id, title, script, caption, hashtags, platform, industry, media_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		content.ID,
		content.Title,
		content.Script,
		content.Caption,
		string(hashtags),
		string(content.Platform),
		string(content.Industry),
		content.MediaURL,
		toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: content %s", repository.ErrDuplicate, content.ID)
		}
		return fmt.Errorf("save content: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var (
		content  domain.Content
		hashtags string
		platform string
		industry string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, title, script, caption, hashtags, platform, industry, media_url
		 FROM contents WHERE id = ?`, id,
	).Scan(&content.ID, &content.Title, &content.Script, &content.Caption, &hashtags, &platform, &industry, &content.MediaURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: content %s", repository.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}

	if err := json.Unmarshal([]byte(hashtags), &content.Hashtags); err != nil {
		return nil, fmt.Errorf("decode hashtags for %s: %w", id, err)
	}
	content.Platform = domain.Platform(platform)
	content.Industry = domain.Industry(industry)

	return &content, nil
}

// Rules exposes the persisted rule table.
func (s *Store) Rules() *RuleStore {
	return &RuleStore{store: s}
}

// Audit exposes the audit event table.
func (s *Store) Audit() *AuditStore {
	return &AuditStore{store: s}
}

type RuleStore struct {
	store *Store
}

func (r *RuleStore) Save(ctx context.Context, rule domain.PersistedRule) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(rule.ID) == "" || strings.TrimSpace(rule.Ruleset) == "" {
		return fmt.Errorf("%w: rule id and ruleset are required", repository.ErrInvalidRecord)
	}

	_, err := r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO compliance_rules (id, ruleset, severity, text, category, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Ruleset, rule.Severity, rule.Text, rule.Category, rule.Message, toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: rule %s", repository.ErrDuplicate, rule.ID)
		}
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}

func (r *RuleStore) Delete(ctx context.Context, id string) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}

	res, err := r.store.sqlDB.ExecContext(ctx, `DELETE FROM compliance_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: rule %s", repository.ErrNotFound, id)
	}
	return nil
}

// ListPersistedRules returns rules ordered by ruleset then id. Any database
// error is reported as ErrRuleSourceUnavailable.
func (r *RuleStore) ListPersistedRules(ctx context.Context) ([]domain.PersistedRule, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrRuleSourceUnavailable, err)
	}

	rows, err := r.store.sqlDB.QueryContext(ctx,
		`SELECT id, ruleset, severity, text, category, message
		 FROM compliance_rules ORDER BY ruleset, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrRuleSourceUnavailable, err)
	}
	defer rows.Close()

	var rules []domain.PersistedRule
	for rows.Next() {
		var rule domain.PersistedRule
		if err := rows.Scan(&rule.ID, &rule.Ruleset, &rule.Severity, &rule.Text, &rule.Category, &rule.Message); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrRuleSourceUnavailable, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrRuleSourceUnavailable, err)
	}
	return rules, nil
}

type AuditStore struct {
	store *Store
}

func (a *AuditStore) Record(ctx context.Context, event domain.AuditEvent) error {
	if err := a.store.ready(ctx); err != nil {
		return err
	}

	_, err := a.store.sqlDB.ExecContext(ctx,
		`INSERT INTO audit_events (id, content_id, is_compliant, score, violation_count, warning_count, rules_checked, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.ContentID,
		event.IsCompliant,
		event.Score,
		event.ViolationCount,
		event.WarningCount,
		event.RulesChecked,
		toMillis(event.RecordedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: audit event %s", repository.ErrDuplicate, event.ID)
		}
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

func (a *AuditStore) ListByContent(ctx context.Context, contentID string) ([]domain.AuditEvent, error) {
	if err := a.store.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := a.store.sqlDB.QueryContext(ctx,
		`SELECT id, content_id, is_compliant, score, violation_count, warning_count, rules_checked, recorded_at
		 FROM audit_events WHERE content_id = ? ORDER BY recorded_at, id`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		var (
			event      domain.AuditEvent
			recordedAt int64
		)
		if err := rows.Scan(&event.ID, &event.ContentID, &event.IsCompliant, &event.Score,
			&event.ViolationCount, &event.WarningCount, &event.RulesChecked, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.RecordedAt = fromMillis(recordedAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ repository.ContentRepository = (*Store)(nil)
	_ repository.RuleRepository    = (*RuleStore)(nil)
	_ repository.AuditRepository   = (*AuditStore)(nil)
)
