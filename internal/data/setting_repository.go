package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SettingRepository handles the key/value site settings.
type SettingRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db, dialect: DialectOf(db)}
}

// All returns every setting ordered by key.
func (r *SettingRepository) All(ctx context.Context) ([]*SiteSetting, error) {
	settings := []*SiteSetting{}
	query := `SELECT setting_key, setting_value, setting_type, updated_at FROM site_settings ORDER BY setting_key`
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", classifyError(err))
	}
	return settings, nil
}

// Get returns a single setting.
func (r *SettingRepository) Get(ctx context.Context, key string) (*SiteSetting, error) {
	var s SiteSetting
	query := r.db.Rebind(`SELECT setting_key, setting_value, setting_type, updated_at FROM site_settings WHERE setting_key = ?`)
	if err := r.db.GetContext(ctx, &s, query, key); err != nil {
		return nil, fmt.Errorf("failed to get setting '%s': %w", key, classifyError(err))
	}
	return &s, nil
}

// Upsert writes the given settings in one transaction, creating missing keys.
func (r *SettingRepository) Upsert(ctx context.Context, settings ...*SiteSetting) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer tx.Rollback()

	stmt := tx.Rebind(r.dialect.upsertSetting())
	for _, s := range settings {
		if s.Type == "" {
			s.Type = "text"
		}
		if _, err := tx.ExecContext(ctx, stmt, s.Key, s.Value, s.Type); err != nil {
			return fmt.Errorf("failed to save setting '%s': %w", s.Key, classifyError(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", classifyError(err))
	}
	return nil
}

// InsertIgnore creates a setting unless the key already exists.
func (r *SettingRepository) InsertIgnore(ctx context.Context, s *SiteSetting) error {
	if s.Type == "" {
		s.Type = "text"
	}
	query := r.dialect.insertIgnore("site_settings", "(setting_key, setting_value, setting_type) VALUES (?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), s.Key, s.Value, s.Type); err != nil {
		return fmt.Errorf("failed to seed setting '%s': %w", s.Key, classifyError(err))
	}
	return nil
}
