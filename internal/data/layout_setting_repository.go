package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const layoutSettingColumns = `id, layout_name, layout_type, settings, is_active, updated_at`

// LayoutSettingRepository stores named layout presets.
type LayoutSettingRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewLayoutSettingRepository creates a new LayoutSettingRepository.
func NewLayoutSettingRepository(db *sqlx.DB) *LayoutSettingRepository {
	return &LayoutSettingRepository{db: db, dialect: DialectOf(db)}
}

// List returns all presets, most recently updated first.
func (r *LayoutSettingRepository) List(ctx context.Context) ([]*LayoutSetting, error) {
	settings := []*LayoutSetting{}
	query := `SELECT ` + layoutSettingColumns + ` FROM layout_settings ORDER BY updated_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("failed to list layout settings: %w", classifyError(err))
	}
	return settings, nil
}

// GetActive returns the active preset of a layout type.
func (r *LayoutSettingRepository) GetActive(ctx context.Context, layoutType string) (*LayoutSetting, error) {
	var s LayoutSetting
	query := r.db.Rebind(`SELECT ` + layoutSettingColumns + ` FROM layout_settings WHERE layout_type = ? AND is_active = ? ORDER BY id DESC LIMIT 1`)
	if err := r.db.GetContext(ctx, &s, query, layoutType, true); err != nil {
		return nil, fmt.Errorf("failed to get active '%s' layout: %w", layoutType, classifyError(err))
	}
	return &s, nil
}

// Save stores a preset as the active one of its type. Previously active presets of
// the same type are deactivated in the same transaction.
func (r *LayoutSettingRepository) Save(ctx context.Context, s *LayoutSetting) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer tx.Rollback()

	if err := saveLayoutSettingTx(ctx, r.dialect, tx, s); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit layout setting: %w", classifyError(err))
	}
	return nil
}

func saveLayoutSettingTx(ctx context.Context, d Dialect, tx *sqlx.Tx, s *LayoutSetting) error {
	if s.Settings == "" {
		s.Settings = "{}"
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE layout_settings SET is_active = ? WHERE layout_type = ?`), false, s.LayoutType); err != nil {
		return fmt.Errorf("failed to deactivate layout settings: %w", classifyError(err))
	}

	query := `INSERT INTO layout_settings (layout_name, layout_type, settings, is_active) VALUES (?, ?, ?, ?)`
	id, err := insertID(ctx, d, tx, query, s.LayoutName, s.LayoutType, s.Settings, true)
	if err != nil {
		return fmt.Errorf("failed to save layout setting: %w", err)
	}
	s.ID = id
	s.IsActive = true
	return nil
}
