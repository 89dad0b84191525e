package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const adColumns = `id, title, placement, ad_type, image_url, click_url, start_date, end_date,
	is_active, priority, clicks, impressions, created_at`

// AdRepository handles database operations for advertisements.
type AdRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewAdRepository creates a new AdRepository.
func NewAdRepository(db *sqlx.DB) *AdRepository {
	return &AdRepository{db: db, dialect: DialectOf(db)}
}

// List returns every ad, newest first.
func (r *AdRepository) List(ctx context.Context) ([]*Ad, error) {
	ads := []*Ad{}
	if err := r.db.SelectContext(ctx, &ads, `SELECT `+adColumns+` FROM ads ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", classifyError(err))
	}
	return ads, nil
}

// ListActiveByPlacement returns the active ads of one slot. Date windows and
// ordering are applied by the caller.
func (r *AdRepository) ListActiveByPlacement(ctx context.Context, placement string) ([]*Ad, error) {
	ads := []*Ad{}
	query := r.db.Rebind(`SELECT ` + adColumns + ` FROM ads WHERE is_active = ? AND placement = ?`)
	if err := r.db.SelectContext(ctx, &ads, query, true, placement); err != nil {
		return nil, fmt.Errorf("failed to list ads for '%s': %w", placement, classifyError(err))
	}
	return ads, nil
}

// GetByID retrieves an ad by id.
func (r *AdRepository) GetByID(ctx context.Context, id int64) (*Ad, error) {
	var ad Ad
	if err := r.db.GetContext(ctx, &ad, r.db.Rebind(`SELECT `+adColumns+` FROM ads WHERE id = ?`), id); err != nil {
		return nil, fmt.Errorf("failed to get ad %d: %w", id, classifyError(err))
	}
	return &ad, nil
}

// Create inserts an ad and sets its ID.
func (r *AdRepository) Create(ctx context.Context, ad *Ad) error {
	query := `INSERT INTO ads (title, placement, ad_type, image_url, click_url, start_date, end_date, is_active, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insertID(ctx, r.dialect, r.db, query,
		ad.Title, ad.Placement, ad.AdType, ad.ImageURL, ad.ClickURL, ad.StartDate, ad.EndDate, ad.IsActive, ad.Priority)
	if err != nil {
		return fmt.Errorf("failed to create ad: %w", err)
	}
	ad.ID = id
	return nil
}

// Update overwrites the editable fields of an ad. Counters are left alone.
func (r *AdRepository) Update(ctx context.Context, ad *Ad) error {
	query := `UPDATE ads SET title = ?, placement = ?, ad_type = ?, image_url = ?, click_url = ?,
		start_date = ?, end_date = ?, is_active = ?, priority = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		ad.Title, ad.Placement, ad.AdType, ad.ImageURL, ad.ClickURL, ad.StartDate, ad.EndDate, ad.IsActive, ad.Priority, ad.ID)
	if err != nil {
		return fmt.Errorf("failed to update ad: %w", classifyError(err))
	}
	return expectOneRow(result, "ad", ad.ID)
}

// ToggleActive flips the active flag of an ad in a single statement.
func (r *AdRepository) ToggleActive(ctx context.Context, id int64) error {
	query := `UPDATE ads SET is_active = ` + r.dialect.notExpr("is_active") + ` WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), id)
	if err != nil {
		return fmt.Errorf("failed to toggle ad: %w", classifyError(err))
	}
	return expectOneRow(result, "ad", id)
}

// Delete removes an ad.
func (r *AdRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM ads WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", classifyError(err))
	}
	return expectOneRow(result, "ad", id)
}

// IncrementClicks adds one click. The increment happens inside the store so
// concurrent clicks are never lost.
func (r *AdRepository) IncrementClicks(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE ads SET clicks = clicks + 1 WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to count ad click: %w", classifyError(err))
	}
	return expectOneRow(result, "ad", id)
}

// IncrementImpressions adds one impression to each of the given ads.
func (r *AdRepository) IncrementImpressions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE ads SET impressions = impressions + 1 WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build impression update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to count ad impressions: %w", classifyError(err))
	}
	return nil
}
