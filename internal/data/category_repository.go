package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const categoryColumns = `id, name, slug, description, parent_id, sort_order, is_active, layout_type,
	articles_count, show_images, show_excerpts, created_at`

// CategoryLayout is one entry of a bulk layout save.
type CategoryLayout struct {
	CategoryID    int64      `json:"category_id"`
	LayoutType    LayoutType `json:"layout_type"`
	ArticlesCount int        `json:"articles_count"`
	ShowImages    bool       `json:"show_images"`
	ShowExcerpts  bool       `json:"show_excerpts"`
}

// LayoutImport is everything an imported layout document changes.
type LayoutImport struct {
	Layouts  []CategoryLayout
	Order    []int64
	Active   map[int64]bool
	Homepage *LayoutSetting
}

// CategoryRepository handles database operations for categories and their layout configuration.
type CategoryRepository struct {
	DB      *sqlx.DB
	dialect Dialect
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db, dialect: DialectOf(db)}
}

// GetAll retrieves every category in display order.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]*Category, error) {
	categories := []*Category{}
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order, id`
	if err := r.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", classifyError(err))
	}
	return categories, nil
}

// GetByID finds a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var category Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`
	if err := r.DB.GetContext(ctx, &category, r.DB.Rebind(query), id); err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, classifyError(err))
	}
	return &category, nil
}

// GetBySlug finds a category by its slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	var category Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = ?`
	if err := r.DB.GetContext(ctx, &category, r.DB.Rebind(query), slug); err != nil {
		return nil, fmt.Errorf("failed to get category '%s': %w", slug, classifyError(err))
	}
	return &category, nil
}

// Create inserts a category (or subcategory when ParentID is set) and sets its ID.
// New categories go to the end of the ordering.
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	if !c.LayoutType.Valid() {
		c.LayoutType = DefaultLayout
	}
	var next int
	if err := r.DB.GetContext(ctx, &next, `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM categories`); err != nil {
		return fmt.Errorf("failed to compute category position: %w", classifyError(err))
	}
	query := `INSERT INTO categories (name, slug, description, parent_id, sort_order, is_active, layout_type,
			articles_count, show_images, show_excerpts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insertID(ctx, r.dialect, r.DB, query,
		c.Name, c.Slug, c.Description, c.ParentID, next, c.IsActive, c.LayoutType, c.ArticlesCount, c.ShowImages, c.ShowExcerpts)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	c.ID = id
	c.SortOrder = next
	return nil
}

// DeleteSubcategory removes a category only if it is a subcategory.
func (r *CategoryRepository) DeleteSubcategory(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM categories WHERE id = ? AND parent_id IS NOT NULL`), id)
	if err != nil {
		return fmt.Errorf("failed to delete subcategory: %w", classifyError(err))
	}
	return expectOneRow(result, "subcategory", id)
}

// Update overwrites the name, slug, description and parent of a category.
func (r *CategoryRepository) Update(ctx context.Context, c *Category) error {
	query := `UPDATE categories SET name = ?, slug = ?, description = ?, parent_id = ? WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), c.Name, c.Slug, c.Description, c.ParentID, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", classifyError(err))
	}
	return expectOneRow(result, "category", c.ID)
}

// Delete removes a category. Its subcategories go with it and its articles
// become uncategorized.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", classifyError(err))
	}
	return expectOneRow(result, "category", id)
}

// UpdateLayout persists the layout template of a category.
func (r *CategoryRepository) UpdateLayout(ctx context.Context, id int64, layout LayoutType) error {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE categories SET layout_type = ? WHERE id = ?`), layout, id)
	if err != nil {
		return fmt.Errorf("failed to update category layout: %w", classifyError(err))
	}
	return expectOneRow(result, "category", id)
}

// UpdateDisplaySettings persists how many articles a section shows and what it shows of them.
func (r *CategoryRepository) UpdateDisplaySettings(ctx context.Context, id int64, articlesCount int, showImages, showExcerpts bool) error {
	query := `UPDATE categories SET articles_count = ?, show_images = ?, show_excerpts = ? WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), articlesCount, showImages, showExcerpts, id)
	if err != nil {
		return fmt.Errorf("failed to update category display settings: %w", classifyError(err))
	}
	return expectOneRow(result, "category", id)
}

// SetActive shows or hides a category section on the homepage.
func (r *CategoryRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE categories SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return fmt.Errorf("failed to update category visibility: %w", classifyError(err))
	}
	return expectOneRow(result, "category", id)
}

// Reorder moves the listed categories to the front, in the given order. Categories
// missing from orderedIDs keep their relative order and follow the listed ones, so
// every category ends up with its own sort_order. All rows are written in one
// transaction: an unknown id leaves the previous ordering untouched.
func (r *CategoryRepository) Reorder(ctx context.Context, orderedIDs []int64) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return reorderTx(ctx, tx, orderedIDs)
	})
}

// SaveLayouts applies a bulk layout configuration in one transaction.
func (r *CategoryRepository) SaveLayouts(ctx context.Context, layouts []CategoryLayout) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return saveLayoutsTx(ctx, tx, layouts)
	})
}

// ApplyImport writes an imported layout document: category layouts, ordering,
// visibility and the homepage preset succeed or fail together.
func (r *CategoryRepository) ApplyImport(ctx context.Context, imp LayoutImport) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if len(imp.Layouts) > 0 {
			if err := saveLayoutsTx(ctx, tx, imp.Layouts); err != nil {
				return err
			}
		}
		if len(imp.Order) > 0 {
			if err := reorderTx(ctx, tx, imp.Order); err != nil {
				return err
			}
		}
		stmt := tx.Rebind(`UPDATE categories SET is_active = ? WHERE id = ?`)
		for id, active := range imp.Active {
			result, err := tx.ExecContext(ctx, stmt, active, id)
			if err != nil {
				return fmt.Errorf("failed to update category visibility: %w", classifyError(err))
			}
			if err := expectOneRow(result, "category", id); err != nil {
				return err
			}
		}
		if imp.Homepage != nil {
			return saveLayoutSettingTx(ctx, r.dialect, tx, imp.Homepage)
		}
		return nil
	})
}

func reorderTx(ctx context.Context, tx *sqlx.Tx, orderedIDs []int64) error {
	var current []int64
	if err := tx.SelectContext(ctx, &current, `SELECT id FROM categories ORDER BY sort_order, id`); err != nil {
		return fmt.Errorf("failed to read category order: %w", classifyError(err))
	}
	known := make(map[int64]bool, len(current))
	for _, id := range current {
		known[id] = true
	}

	listed := make(map[int64]bool, len(orderedIDs))
	full := make([]int64, 0, len(current))
	for _, id := range orderedIDs {
		if !known[id] {
			return fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		if listed[id] {
			continue
		}
		listed[id] = true
		full = append(full, id)
	}
	for _, id := range current {
		if !listed[id] {
			full = append(full, id)
		}
	}

	stmt := tx.Rebind(`UPDATE categories SET sort_order = ? WHERE id = ?`)
	for i, id := range full {
		if _, err := tx.ExecContext(ctx, stmt, i, id); err != nil {
			return fmt.Errorf("failed to reorder category %d: %w", id, classifyError(err))
		}
	}
	return nil
}

func saveLayoutsTx(ctx context.Context, tx *sqlx.Tx, layouts []CategoryLayout) error {
	stmt := tx.Rebind(`UPDATE categories SET layout_type = ?, articles_count = ?, show_images = ?, show_excerpts = ? WHERE id = ?`)
	for _, l := range layouts {
		result, err := tx.ExecContext(ctx, stmt, l.LayoutType, l.ArticlesCount, l.ShowImages, l.ShowExcerpts, l.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to save layout of category %d: %w", l.CategoryID, classifyError(err))
		}
		if err := expectOneRow(result, "category", l.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn inside a transaction. The deferred rollback releases the
// connection on every exit path; after a successful commit it is a no-op.
func (r *CategoryRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classifyError(err))
	}
	return nil
}
