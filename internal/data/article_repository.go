package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const articleColumns = `a.id, a.title, a.slug, a.excerpt, a.content, a.featured_image, a.author, a.status,
	a.category_id, COALESCE(c.name, '') AS category_name, a.views, a.created_at, a.updated_at`

const articleFrom = ` FROM articles a LEFT JOIN categories c ON a.category_id = c.id`

// ArticleFilter narrows an article listing. Zero values mean "no constraint".
type ArticleFilter struct {
	Status     string
	CategoryID *int64
	// Search matches title or body, case-insensitively.
	Search string
	Limit  int
	Offset int
}

func (f ArticleFilter) where() (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, f.Status)
	}
	if f.CategoryID != nil {
		// Articles filed under a subcategory also belong to its parent's listing.
		where = append(where, "(a.category_id = ? OR c.parent_id = ?)")
		args = append(args, *f.CategoryID, *f.CategoryID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		where = append(where, "(LOWER(a.title) LIKE ? OR LOWER(a.content) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// SQLArticleRepository is a sqlx-backed article store.
type SQLArticleRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLArticleRepository creates a new SQLArticleRepository.
func NewSQLArticleRepository(db *sqlx.DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db, dialect: DialectOf(db)}
}

// List returns articles newest first.
func (r *SQLArticleRepository) List(ctx context.Context, f ArticleFilter) ([]*Article, error) {
	where, args := f.where()
	query := `SELECT ` + articleColumns + articleFrom + where + " ORDER BY a.created_at DESC, a.id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	articles := []*Article{}
	if err := r.db.SelectContext(ctx, &articles, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", classifyError(err))
	}
	return articles, nil
}

// CountMatching returns how many articles the filter selects, ignoring Limit and Offset.
func (r *SQLArticleRepository) CountMatching(ctx context.Context, f ArticleFilter) (int64, error) {
	where, args := f.where()
	var n int64
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*)`+articleFrom+where), args...); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", classifyError(err))
	}
	return n, nil
}

// GetBySlugAndCountView looks up a published article by slug and counts the view.
//
// NOTE: this read has a side effect. Every successful lookup increments the view
// counter by exactly one, so repeated requests inflate it. Callers that only need
// the data use GetByID.
func (r *SQLArticleRepository) GetBySlugAndCountView(ctx context.Context, slug string) (*Article, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE articles SET views = views + 1 WHERE slug = ? AND status = ?`), slug, StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to count article view: %w", classifyError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", classifyError(err))
	}
	if n == 0 {
		return nil, fmt.Errorf("article with slug '%s': %w", slug, ErrNotFound)
	}

	var article Article
	query := `SELECT ` + articleColumns + articleFrom + ` WHERE a.slug = ?`
	if err := r.db.GetContext(ctx, &article, r.db.Rebind(query), slug); err != nil {
		return nil, fmt.Errorf("failed to get article by slug: %w", classifyError(err))
	}
	return &article, nil
}

// GetByID retrieves a single article by id, whatever its status.
func (r *SQLArticleRepository) GetByID(ctx context.Context, id int64) (*Article, error) {
	var article Article
	query := `SELECT ` + articleColumns + articleFrom + ` WHERE a.id = ?`
	if err := r.db.GetContext(ctx, &article, r.db.Rebind(query), id); err != nil {
		return nil, fmt.Errorf("failed to get article %d: %w", id, classifyError(err))
	}
	return &article, nil
}

// Create inserts a new article and sets its ID. A taken slug yields ErrDuplicateKey.
func (r *SQLArticleRepository) Create(ctx context.Context, a *Article) error {
	query := `INSERT INTO articles (title, slug, excerpt, content, featured_image, author, status, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insertID(ctx, r.dialect, r.db, query,
		a.Title, a.Slug, a.Excerpt, a.Content, a.FeaturedImage, a.Author, a.Status, a.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	a.ID = id
	return nil
}

// Update overwrites the editable fields of an article.
func (r *SQLArticleRepository) Update(ctx context.Context, a *Article) error {
	query := `UPDATE articles SET title = :title, slug = :slug, excerpt = :excerpt, content = :content,
		featured_image = :featured_image, author = :author, status = :status, category_id = :category_id,
		updated_at = CURRENT_TIMESTAMP WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", classifyError(err))
	}
	return expectOneRow(result, "article", a.ID)
}

// SetStatus switches an article between published and draft.
func (r *SQLArticleRepository) SetStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE articles SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`), status, id)
	if err != nil {
		return fmt.Errorf("failed to set article status: %w", classifyError(err))
	}
	return expectOneRow(result, "article", id)
}

// Delete hard-deletes an article.
func (r *SQLArticleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM articles WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", classifyError(err))
	}
	return expectOneRow(result, "article", id)
}

// Count returns the number of articles, optionally restricted to a status.
func (r *SQLArticleRepository) Count(ctx context.Context, status string) (int64, error) {
	var n int64
	var err error
	if status == "" {
		err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles`)
	} else {
		err = r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM articles WHERE status = ?`), status)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", classifyError(err))
	}
	return n, nil
}

// TotalViews sums the view counters of all articles.
func (r *SQLArticleRepository) TotalViews(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COALESCE(SUM(views), 0) FROM articles`); err != nil {
		return 0, fmt.Errorf("failed to sum article views: %w", classifyError(err))
	}
	return n, nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectOneRow(result rowsAffecter, entity string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", classifyError(err))
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}
