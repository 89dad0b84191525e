package data

import (
	"context"
	"fmt"
	"go-news-portal/internal/logger"

	"github.com/jmoiron/sqlx"
)

type seedCategory struct {
	name, slug    string
	layout        LayoutType
	articlesCount int
}

var defaultCategories = []seedCategory{
	{"Top Stories", "top-stories", LayoutFeaturedList, 3},
	{"World News", "world-news", LayoutGrid, 6},
	{"Business", "business", LayoutListOnly, 4},
	{"Technology", "technology", LayoutGrid, 6},
	{"Sports", "sports", LayoutListOnly, 4},
	{"Entertainment", "entertainment", LayoutGrid, 6},
	{"Health", "health", LayoutGrid, 6},
	{"Politics", "politics", LayoutGrid, 6},
}

// DefaultSettings are the site settings created on first run.
var DefaultSettings = []SiteSetting{
	{Key: "site_name", Value: "Echhapa News", Type: "text"},
	{Key: "site_description", Value: "Your trusted source for news and information", Type: "text"},
	{Key: "site_keywords", Value: "news, breaking news, world news, politics, business", Type: "text"},
	{Key: "contact_email", Value: "contact@echhapa.com", Type: "text"},
	{Key: "social_facebook", Value: "", Type: "text"},
	{Key: "social_twitter", Value: "", Type: "text"},
	{Key: "social_instagram", Value: "", Type: "text"},
	{Key: "analytics_code", Value: "", Type: "textarea"},
	{Key: "header_code", Value: "", Type: "textarea"},
	{Key: "footer_code", Value: "", Type: "textarea"},
}

// Seed fills an empty store with the initial admin account, the default categories,
// site settings and sample articles. Existing rows are never touched, so it is safe
// to run on every start.
func Seed(ctx context.Context, db *sqlx.DB, admin *User, log logger.Logger) error {
	users := NewUserRepository(db)
	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 && admin != nil {
		if err := users.Create(ctx, admin); err != nil {
			return err
		}
		log.With(map[string]interface{}{"username": admin.Username}).Info("Created initial admin account")
	}

	dialect := DialectOf(db)
	stmt := db.Rebind(dialect.insertIgnore("categories",
		"(name, slug, description, sort_order, layout_type, articles_count) VALUES (?, ?, ?, ?, ?, ?)"))
	for i, c := range defaultCategories {
		if _, err := db.ExecContext(ctx, stmt, c.name, c.slug, "", i, c.layout, c.articlesCount); err != nil {
			return fmt.Errorf("failed to seed category '%s': %w", c.slug, classifyError(err))
		}
	}

	settings := NewSettingRepository(db)
	for i := range DefaultSettings {
		s := DefaultSettings[i]
		if err := settings.InsertIgnore(ctx, &s); err != nil {
			return err
		}
	}

	articles := NewSQLArticleRepository(db)
	count, err := articles.Count(ctx, "")
	if err != nil {
		return err
	}
	if count == 0 {
		// Insert oldest first so ids follow publication order.
		for i := len(fallbackArticles) - 1; i >= 0; i-- {
			a := fallbackArticle(i)
			if err := articles.Create(ctx, a); err != nil {
				return err
			}
		}
		log.With(map[string]interface{}{"count": len(fallbackArticles)}).Info("Inserted sample articles")
	}
	return nil
}
