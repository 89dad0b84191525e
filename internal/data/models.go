package data

import (
	"encoding/json"
	"html/template"
	"time"
)

// Article statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Article represents a single news article in the database.
type Article struct {
	ID            int64         `db:"id"`
	Title         string        `db:"title"`
	Slug          string        `db:"slug"`
	Excerpt       string        `db:"excerpt"`
	Content       string        `db:"content"`
	HTMLContent   template.HTML `db:"-"`
	FeaturedImage string        `db:"featured_image"`
	Author        string        `db:"author"`
	Status        string        `db:"status"`
	CategoryID    *int64        `db:"category_id"`
	CategoryName  string        `db:"category_name"`
	Views         int64         `db:"views"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

// IsPublished reports whether the article is visible on the public site.
func (a *Article) IsPublished() bool {
	return a.Status == StatusPublished
}

// Category represents a news category. A category with ParentID set is a subcategory.
type Category struct {
	ID            int64      `db:"id"`
	Name          string     `db:"name"`
	Slug          string     `db:"slug"`
	Description   string     `db:"description"`
	ParentID      *int64     `db:"parent_id"`
	SortOrder     int        `db:"sort_order"`
	IsActive      bool       `db:"is_active"`
	LayoutType    LayoutType `db:"layout_type"`
	ArticlesCount int        `db:"articles_count"`
	ShowImages    bool       `db:"show_images"`
	ShowExcerpts  bool       `db:"show_excerpts"`
	CreatedAt     time.Time  `db:"created_at"`
}

// IsSubcategory reports whether the category hangs below another category.
func (c *Category) IsSubcategory() bool {
	return c.ParentID != nil
}

// User represents a back-office account.
type User struct {
	ID           int64      `db:"id"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Role         string     `db:"role"`
	Email        string     `db:"email"`
	IsActive     bool       `db:"is_active"`
	LastLogin    *time.Time `db:"last_login"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Ad is an advertisement tagged with a placement slot.
type Ad struct {
	ID          int64      `db:"id"`
	Title       string     `db:"title"`
	Placement   string     `db:"placement"`
	AdType      string     `db:"ad_type"`
	ImageURL    string     `db:"image_url"`
	ClickURL    string     `db:"click_url"`
	StartDate   *time.Time `db:"start_date"`
	EndDate     *time.Time `db:"end_date"`
	IsActive    bool       `db:"is_active"`
	Priority    int        `db:"priority"`
	Clicks      int64      `db:"clicks"`
	Impressions int64      `db:"impressions"`
	CreatedAt   time.Time  `db:"created_at"`
}

// LayoutSetting is a named, JSON-configured layout preset. At most one row per
// layout_type is expected to be active; the repository keeps it that way on save.
type LayoutSetting struct {
	ID         int64     `db:"id"`
	LayoutName string    `db:"layout_name"`
	LayoutType string    `db:"layout_type"`
	Settings   string    `db:"settings"` // JSON document
	IsActive   bool      `db:"is_active"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Decode unmarshals the JSON settings document into v.
func (l *LayoutSetting) Decode(v interface{}) error {
	if l.Settings == "" {
		return nil
	}
	return json.Unmarshal([]byte(l.Settings), v)
}

// SiteSetting is a key/value site configuration entry.
type SiteSetting struct {
	Key       string    `db:"setting_key"`
	Value     string    `db:"setting_value"`
	Type      string    `db:"setting_type"`
	UpdatedAt time.Time `db:"updated_at"`
}
