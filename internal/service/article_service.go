package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"html"
	"html/template"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	excerptLength = 150

	// AdminPageSize is the number of rows on one page of the article list.
	AdminPageSize = 20
	// CategoryPageSize is the number of articles on one page of a category.
	CategoryPageSize = 12
)

// ArticleRepository defines the interface for database operations on articles.
type ArticleRepository interface {
	List(ctx context.Context, f data.ArticleFilter) ([]*data.Article, error)
	GetBySlugAndCountView(ctx context.Context, slug string) (*data.Article, error)
	GetByID(ctx context.Context, id int64) (*data.Article, error)
	Create(ctx context.Context, a *data.Article) error
	Update(ctx context.Context, a *data.Article) error
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, status string) (int64, error)
	CountMatching(ctx context.Context, f data.ArticleFilter) (int64, error)
	TotalViews(ctx context.Context) (int64, error)
}

// ArticleInput carries the editable fields of an article form.
type ArticleInput struct {
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	FeaturedImage string
	Author        string
	Status        string
	CategoryID    *int64
}

// AdminArticleQuery narrows the back-office article list.
type AdminArticleQuery struct {
	Status     string
	CategoryID *int64
	Search     string
	Page       int
}

// ArticlePage is one page of a listing together with the size of the whole result.
type ArticlePage struct {
	Articles []*data.Article
	Page     int
	Pages    int
	Total    int64
}

// HasPrev reports whether a page exists before this one.
func (p *ArticlePage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a page exists after this one.
func (p *ArticlePage) HasNext() bool { return p.Page < p.Pages }

// DashboardStats summarises the article store for the back office.
type DashboardStats struct {
	Total     int64
	Published int64
	Drafts    int64
	Views     int64
}

// ArticleService provides business logic for managing articles.
type ArticleService struct {
	repo      ArticleRepository
	log       logger.Logger
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	stripper  *bluemonday.Policy
}

// NewArticleService creates a new ArticleService with the given repository.
func NewArticleService(repo ArticleRepository, log logger.Logger) *ArticleService {
	return &ArticleService{
		repo: repo,
		log:  log,
		// Bodies come from a rich text editor, so raw HTML is passed through
		// goldmark and cleaned up by the UGC policy afterwards.
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
		sanitizer: bluemonday.UGCPolicy(),
		stripper:  bluemonday.StrictPolicy(),
	}
}

// ListArticles returns up to limit articles with the given status, newest first.
// When the store is unreachable the built-in articles are returned instead and
// fromFallback is true.
func (s *ArticleService) ListArticles(ctx context.Context, limit int, status string) (articles []*data.Article, fromFallback bool, err error) {
	articles, err = s.repo.List(ctx, data.ArticleFilter{Status: status, Limit: limit})
	if err != nil {
		if data.IsUnavailable(err) {
			s.log.Error(err, "Serving fallback articles")
			return data.FallbackArticles(limit), true, nil
		}
		return nil, false, err
	}
	return articles, false, nil
}

// ListByCategory returns the newest published articles of a category and its subcategories.
func (s *ArticleService) ListByCategory(ctx context.Context, categoryID int64, limit int) ([]*data.Article, error) {
	return s.repo.List(ctx, data.ArticleFilter{Status: data.StatusPublished, CategoryID: &categoryID, Limit: limit})
}

// CategoryPage returns one page of a category's published articles, subcategories included.
func (s *ArticleService) CategoryPage(ctx context.Context, categoryID int64, page int) (*ArticlePage, error) {
	return s.paginate(ctx, data.ArticleFilter{Status: data.StatusPublished, CategoryID: &categoryID}, page, CategoryPageSize)
}

// ListForAdmin returns one page of articles of any status. An unknown status
// filter is ignored; the search term matches title and body.
func (s *ArticleService) ListForAdmin(ctx context.Context, q AdminArticleQuery) (*ArticlePage, error) {
	if q.Status != data.StatusPublished && q.Status != data.StatusDraft {
		q.Status = ""
	}
	f := data.ArticleFilter{Status: q.Status, CategoryID: q.CategoryID, Search: strings.TrimSpace(q.Search)}
	return s.paginate(ctx, f, q.Page, AdminPageSize)
}

func (s *ArticleService) paginate(ctx context.Context, f data.ArticleFilter, page, size int) (*ArticlePage, error) {
	total, err := s.repo.CountMatching(ctx, f)
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	f.Limit, f.Offset = size, (page-1)*size
	articles, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ArticlePage{Articles: articles, Page: page, Pages: pages, Total: total}, nil
}

// ViewArticle fetches a published article for its public page and counts the view.
// If the store is down, a built-in article with the same slug is served without counting.
func (s *ArticleService) ViewArticle(ctx context.Context, slug string) (article *data.Article, fromFallback bool, err error) {
	article, err = s.repo.GetBySlugAndCountView(ctx, slug)
	if err != nil {
		if data.IsUnavailable(err) {
			if fb, ok := data.FallbackArticle(slug); ok {
				s.log.Error(err, "Serving fallback article")
				fb.HTMLContent = s.RenderContent(fb.Content)
				return fb, true, nil
			}
			return nil, true, fmt.Errorf("article '%s': %w", slug, data.ErrNotFound)
		}
		return nil, false, err
	}
	article.HTMLContent = s.RenderContent(article.Content)
	return article, false, nil
}

// GetArticle retrieves an article by id for editing.
func (s *ArticleService) GetArticle(ctx context.Context, id int64) (*data.Article, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateArticle validates the input, derives the slug and excerpt, and stores a new article.
func (s *ArticleService) CreateArticle(ctx context.Context, in ArticleInput) (*data.Article, error) {
	article := &data.Article{}
	if err := s.apply(article, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, slugConflict(err)
	}
	return article, nil
}

// UpdateArticle overwrites an existing article with the input.
func (s *ArticleService) UpdateArticle(ctx context.Context, id int64, in ArticleInput) (*data.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(article, in); err != nil {
		return nil, err
	}
	article.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, slugConflict(err)
	}
	return article, nil
}

// SetStatus publishes or unpublishes an article.
func (s *ArticleService) SetStatus(ctx context.Context, id int64, status string) error {
	if status != data.StatusPublished && status != data.StatusDraft {
		return invalid("status", "status must be published or draft")
	}
	return s.repo.SetStatus(ctx, id, status)
}

// DeleteArticle handles the deletion of an article by its ID.
func (s *ArticleService) DeleteArticle(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Stats returns the dashboard counters.
func (s *ArticleService) Stats(ctx context.Context) (*DashboardStats, error) {
	var st DashboardStats
	var err error
	if st.Total, err = s.repo.Count(ctx, ""); err != nil {
		return nil, err
	}
	if st.Published, err = s.repo.Count(ctx, data.StatusPublished); err != nil {
		return nil, err
	}
	st.Drafts = st.Total - st.Published
	if st.Views, err = s.repo.TotalViews(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

// RenderContent turns a stored body into safe HTML.
func (s *ArticleService) RenderContent(content string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		// goldmark only fails on writer errors; keep the escaped source.
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(s.sanitizer.SanitizeBytes(buf.Bytes()))
}

// Excerpt derives a plain-text teaser from a body.
func (s *ArticleService) Excerpt(content string) string {
	var buf bytes.Buffer
	text := content
	if err := s.markdown.Convert([]byte(content), &buf); err == nil {
		text = buf.String()
	}
	text = html.UnescapeString(s.stripper.Sanitize(text))
	return truncateText(strings.Join(strings.Fields(text), " "), excerptLength)
}

func (s *ArticleService) apply(a *data.Article, in ArticleInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("title", "Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return invalid("content", "Content is required")
	}
	switch in.Status {
	case "":
		in.Status = data.StatusPublished
	case data.StatusPublished, data.StatusDraft:
	default:
		return invalid("status", "status must be published or draft")
	}

	slug := GenerateSlug(in.Slug)
	if slug == "" {
		slug = GenerateSlug(in.Title)
	}
	if slug == "" {
		slug = fmt.Sprintf("article-%d", time.Now().UnixNano())
	}

	excerpt := strings.TrimSpace(in.Excerpt)
	if excerpt == "" {
		excerpt = s.Excerpt(in.Content)
	} else {
		excerpt = html.UnescapeString(s.stripper.Sanitize(excerpt))
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = "Admin"
	}

	a.Title = in.Title
	a.Slug = slug
	a.Excerpt = excerpt
	a.Content = in.Content
	a.FeaturedImage = strings.TrimSpace(in.FeaturedImage)
	a.Author = author
	a.Status = in.Status
	a.CategoryID = in.CategoryID
	return nil
}

func slugConflict(err error) error {
	if errors.Is(err, data.ErrDuplicateKey) {
		return &ValidationError{Field: "slug", Message: "slug already exists", Err: err}
	}
	return err
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSeparators   = regexp.MustCompile(`[\s-]+`)
)

// GenerateSlug lowercases text, drops everything but ASCII letters, digits,
// spaces and hyphens, and joins the words with single hyphens.
func GenerateSlug(text string) string {
	s := strings.ToLower(text)
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func truncateText(text string, length int) string {
	if utf8.RuneCountInString(text) <= length {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:length])) + "..."
}
