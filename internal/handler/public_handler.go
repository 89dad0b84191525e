package handler

import (
	"errors"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"go-news-portal/internal/view"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	relatedCount = 5
	navSize      = 6
)

// PublicHandler serves the reader-facing pages.
type PublicHandler struct {
	renderer
	home     *service.HomeService
	articles *service.ArticleService
	layouts  *service.LayoutService
	ads      *service.AdService
	now      func() time.Time
}

// NewPublicHandler creates a new PublicHandler with the given dependencies.
func NewPublicHandler(home *service.HomeService, articles *service.ArticleService, layouts *service.LayoutService, ads *service.AdService, v *view.View, log logger.Logger) *PublicHandler {
	return &PublicHandler{
		renderer: renderer{view: v, log: log},
		home:     home,
		articles: articles,
		layouts:  layouts,
		ads:      ads,
		now:      time.Now,
	}
}

// nav returns the top-level categories for the site navigation. Failures only cost the menu.
func (h *PublicHandler) nav(r *http.Request) []*data.Category {
	all, err := h.layouts.Categories(r.Context())
	if err != nil {
		return nil
	}
	out := make([]*data.Category, 0, len(all))
	for _, c := range all {
		if c.IsActive && !c.IsSubcategory() && len(out) < navSize {
			out = append(out, c)
		}
	}
	return out
}

// homeHandler renders the homepage. An unreachable store degrades to built-in content.
func (h *PublicHandler) homeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.home.Homepage(r.Context(), h.now())
	if err != nil {
		return toAppError(err, "Failed to load the homepage")
	}

	data := map[string]interface{}{
		"Page":     page,
		"Ads":      page.Ads,
		"Degraded": page.Degraded,
	}
	if !page.Degraded {
		data["Nav"] = h.nav(r)
	}
	return h.render(w, r, "home.html", data)
}

// articleHandler renders one article. Every successful lookup counts a view.
func (h *PublicHandler) articleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	slug := chi.URLParam(r, "slug")

	article, fromFallback, err := h.articles.ViewArticle(r.Context(), slug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Article not found", Code: http.StatusNotFound}
		}
		return toAppError(err, "Failed to load article")
	}

	data := map[string]interface{}{
		"Article":  article,
		"Degraded": fromFallback,
	}
	if !fromFallback {
		data["Nav"] = h.nav(r)
		if article.CategoryID != nil {
			related, err := h.articles.ListByCategory(r.Context(), *article.CategoryID, relatedCount+1)
			if err == nil {
				data["Related"] = withoutArticle(related, article.ID, relatedCount)
			}
		}
	}
	return h.render(w, r, "article.html", data)
}

// categoryHandler renders a category page in the category's own layout.
func (h *PublicHandler) categoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	slug := chi.URLParam(r, "slug")

	category, err := h.layouts.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Category not found", Code: http.StatusNotFound}
		}
		return toAppError(err, "Failed to load category")
	}
	if !category.IsActive {
		return &middleware.AppError{Message: "Category not found", Code: http.StatusNotFound}
	}

	result, err := h.articles.CategoryPage(r.Context(), category.ID, formInt(r, "page", 1))
	if err != nil {
		return toAppError(err, "Failed to load articles")
	}

	var subcategories []*data.Category
	if tree, err := h.layouts.CategoryTree(r.Context()); err == nil {
		for _, node := range tree {
			if node.ID == category.ID {
				subcategories = node.Children
			}
		}
	}

	data := map[string]interface{}{
		"Category":      category,
		"Subcategories": subcategories,
		"Result":        result,
		"Nav":           h.nav(r),
	}
	if len(result.Articles) > 0 {
		data["Section"] = &service.Section{Category: category, Articles: result.Articles}
	}
	return h.render(w, r, "category.html", data)
}

// adClickHandler counts a click and forwards the visitor to the advertiser.
func (h *PublicHandler) adClickHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	target, err := h.ads.RecordClick(r.Context(), id)
	if err != nil {
		return toAppError(err, "Failed to record click")
	}
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

func withoutArticle(articles []*data.Article, id int64, limit int) []*data.Article {
	out := make([]*data.Article, 0, limit)
	for _, a := range articles {
		if a.ID != id && len(out) < limit {
			out = append(out, a)
		}
	}
	return out
}
