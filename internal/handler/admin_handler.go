package handler

import (
	"encoding/json"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"go-news-portal/internal/session"
	"go-news-portal/internal/view"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const dashboardRecent = 5

// AdminHandler serves the back office.
type AdminHandler struct {
	renderer
	articles *service.ArticleService
	layouts  *service.LayoutService
	ads      *service.AdService
	accounts *service.AuthService
	settings *service.SettingsService
	media    *service.MediaService
}

// NewAdminHandler creates a new AdminHandler with the given dependencies.
func NewAdminHandler(
	articles *service.ArticleService,
	layouts *service.LayoutService,
	ads *service.AdService,
	accounts *service.AuthService,
	settings *service.SettingsService,
	media *service.MediaService,
	sm session.Manager,
	v *view.View,
	log logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		renderer: renderer{view: v, sessions: sm, log: log},
		articles: articles,
		layouts:  layouts,
		ads:      ads,
		accounts: accounts,
		settings: settings,
		media:    media,
	}
}

// page renders an admin template with the sidebar entry highlighted.
func (h *AdminHandler) page(w http.ResponseWriter, r *http.Request, active, name string, data map[string]interface{}) *middleware.AppError {
	return h.pageStatus(w, r, http.StatusOK, active, name, data)
}

func (h *AdminHandler) pageStatus(w http.ResponseWriter, r *http.Request, code int, active, name string, data map[string]interface{}) *middleware.AppError {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Active"] = active
	return h.renderStatus(w, r, code, name, data)
}

// redirectWithFlash finishes a form post.
func (h *AdminHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, msg string) {
	h.flash(r, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// failWrite handles a write that could not be carried out. An unreachable store is
// reported with a flash message on the list page; anything else becomes an error page.
func (h *AdminHandler) failWrite(w http.ResponseWriter, r *http.Request, back string, err error, message string) *middleware.AppError {
	if data.IsUnavailable(err) {
		h.log.Error(err, message)
		h.redirectWithFlash(w, r, back, msgUnavailable)
		return nil
	}
	return toAppError(err, message)
}

// dashboardHandler shows the article counters and the latest articles.
func (h *AdminHandler) dashboardHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	stats, err := h.articles.Stats(r.Context())
	if err != nil && !data.IsUnavailable(err) {
		return toAppError(err, "Failed to load dashboard")
	}
	recent, _, err := h.articles.ListArticles(r.Context(), dashboardRecent, "")
	if err != nil {
		return toAppError(err, "Failed to load dashboard")
	}
	return h.page(w, r, "dashboard", "dashboard.html", map[string]interface{}{
		"Stats":  stats,
		"Recent": recent,
	})
}

// articlesHandler lists the articles one page at a time, filtered by status,
// category and a search term.
func (h *AdminHandler) articlesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	query := service.AdminArticleQuery{
		Status: q.Get("status"),
		Search: strings.TrimSpace(q.Get("q")),
		Page:   formInt(r, "page", 1),
	}
	if query.Status != data.StatusPublished && query.Status != data.StatusDraft {
		query.Status = ""
	}
	var categoryID int64
	if id, err := strconv.ParseInt(q.Get("category"), 10, 64); err == nil && id > 0 {
		categoryID = id
		query.CategoryID = &categoryID
	}

	result, err := h.articles.ListForAdmin(r.Context(), query)
	if err != nil {
		return toAppError(err, "Failed to load articles")
	}
	categories, err := h.layouts.Categories(r.Context())
	if err != nil && !data.IsUnavailable(err) {
		return toAppError(err, "Failed to load categories")
	}

	pageURL := func(n int) string {
		v := url.Values{}
		if query.Status != "" {
			v.Set("status", query.Status)
		}
		if categoryID > 0 {
			v.Set("category", strconv.FormatInt(categoryID, 10))
		}
		if query.Search != "" {
			v.Set("q", query.Search)
		}
		if n > 1 {
			v.Set("page", strconv.Itoa(n))
		}
		if len(v) == 0 {
			return "/admin/articles"
		}
		return "/admin/articles?" + v.Encode()
	}
	return h.page(w, r, "articles", "articles.html", map[string]interface{}{
		"Articles":   result.Articles,
		"Result":     result,
		"Status":     query.Status,
		"Search":     query.Search,
		"CategoryID": categoryID,
		"Categories": categories,
		"PrevURL":    pageURL(result.Page - 1),
		"NextURL":    pageURL(result.Page + 1),
	})
}

// newArticleHandler shows an empty article form.
func (h *AdminHandler) newArticleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.articleForm(w, r, http.StatusOK, &data.Article{Status: data.StatusPublished}, "/admin/articles/add", nil)
}

// createArticleHandler stores a new article from the form.
func (h *AdminHandler) createArticleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := articleInput(r)
	article, err := h.articles.CreateArticle(r.Context(), in)
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.articleForm(w, r, http.StatusBadRequest, inputToArticle(0, in), "/admin/articles/add", msgs)
		}
		return h.failWrite(w, r, "/admin/articles", err, "Failed to create article")
	}
	h.redirectWithFlash(w, r, "/admin/articles", "Article \""+article.Title+"\" created")
	return nil
}

// editArticleHandler shows the form for an existing article.
func (h *AdminHandler) editArticleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	article, err := h.articles.GetArticle(r.Context(), id)
	if err != nil {
		return toAppError(err, "Failed to load article")
	}
	return h.articleForm(w, r, http.StatusOK, article, "/admin/articles/"+strconv.FormatInt(id, 10)+"/edit", nil)
}

// updateArticleHandler saves the edit form.
func (h *AdminHandler) updateArticleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	in := articleInput(r)
	if _, err := h.articles.UpdateArticle(r.Context(), id, in); err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.articleForm(w, r, http.StatusBadRequest, inputToArticle(id, in), "/admin/articles/"+strconv.FormatInt(id, 10)+"/edit", msgs)
		}
		return h.failWrite(w, r, "/admin/articles", err, "Failed to update article")
	}
	h.redirectWithFlash(w, r, "/admin/articles", "Article updated")
	return nil
}

// deleteArticleHandler hard-deletes an article.
func (h *AdminHandler) deleteArticleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	if err := h.articles.DeleteArticle(r.Context(), id); err != nil {
		return h.failWrite(w, r, "/admin/articles", err, "Failed to delete article")
	}
	h.redirectWithFlash(w, r, "/admin/articles", "Article deleted")
	return nil
}

// articleStatusHandler changes the status of an article. JSON in, JSON out.
func (h *AdminHandler) articleStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSONError(w, err, "")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSONError(w, &service.ValidationError{Field: "status", Message: "Invalid JSON body", Err: err}, "")
		return
	}
	if err := h.articles.SetStatus(r.Context(), id, body.Status); err != nil {
		h.writeJSONError(w, err, "Failed to update status")
		return
	}
	writeJSONOK(w, map[string]interface{}{"status": body.Status})
}

// uploadHandler stores an image for the editor and returns its URL.
func (h *AdminHandler) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if h.media.MaxSize() > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxSize()+1<<20)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSONError(w, &service.ValidationError{Field: "file", Message: "No file uploaded", Err: err}, "")
		return
	}
	defer file.Close()

	url, err := h.media.Save(header.Filename, header.Size, file)
	if err != nil {
		h.writeJSONError(w, err, "Failed to store upload")
		return
	}
	writeJSONOK(w, map[string]interface{}{"url": url})
}

func (h *AdminHandler) articleForm(w http.ResponseWriter, r *http.Request, code int, article *data.Article, action string, errs map[string]string) *middleware.AppError {
	categories, err := h.layouts.Categories(r.Context())
	if err != nil && !data.IsUnavailable(err) {
		return toAppError(err, "Failed to load categories")
	}
	return h.pageStatus(w, r, code, "articles", "article_form.html", map[string]interface{}{
		"Article":    article,
		"Categories": categories,
		"Action":     action,
		"Errors":     errs,
	})
}

func articleInput(r *http.Request) service.ArticleInput {
	in := service.ArticleInput{
		Title:         r.FormValue("title"),
		Slug:          r.FormValue("slug"),
		Excerpt:       r.FormValue("excerpt"),
		Content:       r.FormValue("content"),
		FeaturedImage: strings.TrimSpace(r.FormValue("featured_image")),
		Author:        r.FormValue("author"),
		Status:        r.FormValue("status"),
	}
	if id, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64); err == nil && id > 0 {
		in.CategoryID = &id
	}
	return in
}

func inputToArticle(id int64, in service.ArticleInput) *data.Article {
	return &data.Article{
		ID:            id,
		Title:         in.Title,
		Slug:          in.Slug,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		FeaturedImage: in.FeaturedImage,
		Author:        in.Author,
		Status:        in.Status,
		CategoryID:    in.CategoryID,
	}
}

// formBool reads an HTML checkbox.
func formBool(r *http.Request, key string) bool {
	switch r.FormValue(key) {
	case "1", "on", "true":
		return true
	}
	return false
}

// formInt reads an integer field; a missing or malformed value yields def.
func formInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return def
	}
	return n
}
