package handler

import (
	"encoding/xml"
	"fmt"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/service"
	"net/http"
	"strings"
)

const (
	sitemapDateFormat = "2006-01-02"
	sitemapLimit      = 5000
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	articles *service.ArticleService
	layouts  *service.LayoutService
	baseURL  string
	log      logger.Logger
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public address of the site.
func NewSeoHandler(articles *service.ArticleService, layouts *service.LayoutService, baseURL string, log logger.Logger) *SeoHandler {
	return &SeoHandler{
		articles: articles,
		layouts:  layouts,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

// robotsHandler serves robots.txt. The back office is kept out of the index.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /admin")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.baseURL)
}

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler lists the homepage, the active categories and every published article.
// Built-in fallback articles are never listed.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []sitemapURL{{Loc: h.baseURL + "/"}},
	}

	if categories, err := h.layouts.Categories(r.Context()); err == nil {
		for _, c := range categories {
			if c.IsActive {
				sitemap.URLs = append(sitemap.URLs, sitemapURL{Loc: h.baseURL + "/category/" + c.Slug})
			}
		}
	}

	articles, fromFallback, err := h.articles.ListArticles(r.Context(), sitemapLimit, data.StatusPublished)
	if err != nil {
		h.log.Error(err, "Failed to retrieve articles for sitemap")
		http.Error(w, "Failed to retrieve articles for sitemap", http.StatusInternalServerError)
		return
	}
	if !fromFallback {
		for _, a := range articles {
			sitemap.URLs = append(sitemap.URLs, sitemapURL{
				Loc:     h.baseURL + "/article/" + a.Slug,
				LastMod: a.UpdatedAt.Format(sitemapDateFormat),
			})
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		h.log.Error(err, "Failed to generate sitemap XML")
	}
}
