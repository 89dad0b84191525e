package handler

import (
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/session"
	"go-news-portal/web"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Middlewares groups the application middlewares the router installs.
type Middlewares struct {
	Authz    func(http.Handler) http.Handler
	Settings func(http.Handler) http.Handler
	Error    func(middleware.AppHandler) http.Handler
}

// NewRouter creates and configures a new chi router.
func NewRouter(public *PublicHandler, authHandler *AuthHandler, admin *AdminHandler, seo *SeoHandler, mw Middlewares, sm session.Manager, uploadDir string) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// Assets need neither a session nor a policy check.
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	if uploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))
	}

	h := mw.Error

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		if mw.Settings != nil {
			r.Use(mw.Settings)
		}
		r.Use(mw.Authz)

		// Public routes
		r.Method(http.MethodGet, "/", h(public.homeHandler))
		r.Method(http.MethodGet, "/article/{slug}", h(public.articleHandler))
		r.Method(http.MethodGet, "/category/{slug}", h(public.categoryHandler))
		r.Method(http.MethodGet, "/ads/{id}/click", h(public.adClickHandler))
		r.Get("/robots.txt", seo.robotsHandler)
		r.Get("/sitemap.xml", seo.sitemapHandler)

		// Authentication routes
		r.Method(http.MethodGet, "/admin/login", h(authHandler.loginFormHandler))
		r.Method(http.MethodPost, "/admin/login", h(authHandler.loginHandler))
		r.Get("/admin/logout", authHandler.logoutHandler)
		r.Get("/auth/login", authHandler.ssoLoginHandler)
		r.Method(http.MethodGet, "/auth/callback", h(authHandler.ssoCallbackHandler))

		// Back office
		r.Route("/admin", func(r chi.Router) {
			r.Method(http.MethodGet, "/", h(admin.dashboardHandler))

			r.Method(http.MethodGet, "/articles", h(admin.articlesHandler))
			r.Method(http.MethodGet, "/articles/add", h(admin.newArticleHandler))
			r.Method(http.MethodPost, "/articles/add", h(admin.createArticleHandler))
			r.Method(http.MethodGet, "/articles/{id}/edit", h(admin.editArticleHandler))
			r.Method(http.MethodPost, "/articles/{id}/edit", h(admin.updateArticleHandler))
			r.Method(http.MethodPost, "/articles/{id}/delete", h(admin.deleteArticleHandler))
			r.Post("/articles/{id}/status", admin.articleStatusHandler)
			r.Post("/upload", admin.uploadHandler)

			r.Method(http.MethodGet, "/ads", h(admin.adsHandler))
			r.Method(http.MethodPost, "/ads/add", h(admin.addAdHandler))
			r.Method(http.MethodGet, "/ads/{id}/edit", h(admin.editAdHandler))
			r.Method(http.MethodPost, "/ads/{id}/edit", h(admin.updateAdHandler))
			r.Method(http.MethodPost, "/ads/{id}/toggle", h(admin.toggleAdHandler))
			r.Method(http.MethodPost, "/ads/{id}/delete", h(admin.deleteAdHandler))

			r.Method(http.MethodGet, "/layout", h(admin.layoutHandler))
			r.Method(http.MethodPost, "/layout/save", h(admin.saveLayoutHandler))
			r.Post("/layout/save-all", admin.saveAllLayoutsHandler)
			r.Post("/layout/reorder", admin.reorderHandler)
			r.Method(http.MethodPost, "/layout/homepage", h(admin.homepageSettingsHandler))
			r.Method(http.MethodGet, "/layout/export", h(admin.exportLayoutHandler))
			r.Method(http.MethodPost, "/layout/import", h(admin.importLayoutHandler))

			r.Method(http.MethodGet, "/categories", h(admin.categoriesHandler))
			r.Method(http.MethodPost, "/categories/add", h(admin.addCategoryHandler))
			r.Method(http.MethodPost, "/categories/subcategory", h(admin.addSubcategoryHandler))
			r.Delete("/categories/subcategory/{id}", admin.deleteSubcategoryHandler)
			r.Method(http.MethodPost, "/categories/{id}/edit", h(admin.updateCategoryHandler))
			r.Method(http.MethodPost, "/categories/{id}/delete", h(admin.deleteCategoryHandler))

			r.Method(http.MethodGet, "/settings", h(admin.settingsHandler))
			r.Method(http.MethodPost, "/settings", h(admin.saveSettingsHandler))

			r.Method(http.MethodGet, "/users", h(admin.usersHandler))
			r.Method(http.MethodPost, "/users/add", h(admin.addUserHandler))
			r.Method(http.MethodPost, "/users/{id}/toggle", h(admin.toggleUserHandler))
			r.Method(http.MethodPost, "/users/{id}/edit", h(admin.updateUserHandler))
			r.Method(http.MethodPost, "/users/{id}/delete", h(admin.deleteUserHandler))
		})
	})

	r.NotFound(h(func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		return &middleware.AppError{Message: "Page not found", Code: http.StatusNotFound}
	}).ServeHTTP)

	return r
}
