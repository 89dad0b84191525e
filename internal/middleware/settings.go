package middleware

import (
	"context"
	"go-news-portal/internal/view"
	"net/http"
)

// SettingsLoader provides the site settings. Implemented by service.SettingsService.
type SettingsLoader interface {
	All(ctx context.Context) (map[string]string, error)
}

// SiteSettings loads the site settings once per request and stores them in the
// request context, where the views pick them up for the page chrome.
// A failure is logged by the loader and leaves the templates on their defaults.
func SiteSettings(settings SettingsLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			values, err := settings.All(r.Context())
			if err != nil {
				values = map[string]string{}
			}
			ctx := view.WithSiteSettings(r.Context(), values)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
