package view

import "context"

type settingsKey string

// SiteSettingsKey is the key for the site settings in the request context.
const SiteSettingsKey settingsKey = "siteSettings"

// WithSiteSettings stores the site settings in the context for Render.
func WithSiteSettings(ctx context.Context, values map[string]string) context.Context {
	return context.WithValue(ctx, SiteSettingsKey, values)
}

// SiteSettings returns the site settings stored in the context, or an empty map.
func SiteSettings(ctx context.Context) map[string]string {
	if values, ok := ctx.Value(SiteSettingsKey).(map[string]string); ok {
		return values
	}
	return map[string]string{}
}
