package service

import (
	"context"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"strings"
)

const settingsCacheKey = "site_settings"

// SettingRepository defines the interface for the key/value site settings.
type SettingRepository interface {
	All(ctx context.Context) ([]*data.SiteSetting, error)
	Upsert(ctx context.Context, settings ...*data.SiteSetting) error
}

// Cache is the subset of the settings cache the service needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
}

// SettingsService reads and writes site settings through a cache.
type SettingsService struct {
	repo  SettingRepository
	cache Cache
	log   logger.Logger
}

// NewSettingsService creates a new SettingsService. cache may be nil.
func NewSettingsService(repo SettingRepository, cache Cache, log logger.Logger) *SettingsService {
	return &SettingsService{repo: repo, cache: cache, log: log}
}

// All returns every setting, with defaults filled in for missing keys.
// If the store is unreachable the defaults alone are returned.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	values := map[string]string{}
	if s.cache != nil {
		if ok, err := s.cache.GetJSON(ctx, settingsCacheKey, &values); err != nil {
			s.log.Error(err, "Settings cache read failed")
		} else if ok {
			return values, nil
		}
	}

	for _, d := range data.DefaultSettings {
		values[d.Key] = d.Value
	}
	stored, err := s.repo.All(ctx)
	if err != nil {
		if data.IsUnavailable(err) {
			s.log.Error(err, "Using default site settings")
			return values, nil
		}
		return nil, err
	}
	for _, st := range stored {
		values[st.Key] = st.Value
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, settingsCacheKey, values); err != nil {
			s.log.Error(err, "Settings cache write failed")
		}
	}
	return values, nil
}

// Get returns one setting, or "" when unknown.
func (s *SettingsService) Get(ctx context.Context, key string) string {
	values, err := s.All(ctx)
	if err != nil {
		return ""
	}
	return values[key]
}

// Save writes the known settings found in values and invalidates the cache.
// Unknown keys are ignored.
func (s *SettingsService) Save(ctx context.Context, values map[string]string) error {
	if name, ok := values["site_name"]; ok && strings.TrimSpace(name) == "" {
		return invalid("site_name", "Site name is required")
	}
	var batch []*data.SiteSetting
	for _, d := range data.DefaultSettings {
		v, ok := values[d.Key]
		if !ok {
			continue
		}
		if d.Type == "text" {
			v = strings.TrimSpace(v)
		}
		batch = append(batch, &data.SiteSetting{Key: d.Key, Value: v, Type: d.Type})
	}
	if len(batch) == 0 {
		return nil
	}
	if err := s.repo.Upsert(ctx, batch...); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
			s.log.Error(err, "Settings cache invalidation failed")
		}
	}
	return nil
}
