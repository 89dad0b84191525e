package service

import (
	"context"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxSectionQueries bounds the concurrent per-category article queries of one homepage render.
const maxSectionQueries = 4

// Section is one category block of the homepage.
type Section struct {
	Category *data.Category
	Articles []*data.Article
}

// Homepage is everything the public homepage renders.
type Homepage struct {
	Settings HomepageSettings
	Latest   []*data.Article
	Sections []*Section
	Ads      map[string]*data.Ad
	// Degraded is set when the store could not be reached and built-in content is shown.
	Degraded bool
}

// HomeService assembles the homepage from the other services.
type HomeService struct {
	articles *ArticleService
	layouts  *LayoutService
	ads      *AdService
	log      logger.Logger
}

// NewHomeService creates a new HomeService.
func NewHomeService(articles *ArticleService, layouts *LayoutService, ads *AdService, log logger.Logger) *HomeService {
	return &HomeService{articles: articles, layouts: layouts, ads: ads, log: log}
}

// Homepage builds the homepage as of the given time. It only fails for errors other
// than an unreachable store; in that case the page is built from fallback content.
func (s *HomeService) Homepage(ctx context.Context, asOf time.Time) (*Homepage, error) {
	page := &Homepage{Ads: map[string]*data.Ad{}}

	settings, err := s.layouts.HomepageSettings(ctx)
	if err != nil {
		if !data.IsUnavailable(err) {
			s.log.Error(err, "Failed to load homepage settings")
		}
		settings = DefaultHomepageSettings()
	}
	page.Settings = settings

	latest, fromFallback, err := s.articles.ListArticles(ctx, settings.LatestCount, data.StatusPublished)
	if err != nil {
		return nil, err
	}
	page.Latest = latest
	if fromFallback {
		page.Degraded = true
		return page, nil
	}

	sections, err := s.sections(ctx)
	if err != nil {
		if !data.IsUnavailable(err) {
			return nil, err
		}
		s.log.Error(err, "Homepage sections unavailable")
		page.Degraded = true
	}
	page.Sections = sections

	s.placeAds(ctx, page, asOf)
	return page, nil
}

// sections loads the articles of every active top-level category, in display order.
func (s *HomeService) sections(ctx context.Context) ([]*Section, error) {
	categories, err := s.layouts.Categories(ctx)
	if err != nil {
		return nil, err
	}

	var visible []*data.Category
	for _, c := range categories {
		if c.IsActive && !c.IsSubcategory() {
			visible = append(visible, c)
		}
	}

	results := make([]*Section, len(visible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSectionQueries)
	for i, c := range visible {
		i, c := i, c
		g.Go(func() error {
			articles, err := s.articles.ListByCategory(gctx, c.ID, c.ArticlesCount)
			if err != nil {
				return err
			}
			results[i] = &Section{Category: c, Articles: articles}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Section, 0, len(results))
	for _, sec := range results {
		if len(sec.Articles) > 0 {
			out = append(out, sec)
		}
	}
	return out, nil
}

// placeAds picks the best eligible ad for each standard slot and counts the impressions.
// Ad failures never break the page.
func (s *HomeService) placeAds(ctx context.Context, page *Homepage, asOf time.Time) {
	var shown []*data.Ad
	for _, slot := range Placements {
		ads, err := s.ads.ActiveAdsForPlacement(ctx, slot, asOf)
		if err != nil {
			s.log.Error(err, "Failed to load ads for "+slot)
			continue
		}
		if len(ads) > 0 {
			page.Ads[slot] = ads[0]
			shown = append(shown, ads[0])
		}
	}
	if err := s.ads.RecordImpressions(ctx, shown...); err != nil {
		s.log.Error(err, "Failed to record ad impressions")
	}
}
