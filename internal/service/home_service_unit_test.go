//go:build unit

package service

import (
	"context"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type homeFixture struct {
	svc      *HomeService
	articles *mockArticleRepository
	ads      *mockAdRepository
}

func newHomeFixture(t *testing.T) *homeFixture {
	t.Helper()
	articleRepo := newMockArticleRepository()
	articles := NewArticleService(articleRepo, logger.Nop())
	layouts, _, _ := newLayoutFixture()
	adRepo := &mockAdRepository{}
	ads := NewAdService(adRepo)
	return &homeFixture{
		svc:      NewHomeService(articles, layouts, ads, logger.Nop()),
		articles: articleRepo,
		ads:      adRepo,
	}
}

func TestHomeService_Homepage(t *testing.T) {
	ctx := context.Background()
	f := newHomeFixture(t)
	articles := NewArticleService(f.articles, logger.Nop())

	for _, in := range []ArticleInput{
		{Title: "World one", Content: "x", CategoryID: int64Ptr(1)},
		{Title: "World two", Content: "x", CategoryID: int64Ptr(1)},
		{Title: "Match report", Content: "x", CategoryID: int64Ptr(3)},
		{Title: "Unfinished", Content: "x", CategoryID: int64Ptr(3), Status: data.StatusDraft},
		{Title: "Derby", Content: "x", CategoryID: int64Ptr(4)},
	} {
		_, err := articles.CreateArticle(ctx, in)
		require.NoError(t, err)
	}
	f.ads.ads = []*data.Ad{
		{ID: 1, Placement: PlacementFooter, IsActive: true, Priority: 1},
		{ID: 2, Placement: PlacementFooter, IsActive: true, Priority: 4},
		{ID: 3, Placement: PlacementHeaderBanner, IsActive: false, Priority: 9},
	}

	page, err := f.svc.Homepage(ctx, time.Now())
	require.NoError(t, err)
	assert.False(t, page.Degraded)
	assert.Len(t, page.Latest, 4, "drafts are not listed")

	// Business has no articles and Football is a subcategory.
	require.Len(t, page.Sections, 2)
	assert.Equal(t, "world", page.Sections[0].Category.Slug)
	assert.Len(t, page.Sections[0].Articles, 2)
	assert.Equal(t, "sports", page.Sections[1].Category.Slug)
	assert.Len(t, page.Sections[1].Articles, 1)

	require.Contains(t, page.Ads, PlacementFooter)
	assert.Equal(t, int64(2), page.Ads[PlacementFooter].ID)
	assert.NotContains(t, page.Ads, PlacementHeaderBanner)
	assert.Equal(t, []int64{2}, f.ads.impressions)
}

func TestHomeService_FallbackWhenStoreIsDown(t *testing.T) {
	f := newHomeFixture(t)
	f.articles.errToReturn = unavailable
	f.ads.ads = []*data.Ad{{ID: 1, Placement: PlacementFooter, IsActive: true, Priority: 1}}

	page, err := f.svc.Homepage(context.Background(), time.Now())
	require.NoError(t, err)
	assert.True(t, page.Degraded)
	assert.Equal(t, data.FallbackArticles(0)[0].Title, page.Latest[0].Title)
	assert.Empty(t, page.Sections)
	assert.Empty(t, page.Ads)
	assert.Empty(t, f.ads.impressions)
}
