package service

import (
	"context"
	"go-news-portal/internal/data"
	"sort"
	"strings"
	"time"
)

// Standard placement slots rendered by the public templates.
const (
	PlacementHeaderBanner  = "header_banner"
	PlacementSidebarTop    = "sidebar_top"
	PlacementSidebarBottom = "sidebar_bottom"
	PlacementFooter        = "footer"
)

// Placements lists the slots offered by the ad form. Placement stays an open
// string, so ads for other slots can be stored as well.
var Placements = []string{PlacementHeaderBanner, PlacementSidebarTop, PlacementSidebarBottom, PlacementFooter}

// AdRepository defines the interface for database operations on ads.
type AdRepository interface {
	List(ctx context.Context) ([]*data.Ad, error)
	ListActiveByPlacement(ctx context.Context, placement string) ([]*data.Ad, error)
	GetByID(ctx context.Context, id int64) (*data.Ad, error)
	Create(ctx context.Context, ad *data.Ad) error
	Update(ctx context.Context, ad *data.Ad) error
	ToggleActive(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	IncrementClicks(ctx context.Context, id int64) error
	IncrementImpressions(ctx context.Context, ids []int64) error
}

// AdInput carries the fields of the ad form.
type AdInput struct {
	Title     string
	Placement string
	AdType    string
	ImageURL  string
	ClickURL  string
	StartDate *time.Time
	EndDate   *time.Time
	Priority  int
	IsActive  bool
}

// AdService provides the ad placement logic.
type AdService struct {
	repo AdRepository
}

// NewAdService creates a new AdService.
func NewAdService(repo AdRepository) *AdService {
	return &AdService{repo: repo}
}

// CreateAd validates and stores a new ad. New ads are active; priority defaults to 1.
func (s *AdService) CreateAd(ctx context.Context, in AdInput) (*data.Ad, error) {
	if err := normalizeAd(&in); err != nil {
		return nil, err
	}
	ad := &data.Ad{IsActive: true}
	in.apply(ad)
	if err := s.repo.Create(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

// GetAd retrieves an ad for editing.
func (s *AdService) GetAd(ctx context.Context, id int64) (*data.Ad, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateAd applies the form fields to an existing ad, including its active flag.
// Click and impression counters are kept.
func (s *AdService) UpdateAd(ctx context.Context, id int64, in AdInput) (*data.Ad, error) {
	if err := normalizeAd(&in); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ad := *current
	in.apply(&ad)
	ad.IsActive = in.IsActive
	if err := s.repo.Update(ctx, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

func normalizeAd(in *AdInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Placement = strings.TrimSpace(in.Placement)
	if in.Title == "" {
		return invalid("title", "Title is required")
	}
	if in.Placement == "" {
		return invalid("placement", "Placement is required")
	}
	if in.Priority < 0 {
		return invalid("priority", "Priority cannot be negative")
	}
	if in.Priority == 0 {
		in.Priority = 1
	}
	if in.AdType == "" {
		in.AdType = "image"
	}
	if in.StartDate != nil && in.EndDate != nil && dateOf(*in.EndDate).Before(dateOf(*in.StartDate)) {
		return invalid("end_date", "End date is before start date")
	}
	return nil
}

func (in AdInput) apply(ad *data.Ad) {
	ad.Title = in.Title
	ad.Placement = in.Placement
	ad.AdType = in.AdType
	ad.ImageURL = strings.TrimSpace(in.ImageURL)
	ad.ClickURL = strings.TrimSpace(in.ClickURL)
	ad.StartDate = in.StartDate
	ad.EndDate = in.EndDate
	ad.Priority = in.Priority
}

// ListAds returns every ad for the back office.
func (s *AdService) ListAds(ctx context.Context) ([]*data.Ad, error) {
	return s.repo.List(ctx)
}

// ToggleActive flips an ad between active and inactive.
func (s *AdService) ToggleActive(ctx context.Context, id int64) error {
	return s.repo.ToggleActive(ctx, id)
}

// DeleteAd hard-deletes an ad.
func (s *AdService) DeleteAd(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ActiveAdsForPlacement returns the ads eligible for a slot on the given day,
// best first.
func (s *AdService) ActiveAdsForPlacement(ctx context.Context, placement string, asOf time.Time) ([]*data.Ad, error) {
	ads, err := s.repo.ListActiveByPlacement(ctx, placement)
	if err != nil {
		return nil, err
	}
	return SelectEligibleAds(ads, asOf), nil
}

// RecordClick counts a click and returns the ad's target URL.
func (s *AdService) RecordClick(ctx context.Context, id int64) (string, error) {
	ad, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.repo.IncrementClicks(ctx, id); err != nil {
		return "", err
	}
	return ad.ClickURL, nil
}

// RecordImpressions counts one impression for each displayed ad.
func (s *AdService) RecordImpressions(ctx context.Context, ads ...*data.Ad) error {
	ids := make([]int64, 0, len(ads))
	for _, ad := range ads {
		if ad != nil {
			ids = append(ids, ad.ID)
		}
	}
	return s.repo.IncrementImpressions(ctx, ids)
}

// SelectEligibleAds keeps the active ads whose date range contains asOf and orders
// them by priority descending, then id ascending. Bounds are inclusive and compared
// by calendar day; a missing bound is open on that side.
func SelectEligibleAds(ads []*data.Ad, asOf time.Time) []*data.Ad {
	day := dateOf(asOf)
	out := make([]*data.Ad, 0, len(ads))
	for _, ad := range ads {
		if !ad.IsActive {
			continue
		}
		if ad.StartDate != nil && day.Before(dateOf(*ad.StartDate)) {
			continue
		}
		if ad.EndDate != nil && day.After(dateOf(*ad.EndDate)) {
			continue
		}
		out = append(out, ad)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// dateOf drops the clock part, keeping the calendar day as seen in t's location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
