//go:build unit

package service

import (
	"context"
	"fmt"
	"go-news-portal/internal/data"
	"sort"
	"strings"
	"sync"
)

// mockArticleRepository is an in-memory ArticleRepository.
type mockArticleRepository struct {
	mu          sync.Mutex
	articles    map[int64]*data.Article
	nextID      int64
	errToReturn error
	listCalls   int
}

var _ ArticleRepository = (*mockArticleRepository)(nil)

func newMockArticleRepository() *mockArticleRepository {
	return &mockArticleRepository{articles: map[int64]*data.Article{}}
}

func (m *mockArticleRepository) List(ctx context.Context, f data.ArticleFilter) ([]*data.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	out := m.matching(f)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*data.Article{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockArticleRepository) matching(f data.ArticleFilter) []*data.Article {
	out := []*data.Article{}
	term := strings.ToLower(f.Search)
	for _, a := range m.articles {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *f.CategoryID) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Content), term) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out
}

func (m *mockArticleRepository) CountMatching(ctx context.Context, f data.ArticleFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errToReturn != nil {
		return 0, m.errToReturn
	}
	return int64(len(m.matching(f))), nil
}

func (m *mockArticleRepository) GetBySlugAndCountView(ctx context.Context, slug string) (*data.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	for _, a := range m.articles {
		if a.Slug == slug && a.IsPublished() {
			a.Views++
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("article '%s': %w", slug, data.ErrNotFound)
}

func (m *mockArticleRepository) GetByID(ctx context.Context, id int64) (*data.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	a, ok := m.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %d: %w", id, data.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *mockArticleRepository) slugTaken(slug string, except int64) bool {
	for id, a := range m.articles {
		if a.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (m *mockArticleRepository) Create(ctx context.Context, a *data.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errToReturn != nil {
		return m.errToReturn
	}
	if m.slugTaken(a.Slug, 0) {
		return fmt.Errorf("failed to create article: %w", data.ErrDuplicateKey)
	}
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *mockArticleRepository) Update(ctx context.Context, a *data.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errToReturn != nil {
		return m.errToReturn
	}
	if _, ok := m.articles[a.ID]; !ok {
		return data.ErrNotFound
	}
	if m.slugTaken(a.Slug, a.ID) {
		return data.ErrDuplicateKey
	}
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *mockArticleRepository) SetStatus(ctx context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return data.ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockArticleRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return data.ErrNotFound
	}
	delete(m.articles, id)
	return nil
}

func (m *mockArticleRepository) Count(ctx context.Context, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.articles {
		if status == "" || a.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockArticleRepository) TotalViews(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.articles {
		n += a.Views
	}
	return n, nil
}

// mockCategoryRepository is an in-memory CategoryRepository.
type mockCategoryRepository struct {
	categories      []*data.Category
	errToReturn     error
	updateCalled    bool
	reorderCalled   bool
	saveCalled      bool
	importCalled    bool
	lastImport      data.LayoutImport
	lastOrder       []int64
	lastLayouts     []data.CategoryLayout
	lastDisplayArgs []interface{}
}

var _ CategoryRepository = (*mockCategoryRepository)(nil)

func (m *mockCategoryRepository) find(id int64) *data.Category {
	for _, c := range m.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *mockCategoryRepository) GetAll(ctx context.Context) ([]*data.Category, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	out := append([]*data.Category(nil), m.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id int64) (*data.Category, error) {
	if c := m.find(id); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("category %d: %w", id, data.ErrNotFound)
}

func (m *mockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*data.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockCategoryRepository) Create(ctx context.Context, c *data.Category) error {
	for _, existing := range m.categories {
		if existing.Slug == c.Slug {
			return data.ErrDuplicateKey
		}
	}
	c.ID = int64(len(m.categories) + 100)
	c.SortOrder = len(m.categories)
	m.categories = append(m.categories, c)
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, c *data.Category) error {
	for _, existing := range m.categories {
		if existing.Slug == c.Slug && existing.ID != c.ID {
			return data.ErrDuplicateKey
		}
	}
	for i, existing := range m.categories {
		if existing.ID == c.ID {
			m.updateCalled = true
			m.categories[i] = c
			return nil
		}
	}
	return data.ErrNotFound
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	if m.find(id) == nil {
		return data.ErrNotFound
	}
	kept := m.categories[:0]
	for _, c := range m.categories {
		if c.ID == id || (c.ParentID != nil && *c.ParentID == id) {
			continue
		}
		kept = append(kept, c)
	}
	m.categories = kept
	return nil
}

func (m *mockCategoryRepository) DeleteSubcategory(ctx context.Context, id int64) error {
	for i, c := range m.categories {
		if c.ID == id && c.IsSubcategory() {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return data.ErrNotFound
}

func (m *mockCategoryRepository) UpdateLayout(ctx context.Context, id int64, layout data.LayoutType) error {
	m.updateCalled = true
	c := m.find(id)
	if c == nil {
		return data.ErrNotFound
	}
	c.LayoutType = layout
	return nil
}

func (m *mockCategoryRepository) UpdateDisplaySettings(ctx context.Context, id int64, articlesCount int, showImages, showExcerpts bool) error {
	m.updateCalled = true
	m.lastDisplayArgs = []interface{}{id, articlesCount, showImages, showExcerpts}
	return nil
}

func (m *mockCategoryRepository) SetActive(ctx context.Context, id int64, active bool) error {
	c := m.find(id)
	if c == nil {
		return data.ErrNotFound
	}
	c.IsActive = active
	return nil
}

func (m *mockCategoryRepository) Reorder(ctx context.Context, orderedIDs []int64) error {
	m.reorderCalled = true
	m.lastOrder = orderedIDs
	for _, id := range orderedIDs {
		if m.find(id) == nil {
			return data.ErrNotFound
		}
	}
	listed := map[int64]bool{}
	full := []int64{}
	for _, id := range orderedIDs {
		if !listed[id] {
			listed[id] = true
			full = append(full, id)
		}
	}
	rest, _ := m.GetAll(ctx)
	for _, c := range rest {
		if !listed[c.ID] {
			full = append(full, c.ID)
		}
	}
	for i, id := range full {
		m.find(id).SortOrder = i
	}
	return nil
}

func (m *mockCategoryRepository) ApplyImport(ctx context.Context, imp data.LayoutImport) error {
	m.importCalled = true
	m.lastImport = imp
	if m.errToReturn != nil {
		return m.errToReturn
	}
	if err := m.SaveLayouts(ctx, imp.Layouts); err != nil {
		return err
	}
	if err := m.Reorder(ctx, imp.Order); err != nil {
		return err
	}
	for id, active := range imp.Active {
		if err := m.SetActive(ctx, id, active); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockCategoryRepository) SaveLayouts(ctx context.Context, layouts []data.CategoryLayout) error {
	m.saveCalled = true
	m.lastLayouts = layouts
	for _, l := range layouts {
		c := m.find(l.CategoryID)
		if c == nil {
			return data.ErrNotFound
		}
		c.LayoutType = l.LayoutType
		c.ArticlesCount = l.ArticlesCount
	}
	return nil
}

// mockLayoutSettingRepository keeps presets in a slice.
type mockLayoutSettingRepository struct {
	presets     []*data.LayoutSetting
	errToReturn error
}

var _ LayoutSettingRepository = (*mockLayoutSettingRepository)(nil)

func (m *mockLayoutSettingRepository) List(ctx context.Context) ([]*data.LayoutSetting, error) {
	return m.presets, m.errToReturn
}

func (m *mockLayoutSettingRepository) GetActive(ctx context.Context, layoutType string) (*data.LayoutSetting, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	for i := len(m.presets) - 1; i >= 0; i-- {
		if m.presets[i].LayoutType == layoutType && m.presets[i].IsActive {
			return m.presets[i], nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockLayoutSettingRepository) Save(ctx context.Context, s *data.LayoutSetting) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	for _, p := range m.presets {
		if p.LayoutType == s.LayoutType {
			p.IsActive = false
		}
	}
	s.ID = int64(len(m.presets) + 1)
	s.IsActive = true
	m.presets = append(m.presets, s)
	return nil
}

// mockAdRepository is an in-memory AdRepository.
type mockAdRepository struct {
	mu          sync.Mutex
	ads         []*data.Ad
	errToReturn error
	impressions []int64
}

var _ AdRepository = (*mockAdRepository)(nil)

func (m *mockAdRepository) find(id int64) *data.Ad {
	for _, a := range m.ads {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (m *mockAdRepository) List(ctx context.Context) ([]*data.Ad, error) {
	return m.ads, m.errToReturn
}

func (m *mockAdRepository) ListActiveByPlacement(ctx context.Context, placement string) ([]*data.Ad, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	var out []*data.Ad
	for _, a := range m.ads {
		if a.IsActive && a.Placement == placement {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAdRepository) GetByID(ctx context.Context, id int64) (*data.Ad, error) {
	if a := m.find(id); a != nil {
		return a, nil
	}
	return nil, data.ErrNotFound
}

func (m *mockAdRepository) Create(ctx context.Context, ad *data.Ad) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	ad.ID = int64(len(m.ads) + 1)
	m.ads = append(m.ads, ad)
	return nil
}

func (m *mockAdRepository) Update(ctx context.Context, ad *data.Ad) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	for i, a := range m.ads {
		if a.ID == ad.ID {
			m.ads[i] = ad
			return nil
		}
	}
	return data.ErrNotFound
}

func (m *mockAdRepository) ToggleActive(ctx context.Context, id int64) error {
	a := m.find(id)
	if a == nil {
		return data.ErrNotFound
	}
	a.IsActive = !a.IsActive
	return nil
}

func (m *mockAdRepository) Delete(ctx context.Context, id int64) error {
	for i, a := range m.ads {
		if a.ID == id {
			m.ads = append(m.ads[:i], m.ads[i+1:]...)
			return nil
		}
	}
	return data.ErrNotFound
}

func (m *mockAdRepository) IncrementClicks(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.find(id)
	if a == nil {
		return data.ErrNotFound
	}
	a.Clicks++
	return nil
}

func (m *mockAdRepository) IncrementImpressions(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.impressions = append(m.impressions, ids...)
	return nil
}

// mockUserRepository is an in-memory UserRepository.
type mockUserRepository struct {
	users        []*data.User
	errToReturn  error
	touchedLogin []int64
}

var _ UserRepository = (*mockUserRepository)(nil)

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*data.User, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	for _, u := range m.users {
		if u.Username == username || (u.Email != "" && u.Email == username) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user '%s': %w", username, data.ErrNotFound)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*data.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*data.User, error) {
	return m.users, m.errToReturn
}

func (m *mockUserRepository) Create(ctx context.Context, u *data.User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return data.ErrDuplicateKey
		}
	}
	u.ID = int64(len(m.users) + 1)
	m.users = append(m.users, u)
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, u *data.User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username && existing.ID != u.ID {
			return data.ErrDuplicateKey
		}
	}
	for i, existing := range m.users {
		if existing.ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	return data.ErrNotFound
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return data.ErrNotFound
}

func (m *mockUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	for _, u := range m.users {
		if u.ID == id {
			u.IsActive = active
			return nil
		}
	}
	return data.ErrNotFound
}

func (m *mockUserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	m.touchedLogin = append(m.touchedLogin, id)
	return nil
}

// mockSettingRepository is an in-memory SettingRepository.
type mockSettingRepository struct {
	values      map[string]string
	errToReturn error
	allCalls    int
}

var _ SettingRepository = (*mockSettingRepository)(nil)

func (m *mockSettingRepository) All(ctx context.Context) ([]*data.SiteSetting, error) {
	m.allCalls++
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	var out []*data.SiteSetting
	for k, v := range m.values {
		out = append(out, &data.SiteSetting{Key: k, Value: v})
	}
	return out, nil
}

func (m *mockSettingRepository) Upsert(ctx context.Context, settings ...*data.SiteSetting) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	for _, s := range settings {
		m.values[s.Key] = s.Value
	}
	return nil
}

// unavailable mimics what the data layer returns when the store is down.
var unavailable = fmt.Errorf("failed to list: %w", data.ErrConnectionUnavailable)
