package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-news-portal/internal/data"
	"sort"
	"strings"
	"time"
)

// HomepageLayoutType is the layout_settings scope of the homepage preset.
const HomepageLayoutType = "homepage"

// CategoryRepository defines the interface for database operations on categories.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]*data.Category, error)
	GetByID(ctx context.Context, id int64) (*data.Category, error)
	GetBySlug(ctx context.Context, slug string) (*data.Category, error)
	Create(ctx context.Context, c *data.Category) error
	Update(ctx context.Context, c *data.Category) error
	Delete(ctx context.Context, id int64) error
	DeleteSubcategory(ctx context.Context, id int64) error
	UpdateLayout(ctx context.Context, id int64, layout data.LayoutType) error
	UpdateDisplaySettings(ctx context.Context, id int64, articlesCount int, showImages, showExcerpts bool) error
	SetActive(ctx context.Context, id int64, active bool) error
	Reorder(ctx context.Context, orderedIDs []int64) error
	SaveLayouts(ctx context.Context, layouts []data.CategoryLayout) error
	ApplyImport(ctx context.Context, imp data.LayoutImport) error
}

// LayoutSettingRepository defines the interface for stored layout presets.
type LayoutSettingRepository interface {
	List(ctx context.Context) ([]*data.LayoutSetting, error)
	GetActive(ctx context.Context, layoutType string) (*data.LayoutSetting, error)
	Save(ctx context.Context, s *data.LayoutSetting) error
}

// HomepageSettings are the page-wide homepage options stored as a layout preset.
type HomepageSettings struct {
	LatestCount int    `json:"latest_count"`
	ShowTicker  bool   `json:"show_ticker"`
	TickerText  string `json:"ticker_text"`
	ShowSidebar bool   `json:"show_sidebar"`
}

// DefaultHomepageSettings is used until an administrator saves a preset.
func DefaultHomepageSettings() HomepageSettings {
	return HomepageSettings{LatestCount: 10, ShowTicker: true, ShowSidebar: true}
}

// CategoryNode is a top-level category with its subcategories.
type CategoryNode struct {
	*data.Category
	Children []*data.Category
}

// LayoutExport is the portable document produced by Export and consumed by Import.
// Categories are matched by slug so a document can move between installations.
type LayoutExport struct {
	ExportedAt time.Time              `json:"exported_at"`
	Homepage   HomepageSettings       `json:"homepage"`
	Categories []ExportedCategoryItem `json:"categories"`
}

// ExportedCategoryItem is one category entry of a LayoutExport.
type ExportedCategoryItem struct {
	Slug          string          `json:"slug"`
	SortOrder     int             `json:"sort_order"`
	LayoutType    data.LayoutType `json:"layout_type"`
	ArticlesCount int             `json:"articles_count"`
	ShowImages    bool            `json:"show_images"`
	ShowExcerpts  bool            `json:"show_excerpts"`
	IsActive      bool            `json:"is_active"`
}

// LayoutService manages the per-category layout configuration and category tree.
type LayoutService struct {
	categories CategoryRepository
	presets    LayoutSettingRepository
}

// NewLayoutService creates a new LayoutService.
func NewLayoutService(categories CategoryRepository, presets LayoutSettingRepository) *LayoutService {
	return &LayoutService{categories: categories, presets: presets}
}

// Catalogue lists the available layout templates.
func (s *LayoutService) Catalogue() []data.LayoutType {
	return data.AllLayoutTypes()
}

// Categories returns all categories in display order.
func (s *LayoutService) Categories(ctx context.Context) ([]*data.Category, error) {
	return s.categories.GetAll(ctx)
}

// CategoryTree groups subcategories below their parents, both in display order.
func (s *LayoutService) CategoryTree(ctx context.Context) ([]*CategoryNode, error) {
	all, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	nodes := []*CategoryNode{}
	byID := map[int64]*CategoryNode{}
	for _, c := range all {
		if c.IsSubcategory() {
			continue
		}
		n := &CategoryNode{Category: c}
		byID[c.ID] = n
		nodes = append(nodes, n)
	}
	for _, c := range all {
		if !c.IsSubcategory() {
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Children = append(parent.Children, c)
		}
	}
	return nodes, nil
}

// GetCategoryBySlug finds a category for its public page.
func (s *LayoutService) GetCategoryBySlug(ctx context.Context, slug string) (*data.Category, error) {
	return s.categories.GetBySlug(ctx, slug)
}

// AssignLayout sets the layout template of a category. Names outside the
// catalogue fail with data.ErrInvalidLayoutType before anything is written.
func (s *LayoutService) AssignLayout(ctx context.Context, categoryID int64, layoutName string) error {
	layout, err := data.ParseLayoutType(layoutName)
	if err != nil {
		return err
	}
	return s.categories.UpdateLayout(ctx, categoryID, layout)
}

// SetCategoryDisplaySettings updates how a category section is rendered.
func (s *LayoutService) SetCategoryDisplaySettings(ctx context.Context, categoryID int64, articlesCount int, showImages, showExcerpts bool) error {
	if err := checkArticlesCount(articlesCount); err != nil {
		return err
	}
	return s.categories.UpdateDisplaySettings(ctx, categoryID, articlesCount, showImages, showExcerpts)
}

// SaveCategoryLayout applies the layout and display settings of one category together.
func (s *LayoutService) SaveCategoryLayout(ctx context.Context, l data.CategoryLayout) error {
	return s.SaveAll(ctx, []data.CategoryLayout{l})
}

// SaveAll applies a bulk layout configuration. Every entry is validated before
// anything is written, and the writes happen in one transaction.
func (s *LayoutService) SaveAll(ctx context.Context, layouts []data.CategoryLayout) error {
	if len(layouts) == 0 {
		return fmt.Errorf("%w: no layouts given", ErrInvalidParameter)
	}
	if err := validateLayouts(layouts); err != nil {
		return err
	}
	return s.categories.SaveLayouts(ctx, layouts)
}

func validateLayouts(layouts []data.CategoryLayout) error {
	seen := make(map[int64]bool, len(layouts))
	for _, l := range layouts {
		if !l.LayoutType.Valid() {
			return fmt.Errorf("category %d: %w", l.CategoryID, data.ErrInvalidLayoutType)
		}
		if err := checkArticlesCount(l.ArticlesCount); err != nil {
			return fmt.Errorf("category %d: %w", l.CategoryID, err)
		}
		if seen[l.CategoryID] {
			return fmt.Errorf("%w: category %d listed twice", ErrInvalidParameter, l.CategoryID)
		}
		seen[l.CategoryID] = true
	}
	return nil
}

// ReorderCategories stores a drag-and-drop ordering. The listed categories take
// the first positions; categories left out keep their relative order after them.
func (s *LayoutService) ReorderCategories(ctx context.Context, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return fmt.Errorf("%w: empty ordering", ErrInvalidParameter)
	}
	seen := make(map[int64]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return fmt.Errorf("%w: category %d listed twice", ErrInvalidParameter, id)
		}
		seen[id] = true
	}
	return s.categories.Reorder(ctx, orderedIDs)
}

// SetCategoryActive shows or hides a category section.
func (s *LayoutService) SetCategoryActive(ctx context.Context, categoryID int64, active bool) error {
	return s.categories.SetActive(ctx, categoryID, active)
}

// CreateCategory adds a top-level category.
func (s *LayoutService) CreateCategory(ctx context.Context, name, slug, description string) (*data.Category, error) {
	return s.createCategory(ctx, nil, name, slug, description)
}

// CreateSubcategory adds a category below a top-level parent.
func (s *LayoutService) CreateSubcategory(ctx context.Context, parentID int64, name, slug, description string) (*data.Category, error) {
	parent, err := s.categories.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, &ValidationError{Field: "parent_id", Message: "Parent category does not exist", Err: err}
		}
		return nil, err
	}
	if parent.IsSubcategory() {
		return nil, invalid("parent_id", "Subcategories cannot be nested")
	}
	return s.createCategory(ctx, &parent.ID, name, slug, description)
}

// UpdateCategory edits the name, slug, description and parent of a category.
// A nil parentID makes it top-level. Only two levels exist, so the parent must
// be top-level and a category with subcategories cannot move below another.
func (s *LayoutService) UpdateCategory(ctx context.Context, id int64, name, slug, description string, parentID *int64) (*data.Category, error) {
	all, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var c, parent *data.Category
	hasChildren := false
	for _, cat := range all {
		if cat.ID == id {
			c = cat
		}
		if parentID != nil && cat.ID == *parentID {
			parent = cat
		}
		if cat.ParentID != nil && *cat.ParentID == id {
			hasChildren = true
		}
	}
	if c == nil {
		return nil, fmt.Errorf("category %d: %w", id, data.ErrNotFound)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "Name is required")
	}
	slug = GenerateSlug(slug)
	if slug == "" {
		slug = GenerateSlug(name)
	}
	if slug == "" {
		return nil, invalid("slug", "Slug is required")
	}
	if parentID != nil {
		switch {
		case *parentID == id:
			return nil, invalid("parent_id", "A category cannot be its own parent")
		case parent == nil:
			return nil, invalid("parent_id", "Parent category does not exist")
		case parent.IsSubcategory():
			return nil, invalid("parent_id", "Subcategories cannot be nested")
		case hasChildren:
			return nil, invalid("parent_id", "A category with subcategories cannot become a subcategory")
		}
	}

	updated := *c
	updated.Name, updated.Slug, updated.Description, updated.ParentID = name, slug, strings.TrimSpace(description), parentID
	if err := s.categories.Update(ctx, &updated); err != nil {
		return nil, slugConflict(err)
	}
	return &updated, nil
}

// DeleteCategory removes a category together with its subcategories. Its
// articles stay, without a category.
func (s *LayoutService) DeleteCategory(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}

// DeleteSubcategory removes a subcategory. Top-level categories are not deletable here.
func (s *LayoutService) DeleteSubcategory(ctx context.Context, id int64) error {
	return s.categories.DeleteSubcategory(ctx, id)
}

func (s *LayoutService) createCategory(ctx context.Context, parentID *int64, name, slug, description string) (*data.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "Name is required")
	}
	slug = GenerateSlug(slug)
	if slug == "" {
		slug = GenerateSlug(name)
	}
	if slug == "" {
		return nil, invalid("slug", "Slug is required")
	}
	c := &data.Category{
		Name:          name,
		Slug:          slug,
		Description:   strings.TrimSpace(description),
		ParentID:      parentID,
		IsActive:      true,
		LayoutType:    data.DefaultLayout,
		ArticlesCount: 6,
		ShowImages:    true,
		ShowExcerpts:  true,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, slugConflict(err)
	}
	return c, nil
}

// HomepageSettings returns the active homepage preset, or the defaults when none was saved.
func (s *LayoutService) HomepageSettings(ctx context.Context) (HomepageSettings, error) {
	settings := DefaultHomepageSettings()
	preset, err := s.presets.GetActive(ctx, HomepageLayoutType)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return settings, nil
		}
		return settings, err
	}
	if err := preset.Decode(&settings); err != nil {
		return DefaultHomepageSettings(), fmt.Errorf("failed to decode homepage settings: %w", err)
	}
	return settings, nil
}

// SaveHomepageSettings stores a new active homepage preset.
func (s *LayoutService) SaveHomepageSettings(ctx context.Context, name string, hs HomepageSettings) error {
	preset, err := homepagePreset(name, hs)
	if err != nil {
		return err
	}
	return s.presets.Save(ctx, preset)
}

func homepagePreset(name string, hs HomepageSettings) (*data.LayoutSetting, error) {
	if err := checkArticlesCount(hs.LatestCount); err != nil {
		return nil, err
	}
	b, err := json.Marshal(hs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode homepage settings: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = "Homepage"
	}
	return &data.LayoutSetting{LayoutName: name, LayoutType: HomepageLayoutType, Settings: string(b)}, nil
}

// Presets lists every stored layout preset.
func (s *LayoutService) Presets(ctx context.Context) ([]*data.LayoutSetting, error) {
	return s.presets.List(ctx)
}

// Export captures the current layout configuration.
func (s *LayoutService) Export(ctx context.Context) (*LayoutExport, error) {
	cats, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	hs, err := s.HomepageSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := &LayoutExport{ExportedAt: time.Now().UTC(), Homepage: hs, Categories: []ExportedCategoryItem{}}
	for _, c := range cats {
		out.Categories = append(out.Categories, ExportedCategoryItem{
			Slug:          c.Slug,
			SortOrder:     c.SortOrder,
			LayoutType:    c.LayoutType,
			ArticlesCount: c.ArticlesCount,
			ShowImages:    c.ShowImages,
			ShowExcerpts:  c.ShowExcerpts,
			IsActive:      c.IsActive,
		})
	}
	return out, nil
}

// Import applies an exported configuration. Categories are matched by slug; an
// unknown slug rejects the whole document before anything is written. Layouts,
// ordering, visibility and the homepage preset are written in one transaction.
func (s *LayoutService) Import(ctx context.Context, doc *LayoutExport) error {
	cats, err := s.categories.GetAll(ctx)
	if err != nil {
		return err
	}
	bySlug := make(map[string]*data.Category, len(cats))
	for _, c := range cats {
		bySlug[c.Slug] = c
	}

	items := append([]ExportedCategoryItem(nil), doc.Categories...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })

	imp := data.LayoutImport{Active: map[int64]bool{}}
	for _, item := range items {
		c, ok := bySlug[item.Slug]
		if !ok {
			return invalid("categories", fmt.Sprintf("Unknown category %q", item.Slug))
		}
		imp.Layouts = append(imp.Layouts, data.CategoryLayout{
			CategoryID:    c.ID,
			LayoutType:    item.LayoutType,
			ArticlesCount: item.ArticlesCount,
			ShowImages:    item.ShowImages,
			ShowExcerpts:  item.ShowExcerpts,
		})
		imp.Order = append(imp.Order, c.ID)
		if c.IsActive != item.IsActive {
			imp.Active[c.ID] = item.IsActive
		}
	}
	if err := validateLayouts(imp.Layouts); err != nil {
		return err
	}
	if imp.Homepage, err = homepagePreset("Imported", doc.Homepage); err != nil {
		return err
	}
	return s.categories.ApplyImport(ctx, imp)
}

func checkArticlesCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: articles_count must be a positive integer, got %d", ErrInvalidParameter, n)
	}
	return nil
}
