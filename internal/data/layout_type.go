package data

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LayoutType is the closed catalogue of homepage section templates a category can use.
// The zero value is not a valid layout; use ParseLayoutType to obtain one from user input.
type LayoutType int

const (
	LayoutFeaturedList LayoutType = iota + 1
	LayoutThreeCards
	LayoutTwoMainSidebar
	LayoutGrid
	LayoutListOnly
	LayoutMagazine
)

// DefaultLayout is assigned to categories that never picked one.
const DefaultLayout = LayoutGrid

var layoutNames = map[LayoutType]string{
	LayoutFeaturedList:   "featured-list",
	LayoutThreeCards:     "three-cards",
	LayoutTwoMainSidebar: "two-main-sidebar",
	LayoutGrid:           "grid",
	LayoutListOnly:       "list-only",
	LayoutMagazine:       "magazine",
}

var layoutLabels = map[LayoutType]string{
	LayoutFeaturedList:   "Featured + list",
	LayoutThreeCards:     "Three cards",
	LayoutTwoMainSidebar: "Two main + sidebar",
	LayoutGrid:           "Grid",
	LayoutListOnly:       "List only",
	LayoutMagazine:       "Magazine",
}

// AllLayoutTypes returns the catalogue in display order.
func AllLayoutTypes() []LayoutType {
	return []LayoutType{
		LayoutFeaturedList,
		LayoutThreeCards,
		LayoutTwoMainSidebar,
		LayoutGrid,
		LayoutListOnly,
		LayoutMagazine,
	}
}

// ParseLayoutType validates a catalogue name. Unknown names yield ErrInvalidLayoutType.
func ParseLayoutType(name string) (LayoutType, error) {
	for lt, n := range layoutNames {
		if n == name {
			return lt, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLayoutType, name)
}

// Valid reports whether l is a member of the catalogue.
func (l LayoutType) Valid() bool {
	_, ok := layoutNames[l]
	return ok
}

func (l LayoutType) String() string {
	if n, ok := layoutNames[l]; ok {
		return n
	}
	return fmt.Sprintf("LayoutType(%d)", int(l))
}

// Label is the human readable name shown in the back office.
func (l LayoutType) Label() string {
	return layoutLabels[l]
}

// Partial names the template that renders a homepage section in this layout.
func (l LayoutType) Partial() string {
	switch l {
	case LayoutFeaturedList:
		return "section-featured-list"
	case LayoutThreeCards:
		return "section-three-cards"
	case LayoutTwoMainSidebar:
		return "section-two-main-sidebar"
	case LayoutGrid:
		return "section-grid"
	case LayoutListOnly:
		return "section-list-only"
	case LayoutMagazine:
		return "section-magazine"
	}
	return "section-grid"
}

// Value implements driver.Valuer; layouts are stored by name.
func (l LayoutType) Value() (driver.Value, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLayoutType, int(l))
	}
	return l.String(), nil
}

// Scan implements sql.Scanner. Unknown stored names fall back to DefaultLayout
// so a hand-edited row cannot break the homepage.
func (l *LayoutType) Scan(src interface{}) error {
	var name string
	switch v := src.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	case nil:
		*l = DefaultLayout
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LayoutType", src)
	}
	parsed, err := ParseLayoutType(name)
	if err != nil {
		*l = DefaultLayout
		return nil
	}
	*l = parsed
	return nil
}

// MarshalJSON encodes the layout by name.
func (l LayoutType) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLayoutType, int(l))
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a layout name, rejecting names outside the catalogue.
func (l *LayoutType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseLayoutType(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
