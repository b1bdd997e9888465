package domain

import "strings"

// Category is the fixed set of wardrobe item kinds.
type Category string

const (
	CategoryShirts      Category = "shirts"
	CategoryPants       Category = "pants"
	CategoryAccessories Category = "accessories"
	CategoryShoes       Category = "shoes"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryShirts, CategoryPants, CategoryAccessories, CategoryShoes}

func (c Category) Valid() bool {
	switch c {
	case CategoryShirts, CategoryPants, CategoryAccessories, CategoryShoes:
		return true
	}
	return false
}

// NormalizeCategory maps loose spellings ("Shirt", "shoe") onto a Category.
// It returns "" when s names nothing in the fixed set.
func NormalizeCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	if c := Category(s); c.Valid() {
		return c
	}
	if c := Category(s + "s"); c.Valid() {
		return c
	}
	if s == "accessory" {
		return CategoryAccessories
	}
	return ""
}

// Slot is one of the four positions in an outfit.
type Slot string

const (
	SlotShirt       Slot = "shirt"
	SlotPants       Slot = "pants"
	SlotAccessories Slot = "accessories"
	SlotShoes       Slot = "shoes"
)

var Slots = []Slot{SlotShirt, SlotPants, SlotAccessories, SlotShoes}

// Category returns the item category a slot accepts.
func (s Slot) Category() Category {
	switch s {
	case SlotShirt:
		return CategoryShirts
	case SlotPants:
		return CategoryPants
	case SlotAccessories:
		return CategoryAccessories
	case SlotShoes:
		return CategoryShoes
	}
	return ""
}

// Field is the wire name of the slot's reference column.
func (s Slot) Field() string {
	return string(s) + "_id"
}

type WardrobeItem struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Category  Category `json:"category"`
	ImageURL  string   `json:"image_url"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

// ItemInput carries every writable field of a WardrobeItem. Updates are full
// replacements, so callers must resend unchanged fields.
type ItemInput struct {
	Title    string   `json:"title"`
	Category Category `json:"category"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

// Selection holds at most one item reference per slot. A nil reference means
// the slot is empty. It doubles as the slot columns of a SavedOutfit.
type Selection struct {
	Shirt       *string `json:"shirt_id"`
	Pants       *string `json:"pants_id"`
	Accessories *string `json:"accessories_id"`
	Shoes       *string `json:"shoes_id"`
}

func (s *Selection) ref(slot Slot) **string {
	switch slot {
	case SlotShirt:
		return &s.Shirt
	case SlotPants:
		return &s.Pants
	case SlotAccessories:
		return &s.Accessories
	case SlotShoes:
		return &s.Shoes
	}
	return nil
}

// Get returns the reference held in slot, or nil.
func (s Selection) Get(slot Slot) *string {
	if p := s.ref(slot); p != nil {
		return *p
	}
	return nil
}

// Set stores id in slot. An empty id clears the slot.
func (s *Selection) Set(slot Slot, id string) {
	p := s.ref(slot)
	if p == nil {
		return
	}
	if id == "" {
		*p = nil
		return
	}
	*p = &id
}

// Normalized returns a copy where blank references are cleared.
func (s Selection) Normalized() Selection {
	var out Selection
	for _, slot := range Slots {
		if ref := s.Get(slot); ref != nil {
			out.Set(slot, strings.TrimSpace(*ref))
		}
	}
	return out
}

// Empty reports whether no slot holds a reference.
func (s Selection) Empty() bool {
	for _, slot := range Slots {
		if s.Get(slot) != nil {
			return false
		}
	}
	return true
}

type SavedOutfit struct {
	ID   string `json:"id"`
	Name string `json:"outfit_name"`
	Selection
	Notes     string `json:"notes"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type OutfitInput struct {
	Name      string
	Selection Selection
	Notes     string
}

// ResolvedSlot is one slot of an outfit joined against the catalog. Missing
// is set when the slot references an item that no longer exists.
type ResolvedSlot struct {
	Slot    Slot          `json:"slot"`
	ItemID  *string       `json:"item_id"`
	Item    *WardrobeItem `json:"item,omitempty"`
	Missing bool          `json:"missing"`
}

type ResolvedOutfit struct {
	Outfit *SavedOutfit    `json:"outfit"`
	Slots  []*ResolvedSlot `json:"slots"`
}

type ItemFilter struct {
	Category Category
	Search   string
}

// PageRequest is a 1-based page number and page size.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Validate() error {
	if p.Page < 1 {
		return &ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if p.Limit < 1 {
		return &ValidationError{Field: "limit", Reason: "must be at least 1"}
	}
	return nil
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one slice of a newest-first listing. Total counts the whole
// filtered set, not just Data.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Stats struct {
	TotalItems   int              `json:"totalItems"`
	TotalOutfits int              `json:"totalOutfits"`
	ByCategory   map[Category]int `json:"byCategory"`
}
