package model

import "fmt"

// Category groups posts. Categories with a nil ParentID are roots of
// the category tree; the rest are subcategories.
type Category struct {
	ID        int64  `json:"id"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Icon      string `json:"icon,omitempty"`
	Order     int    `json:"order"`
	PostCount int    `json:"post_count"`
	IsActive  bool   `json:"is_active"`
}

// CacheRef renders the category as a cache-key fragment.
func (c *Category) CacheRef() string {
	return fmt.Sprintf("Category_%d", c.ID)
}

// CategoryNode is a category with its subcategories, as served by the
// category tree endpoint.
type CategoryNode struct {
	Category
	Subcategories []Category `json:"subcategories"`
}

// CategoryMatch is a category scored by name similarity to a query.
type CategoryMatch struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	PostCount  int     `json:"post_count"`
	Similarity float64 `json:"similarity"`
}

// HashTag labels posts. PostCount is maintained by the write side and
// drives trending order.
type HashTag struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	PostCount int    `json:"post_count"`
	IsActive  bool   `json:"is_active"`
}

// CacheRef renders the hashtag as a cache-key fragment.
func (h *HashTag) CacheRef() string {
	return fmt.Sprintf("HashTag_%d", h.ID)
}
