package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Filters narrow the annotated catalog by numeric and categorical bounds.
// Nil bounds are ignored.
type Filters struct {
	Category      string           `json:"category,omitempty"`
	MinPrice      *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice      *decimal.Decimal `json:"maxPrice,omitempty"`
	MaxDistanceKm *float64         `json:"maxDistanceKm,omitempty"`
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Category) == "" && f.MinPrice == nil && f.MaxPrice == nil && f.MaxDistanceKm == nil
}

// Matches reports whether the item satisfies every active bound. When a maximum
// distance is set, items with unknown distance are excluded.
func (f Filters) Matches(item AnnotatedProduct) bool {
	if category := strings.TrimSpace(f.Category); category != "" && !strings.EqualFold(category, item.Category) {
		return false
	}
	if f.MinPrice != nil && item.UnitPrice.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && item.UnitPrice.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MaxDistanceKm != nil {
		if item.DistanceKm == nil || *item.DistanceKm > *f.MaxDistanceKm {
			return false
		}
	}
	return true
}

// Filter returns the items matching f, preserving order and annotations.
func Filter(items []AnnotatedProduct, f Filters) []AnnotatedProduct {
	if f.IsZero() {
		return cloneItems(items)
	}
	out := make([]AnnotatedProduct, 0, len(items))
	for _, item := range items {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// Search keeps items whose name contains query, case-insensitively. A blank query
// returns every item. Annotations on the input are carried through unchanged.
func Search(items []AnnotatedProduct, query string) []AnnotatedProduct {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return cloneItems(items)
	}
	out := make([]AnnotatedProduct, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			out = append(out, item)
		}
	}
	return out
}

func cloneItems(items []AnnotatedProduct) []AnnotatedProduct {
	out := make([]AnnotatedProduct, len(items))
	copy(out, items)
	return out
}
