package enums

import (
	"fmt"
	"strings"
)

// SortCriterion selects how the visible catalog is ordered.
type SortCriterion string

const (
	// SortNone keeps the order the marketplace returned.
	SortNone      SortCriterion = ""
	SortNearness  SortCriterion = "nearness"
	SortDelivery  SortCriterion = "delivery"
	SortPriceAsc  SortCriterion = "price_asc"
	SortPriceDesc SortCriterion = "price_desc"
)

var validSortCriteria = []SortCriterion{
	SortNone,
	SortNearness,
	SortDelivery,
	SortPriceAsc,
	SortPriceDesc,
}

// String implements fmt.Stringer.
func (s SortCriterion) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortCriterion.
func (s SortCriterion) IsValid() bool {
	for _, candidate := range validSortCriteria {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortCriterion converts raw input into a SortCriterion. Blank input means no sort.
func ParseSortCriterion(value string) (SortCriterion, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validSortCriteria {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort criterion %q", value)
}
