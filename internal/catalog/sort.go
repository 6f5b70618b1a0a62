package catalog

import (
	"math"
	"sort"

	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
)

// Sort returns a stably ordered copy of items. Unknown distance ranks last for
// nearness and delivery; unknown criteria keep the incoming order.
func Sort(items []AnnotatedProduct, criterion enums.SortCriterion) []AnnotatedProduct {
	out := cloneItems(items)

	var less func(a, b AnnotatedProduct) bool
	switch criterion {
	case enums.SortNearness:
		less = func(a, b AnnotatedProduct) bool { return distanceKey(a) < distanceKey(b) }
	case enums.SortDelivery:
		less = func(a, b AnnotatedProduct) bool { return deliveryKey(a) < deliveryKey(b) }
	case enums.SortPriceAsc:
		less = func(a, b AnnotatedProduct) bool { return a.UnitPrice.LessThan(b.UnitPrice) }
	case enums.SortPriceDesc:
		less = func(a, b AnnotatedProduct) bool { return a.UnitPrice.GreaterThan(b.UnitPrice) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func distanceKey(item AnnotatedProduct) float64 {
	if item.DistanceKm == nil {
		return math.Inf(1)
	}
	return *item.DistanceKm
}

// deliveryKey treats the default one-day estimate of an unlocated item as unknown.
func deliveryKey(item AnnotatedProduct) float64 {
	if item.DistanceKm == nil {
		return math.Inf(1)
	}
	return float64(item.EstimatedDeliveryDays)
}
