package discovery

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-discovery/internal/cart"
	"github.com/angelmondragon/packfinderz-discovery/internal/catalog"
	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
	"github.com/angelmondragon/packfinderz-discovery/pkg/geo"
)

// ErrCatalogUnavailable is the user-facing error flag set when a catalog fetch fails.
const ErrCatalogUnavailable = "catalog unavailable"

// Item is one visible catalog entry with its resolved supplier label.
type Item struct {
	catalog.AnnotatedProduct
	SupplierName string `json:"supplierName,omitempty"`
}

// CartSummary is the cart as seen by the rendering layer.
type CartSummary struct {
	Lines     []cart.Line     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// State is the snapshot returned by every controller operation.
type State struct {
	Items    []Item              `json:"items"`
	Total    int                 `json:"total"`
	Loading  bool                `json:"loading"`
	Error    string              `json:"error,omitempty"`
	Query    string              `json:"query"`
	Sort     enums.SortCriterion `json:"sort"`
	Filters  catalog.Filters     `json:"filters"`
	Location *geo.Point          `json:"location"`
	Cart     CartSummary         `json:"cart"`
}

func summarize(agg *cart.Aggregator) CartSummary {
	return CartSummary{
		Lines:     agg.Lines(),
		Total:     agg.Total(),
		ItemCount: agg.ItemCount(),
	}
}
