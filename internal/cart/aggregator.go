// Package cart aggregates a buyer's selections into quantity-merged lines.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

// Line is one product in the cart. Name, price, image and supplier are captured when
// the line is created; later catalog changes do not alter them.
type Line struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	ImageURL   *string         `json:"imageUrl,omitempty"`
	SupplierID string          `json:"supplierId,omitempty"`
	Quantity   int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Aggregator holds the cart lines of one browsing session. It is not safe for
// concurrent use; the owning controller serialises access.
type Aggregator struct {
	lines map[string]*Line
	order []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{lines: make(map[string]*Line)}
}

// Add increments the line for product.ID, or creates it with quantity 1.
func (a *Aggregator) Add(product models.Product) Line {
	if line, ok := a.lines[product.ID]; ok {
		line.Quantity++
		return *line
	}
	line := &Line{
		ProductID:  product.ID,
		Name:       product.Name,
		UnitPrice:  product.UnitPrice,
		ImageURL:   cloneString(product.ImageURL),
		SupplierID: product.SupplierID,
		Quantity:   1,
	}
	a.lines[product.ID] = line
	a.order = append(a.order, product.ID)
	return *line
}

// Remove deletes the whole line regardless of quantity. Unknown ids are ignored.
func (a *Aggregator) Remove(productID string) bool {
	if _, ok := a.lines[productID]; !ok {
		return false
	}
	delete(a.lines, productID)
	for i, id := range a.order {
		if id == productID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Total sums UnitPrice × Quantity over every line.
func (a *Aggregator) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range a.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ItemCount sums the quantities of every line.
func (a *Aggregator) ItemCount() int {
	count := 0
	for _, line := range a.lines {
		count += line.Quantity
	}
	return count
}

// Lines returns copies of the lines in the order they were first added.
func (a *Aggregator) Lines() []Line {
	out := make([]Line, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.lines[id])
	}
	return out
}

func (a *Aggregator) Line(productID string) (Line, bool) {
	line, ok := a.lines[productID]
	if !ok {
		return Line{}, false
	}
	return *line, true
}

func (a *Aggregator) Len() int {
	return len(a.lines)
}

// Clone returns an independent copy of the cart.
func (a *Aggregator) Clone() *Aggregator {
	clone := &Aggregator{
		lines: make(map[string]*Line, len(a.lines)),
		order: append([]string(nil), a.order...),
	}
	for id, line := range a.lines {
		cp := *line
		cp.ImageURL = cloneString(line.ImageURL)
		clone.lines[id] = &cp
	}
	return clone
}

// Deduct lowers each matching line by the given quantity and drops lines that reach
// zero. Lines no longer in the cart are skipped.
func (a *Aggregator) Deduct(lines []Line) {
	for _, placed := range lines {
		line, ok := a.lines[placed.ProductID]
		if !ok {
			continue
		}
		line.Quantity -= placed.Quantity
		if line.Quantity <= 0 {
			a.Remove(placed.ProductID)
		}
	}
}

// Reset empties the cart.
func (a *Aggregator) Reset() {
	a.lines = make(map[string]*Line)
	a.order = nil
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
