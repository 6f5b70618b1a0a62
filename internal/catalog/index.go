package catalog

import (
	"sync"

	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
	"github.com/angelmondragon/packfinderz-discovery/pkg/geo"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

// ViewParams are the inputs that derive the visible catalog from the stored snapshot.
type ViewParams struct {
	Query    string
	Sort     enums.SortCriterion
	Filters  Filters
	Location *geo.Point
}

// Index owns the authoritative product snapshot. Views are always derived from it
// and never mutate it.
type Index struct {
	mu         sync.RWMutex
	products   []models.Product
	byID       map[string]int
	generation uint64

	// annotation cache, valid for (cacheGen, cacheLoc)
	cache    []AnnotatedProduct
	cacheGen uint64
	cacheLoc *geo.Point
	cacheSet bool
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byID: map[string]int{}}
}

// ReplaceAll swaps the whole catalog and drops any cached annotation.
func (i *Index) ReplaceAll(products []models.Product) {
	snapshot := make([]models.Product, len(products))
	copy(snapshot, products)
	byID := make(map[string]int, len(snapshot))
	for idx, p := range snapshot {
		if _, exists := byID[p.ID]; !exists {
			byID[p.ID] = idx
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.products = snapshot
	i.byID = byID
	i.generation++
	i.cache = nil
	i.cacheSet = false
}

// Generation increments on every ReplaceAll.
func (i *Index) Generation() uint64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.generation
}

// Len returns the number of stored products.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.products)
}

// Products returns a copy of the stored snapshot.
func (i *Index) Products() []models.Product {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]models.Product, len(i.products))
	copy(out, i.products)
	return out
}

// Product looks up a stored product by id.
func (i *Index) Product(id string) (models.Product, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	idx, ok := i.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return i.products[idx], true
}

// SupplierIDs returns distinct non-empty supplier ids in catalog order.
func (i *Index) SupplierIDs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	seen := make(map[string]struct{}, len(i.products))
	ids := make([]string, 0)
	for _, p := range i.products {
		if p.SupplierID == "" {
			continue
		}
		if _, ok := seen[p.SupplierID]; ok {
			continue
		}
		seen[p.SupplierID] = struct{}{}
		ids = append(ids, p.SupplierID)
	}
	return ids
}

// Annotate returns every stored product annotated for viewer. The result is cached
// until the catalog or the viewer location changes; callers receive a copy.
func (i *Index) Annotate(viewer *geo.Point) []AnnotatedProduct {
	i.mu.RLock()
	if i.cacheSet && i.cacheGen == i.generation && geo.Equal(i.cacheLoc, viewer) {
		out := cloneItems(i.cache)
		i.mu.RUnlock()
		return out
	}
	products := i.products
	gen := i.generation
	i.mu.RUnlock()

	annotated := Annotate(products, viewer)

	i.mu.Lock()
	if i.generation == gen {
		i.cache = annotated
		i.cacheGen = gen
		i.cacheLoc = copyPoint(viewer)
		i.cacheSet = true
	}
	i.mu.Unlock()

	return cloneItems(annotated)
}

// View runs annotate, filter, search, and sort over the current snapshot.
func (i *Index) View(params ViewParams) []AnnotatedProduct {
	items := i.Annotate(params.Location)
	items = Filter(items, params.Filters)
	items = Search(items, params.Query)
	return Sort(items, params.Sort)
}

func copyPoint(p *geo.Point) *geo.Point {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
