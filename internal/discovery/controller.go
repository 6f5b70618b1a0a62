// Package discovery orchestrates one buyer's browsing session: viewer location,
// catalog fetches, supplier names, the derived view, and the cart.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-discovery/internal/cart"
	"github.com/angelmondragon/packfinderz-discovery/internal/catalog"
	"github.com/angelmondragon/packfinderz-discovery/internal/suppliers"
	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
	"github.com/angelmondragon/packfinderz-discovery/pkg/geo"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/metrics"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

// CatalogSource lists the marketplace catalog, optionally ranked around a viewer.
type CatalogSource interface {
	ListProducts(ctx context.Context, viewer *geo.Point) ([]models.Product, error)
}

// LocationProvider resolves the viewer location; a nil point means unknown.
type LocationProvider interface {
	Locate(ctx context.Context) (*geo.Point, error)
}

// Params configure a Controller.
type Params struct {
	Catalog  CatalogSource
	Resolver *suppliers.Resolver
	Locator  LocationProvider
	Orders   cart.OrderCreator
	Logger   *logger.Logger
	Metrics  *metrics.DiscoveryMetrics
	Clock    func() time.Time
}

// Controller owns the catalog index, cart, and supplier cache of one session.
// The mutex is released while network calls are in flight; a fetch that
// completes after a newer one was issued is discarded. Checkouts run one at a
// time against a snapshot of the cart.
type Controller struct {
	source   CatalogSource
	resolver *suppliers.Resolver
	locator  LocationProvider
	orders   cart.OrderCreator
	logg     *logger.Logger
	metrics  *metrics.DiscoveryMetrics
	clock    func() time.Time

	index *catalog.Index

	checkoutMu sync.Mutex

	mu         sync.Mutex
	cart       *cart.Aggregator
	view       catalog.ViewParams
	issued     uint64
	settled    uint64
	failure    string
	lastActive time.Time
}

// NewController builds a controller with an empty catalog and cart.
func NewController(params Params) (*Controller, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("supplier resolver required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Controller{
		source:     params.Catalog,
		resolver:   params.Resolver,
		locator:    params.Locator,
		orders:     params.Orders,
		logg:       logg,
		metrics:    params.Metrics,
		clock:      clock,
		index:      catalog.NewIndex(),
		cart:       cart.NewAggregator(),
		lastActive: clock(),
	}, nil
}

// Load resolves the viewer location best-effort and fetches the catalog.
func (c *Controller) Load(ctx context.Context) State {
	if c.locator != nil {
		point, err := c.locator.Locate(ctx)
		switch {
		case err != nil:
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "viewer location unavailable, continuing without it")
		case point != nil:
			c.mu.Lock()
			c.view.Location = point
			c.mu.Unlock()
		}
	}
	return c.fetch(ctx)
}

// Refresh re-fetches the catalog for the current location.
func (c *Controller) Refresh(ctx context.Context) State {
	return c.fetch(ctx)
}

// OnLocationChanged stores the new viewer location and re-runs the whole pipeline.
// A nil location clears it.
func (c *Controller) OnLocationChanged(ctx context.Context, location *geo.Point) State {
	c.mu.Lock()
	if location != nil {
		cp := *location
		location = &cp
	}
	c.view.Location = location
	c.mu.Unlock()
	return c.fetch(ctx)
}

// OnSearchChanged re-derives the view for a new query without fetching.
func (c *Controller) OnSearchChanged(query string) State {
	c.mu.Lock()
	c.view.Query = query
	c.mu.Unlock()
	return c.State()
}

// OnSortChanged re-orders the view without fetching.
func (c *Controller) OnSortChanged(criterion enums.SortCriterion) State {
	c.mu.Lock()
	c.view.Sort = criterion
	c.mu.Unlock()
	return c.State()
}

// OnFiltersChanged re-derives the view for new filters without fetching.
func (c *Controller) OnFiltersChanged(filters catalog.Filters) State {
	c.mu.Lock()
	c.view.Filters = filters
	c.mu.Unlock()
	return c.State()
}

// OnCartAdd adds one unit of a catalog product to the cart.
func (c *Controller) OnCartAdd(productID string) (State, error) {
	product, ok := c.index.Product(strings.TrimSpace(productID))
	if !ok {
		return c.State(), pkgerrors.New(pkgerrors.CodeNotFound, "product not in catalog")
	}
	c.mu.Lock()
	c.cart.Add(product)
	c.mu.Unlock()
	return c.State(), nil
}

// OnCartRemove drops a cart line; unknown ids leave the cart unchanged.
func (c *Controller) OnCartRemove(productID string) State {
	c.mu.Lock()
	c.cart.Remove(strings.TrimSpace(productID))
	c.mu.Unlock()
	return c.State()
}

// Checkout places one order per cart line. The session stays usable while orders
// are in flight; on success only the placed quantities leave the cart, so items
// added meanwhile are kept.
func (c *Controller) Checkout(ctx context.Context, input cart.CheckoutInput) ([]models.Order, State, error) {
	if c.orders == nil {
		return nil, c.State(), pkgerrors.New(pkgerrors.CodeDependency, "order placement not configured")
	}
	c.checkoutMu.Lock()
	defer c.checkoutMu.Unlock()

	c.mu.Lock()
	pending := c.cart.Clone()
	c.mu.Unlock()
	placed := pending.Lines()

	orders, err := pending.Checkout(ctx, c.orders, input)
	if err != nil {
		c.logg.Error(c.logg.WithField(ctx, "placed_orders", len(orders)), "checkout failed", err)
		return orders, c.State(), err
	}

	c.mu.Lock()
	c.cart.Deduct(placed)
	c.mu.Unlock()
	return orders, c.State(), nil
}

// State derives the current view from the stored catalog.
func (c *Controller) State() State {
	c.mu.Lock()
	c.lastActive = c.clock()
	params := c.view
	summary := summarize(c.cart)
	loading := c.settled < c.issued
	failure := c.failure
	c.mu.Unlock()

	annotated := c.index.View(params)
	items := make([]Item, len(annotated))
	for i, p := range annotated {
		items[i] = Item{AnnotatedProduct: p, SupplierName: c.supplierName(p.SupplierID)}
	}
	return State{
		Items:    items,
		Total:    len(items),
		Loading:  loading,
		Error:    failure,
		Query:    params.Query,
		Sort:     params.Sort,
		Filters:  params.Filters,
		Location: params.Location,
		Cart:     summary,
	}
}

// LastActive reports when the session was last touched.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) supplierName(id string) string {
	if id == "" {
		return ""
	}
	if name, ok := c.resolver.Name(id); ok {
		return name
	}
	return id
}

func (c *Controller) fetch(ctx context.Context) State {
	c.mu.Lock()
	c.issued++
	generation := c.issued
	location := c.view.Location
	c.mu.Unlock()

	lctx := c.logg.WithField(ctx, "fetch_generation", generation)
	start := c.clock()
	products, err := c.source.ListProducts(ctx, location)
	elapsed := c.clock().Sub(start)

	c.mu.Lock()
	if generation < c.issued {
		c.mu.Unlock()
		c.metrics.ObserveFetch(metrics.FetchStale, elapsed)
		c.logg.Info(lctx, "discarding stale catalog fetch")
		return c.State()
	}
	c.settled = generation
	if err != nil {
		c.failure = ErrCatalogUnavailable
		c.mu.Unlock()
		c.metrics.ObserveFetch(metrics.FetchFailure, elapsed)
		c.logg.Error(lctx, "catalog fetch failed", err)
		return c.State()
	}
	c.failure = ""
	c.index.ReplaceAll(products)
	c.mu.Unlock()

	c.metrics.ObserveFetch(metrics.FetchSuccess, elapsed)
	c.index.Annotate(location)
	c.resolver.Resolve(ctx, c.index.SupplierIDs())
	c.logg.Debug(c.logg.WithField(lctx, "products", len(products)), "catalog replaced")
	return c.State()
}
