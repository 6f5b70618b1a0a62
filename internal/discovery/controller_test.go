package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-discovery/internal/cart"
	"github.com/angelmondragon/packfinderz-discovery/internal/catalog"
	"github.com/angelmondragon/packfinderz-discovery/internal/suppliers"
	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
	"github.com/angelmondragon/packfinderz-discovery/pkg/geo"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

type fetchResult struct {
	products []models.Product
	err      error
	gate     chan struct{}
}

type fakeMarketplace struct {
	mu        sync.Mutex
	results   []fetchResult
	fetches   int
	locations []*geo.Point
	started   chan int

	suppliers     map[string]*models.Supplier
	supplierCalls map[string]int

	location    *geo.Point
	locationErr error

	orders       []models.OrderRequest
	orderGate    chan struct{}
	orderStarted chan string
}

func newFakeMarketplace(results ...fetchResult) *fakeMarketplace {
	return &fakeMarketplace{
		results:       results,
		started:       make(chan int, 8),
		suppliers:     map[string]*models.Supplier{},
		supplierCalls: map[string]int{},
	}
}

func (f *fakeMarketplace) ListProducts(_ context.Context, viewer *geo.Point) ([]models.Product, error) {
	f.mu.Lock()
	call := f.fetches
	f.fetches++
	f.locations = append(f.locations, viewer)
	var res fetchResult
	if call < len(f.results) {
		res = f.results[call]
	} else if len(f.results) > 0 {
		res = f.results[len(f.results)-1]
	}
	f.mu.Unlock()

	f.started <- call
	if res.gate != nil {
		<-res.gate
	}
	return res.products, res.err
}

func (f *fakeMarketplace) GetSupplier(_ context.Context, id string) (*models.Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supplierCalls[id]++
	if s, ok := f.suppliers[id]; ok {
		return s, nil
	}
	return nil, errors.New("lookup failed")
}

func (f *fakeMarketplace) Locate(context.Context) (*geo.Point, error) {
	return f.location, f.locationErr
}

func (f *fakeMarketplace) CreateOrder(_ context.Context, req models.OrderRequest) (*models.Order, error) {
	f.mu.Lock()
	f.orders = append(f.orders, req)
	gate, started := f.orderGate, f.orderStarted
	f.mu.Unlock()

	if started != nil {
		started <- req.ProductID
	}
	if gate != nil {
		<-gate
	}
	return &models.Order{ID: models.FlexString("o-" + req.ProductID)}, nil
}

func (f *fakeMarketplace) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func newController(t *testing.T, market *fakeMarketplace) *Controller {
	t.Helper()
	resolver, err := suppliers.NewResolver(suppliers.ResolverParams{Lookup: market})
	require.NoError(t, err)
	ctrl, err := NewController(Params{
		Catalog:  market,
		Resolver: resolver,
		Locator:  market,
		Orders:   market,
	})
	require.NoError(t, err)
	return ctrl
}

func f64(v float64) *float64 { return &v }

func priced(id string, price int64, supplier string) models.Product {
	return models.Product{ID: id, Name: "item " + id, UnitPrice: decimal.NewFromInt(price), SupplierID: supplier}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestNewControllerRequiresCollaborators(t *testing.T) {
	_, err := NewController(Params{})
	assert.Error(t, err)

	_, err = NewController(Params{Catalog: newFakeMarketplace()})
	assert.Error(t, err)
}

func TestLoadAnnotatesFromViewerLocation(t *testing.T) {
	p1 := priced("p1", 50, "s1")
	p1.SupplierLat, p1.SupplierLng = f64(12.9), f64(77.6)
	market := newFakeMarketplace(fetchResult{products: []models.Product{p1}})
	market.location = &geo.Point{Lat: 13.0, Lng: 77.6}
	market.suppliers["s1"] = &models.Supplier{Name: "Hillside"}
	ctrl := newController(t, market)

	state := ctrl.Load(context.Background())

	require.Len(t, state.Items, 1)
	item := state.Items[0]
	require.NotNil(t, item.DistanceKm)
	assert.InDelta(t, 11.1, *item.DistanceKm, 0.05)
	assert.Equal(t, 1, item.EstimatedDeliveryDays)
	assert.Equal(t, "Hillside", item.SupplierName)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
	assert.True(t, geo.Equal(market.location, market.locations[0]))
}

func TestLoadProceedsWithoutLocation(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: []models.Product{priced("p1", 1, "s1")}})
	market.locationErr = errors.New("no profile")
	ctrl := newController(t, market)

	state := ctrl.Load(context.Background())

	require.Len(t, state.Items, 1)
	assert.Nil(t, state.Items[0].DistanceKm)
	assert.Equal(t, 1, state.Items[0].EstimatedDeliveryDays)
	assert.Nil(t, state.Location)
	assert.Equal(t, "s1", state.Items[0].SupplierName, "failed lookups show the raw id")
}

func TestEmptyCatalogIsNotAnError(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: nil})
	ctrl := newController(t, market)

	state := ctrl.Refresh(context.Background())

	assert.Empty(t, state.Items)
	assert.Empty(t, state.Error)
}

func TestFetchFailureKeepsCatalogAndCart(t *testing.T) {
	market := newFakeMarketplace(
		fetchResult{products: []models.Product{priced("p1", 10, "s1"), priced("p2", 20, "s1")}},
		fetchResult{err: pkgerrors.New(pkgerrors.CodeDependency, "503")},
		fetchResult{products: []models.Product{priced("p3", 30, "s1")}},
	)
	ctrl := newController(t, market)
	ctrl.Refresh(context.Background())
	_, err := ctrl.OnCartAdd("p1")
	require.NoError(t, err)

	state := ctrl.Refresh(context.Background())

	assert.Equal(t, ErrCatalogUnavailable, state.Error)
	assert.Equal(t, []string{"p1", "p2"}, ids(state.Items))
	assert.Equal(t, 1, state.Cart.ItemCount)

	state = ctrl.Refresh(context.Background())
	assert.Empty(t, state.Error)
	assert.Equal(t, []string{"p3"}, ids(state.Items))
	assert.Equal(t, 1, state.Cart.ItemCount, "cart survives catalog replacement")
}

func TestSearchSortAndFiltersNeverFetch(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: []models.Product{
		priced("p1", 30, "s1"),
		{ID: "p2", Name: "Basmati Rice", Category: "Grains", UnitPrice: decimal.NewFromInt(10), SupplierID: "s2"},
		priced("p3", 20, "s1"),
	}})
	ctrl := newController(t, market)
	ctrl.Refresh(context.Background())
	require.Equal(t, 1, market.fetchCount())

	state := ctrl.OnSortChanged(enums.SortPriceAsc)
	assert.Equal(t, []string{"p2", "p3", "p1"}, ids(state.Items))

	state = ctrl.OnSearchChanged("RICE")
	assert.Equal(t, []string{"p2"}, ids(state.Items))

	state = ctrl.OnSearchChanged("")
	assert.Equal(t, []string{"p2", "p3", "p1"}, ids(state.Items))

	maxPrice := decimal.NewFromInt(25)
	state = ctrl.OnFiltersChanged(catalog.Filters{MaxPrice: &maxPrice})
	assert.Equal(t, []string{"p2", "p3"}, ids(state.Items))

	state = ctrl.OnSortChanged(enums.SortNone)
	assert.Equal(t, []string{"p2", "p3"}, ids(state.Items))

	assert.Equal(t, 1, market.fetchCount())
}

func TestNearnessSortPlacesUnknownLast(t *testing.T) {
	far := priced("far", 1, "s")
	far.SupplierLat, far.SupplierLng = f64(28.7), f64(77.1)
	near := priced("near", 1, "s")
	near.SupplierLat, near.SupplierLng = f64(12.95), f64(77.6)
	unknown := priced("unknown", 1, "s")

	market := newFakeMarketplace(fetchResult{products: []models.Product{unknown, far, near}})
	ctrl := newController(t, market)
	ctrl.OnLocationChanged(context.Background(), &geo.Point{Lat: 13.0, Lng: 77.6})

	state := ctrl.OnSortChanged(enums.SortNearness)
	assert.Equal(t, []string{"near", "far", "unknown"}, ids(state.Items))
}

func TestLocationChangeRefetchesWithNewLocation(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: []models.Product{priced("p1", 1, "s1")}})
	ctrl := newController(t, market)
	ctrl.Refresh(context.Background())

	loc := &geo.Point{Lat: 1, Lng: 2}
	state := ctrl.OnLocationChanged(context.Background(), loc)

	assert.Equal(t, 2, market.fetchCount())
	assert.True(t, geo.Equal(loc, market.locations[1]))
	assert.True(t, geo.Equal(loc, state.Location))
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	market := newFakeMarketplace(
		fetchResult{products: []models.Product{priced("old", 1, "s1")}, gate: slow},
		fetchResult{products: []models.Product{priced("new", 1, "s1")}},
	)
	ctrl := newController(t, market)

	firstDone := make(chan State, 1)
	go func() { firstDone <- ctrl.Refresh(context.Background()) }()
	require.Equal(t, 0, <-market.started)

	loading := ctrl.State()
	assert.True(t, loading.Loading)

	second := ctrl.OnLocationChanged(context.Background(), &geo.Point{Lat: 5, Lng: 5})
	<-market.started
	assert.Equal(t, []string{"new"}, ids(second.Items))
	assert.False(t, second.Loading)

	close(slow)
	select {
	case first := <-firstDone:
		assert.Equal(t, []string{"new"}, ids(first.Items), "older fetch must not overwrite newer catalog")
	case <-time.After(time.Second):
		t.Fatal("stale fetch never returned")
	}
	assert.Equal(t, []string{"new"}, ids(ctrl.State().Items))
}

func TestStaleFailureDoesNotFlagError(t *testing.T) {
	slow := make(chan struct{})
	market := newFakeMarketplace(
		fetchResult{err: errors.New("timeout"), gate: slow},
		fetchResult{products: []models.Product{priced("p1", 1, "s1")}},
	)
	ctrl := newController(t, market)

	done := make(chan State, 1)
	go func() { done <- ctrl.Refresh(context.Background()) }()
	<-market.started
	ctrl.Refresh(context.Background())
	<-market.started
	close(slow)

	state := <-done
	assert.Empty(t, state.Error)
	assert.Equal(t, []string{"p1"}, ids(state.Items))
}

func TestCartAddRemove(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: []models.Product{priced("p1", 50, "s1"), priced("p2", 20, "s2")}})
	ctrl := newController(t, market)
	ctrl.Refresh(context.Background())

	_, err := ctrl.OnCartAdd("p1")
	require.NoError(t, err)
	_, err = ctrl.OnCartAdd("p1")
	require.NoError(t, err)
	state, err := ctrl.OnCartAdd("p2")
	require.NoError(t, err)
	assert.Equal(t, 3, state.Cart.ItemCount)
	assert.True(t, state.Cart.Total.Equal(decimal.NewFromInt(120)))

	state = ctrl.OnCartRemove("p1")
	assert.Equal(t, 1, state.Cart.ItemCount)
	assert.True(t, state.Cart.Total.Equal(decimal.NewFromInt(20)))

	state = ctrl.OnCartRemove("missing")
	assert.Equal(t, 1, state.Cart.ItemCount)

	_, err = ctrl.OnCartAdd("ghost")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCheckoutThroughController(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: []models.Product{priced("p1", 50, "s1")}})
	ctrl := newController(t, market)
	ctrl.Refresh(context.Background())
	_, err := ctrl.OnCartAdd("p1")
	require.NoError(t, err)

	orders, state, err := ctrl.Checkout(context.Background(), cart.CheckoutInput{
		DeliveryAddress: "1 Main St",
		PaymentMethod:   enums.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 0, state.Cart.ItemCount)
	require.Len(t, market.orders, 1)
	assert.Equal(t, "Credit / Debit Cards", market.orders[0].PaymentMethod)
}

func TestCheckoutKeepsSessionResponsive(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: []models.Product{priced("p1", 50, "s1"), priced("p2", 20, "s2")}})
	market.orderGate = make(chan struct{})
	market.orderStarted = make(chan string, 4)
	ctrl := newController(t, market)
	ctrl.Refresh(context.Background())
	_, err := ctrl.OnCartAdd("p1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := ctrl.Checkout(context.Background(), cart.CheckoutInput{
			DeliveryAddress: "1 Main St",
			PaymentMethod:   enums.PaymentMethodUPI,
		})
		done <- err
	}()

	select {
	case id := <-market.orderStarted:
		assert.Equal(t, "p1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("order was never placed")
	}

	state, err := ctrl.OnCartAdd("p2")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Cart.ItemCount)
	_, err = ctrl.OnCartAdd("p1")
	require.NoError(t, err)
	assert.False(t, ctrl.LastActive().IsZero())

	close(market.orderGate)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("checkout did not finish")
	}

	state = ctrl.State()
	require.Len(t, state.Cart.Lines, 2)
	assert.Equal(t, "p1", state.Cart.Lines[0].ProductID)
	assert.Equal(t, 1, state.Cart.Lines[0].Quantity)
	assert.Equal(t, "p2", state.Cart.Lines[1].ProductID)
	assert.Equal(t, 2, state.Cart.ItemCount)

	market.mu.Lock()
	defer market.mu.Unlock()
	require.Len(t, market.orders, 1)
	assert.Equal(t, 1, market.orders[0].Quantity)
}

func TestSupplierNamesResolvedOncePerSession(t *testing.T) {
	market := newFakeMarketplace(fetchResult{products: []models.Product{priced("p1", 1, "s1"), priced("p2", 1, "s1")}})
	market.suppliers["s1"] = &models.Supplier{Email: "s1@farm.test"}
	ctrl := newController(t, market)

	ctrl.Refresh(context.Background())
	state := ctrl.Refresh(context.Background())

	assert.Equal(t, "s1@farm.test", state.Items[0].SupplierName)
	assert.Equal(t, 1, market.supplierCalls["s1"])
}
