package suppliers

import (
	"context"

	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/metrics"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

// NameStore is the shared store behind CachedLookup; pkg/redis.Client satisfies it.
type NameStore interface {
	GetSupplierName(ctx context.Context, supplierID string) (string, bool, error)
	PutSupplierName(ctx context.Context, supplierID, name string) error
}

// CachedLookup answers supplier lookups from a shared name store before
// falling through to the marketplace. Store errors never fail a lookup.
type CachedLookup struct {
	next    Lookup
	store   NameStore
	logg    *logger.Logger
	metrics *metrics.DiscoveryMetrics
}

// NewCachedLookup wraps next with store. A nil store returns next unchanged.
func NewCachedLookup(next Lookup, store NameStore, logg *logger.Logger, m *metrics.DiscoveryMetrics) Lookup {
	if store == nil {
		return next
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedLookup{next: next, store: store, logg: logg, metrics: m}
}

func (c *CachedLookup) GetSupplier(ctx context.Context, supplierID string) (*models.Supplier, error) {
	lctx := c.logg.WithField(ctx, "supplier_id", supplierID)

	name, ok, err := c.store.GetSupplierName(ctx, supplierID)
	switch {
	case err != nil:
		c.logg.Warn(c.logg.WithField(lctx, "error", err.Error()), "supplier name store read failed")
	case ok && name != "":
		c.metrics.IncLookup(metrics.LookupCacheHit)
		return &models.Supplier{ID: models.FlexString(supplierID), Name: name}, nil
	}

	supplier, err := c.next.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, nil
	}
	// Only real names are shared; the id fallback stays per session.
	if display := supplier.DisplayName(""); display != "" {
		if err := c.store.PutSupplierName(ctx, supplierID, display); err != nil {
			c.logg.Warn(c.logg.WithField(lctx, "error", err.Error()), "supplier name store write failed")
		}
	}
	return supplier, nil
}
