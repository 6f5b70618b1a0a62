// Package suppliers resolves supplier identifiers to display names for catalog listings.
package suppliers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/metrics"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Lookup fetches a single supplier record.
type Lookup interface {
	GetSupplier(ctx context.Context, supplierID string) (*models.Supplier, error)
}

// ResolverParams configure a Resolver.
type ResolverParams struct {
	Lookup  Lookup
	Logger  *logger.Logger
	Metrics *metrics.DiscoveryMetrics
	// Concurrency caps simultaneous lookups per batch; zero or less means unbounded.
	Concurrency int
}

// Resolver caches supplier display names for one browsing session. Entries are
// written once per id and never evicted. A failed lookup caches the id itself.
type Resolver struct {
	lookup      Lookup
	logg        *logger.Logger
	metrics     *metrics.DiscoveryMetrics
	concurrency int

	mu       sync.Mutex
	names    map[string]string
	inflight map[string]chan struct{}
}

// NewResolver builds a resolver around the provided lookup.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Lookup == nil {
		return nil, fmt.Errorf("supplier lookup required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{
		lookup:      params.Lookup,
		logg:        logg,
		metrics:     params.Metrics,
		concurrency: params.Concurrency,
		names:       make(map[string]string),
		inflight:    make(map[string]chan struct{}),
	}, nil
}

// Resolve makes sure every id has a cached display name and returns the names for ids.
// Only ids that are neither cached nor already being looked up by another call are
// fetched; the call then waits for those other lookups too. Resolve never fails: an id
// whose lookup fails resolves to itself.
func (r *Resolver) Resolve(ctx context.Context, ids []string) map[string]string {
	if ctx == nil {
		ctx = context.Background()
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[string]string{}
	}

	pending, waits, done := r.claim(ids)
	if len(pending) > 0 {
		// Lookups outlive the caller so a dropped request never caches a fallback.
		resolved := r.lookupBatch(context.WithoutCancel(ctx), pending)
		r.publish(resolved, done)
	}

	for _, ch := range waits {
		select {
		case <-ch:
		case <-ctx.Done():
			r.logg.Warn(ctx, "stopped waiting for in-flight supplier lookups")
			return r.snapshot(ids)
		}
	}
	return r.snapshot(ids)
}

// claim marks the uncached, idle ids as in flight under a shared completion channel
// and collects the channels of lookups already started by other calls.
func (r *Resolver) claim(ids []string) ([]string, []chan struct{}, chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []string
	var waits []chan struct{}
	seen := make(map[chan struct{}]struct{})
	for _, id := range ids {
		if _, ok := r.names[id]; ok {
			continue
		}
		if ch, ok := r.inflight[id]; ok {
			if _, dup := seen[ch]; !dup {
				seen[ch] = struct{}{}
				waits = append(waits, ch)
			}
			continue
		}
		pending = append(pending, id)
	}
	if len(pending) == 0 {
		return nil, waits, nil
	}
	done := make(chan struct{})
	for _, id := range pending {
		r.inflight[id] = done
	}
	return pending, waits, done
}

func (r *Resolver) lookupBatch(ctx context.Context, ids []string) map[string]string {
	names := make([]string, len(ids))
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			names[i] = r.lookupOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]string, len(ids))
	for i, id := range ids {
		out[id] = names[i]
	}
	return out
}

func (r *Resolver) lookupOne(ctx context.Context, id string) string {
	supplier, err := r.lookup.GetSupplier(ctx, id)
	if err != nil || supplier == nil {
		lctx := r.logg.WithField(ctx, "supplier_id", id)
		if err != nil {
			lctx = r.logg.WithField(lctx, "error", err.Error())
		}
		r.logg.Warn(lctx, "supplier lookup failed, showing raw id")
		r.metrics.IncLookup(metrics.LookupFallback)
		return id
	}
	r.metrics.IncLookup(metrics.LookupSuccess)
	return supplier.DisplayName(id)
}

// publish merges one finished batch into the cache in a single update.
func (r *Resolver) publish(resolved map[string]string, done chan struct{}) {
	r.mu.Lock()
	for id, name := range resolved {
		if _, ok := r.names[id]; !ok {
			r.names[id] = name
		}
		delete(r.inflight, id)
	}
	r.mu.Unlock()
	close(done)
}

func (r *Resolver) snapshot(ids []string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := r.names[id]; ok {
			out[id] = name
		}
	}
	return out
}

// Name returns the cached display name for id.
func (r *Resolver) Name(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[id]
	return name, ok
}

// Names returns a copy of the whole cache.
func (r *Resolver) Names() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.names))
	for id, name := range r.names {
		out[id] = name
	}
	return out
}

func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
