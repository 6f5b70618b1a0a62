package discovery

import (
	"fmt"

	"github.com/angelmondragon/packfinderz-discovery/internal/suppliers"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/marketplace"
	"github.com/angelmondragon/packfinderz-discovery/pkg/metrics"
)

// FactoryParams configure MarketplaceFactory.
type FactoryParams struct {
	Client *marketplace.Client
	// Names is an optional cross-session supplier name store.
	Names             suppliers.NameStore
	Logger            *logger.Logger
	Metrics           *metrics.DiscoveryMetrics
	LookupConcurrency int
}

// MarketplaceFactory builds session controllers backed by the marketplace API.
// Each session gets its own client copy carrying only the session's token; a
// session opened without one talks to the marketplace anonymously.
func MarketplaceFactory(params FactoryParams) Factory {
	return func(opts SessionOptions) (*Controller, error) {
		client := params.Client
		if client == nil {
			return nil, fmt.Errorf("marketplace client required")
		}
		client = client.WithToken(opts.AuthToken)

		resolver, err := suppliers.NewResolver(suppliers.ResolverParams{
			Lookup:      suppliers.NewCachedLookup(client, params.Names, params.Logger, params.Metrics),
			Logger:      params.Logger,
			Metrics:     params.Metrics,
			Concurrency: params.LookupConcurrency,
		})
		if err != nil {
			return nil, err
		}

		return NewController(Params{
			Catalog:  client,
			Resolver: resolver,
			Locator:  client,
			Orders:   client,
			Logger:   params.Logger,
			Metrics:  params.Metrics,
		})
	}
}
