package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-discovery/api/controllers"
	"github.com/angelmondragon/packfinderz-discovery/api/middleware"
	"github.com/angelmondragon/packfinderz-discovery/pkg/config"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
)

// Sessions is the registry surface the router wires into handlers.
type Sessions interface {
	controllers.SessionStore
	middleware.SessionLoader
}

// Deps bundles what the router needs from cmd/api.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions Sessions
	// Ready lists the dependencies checked by /health/ready.
	Ready    map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", controllers.SessionCreate(deps.Sessions, logg))

		r.Route("/{"+middleware.SessionParam+"}", func(r chi.Router) {
			r.Use(middleware.Session(deps.Sessions, logg))

			r.Get("/", controllers.SessionState(logg))
			r.Delete("/", controllers.SessionDelete(deps.Sessions, logg))
			r.Post("/load", controllers.DiscoveryLoad(logg))
			r.Post("/refresh", controllers.DiscoveryRefresh(logg))
			r.Put("/location", controllers.DiscoveryLocation(logg))
			r.Put("/search", controllers.DiscoverySearch(logg))
			r.Put("/sort", controllers.DiscoverySort(logg))
			r.Put("/filters", controllers.DiscoveryFilters(logg))
			r.Post("/cart/items", controllers.CartAdd(logg))
			r.Delete("/cart/items/{productId}", controllers.CartRemove(logg))
			r.Post("/checkout", controllers.Checkout(logg))
		})
	})

	return r
}
