package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/packfinderz-discovery/api"
	"github.com/angelmondragon/packfinderz-discovery/api/controllers"
	"github.com/angelmondragon/packfinderz-discovery/api/routes"
	"github.com/angelmondragon/packfinderz-discovery/internal/discovery"
	"github.com/angelmondragon/packfinderz-discovery/internal/suppliers"
	"github.com/angelmondragon/packfinderz-discovery/pkg/config"
	"github.com/angelmondragon/packfinderz-discovery/pkg/instance"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/marketplace"
	"github.com/angelmondragon/packfinderz-discovery/pkg/metrics"
	"github.com/angelmondragon/packfinderz-discovery/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "discovery-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "discovery-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	discoveryMetrics := metrics.NewDiscoveryMetrics(registry)

	ready := map[string]controllers.Pinger{"redis": nil}
	var (
		names   suppliers.NameStore
		closers []io.Closer
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		ready["redis"] = redisClient
		names = redisClient
		closers = append(closers, redisClient)
	} else {
		logg.Info(context.Background(), "redis disabled, supplier names cached per session only")
	}

	marketplaceClient, err := marketplace.NewClient(cfg.Marketplace.BaseURL,
		marketplace.WithTimeout(cfg.Marketplace.Timeout),
		marketplace.WithPageSize(cfg.Marketplace.PageSize),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create marketplace client", err)
		os.Exit(1)
	}

	sessions, err := discovery.NewRegistry(discovery.RegistryParams{
		Factory: discovery.MarketplaceFactory(discovery.FactoryParams{
			Client:            marketplaceClient,
			Names:             names,
			Logger:            logg,
			Metrics:           discoveryMetrics,
			LookupConcurrency: cfg.Marketplace.LookupConcurrency,
		}),
		Logger:        logg,
		Metrics:       discoveryMetrics,
		IdleTTL:       cfg.Sessions.IdleTTL,
		SweepInterval: cfg.Sessions.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session registry", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server, err := api.NewServer(api.ServerParams{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Sessions: sessions,
			Ready:    ready,
			Gatherer: registry,
		}),
		Logger:     logg,
		Background: []api.Runner{sessions},
		Closers:    closers,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create api server", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"instance":    instance.GetID(),
		"marketplace": cfg.Marketplace.BaseURL,
	})
	logg.Info(ctx, "starting discovery api")

	if err := server.Run(ctx); err != nil {
		logg.Error(ctx, "discovery api stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "discovery api shutting down gracefully")
}
