package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wisphive/fleetd/internal/adoption"
	"github.com/wisphive/fleetd/internal/cache"
	"github.com/wisphive/fleetd/internal/config"
	"github.com/wisphive/fleetd/internal/event"
	"github.com/wisphive/fleetd/internal/jobs"
	"github.com/wisphive/fleetd/internal/registry"
	"github.com/wisphive/fleetd/internal/store"
	"github.com/wisphive/fleetd/internal/templates"
	"github.com/wisphive/fleetd/internal/vpn"
	"github.com/wisphive/fleetd/pkg/plugin"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Load configuration (before logger, so log level/format can be configured).
	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Module sections inherit the shared job tunables unless overridden.
	v.SetDefault("templates.status_timeout", v.GetDuration("jobs.template_status_timeout"))
	v.SetDefault("vpn.dhparam_timeout", v.GetDuration("jobs.dhparam_timeout"))
	v.SetDefault("vpn.debug", v.GetBool("debug"))

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("fleetd starting")
	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	db, err := store.New(v.GetString("store.path"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", v.GetString("store.path")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis when configured; in-process cache otherwise. Single-node
	// deployments do not need a cache server to function.
	var cacheBackend plugin.Cache
	var redisCache *cache.Redis
	if addr := v.GetString("cache.redis_addr"); addr != "" {
		redisCache, err = cache.NewRedis(ctx, addr,
			v.GetString("cache.redis_password"), v.GetInt("cache.redis_db"))
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cacheBackend = redisCache
		logger.Info("redis cache connected", zap.String("addr", addr))
	} else {
		cacheBackend = cache.NewMemory()
		logger.Warn("no redis address configured, using in-process cache")
	}

	bus := event.NewBus(logger.Named("event"))

	pool := jobs.NewPool(logger.Named("jobs"), v.GetInt("jobs.max_concurrent"))
	if err := pool.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("failed to register job metrics", zap.Error(err))
	}

	cfg := config.New(v)
	reg := registry.New(logger.Named("registry"))
	modules := []plugin.Module{
		adoption.NewModule(),
		templates.NewModule(),
		vpn.NewModule(),
		cache.NewModule(),
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register module", zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		logger.Fatal("module validation failed", zap.Error(err))
	}

	err = reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config: cfg.Sub(name),
			Logger: logger.Named(name),
			Bus:    bus,
			Jobs:   pool,
			Store:  db,
			Cache:  cacheBackend,
		}
	})
	if err != nil {
		logger.Fatal("failed to initialize modules", zap.Error(err))
	}

	reg.WireSubscriptions(bus)

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start modules", zap.Error(err))
	}
	logger.Info("fleetd ready", zap.Int("modules", len(modules)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	reg.StopAll(shutdownCtx)
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("job pool did not drain before deadline", zap.Error(err))
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Warn("failed to close redis connection", zap.Error(err))
		}
	}
	logger.Info("fleetd stopped")
}
