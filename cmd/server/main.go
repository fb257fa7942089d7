package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/cache"
	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/pricing"
	"github.com/adiwira09/sawit-mill/internal/pricing/fetchers"
	"github.com/adiwira09/sawit-mill/internal/production"
	"github.com/adiwira09/sawit-mill/internal/repository/mongodb"
	"github.com/adiwira09/sawit-mill/internal/scheduler"
	"github.com/adiwira09/sawit-mill/internal/server/handlers"
	"github.com/adiwira09/sawit-mill/internal/server/router"
	"github.com/adiwira09/sawit-mill/internal/weighing"
	"github.com/adiwira09/sawit-mill/internal/workflow"
	"github.com/adiwira09/sawit-mill/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	prices := store.Prices()
	if err := prices.EnsureIndexes(context.Background()); err != nil {
		baseLogger.Fatal("failed to ensure price indexes", zap.Error(err))
	}

	// The price cache is an accelerator only; a missing redis degrades
	// to direct store lookups.
	var priceCache pricing.Cache
	if redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis); err != nil {
		baseLogger.Warn("redis unavailable, price cache disabled", zap.Error(err))
	} else {
		priceCache = cache.NewPriceCache(redisClient, cfg.Pricing.CacheTTL, logger.Named(baseLogger, "cache.prices"))
		defer func() { _ = redisClient.Close() }()
	}

	registry := fetchers.NewRegistry(
		fetchers.NewDisbunFetcher(cfg.Disbun, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.disbun")),
		fetchers.NewPTPNFetcher(cfg.PTPN, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.ptpn")),
		fetchers.NewAsosiasiFetcher(cfg.Asosiasi, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.asosiasi")),
		fetchers.NewCustomFetcher(cfg.CustomAPI, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.custom")),
	)

	resolver := pricing.NewResolver(prices, priceCache, registry, cfg.Pricing, logger.Named(baseLogger, "svc.pricing"))
	queueSvc := workflow.NewService(store.Queues(), store.Counters(), logger.Named(baseLogger, "svc.queue"))
	weighingEngine := weighing.NewEngine(store.Weighings(), queueSvc, resolver, store.Counters(), logger.Named(baseLogger, "svc.weighing"))
	productionSvc := production.NewService(store.Batches(), store.Stock(), store.Counters(), logger.Named(baseLogger, "svc.production"))

	engine := router.New(router.Handlers{
		Queue:      handlers.NewQueueHandler(queueSvc, logger.Named(baseLogger, "handlers.queue")),
		Weighing:   handlers.NewWeighingHandler(weighingEngine, logger.Named(baseLogger, "handlers.weighing")),
		Price:      handlers.NewPriceHandler(resolver, prices, logger.Named(baseLogger, "handlers.price")),
		Production: handlers.NewProductionHandler(productionSvc, logger.Named(baseLogger, "handlers.production")),
	}, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(*cfg, resolver, logger.Named(baseLogger, "scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
