package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/pricing"
	"github.com/adiwira09/sawit-mill/internal/pricing/fetchers"
	"github.com/adiwira09/sawit-mill/internal/repository/mongodb"
	"github.com/adiwira09/sawit-mill/pkg/logger"
)

func main() {
	var (
		sourceFlag = flag.String("source", "", "price source (disbun, ptpn, asosiasi, custom, simulate); defaults to PRICE_SOURCE")
		regionFlag = flag.String("region", "", "region code for regional sources; defaults to PRICE_REGION")
		saveFlag   = flag.Bool("save", false, "store the fetched prices instead of printing them")
		forceFlag  = flag.Bool("force", false, "overwrite unchanged stored prices")
	)
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	source := models.PriceSource(*sourceFlag)
	if source == "" {
		source = models.PriceSource(cfg.Pricing.DefaultSource)
	}
	region := *regionFlag
	if region == "" {
		region = cfg.Pricing.DefaultRegion
	}

	if !source.Valid() || source == models.SourceManual {
		fmt.Fprintln(os.Stderr, "unsupported source:", source)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	registry := fetchers.NewRegistry(
		fetchers.NewDisbunFetcher(cfg.Disbun, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.disbun")),
		fetchers.NewPTPNFetcher(cfg.PTPN, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.ptpn")),
		fetchers.NewAsosiasiFetcher(cfg.Asosiasi, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.asosiasi")),
		fetchers.NewCustomFetcher(cfg.CustomAPI, cfg.Pricing.FetchTimeout, logger.Named(baseLogger, "fetcher.custom")),
	)

	if !*saveFlag {
		fetchAndPrint(ctx, registry, source, region, cfg.Pricing)
		return
	}

	store, err := mongodb.NewStore(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	prices := store.Prices()
	if err := prices.EnsureIndexes(ctx); err != nil {
		baseLogger.Fatal("failed to ensure price indexes", zap.Error(err))
	}

	resolver := pricing.NewResolver(prices, nil, registry, cfg.Pricing, logger.Named(baseLogger, "svc.pricing"))

	result, err := resolver.UpdateFromOnline(ctx, source, region, *forceFlag)
	if err != nil {
		baseLogger.Fatal("price update failed", zap.Error(err))
	}

	printJSON(result)
	if !result.Success {
		os.Exit(1)
	}
}

func fetchAndPrint(ctx context.Context, registry *fetchers.Registry, source models.PriceSource, region string, cfg config.PricingConfig) {
	var quote *models.PriceQuote

	if source == models.SourceSimulate {
		quote = &models.PriceQuote{
			EffectiveDate: time.Now().UTC().Truncate(24 * time.Hour),
			Prices:        map[models.Classification]*float64{},
			Source:        models.SourceSimulate,
		}
		for class, price := range pricing.Simulate(cfg.SimBasePrice, cfg.SimYieldRatio, cfg.SimProcessCost) {
			p := price
			quote.Prices[class] = &p
		}
	} else {
		fetcher := registry.Lookup(source)
		if fetcher == nil {
			fmt.Fprintln(os.Stderr, "unknown source:", source)
			os.Exit(1)
		}

		var err error
		quote, err = fetcher.Fetch(ctx, region)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fetch failed:", err)
			os.Exit(1)
		}
	}

	printJSON(quote)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
