package fetchers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// DisbunFetcher pulls the weekly FFB price set published by a regional
// plantation authority. Endpoints vary per region, so the adapter
// resolves them from a region→URL table with a configurable fallback.
type DisbunFetcher struct {
	cfg    config.DisbunConfig
	client *resty.Client
	logger *zap.Logger
}

// NewDisbunFetcher builds the regional-authority adapter.
func NewDisbunFetcher(cfg config.DisbunConfig, timeout time.Duration, logger *zap.Logger) *DisbunFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisbunFetcher{cfg: cfg, client: newHTTPClient(timeout), logger: logger}
}

// Source identifies this adapter in the closed source enumeration.
func (f *DisbunFetcher) Source() models.PriceSource {
	return models.SourceDisbun
}

// Fetch performs a single GET against the region's endpoint and
// normalizes the payload.
func (f *DisbunFetcher) Fetch(ctx context.Context, region string) (*models.PriceQuote, error) {
	url := f.cfg.RegionURLs[strings.ToLower(strings.TrimSpace(region))]
	if url == "" {
		url = f.cfg.FallbackURL
	}
	if url == "" {
		return nil, fmt.Errorf("no disbun endpoint configured for region %q", region)
	}

	raw, err := getJSON(ctx, f.client, url, nil)
	if err != nil {
		return nil, err
	}

	quote := &models.PriceQuote{
		EffectiveDate: pickDate(raw, dateFields, time.Now()),
		Prices: map[models.Classification]*float64{
			models.ClassInti:   pickNumber(raw, intiFields),
			models.ClassPlasma: pickNumber(raw, plasmaFields),
			models.ClassUmum:   pickNumber(raw, umumFields),
		},
		Source: models.SourceDisbun,
		Raw:    raw,
	}

	f.logger.Debug("disbun prices fetched",
		zap.String("region", region),
		zap.Time("effective_date", quote.EffectiveDate))

	return quote, nil
}
