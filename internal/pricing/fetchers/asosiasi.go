package fetchers

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// AsosiasiFetcher pulls the indicative price set published by the palm
// oil industry association.
type AsosiasiFetcher struct {
	cfg    config.AsosiasiConfig
	client *resty.Client
	logger *zap.Logger
}

// NewAsosiasiFetcher builds the industry-association adapter.
func NewAsosiasiFetcher(cfg config.AsosiasiConfig, timeout time.Duration, logger *zap.Logger) *AsosiasiFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsosiasiFetcher{cfg: cfg, client: newHTTPClient(timeout), logger: logger}
}

// Source identifies this adapter in the closed source enumeration.
func (f *AsosiasiFetcher) Source() models.PriceSource {
	return models.SourceAsosiasi
}

// Fetch performs a single GET against the association endpoint and
// normalizes the payload. The region argument is ignored.
func (f *AsosiasiFetcher) Fetch(ctx context.Context, _ string) (*models.PriceQuote, error) {
	if f.cfg.URL == "" {
		return nil, errors.New("no asosiasi endpoint configured")
	}

	raw, err := getJSON(ctx, f.client, f.cfg.URL, nil)
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
		Source: models.SourceAsosiasi,
		Raw:    raw,
	}

	f.logger.Debug("asosiasi prices fetched", zap.Time("effective_date", quote.EffectiveDate))

	return quote, nil
}
