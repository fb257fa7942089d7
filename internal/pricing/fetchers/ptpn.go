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

// PTPNFetcher pulls the reference price set published by the
// state-enterprise plantation board. One national endpoint, no regions.
type PTPNFetcher struct {
	cfg    config.PTPNConfig
	client *resty.Client
	logger *zap.Logger
}

// NewPTPNFetcher builds the state-enterprise adapter.
func NewPTPNFetcher(cfg config.PTPNConfig, timeout time.Duration, logger *zap.Logger) *PTPNFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PTPNFetcher{cfg: cfg, client: newHTTPClient(timeout), logger: logger}
}

// Source identifies this adapter in the closed source enumeration.
func (f *PTPNFetcher) Source() models.PriceSource {
	return models.SourcePTPN
}

// Fetch performs a single GET against the board endpoint and normalizes
// the payload. The region argument is ignored.
func (f *PTPNFetcher) Fetch(ctx context.Context, _ string) (*models.PriceQuote, error) {
	if f.cfg.URL == "" {
		return nil, errors.New("no ptpn endpoint configured")
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
		Source: models.SourcePTPN,
		Raw:    raw,
	}

	f.logger.Debug("ptpn prices fetched", zap.Time("effective_date", quote.EffectiveDate))

	return quote, nil
}
