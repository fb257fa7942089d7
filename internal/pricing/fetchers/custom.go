package fetchers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// defaultFieldMap names the payload keys a generic internal price API is
// expected to publish. Each entry can be overridden per deployment via
// the configured field map.
var defaultFieldMap = map[string]string{
	"date":   "effective_date",
	"inti":   "price_inti",
	"plasma": "price_plasma",
	"umum":   "price_umum",
}

// CustomFetcher integrates an arbitrary keyed HTTP price API: a single
// GET with an optional bearer credential, and a configurable field-name
// mapping for deployments whose payload keys differ from the defaults.
type CustomFetcher struct {
	cfg    config.CustomAPIConfig
	client *resty.Client
	logger *zap.Logger
}

// NewCustomFetcher builds the keyed-API adapter.
func NewCustomFetcher(cfg config.CustomAPIConfig, timeout time.Duration, logger *zap.Logger) *CustomFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomFetcher{cfg: cfg, client: newHTTPClient(timeout), logger: logger}
}

// Source identifies this adapter in the closed source enumeration.
func (f *CustomFetcher) Source() models.PriceSource {
	return models.SourceCustom
}

// Fetch performs a single GET against the configured endpoint and maps
// the payload through the field-name table. The region argument is
// ignored.
func (f *CustomFetcher) Fetch(ctx context.Context, _ string) (*models.PriceQuote, error) {
	if f.cfg.URL == "" {
		return nil, errors.New("no custom api endpoint configured")
	}

	var headers map[string]string
	if f.cfg.APIKey != "" {
		headers = map[string]string{"Authorization": fmt.Sprintf("Bearer %s", f.cfg.APIKey)}
	}

	raw, err := getJSON(ctx, f.client, f.cfg.URL, headers)
	if err != nil {
		return nil, err
	}

	quote := &models.PriceQuote{
		EffectiveDate: pickDate(raw, []string{f.field("date")}, time.Now()),
		Prices: map[models.Classification]*float64{
			models.ClassInti:   pickNumber(raw, []string{f.field("inti")}),
			models.ClassPlasma: pickNumber(raw, []string{f.field("plasma")}),
			models.ClassUmum:   pickNumber(raw, []string{f.field("umum")}),
		},
		Source: models.SourceCustom,
		Raw:    raw,
	}

	f.logger.Debug("custom api prices fetched", zap.Time("effective_date", quote.EffectiveDate))

	return quote, nil
}

func (f *CustomFetcher) field(name string) string {
	if v, ok := f.cfg.FieldMap[name]; ok && v != "" {
		return v
	}
	return defaultFieldMap[name]
}
