// Package pricing resolves the unit price charged per transaction from
// a layered lookup: a short-lived cache, the persisted price table, and
// an online-update path fed by the external source adapters.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/pricing/fetchers"
)

// ErrDuplicatePrice indicates a price entry already exists for the same
// (effective date, classification, grade) tuple.
var ErrDuplicatePrice = errors.New("price entry already exists for this date, classification and grade")

// ErrInvalidClassification indicates an unknown supplier classification.
var ErrInvalidClassification = errors.New("unknown supplier classification")

// PriceRepository is the persisted lookup behind the resolver. Absence
// is reported as (nil, nil), never as an error.
type PriceRepository interface {
	FindExact(ctx context.Context, date time.Time, class models.Classification, grade string) (*models.PriceEntry, error)
	FindLatestBefore(ctx context.Context, date time.Time, class models.Classification) (*models.PriceEntry, error)
	Insert(ctx context.Context, entry *models.PriceEntry) error
	Update(ctx context.Context, entry *models.PriceEntry) error
}

// Cache is the short-lived layer consulted before the repository.
type Cache interface {
	GetDay(ctx context.Context, day time.Time) (map[models.Classification]float64, error)
	SetDay(ctx context.Context, day time.Time, prices map[models.Classification]float64) error
	Invalidate(ctx context.Context, day time.Time) error
}

// SourceRegistry looks up the online adapter for a price source.
type SourceRegistry interface {
	Lookup(source models.PriceSource) fetchers.Fetcher
}

// ManualPriceInput carries one operator-entered price row.
type ManualPriceInput struct {
	EffectiveDate  time.Time
	Classification models.Classification
	Grade          string
	Price          float64
	EnteredBy      string
}

// Resolver implements the layered price lookup. Lookup precedence is
// fixed: cache (today only), exact effective-date match, latest entry at
// or before the date. "No price" is a valid resolution outcome.
type Resolver struct {
	repo    PriceRepository
	cache   Cache
	sources SourceRegistry
	cfg     config.PricingConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewResolver constructs the resolver. cache and sources may be nil in
// reduced deployments; both layers degrade to a plain repository lookup.
func NewResolver(repo PriceRepository, cache Cache, sources SourceRegistry, cfg config.PricingConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		repo:    repo,
		cache:   cache,
		sources: sources,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve returns the applicable unit price for the classification on
// the given date, or nil when no price is available. Callers must treat
// nil as a recoverable condition.
func (r *Resolver) Resolve(ctx context.Context, class models.Classification, date time.Time) (*float64, error) {
	if !class.Valid() {
		return nil, ErrInvalidClassification
	}

	day := dayOf(date)
	today := dayOf(r.now())
	cacheable := r.cache != nil && day.Equal(today)

	if cacheable {
		cached, _ := r.cache.GetDay(ctx, day)
		if price, ok := cached[class]; ok {
			return &price, nil
		}
	}

	entry, err := r.repo.FindExact(ctx, day, class, "")
	if err != nil {
		return nil, fmt.Errorf("price lookup: %w", err)
	}
	if entry == nil {
		entry, err = r.repo.FindLatestBefore(ctx, day, class)
		if err != nil {
			return nil, fmt.Errorf("price lookup: %w", err)
		}
	}
	if entry == nil {
		return nil, nil
	}

	if cacheable {
		cached, _ := r.cache.GetDay(ctx, day)
		if cached == nil {
			cached = make(map[models.Classification]float64, 1)
		}
		cached[class] = entry.Price
		if err := r.cache.SetDay(ctx, day, cached); err != nil {
			r.logger.Warn("price cache write failed", zap.Error(err))
		}
	}

	price := entry.Price
	return &price, nil
}

// CreateManual inserts an operator-entered price row, rejecting
// duplicates for the same (date, classification, grade) tuple. The
// cache is invalidated before success is reported.
func (r *Resolver) CreateManual(ctx context.Context, input ManualPriceInput) (*models.PriceEntry, error) {
	if !input.Classification.Valid() {
		return nil, ErrInvalidClassification
	}

	day := dayOf(input.EffectiveDate)

	existing, err := r.repo.FindExact(ctx, day, input.Classification, input.Grade)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicatePrice
	}

	entry := &models.PriceEntry{
		ID:             uuid.NewString(),
		EffectiveDate:  day,
		Classification: input.Classification,
		Grade:          input.Grade,
		Price:          input.Price,
		Source:         models.SourceManual,
		UpdatedBy:      input.EnteredBy,
		CreatedAt:      r.now(),
		UpdatedAt:      r.now(),
	}

	if err := r.repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert price: %w", err)
	}

	r.invalidate(ctx, day)
	return entry, nil
}

// UpdateFromOnline pulls the current price set from the given source and
// upserts it. Per classification the outcome lands in exactly one of the
// created/updated/skipped buckets; force moves unchanged rows into
// updated. Fetch failures are absorbed: the result carries
// Success=false and the error detail stays in the logs.
func (r *Resolver) UpdateFromOnline(ctx context.Context, source models.PriceSource, region string, force bool) (*models.UpdateResult, error) {
	result := &models.UpdateResult{
		Created: []models.Classification{},
		Updated: []models.Classification{},
		Skipped: []models.Classification{},
	}

	quote, ok := r.obtainQuote(ctx, source, region)
	if !ok {
		result.Message = fmt.Sprintf("no price data available from source %q", source)
		return result, nil
	}

	day := dayOf(quote.EffectiveDate)
	for _, class := range models.AllClassifications {
		price := quote.Prices[class]
		if price == nil {
			continue
		}

		existing, err := r.repo.FindExact(ctx, day, class, "")
		if err != nil {
			return nil, fmt.Errorf("online upsert lookup: %w", err)
		}

		switch {
		case existing == nil:
			entry := &models.PriceEntry{
				ID:             uuid.NewString(),
				EffectiveDate:  day,
				Classification: class,
				Price:          *price,
				Source:         quote.Source,
				UpdatedBy:      provenance(source),
				CreatedAt:      r.now(),
				UpdatedAt:      r.now(),
			}
			if err := r.repo.Insert(ctx, entry); err != nil {
				return nil, fmt.Errorf("online insert: %w", err)
			}
			result.Created = append(result.Created, class)
		case existing.Price != *price || force:
			existing.Price = *price
			existing.Source = quote.Source
			existing.UpdatedBy = provenance(source)
			existing.UpdatedAt = r.now()
			if err := r.repo.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("online update: %w", err)
			}
			result.Updated = append(result.Updated, class)
		default:
			result.Skipped = append(result.Skipped, class)
		}
	}

	processed := len(result.Created) + len(result.Updated) + len(result.Skipped)
	if processed == 0 {
		result.Message = fmt.Sprintf("source %q returned no usable prices", source)
		return result, nil
	}

	r.invalidate(ctx, day)

	result.Success = true
	result.Message = fmt.Sprintf("prices for %s: %d created, %d updated, %d unchanged",
		day.Format("2006-01-02"), len(result.Created), len(result.Updated), len(result.Skipped))

	r.logger.Info("online price update applied",
		zap.String("source", string(source)),
		zap.String("region", region),
		zap.Time("effective_date", day),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

func (r *Resolver) obtainQuote(ctx context.Context, source models.PriceSource, region string) (*models.PriceQuote, bool) {
	if source == models.SourceSimulate {
		prices := Simulate(r.cfg.SimBasePrice, r.cfg.SimYieldRatio, r.cfg.SimProcessCost)
		quote := &models.PriceQuote{
			EffectiveDate: dayOf(r.now()),
			Prices:        make(map[models.Classification]*float64, len(prices)),
			Source:        models.SourceSimulate,
		}
		for class, price := range prices {
			p := price
			quote.Prices[class] = &p
		}
		return quote, true
	}

	if r.sources == nil {
		r.logger.Warn("no source registry configured", zap.String("source", string(source)))
		return nil, false
	}

	fetcher := r.sources.Lookup(source)
	if fetcher == nil {
		r.logger.Warn("price source has no online adapter", zap.String("source", string(source)))
		return nil, false
	}

	quote, err := fetcher.Fetch(ctx, region)
	if err != nil {
		r.logger.Warn("price fetch failed",
			zap.String("source", string(source)),
			zap.String("region", region),
			zap.Error(err))
		return nil, false
	}

	return quote, true
}

func (r *Resolver) invalidate(ctx context.Context, day time.Time) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, day); err != nil {
		r.logger.Warn("price cache invalidation failed", zap.Error(err))
	}
}

func provenance(source models.PriceSource) string {
	return fmt.Sprintf("online:%s", source)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
