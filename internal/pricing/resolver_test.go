package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/pricing/fetchers"
)

type fakePriceRepo struct {
	entries []*models.PriceEntry
}

func (f *fakePriceRepo) FindExact(_ context.Context, date time.Time, class models.Classification, grade string) (*models.PriceEntry, error) {
	for _, e := range f.entries {
		if e.EffectiveDate.Equal(date) && e.Classification == class && e.Grade == grade {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePriceRepo) FindLatestBefore(_ context.Context, date time.Time, class models.Classification) (*models.PriceEntry, error) {
	var latest *models.PriceEntry
	for _, e := range f.entries {
		if e.Classification != class || e.Grade != "" || e.EffectiveDate.After(date) {
			continue
		}
		if latest == nil || e.EffectiveDate.After(latest.EffectiveDate) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakePriceRepo) Insert(_ context.Context, entry *models.PriceEntry) error {
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakePriceRepo) Update(_ context.Context, entry *models.PriceEntry) error {
	for i, e := range f.entries {
		if e.ID == entry.ID {
			copied := *entry
			f.entries[i] = &copied
			return nil
		}
	}
	return models.ErrNotFound
}

type fakeCache struct {
	days        map[string]map[models.Classification]float64
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{days: make(map[string]map[models.Classification]float64)}
}

func (f *fakeCache) GetDay(_ context.Context, day time.Time) (map[models.Classification]float64, error) {
	return f.days[day.Format("2006-01-02")], nil
}

func (f *fakeCache) SetDay(_ context.Context, day time.Time, prices map[models.Classification]float64) error {
	f.days[day.Format("2006-01-02")] = prices
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, day time.Time) error {
	delete(f.days, day.Format("2006-01-02"))
	f.invalidated++
	return nil
}

type stubFetcher struct {
	source models.PriceSource
	quote  *models.PriceQuote
	err    error
	calls  int
}

func (s *stubFetcher) Fetch(context.Context, string) (*models.PriceQuote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func (s *stubFetcher) Source() models.PriceSource { return s.source }

var testDay = time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

func newTestResolver(repo *fakePriceRepo, cache Cache, reg SourceRegistry) *Resolver {
	r := NewResolver(repo, cache, reg, config.PricingConfig{
		SimBasePrice:   14000,
		SimYieldRatio:  0.22,
		SimProcessCost: 200,
	}, nil)
	r.now = func() time.Time { return testDay.Add(9 * time.Hour) }
	return r
}

func entry(date time.Time, class models.Classification, price float64) *models.PriceEntry {
	return &models.PriceEntry{
		ID:             string(class) + date.Format("20060102"),
		EffectiveDate:  date,
		Classification: class,
		Price:          price,
		Source:         models.SourceManual,
	}
}

func TestResolvePrefersExactDate(t *testing.T) {
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		entry(testDay.AddDate(0, 0, -3), models.ClassInti, 2400),
		entry(testDay, models.ClassInti, 2580),
	}}
	r := newTestResolver(repo, nil, nil)

	price, err := r.Resolve(context.Background(), models.ClassInti, testDay)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price == nil || *price != 2580 {
		t.Errorf("Resolve = %v, want 2580 (exact date must win over older entries)", price)
	}
}

func TestResolveFallsBackToLatestBefore(t *testing.T) {
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		entry(testDay.AddDate(0, 0, -7), models.ClassPlasma, 2450),
		entry(testDay.AddDate(0, 0, -2), models.ClassPlasma, 2500),
	}}
	r := newTestResolver(repo, nil, nil)

	price, err := r.Resolve(context.Background(), models.ClassPlasma, testDay)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price == nil || *price != 2500 {
		t.Errorf("Resolve = %v, want 2500 (latest entry at or before the date)", price)
	}
}

func TestResolveFallbackIgnoresGradedRows(t *testing.T) {
	graded := entry(testDay.AddDate(0, 0, -2), models.ClassInti, 2700)
	graded.Grade = "A"
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		graded,
		entry(testDay.AddDate(0, 0, -5), models.ClassInti, 2400),
	}}
	r := newTestResolver(repo, nil, nil)

	price, err := r.Resolve(context.Background(), models.ClassInti, testDay)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price == nil || *price != 2400 {
		t.Errorf("Resolve = %v, want 2400 (graded rows never win the fallback)", price)
	}
}

func TestResolveAbsentIsNotAnError(t *testing.T) {
	r := newTestResolver(&fakePriceRepo{}, nil, nil)

	price, err := r.Resolve(context.Background(), models.ClassUmum, testDay)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price != nil {
		t.Errorf("Resolve = %v, want nil when no price exists", *price)
	}
}

func TestResolveRejectsUnknownClassification(t *testing.T) {
	r := newTestResolver(&fakePriceRepo{}, nil, nil)

	if _, err := r.Resolve(context.Background(), "premium", testDay); !errors.Is(err, ErrInvalidClassification) {
		t.Errorf("Resolve err = %v, want ErrInvalidClassification", err)
	}
}

func TestResolveServesTodayFromCache(t *testing.T) {
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		entry(testDay, models.ClassInti, 2580),
	}}
	cache := newFakeCache()
	cache.days[testDay.Format("2006-01-02")] = map[models.Classification]float64{
		models.ClassInti: 2600,
	}
	r := newTestResolver(repo, cache, nil)

	price, err := r.Resolve(context.Background(), models.ClassInti, testDay)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price == nil || *price != 2600 {
		t.Errorf("Resolve = %v, want the cached value 2600", price)
	}
}

func TestResolvePopulatesCacheAfterLookup(t *testing.T) {
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		entry(testDay, models.ClassUmum, 2480),
	}}
	cache := newFakeCache()
	r := newTestResolver(repo, cache, nil)

	if _, err := r.Resolve(context.Background(), models.ClassUmum, testDay); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	cached := cache.days[testDay.Format("2006-01-02")]
	if cached[models.ClassUmum] != 2480 {
		t.Errorf("cache after lookup = %v, want umum=2480", cached)
	}
}

func TestCreateManualRejectsDuplicate(t *testing.T) {
	repo := &fakePriceRepo{}
	r := newTestResolver(repo, nil, nil)

	input := ManualPriceInput{
		EffectiveDate:  testDay,
		Classification: models.ClassInti,
		Grade:          "A",
		Price:          2580,
	}

	if _, err := r.CreateManual(context.Background(), input); err != nil {
		t.Fatalf("first CreateManual returned error: %v", err)
	}
	if _, err := r.CreateManual(context.Background(), input); !errors.Is(err, ErrDuplicatePrice) {
		t.Errorf("second CreateManual err = %v, want ErrDuplicatePrice", err)
	}
	if len(repo.entries) != 1 {
		t.Errorf("repo holds %d entries after duplicate submission, want 1", len(repo.entries))
	}
}

func TestCreateManualDifferentGradeIsNotDuplicate(t *testing.T) {
	r := newTestResolver(&fakePriceRepo{}, nil, nil)

	a := ManualPriceInput{EffectiveDate: testDay, Classification: models.ClassInti, Grade: "A", Price: 2580}
	b := ManualPriceInput{EffectiveDate: testDay, Classification: models.ClassInti, Grade: "B", Price: 2500}

	if _, err := r.CreateManual(context.Background(), a); err != nil {
		t.Fatalf("grade A: %v", err)
	}
	if _, err := r.CreateManual(context.Background(), b); err != nil {
		t.Errorf("grade B rejected: %v", err)
	}
}

func TestCreateManualInvalidatesCache(t *testing.T) {
	cache := newFakeCache()
	cache.days[testDay.Format("2006-01-02")] = map[models.Classification]float64{models.ClassInti: 2400}
	r := newTestResolver(&fakePriceRepo{}, cache, nil)

	_, err := r.CreateManual(context.Background(), ManualPriceInput{
		EffectiveDate:  testDay,
		Classification: models.ClassInti,
		Price:          2580,
	})
	if err != nil {
		t.Fatalf("CreateManual returned error: %v", err)
	}
	if cache.invalidated != 1 {
		t.Errorf("cache invalidations = %d, want 1", cache.invalidated)
	}
}

func TestUpdateFromOnlineUnreachableSource(t *testing.T) {
	repo := &fakePriceRepo{}
	fetcher := &stubFetcher{source: models.SourceDisbun, err: errors.New("dial tcp: connection refused")}
	r := newTestResolver(repo, nil, fetchers.NewRegistry(fetcher))

	for i := 0; i < 2; i++ {
		result, err := r.UpdateFromOnline(context.Background(), models.SourceDisbun, "jambi", false)
		if err != nil {
			t.Fatalf("UpdateFromOnline attempt %d returned error: %v", i+1, err)
		}
		if result.Success {
			t.Errorf("attempt %d: Success = true, want false for unreachable source", i+1)
		}
	}
	if len(repo.entries) != 0 {
		t.Errorf("repo holds %d entries after failed fetches, want 0", len(repo.entries))
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}
}

func onlineQuote(prices map[models.Classification]float64) *models.PriceQuote {
	quote := &models.PriceQuote{
		EffectiveDate: testDay,
		Prices:        make(map[models.Classification]*float64, len(prices)),
		Source:        models.SourceDisbun,
	}
	for class, price := range prices {
		p := price
		quote.Prices[class] = &p
	}
	return quote
}

func TestUpdateFromOnlineCreatesMissingRows(t *testing.T) {
	repo := &fakePriceRepo{}
	fetcher := &stubFetcher{source: models.SourceDisbun, quote: onlineQuote(map[models.Classification]float64{
		models.ClassInti:   2580,
		models.ClassPlasma: 2530,
		models.ClassUmum:   2480,
	})}
	r := newTestResolver(repo, nil, fetchers.NewRegistry(fetcher))

	result, err := r.UpdateFromOnline(context.Background(), models.SourceDisbun, "", false)
	if err != nil {
		t.Fatalf("UpdateFromOnline returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %s", result.Message)
	}
	if len(result.Created) != 3 || len(result.Updated) != 0 || len(result.Skipped) != 0 {
		t.Errorf("buckets = created %v, updated %v, skipped %v; want 3/0/0", result.Created, result.Updated, result.Skipped)
	}
	if len(repo.entries) != 3 {
		t.Errorf("repo holds %d entries, want 3", len(repo.entries))
	}
}

func TestUpdateFromOnlineIdenticalPricesAllSkipped(t *testing.T) {
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		entry(testDay, models.ClassInti, 2580),
		entry(testDay, models.ClassPlasma, 2530),
		entry(testDay, models.ClassUmum, 2480),
	}}
	fetcher := &stubFetcher{source: models.SourceDisbun, quote: onlineQuote(map[models.Classification]float64{
		models.ClassInti:   2580,
		models.ClassPlasma: 2530,
		models.ClassUmum:   2480,
	})}
	r := newTestResolver(repo, nil, fetchers.NewRegistry(fetcher))

	result, err := r.UpdateFromOnline(context.Background(), models.SourceDisbun, "", false)
	if err != nil {
		t.Fatalf("UpdateFromOnline returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %s", result.Message)
	}
	if len(result.Skipped) != 3 || len(result.Created) != 0 || len(result.Updated) != 0 {
		t.Errorf("buckets = created %v, updated %v, skipped %v; want 0/0/3", result.Created, result.Updated, result.Skipped)
	}
}

func TestUpdateFromOnlineChangedPriceLandsInUpdated(t *testing.T) {
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		entry(testDay, models.ClassInti, 2500),
	}}
	fetcher := &stubFetcher{source: models.SourceDisbun, quote: onlineQuote(map[models.Classification]float64{
		models.ClassInti: 2580,
	})}
	r := newTestResolver(repo, nil, fetchers.NewRegistry(fetcher))

	result, err := r.UpdateFromOnline(context.Background(), models.SourceDisbun, "", false)
	if err != nil {
		t.Fatalf("UpdateFromOnline returned error: %v", err)
	}
	if len(result.Updated) != 1 || result.Updated[0] != models.ClassInti {
		t.Fatalf("updated bucket = %v, want [inti]", result.Updated)
	}

	stored, _ := repo.FindExact(context.Background(), testDay, models.ClassInti, "")
	if stored.Price != 2580 {
		t.Errorf("stored price = %v, want 2580", stored.Price)
	}
	if stored.UpdatedBy != "online:disbun" {
		t.Errorf("provenance = %q, want online:disbun", stored.UpdatedBy)
	}
}

func TestUpdateFromOnlineForceRewritesUnchanged(t *testing.T) {
	repo := &fakePriceRepo{entries: []*models.PriceEntry{
		entry(testDay, models.ClassInti, 2580),
	}}
	fetcher := &stubFetcher{source: models.SourceDisbun, quote: onlineQuote(map[models.Classification]float64{
		models.ClassInti: 2580,
	})}
	r := newTestResolver(repo, nil, fetchers.NewRegistry(fetcher))

	result, err := r.UpdateFromOnline(context.Background(), models.SourceDisbun, "", true)
	if err != nil {
		t.Fatalf("UpdateFromOnline returned error: %v", err)
	}
	if len(result.Updated) != 1 || len(result.Skipped) != 0 {
		t.Errorf("buckets with force = updated %v, skipped %v; want 1/0", result.Updated, result.Skipped)
	}
}

func TestUpdateFromOnlineSimulateSource(t *testing.T) {
	repo := &fakePriceRepo{}
	r := newTestResolver(repo, nil, nil)

	result, err := r.UpdateFromOnline(context.Background(), models.SourceSimulate, "", false)
	if err != nil {
		t.Fatalf("UpdateFromOnline returned error: %v", err)
	}
	if !result.Success || len(result.Created) != 3 {
		t.Fatalf("simulate update: success=%v created=%v", result.Success, result.Created)
	}

	stored, _ := repo.FindExact(context.Background(), testDay, models.ClassUmum, "")
	if stored == nil || stored.Price != 2480 {
		t.Errorf("simulated umum price = %+v, want 2480", stored)
	}
}

func TestUpdateFromOnlineInvalidatesCache(t *testing.T) {
	cache := newFakeCache()
	fetcher := &stubFetcher{source: models.SourceDisbun, quote: onlineQuote(map[models.Classification]float64{
		models.ClassInti: 2580,
	})}
	r := newTestResolver(&fakePriceRepo{}, cache, fetchers.NewRegistry(fetcher))

	if _, err := r.UpdateFromOnline(context.Background(), models.SourceDisbun, "", false); err != nil {
		t.Fatalf("UpdateFromOnline returned error: %v", err)
	}
	if cache.invalidated != 1 {
		t.Errorf("cache invalidations = %d, want 1", cache.invalidated)
	}
}
