// Package production tracks mill batches from netto intake to typed
// outputs, derives extraction rates, and writes the stock ledger entries
// a completed batch produces.
package production

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// ErrInvalidTransition indicates the batch is not in the state the
// operation requires.
var ErrInvalidTransition = errors.New("illegal batch status transition")

// ErrInvalidInput indicates a missing or out-of-range batch field.
var ErrInvalidInput = errors.New("invalid production input")

// stockedOutputs are the product families that carry a stock ledger.
// Empty bunches are returned to the plantation as mulch and are not
// stocked.
var stockedOutputs = map[models.ProductType]bool{
	models.ProductCPO:    true,
	models.ProductKernel: true,
	models.ProductShell:  true,
}

// BatchRepository persists production batches. Replace is conditional on
// the expected current status.
type BatchRepository interface {
	Insert(ctx context.Context, batch *models.ProductionBatch) error
	FindByID(ctx context.Context, id string) (*models.ProductionBatch, error)
	List(ctx context.Context, status models.BatchStatus) ([]models.ProductionBatch, error)
	Replace(ctx context.Context, batch *models.ProductionBatch, expected models.BatchStatus) error
}

// StockRepository is the append-only movement ledger.
type StockRepository interface {
	Insert(ctx context.Context, movement *models.StockMovement) error
	List(ctx context.Context, productType models.ProductType) ([]models.StockMovement, error)
}

// CounterRepository hands out the daily batch sequence atomically.
type CounterRepository interface {
	NextSequence(ctx context.Context, scope string, day time.Time) (int, error)
}

// Service runs the production workflow.
type Service struct {
	batches  BatchRepository
	stock    StockRepository
	counters CounterRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs the production service.
func NewService(batches BatchRepository, stock StockRepository, counters CounterRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		batches:  batches,
		stock:    stock,
		counters: counters,
		logger:   logger,
		now:      time.Now,
	}
}

// StartBatch opens a batch consuming the given netto input weight.
func (s *Service) StartBatch(ctx context.Context, inputNetto float64, weighingIDs []string) (*models.ProductionBatch, error) {
	if inputNetto <= 0 {
		return nil, fmt.Errorf("%w: input netto %v", ErrInvalidInput, inputNetto)
	}

	nowt := s.now()
	seq, err := s.counters.NextSequence(ctx, "batch", nowt)
	if err != nil {
		return nil, fmt.Errorf("batch sequence: %w", err)
	}

	batch := &models.ProductionBatch{
		ID:          uuid.NewString(),
		BatchNumber: fmt.Sprintf("%04d/PB/%02d", seq, nowt.Year()%100),
		WeighingIDs: weighingIDs,
		InputNetto:  inputNetto,
		Status:      models.BatchProcessing,
		CreatedAt:   nowt,
		UpdatedAt:   nowt,
	}

	if err := s.batches.Insert(ctx, batch); err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	s.logger.Info("production batch started",
		zap.String("id", batch.ID),
		zap.String("batch_number", batch.BatchNumber),
		zap.Float64("input_netto", inputNetto))

	return batch, nil
}

// RecordOutputs registers the typed output weights and moves the batch
// to quality check.
func (s *Service) RecordOutputs(ctx context.Context, id string, outputs []models.BatchOutput) (*models.ProductionBatch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchProcessing {
		return nil, fmt.Errorf("%w: outputs require status processing, have %s", ErrInvalidTransition, batch.Status)
	}

	for _, out := range outputs {
		if out.Weight < 0 {
			return nil, fmt.Errorf("%w: %s weight %v", ErrInvalidInput, out.ProductType, out.Weight)
		}
		switch out.ProductType {
		case models.ProductCPO, models.ProductKernel, models.ProductShell, models.ProductEmptyBunch:
		default:
			return nil, fmt.Errorf("%w: unknown output product %q", ErrInvalidInput, out.ProductType)
		}
	}

	batch.Outputs = outputs
	batch.Status = models.BatchQualityCheck
	batch.UpdatedAt = s.now()

	if err := s.batches.Replace(ctx, batch, models.BatchProcessing); err != nil {
		return nil, err
	}

	return batch, nil
}

// CompleteBatch closes the batch: extraction rates are derived and one
// incoming stock movement per stocked product family is written, linked
// back to the batch.
func (s *Service) CompleteBatch(ctx context.Context, id string) (*models.ProductionBatch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchQualityCheck {
		return nil, fmt.Errorf("%w: completion requires status quality_check, have %s", ErrInvalidTransition, batch.Status)
	}

	nowt := s.now()
	batch.Status = models.BatchCompleted
	batch.UpdatedAt = nowt
	oer := extractionRate(batch, models.ProductCPO)
	ker := extractionRate(batch, models.ProductKernel)
	batch.OER = oer
	batch.KER = ker

	if err := s.batches.Replace(ctx, batch, models.BatchQualityCheck); err != nil {
		return nil, err
	}

	for _, out := range batch.Outputs {
		if !stockedOutputs[out.ProductType] || out.Weight == 0 {
			continue
		}
		movement := &models.StockMovement{
			ID:           uuid.NewString(),
			ProductType:  out.ProductType,
			MovementType: models.MovementIn,
			Quantity:     out.Weight,
			Status:       models.StockAvailable,
			BatchID:      batch.ID,
			Reference:    batch.BatchNumber,
			CreatedAt:    nowt,
		}
		if err := s.stock.Insert(ctx, movement); err != nil {
			return nil, fmt.Errorf("stock movement for %s: %w", out.ProductType, err)
		}
	}

	s.logger.Info("production batch completed",
		zap.String("id", batch.ID),
		zap.String("batch_number", batch.BatchNumber),
		zap.Float64p("oer", batch.OER),
		zap.Float64p("ker", batch.KER))

	return batch, nil
}

// AdjustStock writes an administrative correction into the ledger.
func (s *Service) AdjustStock(ctx context.Context, productType models.ProductType, quantity float64, reason string) (*models.StockMovement, error) {
	if !stockedOutputs[productType] {
		return nil, fmt.Errorf("%w: product %q has no stock ledger", ErrInvalidInput, productType)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: adjustment quantity must be non-zero", ErrInvalidInput)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: adjustment reason is required", ErrInvalidInput)
	}

	movement := &models.StockMovement{
		ID:           uuid.NewString(),
		ProductType:  productType,
		MovementType: models.MovementAdjustment,
		Quantity:     quantity,
		Status:       models.StockAvailable,
		Notes:        reason,
		CreatedAt:    s.now(),
	}

	if err := s.stock.Insert(ctx, movement); err != nil {
		return nil, fmt.Errorf("insert adjustment: %w", err)
	}

	s.logger.Info("stock adjusted",
		zap.String("product", string(productType)),
		zap.Float64("quantity", quantity),
		zap.String("reason", reason))

	return movement, nil
}

// StockBalance sums the signed ledger for one product family.
func (s *Service) StockBalance(ctx context.Context, productType models.ProductType) (float64, error) {
	movements, err := s.stock.List(ctx, productType)
	if err != nil {
		return 0, err
	}

	var balance float64
	for _, m := range movements {
		balance += m.Quantity
	}
	return round2(balance), nil
}

// Get loads one batch.
func (s *Service) Get(ctx context.Context, id string) (*models.ProductionBatch, error) {
	return s.batches.FindByID(ctx, id)
}

// List returns batches, optionally filtered by status.
func (s *Service) List(ctx context.Context, status models.BatchStatus) ([]models.ProductionBatch, error) {
	return s.batches.List(ctx, status)
}

// extractionRate derives output weight over input weight as a
// percentage, rounded to two decimals.
func extractionRate(batch *models.ProductionBatch, product models.ProductType) *float64 {
	if batch.InputNetto <= 0 {
		return nil
	}
	for _, out := range batch.Outputs {
		if out.ProductType == product {
			rate := round2(out.Weight / batch.InputNetto * 100)
			return &rate
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
