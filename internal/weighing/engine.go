// Package weighing drives one ticket through the weighbridge lifecycle
// and derives netto and total price from the recorded inputs. Derivation
// runs on every create and update, never as a persistence hook, so it
// stays testable without a database.
package weighing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/ticket"
)

// ErrInvalidWeight indicates a missing or negative weight input.
var ErrInvalidWeight = errors.New("weight must be a non-negative number")

// ErrInvalidTransition indicates the record is not in the state the
// operation requires.
var ErrInvalidTransition = errors.New("illegal weighing state transition")

// ErrRecordCompleted indicates a completed record's numeric fields were
// touched outside the administrative correction path.
var ErrRecordCompleted = errors.New("weighing record is completed and frozen")

// ErrDuplicateTicket indicates the queue entry already has its weighing
// record — the relation is 1:1.
var ErrDuplicateTicket = errors.New("weighing record already exists for this queue entry")

// WeighingRepository persists weighing records. Replace is conditional
// on the expected current status and returns models.ErrStatusConflict
// when a concurrent caller moved the record first.
type WeighingRepository interface {
	Insert(ctx context.Context, rec *models.WeighingRecord) error
	FindByID(ctx context.Context, id string) (*models.WeighingRecord, error)
	FindByQueueEntry(ctx context.Context, queueEntryID string) (*models.WeighingRecord, error)
	Replace(ctx context.Context, rec *models.WeighingRecord, expected models.WeighingStatus) error
}

// QueueGateway is the slice of the queue workflow the engine needs:
// loading the linked entry and triggering its transitions.
type QueueGateway interface {
	Get(ctx context.Context, id string) (*models.QueueEntry, error)
	Transition(ctx context.Context, id string, to models.QueueStatus) error
}

// PriceResolver fills the unit price when the operator left it blank.
// A nil price with a nil error is a valid "no price available" outcome.
type PriceResolver interface {
	Resolve(ctx context.Context, class models.Classification, date time.Time) (*float64, error)
}

// CounterRepository hands out the daily ticket sequence atomically.
type CounterRepository interface {
	NextSequence(ctx context.Context, scope string, day time.Time) (int, error)
}

// UpdateInput carries an operator correction. Nil fields stay untouched.
type UpdateInput struct {
	Bruto     *float64
	Tara      *float64
	UnitPrice *float64
	Splits    map[string]float64
}

// Engine is the weighing derivation engine.
type Engine struct {
	records  WeighingRepository
	queues   QueueGateway
	resolver PriceResolver
	counters CounterRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine constructs the engine. resolver may be nil; prices then stay
// unset until entered manually.
func NewEngine(records WeighingRepository, queues QueueGateway, resolver PriceResolver, counters CounterRepository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		records:  records,
		queues:   queues,
		resolver: resolver,
		counters: counters,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens the weighing record for a queue entry and assigns its
// ticket number from the atomic daily counter.
func (e *Engine) Create(ctx context.Context, queueEntryID, productType string) (*models.WeighingRecord, error) {
	entry, err := e.queues.Get(ctx, queueEntryID)
	if err != nil {
		return nil, err
	}

	existing, err := e.records.FindByQueueEntry(ctx, queueEntryID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateTicket
	}

	nowt := e.now()
	seq, err := e.counters.NextSequence(ctx, "ticket", nowt)
	if err != nil {
		return nil, fmt.Errorf("ticket sequence: %w", err)
	}

	rec := &models.WeighingRecord{
		ID:           uuid.NewString(),
		QueueEntryID: queueEntryID,
		TicketNumber: ticket.TicketNumber(seq, entry.SupplierName, productType),
		ProductType:  productType,
		Status:       models.WeighingCreated,
		CreatedAt:    nowt,
		UpdatedAt:    nowt,
	}

	e.derive(ctx, rec, entry.Classification)

	if err := e.records.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert weighing record: %w", err)
	}

	e.logger.Info("weighing record created",
		zap.String("id", rec.ID),
		zap.String("ticket_number", rec.TicketNumber),
		zap.String("queue_entry_id", queueEntryID))

	return rec, nil
}

// WeighIn records the loaded truck's bruto weight and moves the record
// to weighed_in. The linked queue entry advances to processing.
func (e *Engine) WeighIn(ctx context.Context, id string, bruto float64) (*models.WeighingRecord, error) {
	rec, err := e.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.WeighingCreated {
		return nil, fmt.Errorf("%w: weigh-in requires status created, have %s", ErrInvalidTransition, rec.Status)
	}
	if bruto <= 0 {
		return nil, fmt.Errorf("%w: bruto %v", ErrInvalidWeight, bruto)
	}

	entry, err := e.queues.Get(ctx, rec.QueueEntryID)
	if err != nil {
		return nil, err
	}
	if entry.Status.Terminal() {
		return nil, fmt.Errorf("%w: queue entry is %s", ErrInvalidTransition, entry.Status)
	}

	nowt := e.now()
	rec.Bruto = &bruto
	rec.Status = models.WeighingWeighedIn
	rec.WeighedInAt = &nowt
	rec.UpdatedAt = nowt

	e.derive(ctx, rec, entry.Classification)

	if err := e.records.Replace(ctx, rec, models.WeighingCreated); err != nil {
		return nil, err
	}

	if err := e.queues.Transition(ctx, rec.QueueEntryID, models.QueueProcessing); err != nil {
		return nil, fmt.Errorf("advance queue entry: %w", err)
	}

	return rec, nil
}

// WeighOut records the empty truck's tara weight, derives netto, and
// moves the record to weighed_out.
func (e *Engine) WeighOut(ctx context.Context, id string, tara float64) (*models.WeighingRecord, error) {
	rec, err := e.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.WeighingWeighedIn {
		return nil, fmt.Errorf("%w: weigh-out requires status weighed_in, have %s", ErrInvalidTransition, rec.Status)
	}
	if tara < 0 {
		return nil, fmt.Errorf("%w: tara %v", ErrInvalidWeight, tara)
	}
	if rec.Bruto == nil {
		return nil, fmt.Errorf("%w: bruto was never recorded", ErrInvalidWeight)
	}

	entry, err := e.queues.Get(ctx, rec.QueueEntryID)
	if err != nil {
		return nil, err
	}

	nowt := e.now()
	rec.Tara = &tara
	rec.Status = models.WeighingWeighedOut
	rec.WeighedOutAt = &nowt
	rec.UpdatedAt = nowt

	e.derive(ctx, rec, entry.Classification)

	if err := e.records.Replace(ctx, rec, models.WeighingWeighedIn); err != nil {
		return nil, err
	}

	return rec, nil
}

// Update applies an operator correction and re-runs derivation. Numeric
// fields of a completed record are frozen; corrections then go through
// the stock adjustment ledger instead.
func (e *Engine) Update(ctx context.Context, id string, input UpdateInput) (*models.WeighingRecord, error) {
	rec, err := e.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.WeighingCompleted {
		return nil, ErrRecordCompleted
	}

	if input.Bruto != nil {
		if *input.Bruto <= 0 {
			return nil, fmt.Errorf("%w: bruto %v", ErrInvalidWeight, *input.Bruto)
		}
		if rec.Status == models.WeighingCreated {
			return nil, fmt.Errorf("%w: bruto is recorded at weigh-in", ErrInvalidTransition)
		}
		rec.Bruto = input.Bruto
	}
	if input.Tara != nil {
		if *input.Tara < 0 {
			return nil, fmt.Errorf("%w: tara %v", ErrInvalidWeight, *input.Tara)
		}
		if rec.Status != models.WeighingWeighedOut {
			return nil, fmt.Errorf("%w: tara is recorded at weigh-out", ErrInvalidTransition)
		}
		rec.Tara = input.Tara
	}
	if input.UnitPrice != nil {
		if *input.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: unit price %v", ErrInvalidWeight, *input.UnitPrice)
		}
		// An explicit operator price is never overwritten by resolution.
		rec.UnitPrice = input.UnitPrice
		rec.PriceSource = string(models.SourceManual)
	}
	if input.Splits != nil {
		for name, w := range input.Splits {
			if w < 0 {
				return nil, fmt.Errorf("%w: split %s = %v", ErrInvalidWeight, name, w)
			}
		}
		rec.Splits = input.Splits
	}

	entry, err := e.queues.Get(ctx, rec.QueueEntryID)
	if err != nil {
		return nil, err
	}

	rec.UpdatedAt = e.now()
	e.derive(ctx, rec, entry.Classification)

	if err := e.records.Replace(ctx, rec, rec.Status); err != nil {
		return nil, err
	}

	return rec, nil
}

// Complete freezes the record and advances the linked queue entry to
// completed.
func (e *Engine) Complete(ctx context.Context, id string) (*models.WeighingRecord, error) {
	rec, err := e.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.WeighingWeighedOut {
		return nil, fmt.Errorf("%w: complete requires status weighed_out, have %s", ErrInvalidTransition, rec.Status)
	}

	// The queue entry must still be movable before the record is frozen,
	// otherwise a cancelled truck leaves the pair half-advanced.
	entry, err := e.queues.Get(ctx, rec.QueueEntryID)
	if err != nil {
		return nil, err
	}
	if entry.Status.Terminal() {
		return nil, fmt.Errorf("%w: queue entry is %s", ErrInvalidTransition, entry.Status)
	}

	rec.Status = models.WeighingCompleted
	rec.UpdatedAt = e.now()

	if err := e.records.Replace(ctx, rec, models.WeighingWeighedOut); err != nil {
		return nil, err
	}

	if err := e.queues.Transition(ctx, rec.QueueEntryID, models.QueueCompleted); err != nil {
		return nil, fmt.Errorf("complete queue entry: %w", err)
	}

	e.logger.Info("weighing record completed",
		zap.String("id", rec.ID),
		zap.String("ticket_number", rec.TicketNumber))

	return rec, nil
}

// Get loads one weighing record.
func (e *Engine) Get(ctx context.Context, id string) (*models.WeighingRecord, error) {
	return e.records.FindByID(ctx, id)
}

// derive recomputes every derived field from the current inputs. It is
// idempotent: unchanged inputs always yield the same outputs. The unit
// price is auto-resolved only while unset; resolution failure leaves the
// field blank rather than failing the mutation.
func (e *Engine) derive(ctx context.Context, rec *models.WeighingRecord, class models.Classification) {
	if rec.Bruto != nil && rec.Tara != nil {
		netto := round2(*rec.Bruto - *rec.Tara)
		if netto < 0 {
			netto = 0
		}
		rec.Netto = &netto
	}

	if rec.UnitPrice == nil && e.resolver != nil {
		price, err := e.resolver.Resolve(ctx, class, e.now())
		if err != nil {
			e.logger.Warn("price resolution failed",
				zap.String("weighing_id", rec.ID),
				zap.String("classification", string(class)),
				zap.Error(err))
		} else if price != nil {
			rec.UnitPrice = price
			rec.PriceSource = "auto"
		}
	}

	if rec.Netto != nil && rec.UnitPrice != nil {
		total := round2(*rec.Netto * *rec.UnitPrice)
		rec.TotalPrice = &total
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
