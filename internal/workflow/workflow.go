// Package workflow governs the legal state transitions of a queue entry
// and assigns its queue number, exactly once, at creation.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/ticket"
)

// ErrInvalidTransition indicates the requested status change is not in
// the transition table.
var ErrInvalidTransition = errors.New("illegal queue status transition")

// ErrTerminalState indicates the record reached completed or cancelled
// and may no longer move.
var ErrTerminalState = errors.New("queue entry is in a terminal state")

// ErrUnknownStatus indicates a target status outside the enumeration.
var ErrUnknownStatus = errors.New("unknown queue status")

// ErrInvalidInput indicates a required creation field is missing.
var ErrInvalidInput = errors.New("invalid queue entry input")

// transitions is the closed table of legal moves.
var transitions = map[models.QueueStatus][]models.QueueStatus{
	models.QueueWaiting:    {models.QueueProcessing, models.QueueCancelled},
	models.QueueProcessing: {models.QueueCompleted, models.QueueCancelled},
}

// QueueRepository persists queue entries. UpdateStatus is conditional on
// the expected current status and returns models.ErrStatusConflict when
// another caller moved the record first.
type QueueRepository interface {
	Insert(ctx context.Context, entry *models.QueueEntry) error
	FindByID(ctx context.Context, id string) (*models.QueueEntry, error)
	List(ctx context.Context, status models.QueueStatus) ([]models.QueueEntry, error)
	UpdateStatus(ctx context.Context, id string, from, to models.QueueStatus, at time.Time) error
}

// CounterRepository hands out the daily sequence numbers. The increment
// must be atomic so concurrent stations never share a number.
type CounterRepository interface {
	NextSequence(ctx context.Context, scope string, day time.Time) (int, error)
}

// CreateInput carries the operator-entered fields of a new queue entry.
type CreateInput struct {
	TruckID        string
	SupplierID     string
	SupplierName   string
	Classification models.Classification
	EstimateAt     *time.Time
}

// Service is the queue workflow state machine.
type Service struct {
	queues   QueueRepository
	counters CounterRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs the workflow service.
func NewService(queues QueueRepository, counters CounterRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		queues:   queues,
		counters: counters,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateEntry registers a truck's arrival: the daily counter is
// atomically incremented and the resulting queue number is bound to the
// entry for its whole life.
func (s *Service) CreateEntry(ctx context.Context, input CreateInput) (*models.QueueEntry, error) {
	if input.TruckID == "" {
		return nil, fmt.Errorf("%w: truck id is required", ErrInvalidInput)
	}
	if input.SupplierName == "" {
		return nil, fmt.Errorf("%w: supplier name is required", ErrInvalidInput)
	}
	if !input.Classification.Valid() {
		return nil, fmt.Errorf("%w: classification %q", ErrInvalidInput, input.Classification)
	}

	nowt := s.now()
	seq, err := s.counters.NextSequence(ctx, "queue", nowt)
	if err != nil {
		return nil, fmt.Errorf("queue sequence: %w", err)
	}

	entry := &models.QueueEntry{
		ID:             uuid.NewString(),
		QueueNumber:    ticket.QueueNumber(seq, input.SupplierName),
		TruckID:        input.TruckID,
		SupplierID:     input.SupplierID,
		SupplierName:   input.SupplierName,
		Classification: input.Classification,
		Status:         models.QueueWaiting,
		CalledAt:       &nowt,
		EstimateAt:     input.EstimateAt,
		CreatedAt:      nowt,
		UpdatedAt:      nowt,
	}

	if err := s.queues.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert queue entry: %w", err)
	}

	s.logger.Info("queue entry created",
		zap.String("id", entry.ID),
		zap.String("queue_number", entry.QueueNumber),
		zap.String("classification", string(entry.Classification)))

	return entry, nil
}

// Get loads one queue entry.
func (s *Service) Get(ctx context.Context, id string) (*models.QueueEntry, error) {
	return s.queues.FindByID(ctx, id)
}

// List returns queue entries, optionally filtered by status.
func (s *Service) List(ctx context.Context, status models.QueueStatus) ([]models.QueueEntry, error) {
	if status != "" && !status.Valid() {
		return nil, ErrUnknownStatus
	}
	return s.queues.List(ctx, status)
}

// Transition moves the entry to the target status if the transition
// table allows it. The underlying update is conditional on the current
// status, so two racing callers cannot both win.
func (s *Service) Transition(ctx context.Context, id string, to models.QueueStatus) error {
	if !to.Valid() {
		return ErrUnknownStatus
	}

	entry, err := s.queues.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if entry.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, entry.Status)
	}
	if !allowed(entry.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.Status, to)
	}

	if err := s.queues.UpdateStatus(ctx, id, entry.Status, to, s.now()); err != nil {
		return err
	}

	s.logger.Info("queue entry transitioned",
		zap.String("id", id),
		zap.String("from", string(entry.Status)),
		zap.String("to", string(to)))

	return nil
}

func allowed(from, to models.QueueStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
