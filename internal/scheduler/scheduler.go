package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/config"
	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// PriceUpdater refreshes stored prices from a configured online source.
type PriceUpdater interface {
	UpdateFromOnline(ctx context.Context, source models.PriceSource, region string, force bool) (*models.UpdateResult, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	updater PriceUpdater
	cfg     config.Config
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Config, updater PriceUpdater, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New()

	return &Scheduler{
		cron:    c,
		updater: updater,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start starts the scheduler. With the update job disabled it is a no-op.
func (s *Scheduler) Start() {
	if !s.cfg.Scheduler.Enabled {
		s.logger.Info("price update schedule disabled")
		return
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Scheduler.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.Scheduler.CronSchedule, s.runPriceUpdate)
	if err != nil {
		s.logger.Error("failed to schedule price update", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runPriceUpdate() {
	source := models.PriceSource(s.cfg.Pricing.DefaultSource)
	region := s.cfg.Pricing.DefaultRegion

	s.logger.Info("running scheduled price update",
		zap.String("source", string(source)),
		zap.String("region", region))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := s.updater.UpdateFromOnline(ctx, source, region, false)
	if err != nil {
		s.logger.Error("scheduled price update failed", zap.Error(err))
		return
	}

	if !result.Success {
		s.logger.Warn("scheduled price update produced no data", zap.String("message", result.Message))
		return
	}

	s.logger.Info("scheduled price update finished",
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("skipped", len(result.Skipped)))
}
