package scheduler

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // timezone database for minimal container images

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/config"
	"github.com/mamadbah2/assetdesk/internal/service/reporting"
)

const syncTimeout = 5 * time.Minute

// InventorySyncer publishes one inventory snapshot.
type InventorySyncer interface {
	SyncInventory(ctx context.Context) (reporting.SyncResult, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	syncer   InventorySyncer
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.InventoryConfig, syncer InventorySyncer, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	// Standard 5 field expressions (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		syncer:   syncer,
		schedule: cfg.CronSchedule,
		logger:   logger,
	}, nil
}

// Start registers the inventory sync and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.syncInventory); err != nil {
		return fmt.Errorf("schedule inventory sync %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("inventory_schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) syncInventory() {
	s.logger.Info("syncing inventory sheet")
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	result, err := s.syncer.SyncInventory(ctx)
	if err != nil {
		s.logger.Error("failed to sync inventory sheet", zap.Error(err))
		return
	}
	s.logger.Info("inventory sheet synced", zap.Int("rows", result.Rows))
}
