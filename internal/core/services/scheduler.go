package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/domain"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driving"
)

// Scheduler re-invokes the sync run on a fixed period. It is cooperative
// single-flight: a tick that fires while a prior run is still going is
// skipped, not queued. There is one process, so no distributed lock.
type Scheduler struct {
	syncer   driving.SyncService
	cfg      domain.SyncConfig
	interval time.Duration
	logger   *slog.Logger

	// Internal state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Syncer   driving.SyncService
	SyncCfg  domain.SyncConfig
	Interval time.Duration
	Logger   *slog.Logger
}

// NewScheduler creates a new periodic sync scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Scheduler{
		syncer:   cfg.Syncer,
		cfg:      cfg.SyncCfg,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the scheduler loop. It runs until Stop is called or the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "interval", s.interval)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight tick.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one scheduled sync cycle.
func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.syncer.RunSync(ctx, s.cfg)
	if errors.Is(err, domain.ErrSyncInProgress) {
		s.logger.Warn("previous sync run still in flight, skipping tick")
		return
	}
	if err != nil {
		s.logger.Error("scheduled sync failed to start", "error", err)
		return
	}

	s.logger.Info("scheduled sync completed", "run_id", result.RunID, "status", result.Status)
}
