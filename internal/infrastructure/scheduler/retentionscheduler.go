package scheduler

import (
	"context"
	"sync"
	"time"

	retentionUsecases "quillform/internal/application/retention/usecases"
	"quillform/internal/shared/goroutine"
	"quillform/internal/shared/logger"
)

// RetentionScheduler runs the daily retention sweep. The warning windows
// tolerate ±12 hours, so a daily cadence hits every stage exactly once.
type RetentionScheduler struct {
	processRetentionUC *retentionUsecases.ProcessRetentionUseCase
	logger             logger.Interface
	stopChan           chan struct{}
	stopOnce           sync.Once
	wg                 sync.WaitGroup
	interval           time.Duration
}

// NewRetentionScheduler creates a new RetentionScheduler.
func NewRetentionScheduler(
	processRetentionUC *retentionUsecases.ProcessRetentionUseCase,
	logger logger.Interface,
) *RetentionScheduler {
	return &RetentionScheduler{
		processRetentionUC: processRetentionUC,
		logger:             logger,
		stopChan:           make(chan struct{}),
		interval:           24 * time.Hour,
	}
}

// Start starts the scheduler
func (s *RetentionScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting retention scheduler", "interval", s.interval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "retention-scheduler", func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	})
}

// Stop stops the scheduler gracefully
func (s *RetentionScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping retention scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("retention scheduler stopped")
	})
}

func (s *RetentionScheduler) runLoop(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("retention scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionScheduler) sweep(ctx context.Context) {
	start := time.Now()
	summary, err := s.processRetentionUC.Execute(ctx, retentionUsecases.RetentionSweepOptions{})
	if err != nil {
		s.logger.Errorw("retention sweep failed", "error", err, "duration", time.Since(start))
		return
	}

	if summary.WarningsSent > 0 || summary.SoftDeleted > 0 || summary.HardDeleted > 0 || summary.Errors > 0 {
		s.logger.Infow("retention sweep completed",
			"warnings_sent", summary.WarningsSent,
			"soft_deleted", summary.SoftDeleted,
			"hard_deleted", summary.HardDeleted,
			"skipped_legal_hold", summary.SkippedLegalHold,
			"errors", summary.Errors,
			"duration", time.Since(start),
		)
	} else {
		s.logger.Debugw("retention sweep found nothing to do", "duration", time.Since(start))
	}
}
