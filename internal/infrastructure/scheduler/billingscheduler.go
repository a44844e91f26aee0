// Package scheduler runs the periodic maintenance sweeps.
package scheduler

import (
	"context"
	"sync"
	"time"

	billingUsecases "quillform/internal/application/billing/usecases"
	"quillform/internal/shared/goroutine"
	"quillform/internal/shared/logger"
)

// BillingScheduler runs the daily sweep over lapsed subscriptions.
type BillingScheduler struct {
	processExpiredUC *billingUsecases.ProcessExpiredUseCase
	graceDays        int
	logger           logger.Interface
	stopChan         chan struct{}
	stopOnce         sync.Once
	wg               sync.WaitGroup
	interval         time.Duration
}

// NewBillingScheduler creates a new BillingScheduler.
func NewBillingScheduler(
	processExpiredUC *billingUsecases.ProcessExpiredUseCase,
	graceDays int,
	logger logger.Interface,
) *BillingScheduler {
	return &BillingScheduler{
		processExpiredUC: processExpiredUC,
		graceDays:        graceDays,
		logger:           logger,
		stopChan:         make(chan struct{}),
		interval:         24 * time.Hour,
	}
}

// Start starts the scheduler
func (s *BillingScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting billing scheduler", "interval", s.interval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "billing-scheduler", func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	})
}

// Stop stops the scheduler gracefully
func (s *BillingScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping billing scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("billing scheduler stopped")
	})
}

func (s *BillingScheduler) runLoop(ctx context.Context) {
	// Run immediately on startup to clear anything that lapsed while the
	// process was down.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("billing scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *BillingScheduler) sweep(ctx context.Context) {
	start := time.Now()
	summary, err := s.processExpiredUC.Execute(ctx, billingUsecases.SweepOptions{
		GraceDays: s.graceDays,
	})
	if err != nil {
		s.logger.Errorw("billing sweep failed", "error", err, "duration", time.Since(start))
		return
	}

	if summary.Downgraded > 0 || summary.Errors > 0 {
		s.logger.Infow("billing sweep completed",
			"downgraded", summary.Downgraded,
			"surveys_closed", summary.SurveysClosed,
			"skipped", summary.Skipped,
			"errors", summary.Errors,
			"duration", time.Since(start),
		)
	} else {
		s.logger.Debugw("billing sweep found nothing to do", "duration", time.Since(start))
	}
}
