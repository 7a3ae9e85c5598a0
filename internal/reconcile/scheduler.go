package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ErrPassRunning is returned by Trigger while another pass is running.
var ErrPassRunning = errors.New("reconciliation pass already running")

// Scheduler runs a Job on a fixed interval and on demand. Passes never
// overlap.
type Scheduler struct {
	job      *Job
	interval time.Duration
	logger   *otelzap.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a Scheduler. An interval <= 0 disables the ticker;
// Trigger still works.
func NewScheduler(job *Job, interval time.Duration, logger *otelzap.Logger) *Scheduler {
	return &Scheduler{job: job, interval: interval, logger: logger}
}

// Trigger runs one pass now, or fails with ErrPassRunning.
func (s *Scheduler) Trigger(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Result{}, ErrPassRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
	return s.job.Run(ctx)
}

// Run triggers a pass every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	s.logger.Info("Reconciliation scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reconciliation scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Trigger(ctx); err != nil {
				if errors.Is(err, ErrPassRunning) || errors.Is(err, context.Canceled) {
					continue
				}
				s.logger.Ctx(ctx).Error("Scheduled reconciliation failed", zap.Error(err))
			}
		}
	}
}
