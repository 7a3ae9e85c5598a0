// Package reconcile walks orders with an open courier binding and refreshes
// their delivery status from the bound carrier.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize = 500

	// MaxErrorSamples caps Result.Errors.
	MaxErrorSamples = 10
)

// Lister selects orders with an open binding, least recently checked first,
// and records each visit so the next pass moves on.
type Lister interface {
	ListOpenBindings(ctx context.Context, limit int) ([]*shipper.Order, error)
	MarkChecked(ctx context.Context, orderID string, at time.Time) error
}

// Refresher refreshes one loaded order and reports whether its status changed.
type Refresher interface {
	RefreshOrder(ctx context.Context, order *shipper.Order) (*shipper.OrderCourierInfo, bool, error)
}

// Result summarizes one reconciliation pass.
type Result struct {
	Total   int      `json:"total"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errorSamples"`
}

// Options tunes a Job.
type Options struct {
	// BatchSize defaults to DefaultBatchSize.
	BatchSize int
	// Delay is the pause between two orders; zero disables it.
	Delay time.Duration

	// Sleep waits between orders. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Job runs reconciliation passes.
type Job struct {
	orders    Lister
	refresher Refresher
	opts      Options
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics
}

// NewJob creates a Job. metrics may be nil.
func NewJob(orders Lister, refresher Refresher, opts Options, logger *otelzap.Logger, metrics *telemetry.Metrics) *Job {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Job{
		orders:    orders,
		refresher: refresher,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run performs one sequential pass over at most BatchSize open bindings.
// Per-order failures are counted and sampled; only a failure to list the
// batch, or cancellation of ctx, ends the pass early with an error.
func (j *Job) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{Errors: []string{}}

	orders, err := j.orders.ListOpenBindings(ctx, j.opts.BatchSize)
	if err != nil {
		j.logger.Ctx(ctx).Error("Reconciliation aborted: cannot list orders", zap.Error(err))
		return res, fmt.Errorf("list open bindings: %w", err)
	}
	res.Total = len(orders)

	j.logger.Ctx(ctx).Info("Reconciliation started",
		zap.Int("orders", res.Total),
		zap.Int("batch_size", j.opts.BatchSize),
		zap.Duration("delay", j.opts.Delay),
	)

	for i, order := range orders {
		if i > 0 && j.opts.Delay > 0 {
			if err := j.opts.Sleep(ctx, j.opts.Delay); err != nil {
				j.finish(ctx, &res, start)
				return res, err
			}
		}
		j.reconcileOne(ctx, order, &res)
		if err := j.orders.MarkChecked(ctx, order.ID, time.Now()); err != nil {
			j.logger.Ctx(ctx).Warn("Failed to mark order checked",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		}
	}

	j.finish(ctx, &res, start)
	return res, nil
}

func (j *Job) reconcileOne(ctx context.Context, order *shipper.Order, res *Result) {
	_, changed, err := j.refresher.RefreshOrder(ctx, order)
	switch {
	case err == nil && changed:
		res.Updated++
	case err == nil:
		res.Skipped++
	case skippable(err):
		res.Skipped++
		j.logger.Ctx(ctx).Debug("Order skipped",
			zap.String("order_id", order.ID),
			zap.String("reason", err.Error()),
		)
	default:
		res.Failed++
		if len(res.Errors) < MaxErrorSamples {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", order.ID, err))
		}
		var carrier string
		if order.HasCourierBinding() {
			carrier = string(order.Courier.ServiceID)
		}
		j.logger.Ctx(ctx).Warn("Order reconciliation failed",
			zap.String("order_id", order.ID),
			zap.String("carrier", carrier),
			zap.String("error_kind", shipper.Kind(err)),
			zap.Error(err),
		)
	}
}

func (j *Job) finish(ctx context.Context, res *Result, start time.Time) {
	elapsed := time.Since(start)
	j.metrics.RecordReconcile(res.Updated, res.Skipped, res.Failed, elapsed.Seconds())
	j.logger.Ctx(ctx).Info("Reconciliation finished",
		zap.Int("total", res.Total),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", elapsed),
	)
}

// skippable reports errors meaning the carrier is not currently usable for
// the order, or the order is busy or was re-bound since the batch was listed.
func skippable(err error) bool {
	return errors.Is(err, shipper.ErrCarrierDisabled) ||
		errors.Is(err, shipper.ErrCarrierNotFound) ||
		errors.Is(err, dispatch.ErrDispatchInProgress) ||
		errors.Is(err, dispatch.ErrBindingChanged)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
