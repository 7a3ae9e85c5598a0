// Package dispatch binds orders to carrier consignments and keeps their
// delivery status current.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrDispatchInProgress is returned when another operation holds the order.
var ErrDispatchInProgress = errors.New("courier operation already in progress for order")

// ErrBindingChanged is returned by RefreshOrder when the stored binding no
// longer matches the order it was given.
var ErrBindingChanged = errors.New("courier binding changed since order was loaded")

// OrderStore reads orders and writes their courier binding.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*shipper.Order, error)
	UpdateCourierInfo(ctx context.Context, orderID string, info shipper.OrderCourierInfo) error
}

// ConfigStore reads tenant carrier configurations.
type ConfigStore interface {
	CarrierConfig(ctx context.Context, tenantID string, carrier shipper.Carrier) (shipper.CarrierConfig, error)
}

// Opener builds a carrier adapter from a configuration.
type Opener interface {
	Open(cfg shipper.CarrierConfig) (shipper.Shipper, error)
}

// Service implements courier assignment, dispatch and status refresh.
type Service struct {
	orders   OrderStore
	configs  ConfigStore
	opener   Opener
	validate *validator.Validate
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	tracer   trace.Tracer

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a Service. metrics may be nil.
func New(orders OrderStore, configs ConfigStore, opener Opener, logger *otelzap.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{
		orders:   orders,
		configs:  configs,
		opener:   opener,
		validate: newValidator(),
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("github.com/tournevent/courier/internal/dispatch"),
		inflight: make(map[string]struct{}),
	}
}

// Assign records a consignment booked outside this service. No carrier is
// called and the status starts as "Pending".
func (s *Service) Assign(ctx context.Context, orderID string, carrier shipper.Carrier, consignmentID string) (*shipper.OrderCourierInfo, error) {
	consignmentID = strings.TrimSpace(consignmentID)
	if consignmentID == "" {
		return nil, shipper.ValidationError(string(carrier), "consignmentId is required")
	}

	release, err := s.acquire(orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}

	info := shipper.OrderCourierInfo{
		ServiceID:      carrier,
		ConsignmentID:  consignmentID,
		TrackingNumber: consignmentID,
		Status:         shipper.StatusPending,
	}
	if err := s.orders.UpdateCourierInfo(ctx, orderID, info); err != nil {
		return nil, err
	}

	s.logger.Ctx(ctx).Info("Courier assigned",
		zap.String("order_id", orderID),
		zap.String("carrier", string(carrier)),
		zap.String("consignment_id", consignmentID),
	)
	return &info, nil
}

// Dispatch books a consignment with carrier and binds it to the order.
// A second Dispatch on the same order while the first is running fails
// with ErrDispatchInProgress.
func (s *Service) Dispatch(ctx context.Context, orderID string, carrier shipper.Carrier, details shipper.DeliveryDetails) (_ *shipper.OrderCourierInfo, err error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.Dispatch", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("courier.carrier", string(carrier)),
	))
	defer func() { shipper.FinishSpan(span, err) }()

	details = trimDetails(details)
	if err := s.validateDetails(carrier, details); err != nil {
		return nil, err
	}

	release, err := s.acquire(orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.open(ctx, order.TenantID, carrier)
	if err != nil {
		return nil, err
	}

	trackingID := order.TrackingID
	if trackingID == "" {
		trackingID = order.ID
	}

	start := time.Now()
	result, err := adapter.CreateOrder(ctx, &shipper.CreateOrderRequest{
		Order:      order,
		TrackingID: trackingID,
		Delivery:   details,
	})
	s.record("create_order", carrier, start, err)
	if err != nil {
		s.logger.Ctx(ctx).Error("Courier dispatch failed",
			zap.String("order_id", orderID),
			zap.String("carrier", string(carrier)),
			zap.String("error_kind", shipper.Kind(err)),
			zap.Error(err),
		)
		return nil, err
	}

	info := shipper.OrderCourierInfo{
		ServiceID:      carrier,
		ConsignmentID:  result.ConsignmentID,
		TrackingNumber: result.ConsignmentID,
		Status:         shipper.NormalizeStatus(result.DeliveryStatus),
	}
	if err := s.orders.UpdateCourierInfo(ctx, orderID, info); err != nil {
		// The consignment exists at the carrier but is not recorded here.
		s.logger.Ctx(ctx).Error("Courier binding not saved",
			zap.String("order_id", orderID),
			zap.String("carrier", string(carrier)),
			zap.String("consignment_id", result.ConsignmentID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Ctx(ctx).Info("Order dispatched",
		zap.String("order_id", orderID),
		zap.String("carrier", string(carrier)),
		zap.String("consignment_id", info.ConsignmentID),
		zap.String("status", info.Status),
	)
	return &info, nil
}

// RefreshStatus pulls the current delivery status of an order's consignment.
func (s *Service) RefreshStatus(ctx context.Context, orderID string) (*shipper.OrderCourierInfo, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	info, _, err := s.RefreshOrder(ctx, order)
	return info, err
}

// RefreshOrder pulls the delivery status for an already loaded order and
// persists it only when it changed. It reports whether it did.
func (s *Service) RefreshOrder(ctx context.Context, order *shipper.Order) (_ *shipper.OrderCourierInfo, changed bool, err error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.RefreshOrder", trace.WithAttributes(
		attribute.String("order.id", order.ID),
	))
	defer func() { shipper.FinishSpan(span, err) }()

	if !order.HasCourierBinding() {
		return nil, false, fmt.Errorf("%w: %s", shipper.ErrNoCourierBinding, order.ID)
	}
	carrier, err := shipper.ParseCarrier(string(order.Courier.ServiceID))
	if err != nil {
		return nil, false, err
	}

	release, err := s.acquire(order.ID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	current, err := s.orders.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, false, err
	}
	if !sameBinding(order.Courier, current.Courier) {
		return nil, false, fmt.Errorf("%w: %s", ErrBindingChanged, order.ID)
	}

	adapter, err := s.open(ctx, order.TenantID, carrier)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	result, err := adapter.GetStatus(ctx, current.Courier.ConsignmentID)
	s.record("get_status", carrier, start, err)
	if err != nil {
		return nil, false, err
	}

	info := *current.Courier
	status := shipper.NormalizeStatus(result.DeliveryStatus)
	if status == info.Status {
		return &info, false, nil
	}

	info.Status = status
	if err := s.orders.UpdateCourierInfo(ctx, order.ID, info); err != nil {
		return nil, false, err
	}
	order.Courier = &info

	s.logger.Ctx(ctx).Info("Courier status changed",
		zap.String("order_id", order.ID),
		zap.String("carrier", string(carrier)),
		zap.String("status", status),
	)
	return &info, true, nil
}

func sameBinding(a, b *shipper.OrderCourierInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ServiceID == b.ServiceID && a.ConsignmentID == b.ConsignmentID
}

func (s *Service) open(ctx context.Context, tenantID string, carrier shipper.Carrier) (shipper.Shipper, error) {
	cfg, err := s.configs.CarrierConfig(ctx, tenantID, carrier)
	if err != nil {
		return nil, err
	}
	return s.opener.Open(cfg)
}

// acquire marks orderID busy, failing if it already is.
func (s *Service) acquire(orderID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[orderID]; busy {
		return nil, fmt.Errorf("%w: %s", ErrDispatchInProgress, orderID)
	}
	s.inflight[orderID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, orderID)
		s.mu.Unlock()
	}, nil
}

func (s *Service) record(operation string, carrier shipper.Carrier, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		s.metrics.RecordError(string(carrier), shipper.Kind(err))
	}
	s.metrics.RecordRequest(operation, string(carrier), status, time.Since(start).Seconds())
}
