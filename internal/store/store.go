package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements the order and carrier-configuration ports on gorm.
type Store struct {
	db *gorm.DB
}

// New creates a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetOrder loads one order with its courier binding.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*shipper.Order, error) {
	var rec orderRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	return rec.toOrder(), nil
}

// UpdateCourierInfo replaces the order's courier binding.
func (s *Store) UpdateCourierInfo(ctx context.Context, orderID string, info shipper.OrderCourierInfo) error {
	res := s.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", orderID).Updates(map[string]any{
		"courier_service_id":      string(info.ServiceID),
		"courier_consignment_id":  info.ConsignmentID,
		"courier_tracking_number": info.TrackingNumber,
		"courier_status":          info.Status,
	})
	if res.Error != nil {
		return fmt.Errorf("updating courier info of %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, orderID)
	}
	return nil
}

// ListOpenBindings returns up to limit orders bound to a consignment whose
// order status is not terminal. Orders never checked come first, then the
// least recently checked, so a full batch of unchanged orders cannot starve
// the rest.
func (s *Store) ListOpenBindings(ctx context.Context, limit int) ([]*shipper.Order, error) {
	terminal := make([]string, len(shipper.TerminalOrderStatuses))
	for i, st := range shipper.TerminalOrderStatuses {
		terminal[i] = strings.ToLower(string(st))
	}

	var recs []orderRecord
	err := s.db.WithContext(ctx).
		Where("courier_service_id <> '' AND courier_consignment_id <> ''").
		Where("LOWER(status) NOT IN ?", terminal).
		Order("CASE WHEN courier_checked_at IS NULL THEN 0 ELSE 1 END").
		Order("courier_checked_at ASC").
		Order("updated_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing open courier bindings: %w", err)
	}

	orders := make([]*shipper.Order, len(recs))
	for i := range recs {
		orders[i] = recs[i].toOrder()
	}
	return orders, nil
}

// MarkChecked records that reconciliation visited the order at the given
// time. It leaves updated_at alone.
func (s *Store) MarkChecked(ctx context.Context, orderID string, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ?", orderID).
		UpdateColumn("courier_checked_at", at).Error
	if err != nil {
		return fmt.Errorf("marking %s checked: %w", orderID, err)
	}
	return nil
}

// SaveOrder inserts or fully replaces an order.
func (s *Store) SaveOrder(ctx context.Context, o *shipper.Order) error {
	if err := s.db.WithContext(ctx).Save(fromOrder(o)).Error; err != nil {
		return fmt.Errorf("saving order %s: %w", o.ID, err)
	}
	return nil
}

// CarrierConfig loads a tenant's configuration for carrier.
func (s *Store) CarrierConfig(ctx context.Context, tenantID string, carrier shipper.Carrier) (shipper.CarrierConfig, error) {
	var rec carrierConfigRecord
	err := s.db.WithContext(ctx).First(&rec, "tenant_id = ? AND carrier_id = ?", tenantID, string(carrier)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shipper.CarrierConfig{}, fmt.Errorf("%w: %s is not configured for tenant %s",
			shipper.ErrCarrierNotFound, carrier, tenantID)
	}
	if err != nil {
		return shipper.CarrierConfig{}, fmt.Errorf("loading %s config: %w", carrier, err)
	}
	return rec.toConfig(), nil
}

// SaveCarrierConfig inserts or replaces a tenant's carrier configuration.
func (s *Store) SaveCarrierConfig(ctx context.Context, cfg shipper.CarrierConfig) error {
	rec := carrierConfigRecord{
		TenantID:    cfg.TenantID,
		CarrierID:   string(cfg.ID),
		Name:        cfg.Name,
		Enabled:     cfg.Enabled,
		Credentials: cfg.Credentials,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "carrier_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "enabled", "credentials", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("saving %s config: %w", cfg.ID, err)
	}
	return nil
}
