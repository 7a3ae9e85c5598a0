package store

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/courier/pkg/shipper"
)

type orderRecord struct {
	ID              string              `gorm:"primaryKey;size:64"`
	TenantID        string              `gorm:"size:64;index"`
	TrackingID      string              `gorm:"size:64"`
	Status          string              `gorm:"size:32;index"`
	PaymentMethod   string              `gorm:"size:32"`
	PaymentStatus   string              `gorm:"size:32"`
	Total           decimal.Decimal     `gorm:"type:decimal(14,2)"`
	Items           []shipper.OrderItem `gorm:"serializer:json"`
	CustomerName    string
	CustomerPhone   string `gorm:"size:32"`
	CustomerAddress string

	CourierServiceID      string `gorm:"size:32;index"`
	CourierConsignmentID  string `gorm:"size:128"`
	CourierTrackingNumber string `gorm:"size:128"`
	CourierStatus         string `gorm:"size:64"`
	CourierCheckedAt      *time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (orderRecord) TableName() string { return "orders" }

func (r *orderRecord) toOrder() *shipper.Order {
	o := &shipper.Order{
		ID:              r.ID,
		TenantID:        r.TenantID,
		TrackingID:      r.TrackingID,
		Status:          shipper.OrderStatus(r.Status),
		PaymentMethod:   shipper.PaymentMethod(r.PaymentMethod),
		PaymentStatus:   shipper.PaymentStatus(r.PaymentStatus),
		Total:           r.Total,
		Items:           r.Items,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
	}
	if r.CourierServiceID != "" || r.CourierConsignmentID != "" {
		o.Courier = &shipper.OrderCourierInfo{
			ServiceID:      shipper.Carrier(r.CourierServiceID),
			ConsignmentID:  r.CourierConsignmentID,
			TrackingNumber: r.CourierTrackingNumber,
			Status:         r.CourierStatus,
		}
	}
	return o
}

func fromOrder(o *shipper.Order) *orderRecord {
	r := &orderRecord{
		ID:              o.ID,
		TenantID:        o.TenantID,
		TrackingID:      o.TrackingID,
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		Total:           o.Total,
		Items:           o.Items,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
	}
	if o.Courier != nil {
		r.CourierServiceID = string(o.Courier.ServiceID)
		r.CourierConsignmentID = o.Courier.ConsignmentID
		r.CourierTrackingNumber = o.Courier.TrackingNumber
		r.CourierStatus = o.Courier.Status
	}
	return r
}

type carrierConfigRecord struct {
	TenantID    string              `gorm:"primaryKey;size:64"`
	CarrierID   string              `gorm:"primaryKey;size:32"`
	Name        string              `gorm:"size:128"`
	Enabled     bool
	Credentials shipper.Credentials `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (carrierConfigRecord) TableName() string { return "carrier_configs" }

func (r *carrierConfigRecord) toConfig() shipper.CarrierConfig {
	return shipper.CarrierConfig{
		ID:          shipper.Carrier(r.CarrierID),
		TenantID:    r.TenantID,
		Name:        r.Name,
		Enabled:     r.Enabled,
		Credentials: r.Credentials,
	}
}
