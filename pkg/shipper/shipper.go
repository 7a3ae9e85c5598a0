// Package shipper provides an abstraction layer for last-mile courier carriers.
package shipper

import (
	"context"
	"fmt"
)

// Carrier identifies one of the supported courier services.
type Carrier string

const (
	CarrierPathao    Carrier = "pathao"
	CarrierRedX      Carrier = "redx"
	CarrierSteadfast Carrier = "steadfast"
	CarrierPaperfly  Carrier = "paperfly"
)

// Carriers lists every supported carrier in a stable order.
var Carriers = []Carrier{CarrierPathao, CarrierRedX, CarrierSteadfast, CarrierPaperfly}

// ParseCarrier maps a stored service id onto a known carrier.
func ParseCarrier(id string) (Carrier, error) {
	switch c := Carrier(id); c {
	case CarrierPathao, CarrierRedX, CarrierSteadfast, CarrierPaperfly:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrCarrierNotFound, id)
	}
}

// Shipper defines the interface that all courier carriers must implement.
type Shipper interface {
	// Name returns the carrier identifier (e.g., "pathao", "redx").
	Name() string

	// CreateOrder books a consignment with the carrier. It has no side effect
	// on local state; the caller persists the returned binding.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*ConsignmentResult, error)

	// GetStatus fetches the current status of a consignment. It is read-only.
	GetStatus(ctx context.Context, consignmentID string) (*ConsignmentResult, error)
}
