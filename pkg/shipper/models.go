package shipper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OrderStatus is the commerce-side lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// TerminalOrderStatuses are never reconciled again.
var TerminalOrderStatuses = []OrderStatus{OrderDelivered, OrderCancelled}

// IsTerminal reports whether the order has left the delivery pipeline.
func (s OrderStatus) IsTerminal() bool {
	for _, t := range TerminalOrderStatuses {
		if strings.EqualFold(string(s), string(t)) {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// CarrierConfig is a tenant's stored configuration for one carrier.
type CarrierConfig struct {
	ID          Carrier
	TenantID    string
	Name        string
	Enabled     bool
	Credentials Credentials
}

// OrderItem is a line of an order, as far as carriers care.
type OrderItem struct {
	Name     string
	Quantity int
}

// Order is the read model of a commerce order consumed by the dispatch layer.
type Order struct {
	ID              string
	TenantID        string
	TrackingID      string // tenant-facing order reference
	Status          OrderStatus
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Total           decimal.Decimal
	Items           []OrderItem
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Courier         *OrderCourierInfo
}

// HasCourierBinding reports whether the order is bound to a carrier consignment.
func (o *Order) HasCourierBinding() bool {
	return o.Courier != nil && o.Courier.ServiceID != "" && o.Courier.ConsignmentID != ""
}

// ItemCount returns the total quantity across all items, at least 1.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	if n < 1 {
		return 1
	}
	return n
}

// ItemSummary returns a short human description of the order contents.
func (o *Order) ItemSummary() string {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}
	return strings.Join(names, ", ")
}

// OrderCourierInfo binds an order to one carrier consignment.
type OrderCourierInfo struct {
	ServiceID      Carrier
	ConsignmentID  string // opaque; only the owning adapter may parse it
	TrackingNumber string
	Status         string // always normalized
}

// DeliveryDetails is the merchant-entered delivery request for a dispatch.
type DeliveryDetails struct {
	RecipientName      string           `json:"recipientName" validate:"required"`
	RecipientPhone     string           `json:"recipientPhone" validate:"required"`
	RecipientAddress   string           `json:"recipientAddress" validate:"required"`
	City               string           `json:"city" validate:"required"`
	Area               string           `json:"area" validate:"required"`
	WeightKG           float64          `json:"weightKg" validate:"gte=0"`
	AmountToCollect    *decimal.Decimal `json:"amountToCollect,omitempty"`
	SpecialInstruction string           `json:"specialInstruction,omitempty"`
}

// ============================================================================
// Request/Response Types
// ============================================================================

// CreateOrderRequest is the request for booking a consignment.
type CreateOrderRequest struct {
	Order      *Order
	TrackingID string // tenant tracking id sent as the merchant reference
	Delivery   DeliveryDetails
}

// ConsignmentResult is returned by both adapter operations.
type ConsignmentResult struct {
	ConsignmentID  string
	DeliveryStatus string // normalized
	RawStatus      any    // provider payload, kept for audit only
}
