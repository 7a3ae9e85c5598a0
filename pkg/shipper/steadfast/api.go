package steadfast

import (
	"context"
	"encoding/json"
)

// APIClient defines the interface for Steadfast courier API operations.
type APIClient interface {
	// CreateOrder places a single consignment.
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)

	// StatusByConsignmentID fetches a consignment's delivery status.
	StatusByConsignmentID(ctx context.Context, consignmentID string) (*StatusResponse, error)
}

// ============================================================================
// API Request/Response Types (match the Steadfast JSON API)
// ============================================================================

// OrderRequest is the create_order body.
type OrderRequest struct {
	Invoice          string  `json:"invoice"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	RecipientAddress string  `json:"recipient_address"`
	CODAmount        float64 `json:"cod_amount"`
	Note             string  `json:"note,omitempty"`
}

// OrderResponse is the create_order response.
type OrderResponse struct {
	Status      int         `json:"status"`
	Message     string      `json:"message"`
	Consignment Consignment `json:"consignment"`
}

// Consignment is a booked consignment.
type Consignment struct {
	ConsignmentID json.Number `json:"consignment_id"`
	Invoice       string      `json:"invoice"`
	TrackingCode  string      `json:"tracking_code"`
	Status        string      `json:"status"`
	CreatedAt     string      `json:"created_at"`
}

// StatusResponse is the status_by_cid response.
type StatusResponse struct {
	Status         int    `json:"status"`
	DeliveryStatus string `json:"delivery_status"`
}
