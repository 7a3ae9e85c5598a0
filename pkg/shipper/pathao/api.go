package pathao

import (
	"context"
)

// APIClient defines the interface for Pathao merchant API operations.
type APIClient interface {
	// IssueToken exchanges merchant credentials for a short-lived bearer token.
	IssueToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error)

	// CreateOrder books a parcel.
	CreateOrder(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error)

	// GetOrderInfo fetches the short info of a consignment.
	GetOrderInfo(ctx context.Context, token string, consignmentID string) (*OrderInfoResponse, error)
}

// ============================================================================
// API Request/Response Types (match the Pathao Aladdin JSON API)
// ============================================================================

// TokenRequest is the password-grant token request.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	GrantType    string `json:"grant_type"`
}

// TokenResponse is the issued token.
type TokenResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Delivery and item type codes.
const (
	DeliveryTypeNormal = 48
	ItemTypeParcel     = 2
)

// OrderRequest is the create-order body.
type OrderRequest struct {
	StoreID            int     `json:"store_id"`
	MerchantOrderID    string  `json:"merchant_order_id"`
	RecipientName      string  `json:"recipient_name"`
	RecipientPhone     string  `json:"recipient_phone"`
	RecipientAddress   string  `json:"recipient_address"`
	DeliveryType       int     `json:"delivery_type"`
	ItemType           int     `json:"item_type"`
	SpecialInstruction string  `json:"special_instruction,omitempty"`
	ItemQuantity       int     `json:"item_quantity"`
	ItemWeight         float64 `json:"item_weight"`
	AmountToCollect    int64   `json:"amount_to_collect"`
	ItemDescription    string  `json:"item_description,omitempty"`
}

// OrderResponse is the create-order response envelope.
type OrderResponse struct {
	Message string           `json:"message"`
	Type    string           `json:"type"`
	Code    int              `json:"code"`
	Data    OrderCreatedData `json:"data"`
}

// OrderCreatedData is the booked consignment.
type OrderCreatedData struct {
	ConsignmentID   string  `json:"consignment_id"`
	MerchantOrderID string  `json:"merchant_order_id"`
	OrderStatus     string  `json:"order_status"`
	DeliveryFee     float64 `json:"delivery_fee"`
}

// OrderInfoResponse is the order-info response envelope.
type OrderInfoResponse struct {
	Message string        `json:"message"`
	Type    string        `json:"type"`
	Code    int           `json:"code"`
	Data    OrderInfoData `json:"data"`
}

// OrderInfoData is a consignment's current state.
type OrderInfoData struct {
	ConsignmentID   string `json:"consignment_id"`
	MerchantOrderID string `json:"merchant_order_id"`
	OrderStatus     string `json:"order_status"`
	OrderStatusSlug string `json:"order_status_slug"`
	UpdatedAt       string `json:"updated_at"`
	InvoiceID       string `json:"invoice_id,omitempty"`
}

// RawStatus returns the most specific status field present.
func (d OrderInfoData) RawStatus() string {
	if d.OrderStatusSlug != "" {
		return d.OrderStatusSlug
	}
	return d.OrderStatus
}

// errorResponse is the error envelope.
type errorResponse struct {
	Message string              `json:"message"`
	Type    string              `json:"type"`
	Code    int                 `json:"code"`
	Errors  map[string][]string `json:"errors"`
}
