package paperfly

import (
	"context"
)

// APIClient defines the interface for Paperfly merchant API operations.
type APIClient interface {
	// PlaceOrder books a single parcel.
	PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)

	// TrackOrder fetches the tracking timeline of a parcel.
	TrackOrder(ctx context.Context, req *TrackingRequest) (*TrackingResponse, error)
}

// ============================================================================
// API Request/Response Types (match the Paperfly JSON API)
// ============================================================================

// OrderRequest is the OrderPlacement body.
type OrderRequest struct {
	MerOrderRef          string `json:"merOrderRef"`
	PickMerchantName     string `json:"pickMerchantName"`
	PickMerchantAddress  string `json:"pickMerchantAddress"`
	PickMerchantThana    string `json:"pickMerchantThana"`
	PickMerchantDistrict string `json:"pickMerchantDistrict"`
	PickupMerchantPhone  string `json:"pickupMerchantPhone"`
	ProductSizeWeight    string `json:"productSizeWeight"`
	ProductBrief         string `json:"productBrief"`
	PackagePrice         string `json:"packagePrice"`
	MaxWeight            string `json:"max_weight"`
	DeliveryOption       string `json:"deliveryOption"`
	CustName             string `json:"custname"`
	CustAddress          string `json:"custaddress"`
	CustomerThana        string `json:"customerThana"`
	CustomerDistrict     string `json:"customerDistrict"`
	CustPhone            string `json:"custPhone"`
}

// Fixed OrderRequest values.
const (
	ProductSizeStandard   = "standard"
	DeliveryOptionRegular = "regular"
)

// OrderResponse is the OrderPlacement response. Exactly one of Success or
// Error is set.
type OrderResponse struct {
	ResponseCode int           `json:"response_code"`
	Success      *OrderSuccess `json:"success,omitempty"`
	Error        *APIError     `json:"error,omitempty"`
}

// OrderSuccess carries the booked parcel.
type OrderSuccess struct {
	Message        string `json:"message"`
	TrackingNumber string `json:"tracking_number"`
}

// APIError is Paperfly's error envelope.
type APIError struct {
	Message string `json:"message"`
}

// TrackingRequest is the API-Order-Tracking body.
type TrackingRequest struct {
	ReferenceNumber string `json:"ReferenceNumber"`
	CustomerPhone   string `json:"customerPhone"`
}

// TrackingResponse is the API-Order-Tracking response.
type TrackingResponse struct {
	ResponseCode int              `json:"response_code"`
	Success      *TrackingSuccess `json:"success,omitempty"`
	Error        *APIError        `json:"error,omitempty"`
}

// TrackingSuccess holds the parcel timeline.
type TrackingSuccess struct {
	TrackingStatus []TrackingStage `json:"trackingStatus"`
}

// TrackingStage holds the timestamp of every lifecycle stage the parcel has
// reached. Stages not reached yet are empty.
type TrackingStage struct {
	Pick              string `json:"Pick"`
	InTransit         string `json:"inTransit"`
	ReceivedAtPoint   string `json:"ReceivedAtPoint"`
	PickedForDelivery string `json:"PickedForDelivery"`
	Delivered         string `json:"Delivered"`
	Returned          string `json:"Returned"`
	Partial           string `json:"Partial"`
	Close             string `json:"close"`
}

// RawStatus names the furthest stage reached, or "" when none is.
func (r *TrackingResponse) RawStatus() string {
	if r.Success == nil || len(r.Success.TrackingStatus) == 0 {
		return ""
	}
	s := r.Success.TrackingStatus[len(r.Success.TrackingStatus)-1]
	stages := []struct {
		at, name string
	}{
		{s.Close, "closed"},
		{s.Returned, "returned"},
		{s.Partial, "partial_delivery"},
		{s.Delivered, "delivered"},
		{s.PickedForDelivery, "picked_for_delivery"},
		{s.ReceivedAtPoint, "received_at_point"},
		{s.InTransit, "in_transit"},
		{s.Pick, "picked"},
	}
	for _, st := range stages {
		if st.at != "" {
			return st.name
		}
	}
	return ""
}
