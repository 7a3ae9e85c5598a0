package redx

import (
	"context"
)

// APIClient defines the interface for RedX OpenAPI operations.
type APIClient interface {
	// GetAreas lists delivery areas, optionally filtered by district name.
	GetAreas(ctx context.Context, districtName string) (*AreasResponse, error)

	// CreateParcel books a parcel.
	CreateParcel(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error)

	// GetParcelInfo fetches a parcel's current state.
	GetParcelInfo(ctx context.Context, trackingID string) (*ParcelInfoResponse, error)
}

// ============================================================================
// API Request/Response Types (match the RedX OpenAPI JSON structure)
// ============================================================================

// AreasResponse is the area catalog page.
type AreasResponse struct {
	Areas []APIArea `json:"areas"`
}

// APIArea is a single catalog entry.
type APIArea struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PostCode     int    `json:"post_code"`
	DivisionName string `json:"division_name"`
	ZoneID       int    `json:"zone_id"`
}

// ParcelRequest is the create-parcel body.
type ParcelRequest struct {
	CustomerName         string `json:"customer_name"`
	CustomerPhone        string `json:"customer_phone"`
	DeliveryArea         string `json:"delivery_area"`
	DeliveryAreaID       int64  `json:"delivery_area_id"`
	CustomerAddress      string `json:"customer_address"`
	MerchantInvoiceID    string `json:"merchant_invoice_id"`
	CashCollectionAmount string `json:"cash_collection_amount"`
	ParcelWeight         int    `json:"parcel_weight"`
	Instruction          string `json:"instruction,omitempty"`
	Value                string `json:"value"`
}

// ParcelResponse is the create-parcel response.
type ParcelResponse struct {
	TrackingID string `json:"tracking_id"`
}

// ParcelInfoResponse wraps parcel details.
type ParcelInfoResponse struct {
	Parcel ParcelInfo `json:"parcel"`
}

// ParcelInfo is a parcel's current state.
type ParcelInfo struct {
	TrackingID           string  `json:"tracking_id"`
	CustomerAddress      string  `json:"customer_address"`
	DeliveryArea         string  `json:"delivery_area"`
	DeliveryAreaID       int64   `json:"delivery_area_id"`
	CustomerName         string  `json:"customer_name"`
	CustomerPhone        string  `json:"customer_phone"`
	CashCollectionAmount string  `json:"cash_collection_amount"`
	ParcelWeight         int     `json:"parcel_weight"`
	MerchantInvoiceID    string  `json:"merchant_invoice_id"`
	Status               string  `json:"status"`
	Instruction          string  `json:"instruction"`
	CreatedAt            string  `json:"created_at"`
	DeliveryCharge       float64 `json:"charge"`
}

// errorResponse is the error envelope.
type errorResponse struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	Validation []struct {
		Param   string `json:"param"`
		Message string `json:"msg"`
	} `json:"validation_errors"`
}
