package redx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/pkg/shipper"
	"github.com/tournevent/courier/pkg/shipper/redx"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *redx.MockAPIClient) *redx.Client {
	logger := otelzap.New(zap.NewNop())
	return redx.NewWithAPIClient(redx.Config{APIKey: "key"}, mockClient, nil, logger, nil)
}

func newRequest(city, area string, weightKG float64) *shipper.CreateOrderRequest {
	return &shipper.CreateOrderRequest{
		Order: &shipper.Order{
			ID:            "ord-7",
			PaymentMethod: shipper.PaymentCOD,
			Total:         decimal.RequireFromString("850.40"),
		},
		TrackingID: "INV-7",
		Delivery: shipper.DeliveryDetails{
			RecipientName:    "Karim",
			RecipientPhone:   "01812345678",
			RecipientAddress: "Block C",
			City:             city,
			Area:             area,
			WeightKG:         weightKG,
		},
	}
}

func TestClient_CreateOrder_ResolvesAreaInCity(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	client := newTestClient(mockAPI)

	resp, err := client.CreateOrder(context.Background(), newRequest("Dhaka", "mohammadpur", 1.25))

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ConsignmentID)
	assert.Equal(t, "Pending", resp.DeliveryStatus)

	require.NotNil(t, mockAPI.LastParcel)
	assert.Equal(t, int64(1), mockAPI.LastParcel.DeliveryAreaID)
	assert.Equal(t, "Mohammadpur(Dhaka)", mockAPI.LastParcel.DeliveryArea)
	assert.Equal(t, 1250, mockAPI.LastParcel.ParcelWeight)
	assert.Equal(t, "850", mockAPI.LastParcel.CashCollectionAmount)
	assert.Equal(t, "INV-7", mockAPI.LastParcel.MerchantInvoiceID)
	assert.Equal(t, []string{"Dhaka"}, mockAPI.AreaCalls)
}

func TestClient_CreateOrder_DefaultWeight(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.CreateOrder(context.Background(), newRequest("Dhaka", "Dhanmondi", 0))

	require.NoError(t, err)
	assert.Equal(t, 500, mockAPI.LastParcel.ParcelWeight)
}

func TestClient_CreateOrder_FallsBackToFullCatalog(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	mockAPI.AreasByDistrict = map[string][]redx.APIArea{
		"dhaka": {{ID: 3, Name: "Mirpur"}},
		"":      {{ID: 3, Name: "Mirpur"}, {ID: 50, Name: "Bogura"}},
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateOrder(context.Background(), newRequest("Dhaka", "Bogura", 0))

	require.NoError(t, err)
	assert.Equal(t, int64(50), mockAPI.LastParcel.DeliveryAreaID)
	assert.Equal(t, []string{"Dhaka", ""}, mockAPI.AreaCalls)
}

func TestClient_CreateOrder_UnresolvableAreaFails(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.CreateOrder(context.Background(), newRequest("Dhaka", "Zzyzx", 0))

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrAreaResolution))
	assert.Contains(t, err.Error(), "Dhanmondi")
	assert.Nil(t, mockAPI.LastParcel)
}

func TestClient_GetStatus_Normalizes(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	client := newTestClient(mockAPI)

	resp, err := client.GetStatus(context.Background(), "RX1")

	require.NoError(t, err)
	assert.Equal(t, "Ready For Delivery", resp.DeliveryStatus)
}

func TestHTTPAPIClient_WireContract(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /areas", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("API-ACCESS-TOKEN"))
		assert.Equal(t, "Dhaka", r.URL.Query().Get("district_name"))
		w.Write([]byte(`{"areas":[{"id":7,"name":"Dhanmondi","post_code":1209,"division_name":"Dhaka","zone_id":1}]}`))
	})
	mux.HandleFunc("POST /parcel", func(w http.ResponseWriter, r *http.Request) {
		var req redx.ParcelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.DeliveryAreaID)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"tracking_id":"21A427TU4BN3R"}`))
	})
	mux.HandleFunc("GET /parcel/info/21A427TU4BN3R", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"parcel":{"tracking_id":"21A427TU4BN3R","status":"delivery-in-progress"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := redx.NewHTTPAPIClient(redx.HTTPAPIClientConfig{BaseURL: srv.URL, APIKey: "key"})
	client := redx.NewWithAPIClient(redx.Config{}, api, nil, otelzap.New(zap.NewNop()), nil)
	ctx := context.Background()

	created, err := client.CreateOrder(ctx, newRequest("Dhaka", "Dhanmondi", 0))
	require.NoError(t, err)
	assert.Equal(t, "21A427TU4BN3R", created.ConsignmentID)

	status, err := client.GetStatus(ctx, created.ConsignmentID)
	require.NoError(t, err)
	assert.Equal(t, "Delivery In Progress", status.DeliveryStatus)
}

func TestHTTPAPIClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid request","validation_errors":[{"param":"customer_phone","msg":"invalid"}]}`))
	}))
	defer srv.Close()

	api := redx.NewHTTPAPIClient(redx.HTTPAPIClientConfig{BaseURL: srv.URL})
	_, err := api.CreateParcel(context.Background(), &redx.ParcelRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrProvider))
	assert.Equal(t, "Invalid request customer_phone: invalid", shipper.RawText(err))
}
