package steadfast_test

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
	"github.com/tournevent/courier/pkg/shipper/steadfast"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(api steadfast.APIClient) *steadfast.Client {
	return steadfast.NewWithAPIClient(steadfast.Config{}, api, otelzap.New(zap.NewNop()), nil)
}

func newRequest(method shipper.PaymentMethod, status shipper.PaymentStatus) *shipper.CreateOrderRequest {
	return &shipper.CreateOrderRequest{
		Order: &shipper.Order{
			ID:            "ord-3",
			PaymentMethod: method,
			PaymentStatus: status,
			Total:         decimal.RequireFromString("499.50"),
		},
		TrackingID: "INV-3",
		Delivery: shipper.DeliveryDetails{
			RecipientName:      "Nadia",
			RecipientPhone:     "01912345678",
			RecipientAddress:   "Flat 4B, Road 27",
			City:               "Dhaka",
			Area:               "Banani",
			SpecialInstruction: "Call before delivery",
		},
	}
}

func TestClient_CreateOrder_COD(t *testing.T) {
	mockAPI := steadfast.NewMockAPIClient()
	client := newTestClient(mockAPI)

	resp, err := client.CreateOrder(context.Background(), newRequest(shipper.PaymentCOD, shipper.PaymentUnpaid))

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ConsignmentID)
	assert.Equal(t, "In Review", resp.DeliveryStatus)
	assert.Equal(t, float64(500), mockAPI.LastOrder.CODAmount)
	assert.Equal(t, "Flat 4B, Road 27, Banani, Dhaka", mockAPI.LastOrder.RecipientAddress)
	assert.Equal(t, "Call before delivery", mockAPI.LastOrder.Note)
}

func TestClient_CreateOrder_PrepaidCollectsNothing(t *testing.T) {
	mockAPI := steadfast.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.CreateOrder(context.Background(), newRequest(shipper.PaymentOnline, shipper.PaymentPaid))

	require.NoError(t, err)
	assert.Zero(t, mockAPI.LastOrder.CODAmount)
}

func TestClient_GetStatus(t *testing.T) {
	mockAPI := steadfast.NewMockAPIClient()
	mockAPI.OnStatus = func(ctx context.Context, id string) (*steadfast.StatusResponse, error) {
		return &steadfast.StatusResponse{Status: 200, DeliveryStatus: "delivered_approval_pending"}, nil
	}
	client := newTestClient(mockAPI)

	resp, err := client.GetStatus(context.Background(), "1400001")

	require.NoError(t, err)
	assert.Equal(t, "Delivered Approval Pending", resp.DeliveryStatus)
}

func TestHTTPAPIClient_WireContract(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /create_order", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("Api-Key"))
		assert.Equal(t, "s", r.Header.Get("Secret-Key"))
		var req steadfast.OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Write([]byte(`{"status":200,"message":"ok","consignment":{"consignment_id":1424107,"invoice":"INV-3","tracking_code":"15BAEB8A","status":"in_review"}}`))
	})
	mux.HandleFunc("GET /status_by_cid/1424107", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":200,"delivery_status":"partial_delivered"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := steadfast.NewHTTPAPIClient(steadfast.HTTPAPIClientConfig{BaseURL: srv.URL, APIKey: "k", SecretKey: "s"})
	client := newTestClient(api)
	ctx := context.Background()

	created, err := client.CreateOrder(ctx, newRequest(shipper.PaymentCOD, shipper.PaymentUnpaid))
	require.NoError(t, err)
	assert.Equal(t, "1424107", created.ConsignmentID)

	status, err := client.GetStatus(ctx, created.ConsignmentID)
	require.NoError(t, err)
	assert.Equal(t, "Partial Delivered", status.DeliveryStatus)
}

func TestHTTPAPIClient_BodyStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":400,"message":"Invoice already exists"}`))
	}))
	defer srv.Close()

	api := steadfast.NewHTTPAPIClient(steadfast.HTTPAPIClientConfig{BaseURL: srv.URL})
	_, err := api.CreateOrder(context.Background(), &steadfast.OrderRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrProvider))
	assert.Equal(t, "Invoice already exists", shipper.RawText(err))
}

func TestConfigFromCredentials_Missing(t *testing.T) {
	_, err := steadfast.ConfigFromCredentials(shipper.Credentials{steadfast.CredAPIKey: "k"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))
	assert.Contains(t, err.Error(), "secret_key")
}
