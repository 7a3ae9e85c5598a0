package pathao

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/courier/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnIssueToken   func(ctx context.Context, req *TokenRequest) (*TokenResponse, error)
	OnCreateOrder  func(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error)
	OnGetOrderInfo func(ctx context.Context, token string, consignmentID string) (*OrderInfoResponse, error)

	mu          sync.Mutex
	TokenCalls  int
	CreateCalls int
	InfoCalls   int
	LastCreate  *OrderRequest
	LastToken   string
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) before() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return shipper.ProviderError(carrierName, 500, "Simulated API error")
	}
	return nil
}

// IssueToken returns a mock token.
func (m *MockAPIClient) IssueToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	m.mu.Lock()
	m.TokenCalls++
	m.mu.Unlock()

	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnIssueToken != nil {
		return m.OnIssueToken(ctx, req)
	}
	return &TokenResponse{
		TokenType:   "Bearer",
		ExpiresIn:   432000,
		AccessToken: "mock-" + uuid.New().String(),
	}, nil
}

// CreateOrder books a mock parcel.
func (m *MockAPIClient) CreateOrder(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error) {
	m.mu.Lock()
	m.CreateCalls++
	m.LastCreate = req
	m.LastToken = token
	m.mu.Unlock()

	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, token, req)
	}
	return &OrderResponse{
		Message: "Order Created Successfully",
		Type:    "success",
		Code:    200,
		Data: OrderCreatedData{
			ConsignmentID:   "DL" + strings.ToUpper(uuid.New().String()[:10]),
			MerchantOrderID: req.MerchantOrderID,
			OrderStatus:     "Pending",
			DeliveryFee:     60,
		},
	}, nil
}

// GetOrderInfo returns mock consignment info.
func (m *MockAPIClient) GetOrderInfo(ctx context.Context, token string, consignmentID string) (*OrderInfoResponse, error) {
	m.mu.Lock()
	m.InfoCalls++
	m.LastToken = token
	m.mu.Unlock()

	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnGetOrderInfo != nil {
		return m.OnGetOrderInfo(ctx, token, consignmentID)
	}
	return &OrderInfoResponse{
		Message: "Order info",
		Type:    "success",
		Code:    200,
		Data: OrderInfoData{
			ConsignmentID:   consignmentID,
			OrderStatus:     "Pickup Requested",
			OrderStatusSlug: "Pickup_Requested",
			UpdatedAt:       time.Now().Format("2006-01-02 15:04:05"),
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
