package steadfast

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateOrder func(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
	OnStatus      func(ctx context.Context, consignmentID string) (*StatusResponse, error)

	mu        sync.Mutex
	nextID    int64
	LastOrder *OrderRequest
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{nextID: 1400000}
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

// CreateOrder places a mock consignment.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	m.mu.Lock()
	m.LastOrder = req
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, req)
	}
	return &OrderResponse{
		Status:  200,
		Message: "Consignment has been created successfully.",
		Consignment: Consignment{
			ConsignmentID: json.Number(strconv.FormatInt(id, 10)),
			Invoice:       req.Invoice,
			TrackingCode:  "SF" + strconv.FormatInt(id, 36),
			Status:        "in_review",
			CreatedAt:     time.Now().Format(time.RFC3339),
		},
	}, nil
}

// StatusByConsignmentID returns a mock delivery status.
func (m *MockAPIClient) StatusByConsignmentID(ctx context.Context, consignmentID string) (*StatusResponse, error) {
	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnStatus != nil {
		return m.OnStatus(ctx, consignmentID)
	}
	return &StatusResponse{Status: 200, DeliveryStatus: "pending"}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
