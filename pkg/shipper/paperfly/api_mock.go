package paperfly

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

	OnPlaceOrder func(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
	OnTrackOrder func(ctx context.Context, req *TrackingRequest) (*TrackingResponse, error)

	mu sync.Mutex
	// Orders records every PlaceOrder body in call order.
	Orders []OrderRequest
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

// PlaceOrder books a mock parcel.
func (m *MockAPIClient) PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	m.mu.Lock()
	m.Orders = append(m.Orders, *req)
	m.mu.Unlock()

	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnPlaceOrder != nil {
		return m.OnPlaceOrder(ctx, req)
	}
	return &OrderResponse{
		ResponseCode: 200,
		Success: &OrderSuccess{
			Message:        "Order placed successfully",
			TrackingNumber: "PF-" + strings.ToUpper(uuid.NewString()[:8]),
		},
	}, nil
}

// TrackOrder returns a mock timeline that has only reached pickup.
func (m *MockAPIClient) TrackOrder(ctx context.Context, req *TrackingRequest) (*TrackingResponse, error) {
	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnTrackOrder != nil {
		return m.OnTrackOrder(ctx, req)
	}
	return &TrackingResponse{
		ResponseCode: 200,
		Success: &TrackingSuccess{TrackingStatus: []TrackingStage{
			{Pick: time.Now().Format("2006-01-02 15:04:05")},
		}},
	}, nil
}

// Thanas lists the customerThana of every recorded PlaceOrder call.
func (m *MockAPIClient) Thanas() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Orders))
	for i, o := range m.Orders {
		out[i] = o.CustomerThana
	}
	return out
}

var _ APIClient = (*MockAPIClient)(nil)
