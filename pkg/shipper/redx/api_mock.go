package redx

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

	// AreasByDistrict backs GetAreas; the "" key is the full catalog.
	AreasByDistrict map[string][]APIArea

	OnCreateParcel  func(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error)
	OnGetParcelInfo func(ctx context.Context, trackingID string) (*ParcelInfoResponse, error)

	mu         sync.Mutex
	AreaCalls  []string
	LastParcel *ParcelRequest
}

// NewMockAPIClient creates a new mock API client with a small Dhaka catalog.
func NewMockAPIClient() *MockAPIClient {
	dhaka := []APIArea{
		{ID: 1, Name: "Mohammadpur(Dhaka)", PostCode: 1207, DivisionName: "Dhaka"},
		{ID: 2, Name: "Dhanmondi", PostCode: 1209, DivisionName: "Dhaka"},
		{ID: 3, Name: "Mirpur DOHS", PostCode: 1216, DivisionName: "Dhaka"},
		{ID: 4, Name: "Uttara Sector 10", PostCode: 1230, DivisionName: "Dhaka"},
	}
	all := append([]APIArea{
		{ID: 50, Name: "Agrabad", PostCode: 4100, DivisionName: "Chattogram"},
		{ID: 51, Name: "Savar", PostCode: 1340, DivisionName: "Dhaka"},
	}, dhaka...)
	return &MockAPIClient{
		AreasByDistrict: map[string][]APIArea{
			"dhaka": dhaka,
			"":      all,
		},
	}
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

// GetAreas returns the configured catalog for a district.
func (m *MockAPIClient) GetAreas(ctx context.Context, districtName string) (*AreasResponse, error) {
	m.mu.Lock()
	m.AreaCalls = append(m.AreaCalls, districtName)
	m.mu.Unlock()

	if err := m.before(); err != nil {
		return nil, err
	}
	return &AreasResponse{Areas: m.AreasByDistrict[strings.ToLower(districtName)]}, nil
}

// CreateParcel books a mock parcel.
func (m *MockAPIClient) CreateParcel(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error) {
	m.mu.Lock()
	m.LastParcel = req
	m.mu.Unlock()

	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnCreateParcel != nil {
		return m.OnCreateParcel(ctx, req)
	}
	return &ParcelResponse{TrackingID: "RX" + strings.ToUpper(uuid.New().String()[:8])}, nil
}

// GetParcelInfo returns mock parcel info.
func (m *MockAPIClient) GetParcelInfo(ctx context.Context, trackingID string) (*ParcelInfoResponse, error) {
	if err := m.before(); err != nil {
		return nil, err
	}
	if m.OnGetParcelInfo != nil {
		return m.OnGetParcelInfo(ctx, trackingID)
	}
	return &ParcelInfoResponse{Parcel: ParcelInfo{
		TrackingID: trackingID,
		Status:     "ready-for-delivery",
		CreatedAt:  time.Now().Format(time.RFC3339),
	}}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
