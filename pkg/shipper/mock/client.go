// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tournevent/courier/pkg/shipper"
)

// Client is a mock shipper for testing. By default CreateOrder books a
// consignment in status "Pending" and GetStatus reports whatever was last
// set with SetStatus.
type Client struct {
	name string

	OnCreateOrder func(ctx context.Context, req *shipper.CreateOrderRequest) (*shipper.ConsignmentResult, error)
	OnGetStatus   func(ctx context.Context, consignmentID string) (*shipper.ConsignmentResult, error)

	mu          sync.Mutex
	statuses    map[string]string
	creates     []*shipper.CreateOrderRequest
	statusCalls []string
}

// New creates a new mock shipper.
func New(name string) *Client {
	return &Client{name: name, statuses: make(map[string]string)}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// CreateOrder creates a mock consignment.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (*shipper.ConsignmentResult, error) {
	c.mu.Lock()
	c.creates = append(c.creates, req)
	c.mu.Unlock()

	if c.OnCreateOrder != nil {
		return c.OnCreateOrder(ctx, req)
	}

	id := fmt.Sprintf("%s-%s", c.name, uuid.NewString()[:8])
	c.SetStatus(id, "pending")
	return &shipper.ConsignmentResult{
		ConsignmentID:  id,
		DeliveryStatus: shipper.NormalizeStatus("pending"),
		RawStatus:      map[string]string{"status": "pending"},
	}, nil
}

// GetStatus returns the mock status of a consignment.
func (c *Client) GetStatus(ctx context.Context, consignmentID string) (*shipper.ConsignmentResult, error) {
	c.mu.Lock()
	c.statusCalls = append(c.statusCalls, consignmentID)
	raw := c.statuses[consignmentID]
	c.mu.Unlock()

	if c.OnGetStatus != nil {
		return c.OnGetStatus(ctx, consignmentID)
	}
	return &shipper.ConsignmentResult{
		ConsignmentID:  consignmentID,
		DeliveryStatus: shipper.NormalizeStatus(raw),
		RawStatus:      map[string]string{"status": raw},
	}, nil
}

// SetStatus sets the carrier-native status GetStatus reports for a consignment.
func (c *Client) SetStatus(consignmentID, raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[consignmentID] = raw
}

// CreateCalls returns every CreateOrder request received.
func (c *Client) CreateCalls() []*shipper.CreateOrderRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*shipper.CreateOrderRequest(nil), c.creates...)
}

// StatusCalls returns the consignment ids GetStatus was asked for.
func (c *Client) StatusCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.statusCalls...)
}

var _ shipper.Shipper = (*Client)(nil)
