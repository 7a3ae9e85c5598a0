// Package steadfast provides integration with the Steadfast courier API.
package steadfast

import (
	"context"
	"strings"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "steadfast"

// Credential keys stored in the tenant's carrier configuration.
const (
	CredAPIKey    = "api_key"
	CredSecretKey = "secret_key"
)

// Config holds Steadfast configuration.
type Config struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
	UseMock   bool
}

// ConfigFromCredentials validates a tenant's stored secrets.
func ConfigFromCredentials(creds shipper.Credentials) (Config, error) {
	if err := creds.Require(carrierName, CredAPIKey, CredSecretKey); err != nil {
		return Config{}, err
	}
	return Config{
		APIKey:    creds.Get(CredAPIKey),
		SecretKey: creds.Get(CredSecretKey),
	}, nil
}

// Client is the Steadfast shipper client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Steadfast client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			SecretKey: cfg.SecretKey,
			Timeout:   cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Steadfast client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    shipper.TracerOrNoop(tracer),
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// CreateOrder places a consignment with Steadfast. The address is sent as
// typed; Steadfast does its own area matching.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "steadfast.CreateOrder",
		trace.WithAttributes(attribute.String("courier.invoice", req.TrackingID)))
	defer func() { shipper.FinishSpan(span, err) }()

	c.logger.Info("Creating Steadfast order",
		zap.String("invoice", req.TrackingID),
		zap.String("recipient", req.Delivery.RecipientName),
	)

	cod, _ := shipper.CashToCollect(req.Order, req.Delivery).Float64()
	apiReq := &OrderRequest{
		Invoice:          req.TrackingID,
		RecipientName:    req.Delivery.RecipientName,
		RecipientPhone:   req.Delivery.RecipientPhone,
		RecipientAddress: fullAddress(req.Delivery),
		CODAmount:        cod,
		Note:             req.Delivery.SpecialInstruction,
	}

	apiResp, err := c.apiClient.CreateOrder(ctx, apiReq)
	if err != nil {
		c.logger.Error("Steadfast API error", zap.Error(err))
		return nil, err
	}

	return &shipper.ConsignmentResult{
		ConsignmentID:  apiResp.Consignment.ConsignmentID.String(),
		DeliveryStatus: shipper.NormalizeStatus(apiResp.Consignment.Status),
		RawStatus:      apiResp,
	}, nil
}

// GetStatus fetches a consignment's delivery status from Steadfast.
func (c *Client) GetStatus(ctx context.Context, consignmentID string) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "steadfast.GetStatus",
		trace.WithAttributes(attribute.String("courier.consignment_id", consignmentID)))
	defer func() { shipper.FinishSpan(span, err) }()

	c.logger.Info("Getting Steadfast delivery status", zap.String("consignment_id", consignmentID))

	apiResp, err := c.apiClient.StatusByConsignmentID(ctx, consignmentID)
	if err != nil {
		c.logger.Error("Steadfast API error", zap.Error(err))
		return nil, err
	}

	return &shipper.ConsignmentResult{
		ConsignmentID:  consignmentID,
		DeliveryStatus: shipper.NormalizeStatus(apiResp.DeliveryStatus),
		RawStatus:      apiResp,
	}, nil
}

// fullAddress appends area and city when the merchant left them out of the street line.
func fullAddress(d shipper.DeliveryDetails) string {
	addr := d.RecipientAddress
	for _, part := range []string{d.Area, d.City} {
		if part != "" && !strings.Contains(strings.ToLower(addr), strings.ToLower(part)) {
			addr += ", " + part
		}
	}
	return addr
}

var _ shipper.Shipper = (*Client)(nil)
