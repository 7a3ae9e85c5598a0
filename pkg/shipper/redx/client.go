// Package redx provides integration with the RedX OpenAPI.
package redx

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
	"github.com/tournevent/courier/pkg/shipper/area"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	carrierName = "redx"

	defaultWeightGrams = 500
)

// CredAPIKey is the credential key holding the RedX access token.
const CredAPIKey = "api_key"

// Config holds RedX configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	UseMock bool
}

// ConfigFromCredentials validates a tenant's stored secrets.
func ConfigFromCredentials(creds shipper.Credentials) (Config, error) {
	if err := creds.Require(carrierName, CredAPIKey); err != nil {
		return Config{}, err
	}
	return Config{APIKey: creds.Get(CredAPIKey)}, nil
}

// Client is the RedX shipper client.
type Client struct {
	config    Config
	apiClient APIClient
	resolver  *area.Resolver
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new RedX client. catalog may wrap the API's own area
// catalog (e.g. with caching); nil uses the API directly.
func New(cfg Config, catalog func(area.Catalog) area.Catalog, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
	}

	var cat area.Catalog = Catalog(apiClient)
	if catalog != nil {
		cat = catalog(cat)
	}
	return NewWithAPIClient(cfg, apiClient, cat, logger, tracer)
}

// NewWithAPIClient creates a new RedX client with a custom API client and catalog.
func NewWithAPIClient(cfg Config, apiClient APIClient, catalog area.Catalog, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if catalog == nil {
		catalog = Catalog(apiClient)
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		resolver:  area.NewResolver(carrierName, catalog),
		logger:    logger,
		tracer:    shipper.TracerOrNoop(tracer),
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// CreateOrder resolves the delivery area and books a parcel with RedX.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "redx.CreateOrder",
		trace.WithAttributes(attribute.String("courier.merchant_invoice_id", req.TrackingID)))
	defer func() { shipper.FinishSpan(span, err) }()

	c.logger.Info("Creating RedX parcel",
		zap.String("merchant_invoice_id", req.TrackingID),
		zap.String("city", req.Delivery.City),
		zap.String("area", req.Delivery.Area),
	)

	resolved, err := c.resolver.Resolve(ctx, req.Delivery.City, req.Delivery.Area)
	if err != nil {
		c.logger.Error("RedX area resolution failed", zap.String("area", req.Delivery.Area), zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int64("courier.area_id", resolved.ID))

	apiReq := &ParcelRequest{
		CustomerName:         req.Delivery.RecipientName,
		CustomerPhone:        req.Delivery.RecipientPhone,
		DeliveryArea:         resolved.Name,
		DeliveryAreaID:       resolved.ID,
		CustomerAddress:      req.Delivery.RecipientAddress,
		MerchantInvoiceID:    req.TrackingID,
		CashCollectionAmount: shipper.CashToCollect(req.Order, req.Delivery).StringFixed(0),
		ParcelWeight:         weightGrams(req.Delivery.WeightKG),
		Instruction:          req.Delivery.SpecialInstruction,
		Value:                req.Order.Total.StringFixed(0),
	}

	apiResp, err := c.apiClient.CreateParcel(ctx, apiReq)
	if err != nil {
		c.logger.Error("RedX API error", zap.Error(err))
		return nil, err
	}

	return &shipper.ConsignmentResult{
		ConsignmentID:  apiResp.TrackingID,
		DeliveryStatus: shipper.NormalizeStatus(""),
		RawStatus:      apiResp,
	}, nil
}

// GetStatus fetches a parcel's current status from RedX.
func (c *Client) GetStatus(ctx context.Context, consignmentID string) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "redx.GetStatus",
		trace.WithAttributes(attribute.String("courier.consignment_id", consignmentID)))
	defer func() { shipper.FinishSpan(span, err) }()

	c.logger.Info("Getting RedX parcel status", zap.String("tracking_id", consignmentID))

	apiResp, err := c.apiClient.GetParcelInfo(ctx, consignmentID)
	if err != nil {
		c.logger.Error("RedX API error", zap.Error(err))
		return nil, err
	}

	return &shipper.ConsignmentResult{
		ConsignmentID:  consignmentID,
		DeliveryStatus: shipper.NormalizeStatus(apiResp.Parcel.Status),
		RawStatus:      apiResp,
	}, nil
}

func weightGrams(kg float64) int {
	if kg <= 0 {
		return defaultWeightGrams
	}
	return int(math.Round(kg * 1000))
}

// apiCatalog adapts the areas endpoint to area.Catalog.
type apiCatalog struct {
	api APIClient
}

// Catalog exposes the RedX area endpoint as an area.Catalog.
func Catalog(api APIClient) area.Catalog {
	return apiCatalog{api: api}
}

func (c apiCatalog) Areas(ctx context.Context, district string) ([]area.Area, error) {
	resp, err := c.api.GetAreas(ctx, district)
	if err != nil {
		return nil, err
	}
	areas := make([]area.Area, len(resp.Areas))
	for i, a := range resp.Areas {
		areas[i] = area.Area{
			ID:       a.ID,
			Name:     a.Name,
			PostCode: postCode(a.PostCode),
			District: district,
		}
	}
	return areas, nil
}

func postCode(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}

var _ shipper.Shipper = (*Client)(nil)
