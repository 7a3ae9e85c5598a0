// Package paperfly provides integration with the Paperfly merchant API.
package paperfly

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	carrierName = "paperfly"

	defaultWeightKG = 0.5

	// thanaNotFound is the provider text that makes another thana spelling worth trying.
	thanaNotFound = "thana not found"

	consignmentSep = "|"
)

// Credential keys stored in the tenant's carrier configuration.
const (
	CredUsername       = "username"
	CredPassword       = "password"
	CredAPIKey         = "api_key"
	CredPickupName     = "pickup_name"
	CredPickupAddress  = "pickup_address"
	CredPickupThana    = "pickup_thana"
	CredPickupDistrict = "pickup_district"
	CredPickupPhone    = "pickup_phone"
)

// Pickup describes the merchant's pickup point.
type Pickup struct {
	Name     string
	Address  string
	Thana    string
	District string
	Phone    string
}

// Config holds Paperfly configuration.
type Config struct {
	Username string
	Password string
	APIKey   string
	Pickup   Pickup
	BaseURL  string
	Timeout  time.Duration
	UseMock  bool
}

// ConfigFromCredentials validates a tenant's stored secrets.
func ConfigFromCredentials(creds shipper.Credentials) (Config, error) {
	if err := creds.Require(carrierName,
		CredUsername, CredPassword, CredAPIKey,
		CredPickupName, CredPickupAddress, CredPickupThana, CredPickupDistrict, CredPickupPhone,
	); err != nil {
		return Config{}, err
	}
	return Config{
		Username: creds.Get(CredUsername),
		Password: creds.Get(CredPassword),
		APIKey:   creds.Get(CredAPIKey),
		Pickup: Pickup{
			Name:     creds.Get(CredPickupName),
			Address:  creds.Get(CredPickupAddress),
			Thana:    creds.Get(CredPickupThana),
			District: creds.Get(CredPickupDistrict),
			Phone:    creds.Get(CredPickupPhone),
		},
	}, nil
}

// Client is the Paperfly shipper client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Paperfly client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:  cfg.BaseURL,
			Username: cfg.Username,
			Password: cfg.Password,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Paperfly client with a custom API client.
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

// CreateOrder books a parcel with Paperfly. Paperfly rejects thana names it
// does not recognise, so the order is offered under each spelling from
// ThanaCandidates until one is accepted or Paperfly fails for another reason.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "paperfly.CreateOrder",
		trace.WithAttributes(attribute.String("courier.merchant_order_ref", req.TrackingID)))
	defer func() { shipper.FinishSpan(span, err) }()

	phone, err := shipper.NormalizePhone(carrierName, req.Delivery.RecipientPhone)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Creating Paperfly order",
		zap.String("merchant_order_ref", req.TrackingID),
		zap.String("recipient", req.Delivery.RecipientName),
	)

	weight := req.Delivery.WeightKG
	if weight <= 0 {
		weight = defaultWeightKG
	}

	base := OrderRequest{
		MerOrderRef:          req.TrackingID,
		PickMerchantName:     c.config.Pickup.Name,
		PickMerchantAddress:  c.config.Pickup.Address,
		PickMerchantThana:    c.config.Pickup.Thana,
		PickMerchantDistrict: c.config.Pickup.District,
		PickupMerchantPhone:  c.config.Pickup.Phone,
		ProductSizeWeight:    ProductSizeStandard,
		ProductBrief:         req.Order.ItemSummary(),
		PackagePrice:         shipper.CashToCollect(req.Order, req.Delivery).StringFixed(0),
		MaxWeight:            strconv.FormatFloat(weight, 'f', -1, 64),
		DeliveryOption:       DeliveryOptionRegular,
		CustName:             req.Delivery.RecipientName,
		CustAddress:          req.Delivery.RecipientAddress,
		CustomerDistrict:     req.Delivery.City,
		CustPhone:            phone,
	}

	policy := shipper.RetryPolicy{
		Carrier:    carrierName,
		Candidates: func() []string { return ThanaCandidates(req.Delivery.Area, req.Delivery.City) },
		Decide:     shipper.RetryOnMatch(thanaNotFound),
	}

	var apiResp *OrderResponse
	thana, err := policy.Run(ctx, func(ctx context.Context, candidate string) error {
		apiReq := base
		apiReq.CustomerThana = candidate

		resp, err := c.apiClient.PlaceOrder(ctx, &apiReq)
		if err != nil {
			c.logger.Warn("Paperfly rejected thana",
				zap.String("thana", candidate),
				zap.Error(err),
			)
			return err
		}
		apiResp = resp
		return nil
	})
	if err != nil {
		c.logger.Error("Paperfly API error", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.String("courier.thana", thana))
	c.logger.Info("Paperfly order placed",
		zap.String("merchant_order_ref", req.TrackingID),
		zap.String("thana", thana),
		zap.String("tracking_number", apiResp.Success.TrackingNumber),
	)

	return &shipper.ConsignmentResult{
		ConsignmentID:  ConsignmentID(req.TrackingID, phone),
		DeliveryStatus: shipper.NormalizeStatus(""),
		RawStatus:      apiResp,
	}, nil
}

// GetStatus fetches a parcel's tracking timeline from Paperfly.
func (c *Client) GetStatus(ctx context.Context, consignmentID string) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "paperfly.GetStatus",
		trace.WithAttributes(attribute.String("courier.consignment_id", consignmentID)))
	defer func() { shipper.FinishSpan(span, err) }()

	ref, phone, err := ParseConsignmentID(consignmentID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Getting Paperfly tracking", zap.String("merchant_order_ref", ref))

	apiResp, err := c.apiClient.TrackOrder(ctx, &TrackingRequest{ReferenceNumber: ref, CustomerPhone: phone})
	if err != nil {
		c.logger.Error("Paperfly API error", zap.Error(err))
		return nil, err
	}

	return &shipper.ConsignmentResult{
		ConsignmentID:  consignmentID,
		DeliveryStatus: shipper.NormalizeStatus(apiResp.RawStatus()),
		RawStatus:      apiResp,
	}, nil
}

// ConsignmentID joins the two values Paperfly tracks a parcel by.
func ConsignmentID(merOrderRef, phone string) string {
	return merOrderRef + consignmentSep + phone
}

// ParseConsignmentID splits an id built by ConsignmentID.
func ParseConsignmentID(id string) (merOrderRef, phone string, err error) {
	i := strings.LastIndex(id, consignmentSep)
	if i <= 0 || i == len(id)-1 {
		return "", "", shipper.ValidationError(carrierName,
			fmt.Sprintf("consignment id %q is not <reference>|<phone>", id))
	}
	return id[:i], id[i+1:], nil
}

var _ shipper.Shipper = (*Client)(nil)
