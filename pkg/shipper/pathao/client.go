// Package pathao provides integration with the Pathao Courier merchant API.
package pathao

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	carrierName = "pathao"

	defaultWeightKG = 0.5
)

// Credential keys stored in the tenant's carrier configuration.
const (
	CredClientID     = "client_id"
	CredClientSecret = "client_secret"
	CredUsername     = "username"
	CredPassword     = "password"
	CredStoreID      = "store_id"
)

// Config holds Pathao configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	StoreID      int
	BaseURL      string
	Timeout      time.Duration
	UseMock      bool
}

// ConfigFromCredentials validates a tenant's stored secrets.
func ConfigFromCredentials(creds shipper.Credentials) (Config, error) {
	if err := creds.Require(carrierName, CredClientID, CredClientSecret, CredUsername, CredPassword, CredStoreID); err != nil {
		return Config{}, err
	}
	storeID, err := strconv.Atoi(creds.Get(CredStoreID))
	if err != nil || storeID <= 0 {
		return Config{}, shipper.ConfigurationError(carrierName,
			fmt.Sprintf("store_id %q is not a positive number", creds.Get(CredStoreID)))
	}
	return Config{
		ClientID:     creds.Get(CredClientID),
		ClientSecret: creds.Get(CredClientSecret),
		Username:     creds.Get(CredUsername),
		Password:     creds.Get(CredPassword),
		StoreID:      storeID,
	}, nil
}

// Client is the Pathao shipper client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Pathao client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Pathao client with a custom API client.
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

// CreateOrder books a parcel with Pathao.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "pathao.CreateOrder",
		trace.WithAttributes(attribute.String("courier.merchant_order_id", req.TrackingID)))
	defer func() { shipper.FinishSpan(span, err) }()

	phone, err := shipper.NormalizePhone(carrierName, req.Delivery.RecipientPhone)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Creating Pathao order",
		zap.String("merchant_order_id", req.TrackingID),
		zap.String("recipient", req.Delivery.RecipientName),
	)

	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	weight := req.Delivery.WeightKG
	if weight <= 0 {
		weight = defaultWeightKG
	}

	apiReq := &OrderRequest{
		StoreID:            c.config.StoreID,
		MerchantOrderID:    req.TrackingID,
		RecipientName:      req.Delivery.RecipientName,
		RecipientPhone:     phone,
		RecipientAddress:   req.Delivery.RecipientAddress,
		DeliveryType:       DeliveryTypeNormal,
		ItemType:           ItemTypeParcel,
		SpecialInstruction: req.Delivery.SpecialInstruction,
		ItemQuantity:       req.Order.ItemCount(),
		ItemWeight:         weight,
		AmountToCollect:    shipper.CashToCollect(req.Order, req.Delivery).Round(0).IntPart(),
		ItemDescription:    req.Order.ItemSummary(),
	}

	apiResp, err := c.apiClient.CreateOrder(ctx, token, apiReq)
	if err != nil {
		c.logger.Error("Pathao API error", zap.Error(err))
		return nil, err
	}

	return &shipper.ConsignmentResult{
		ConsignmentID:  apiResp.Data.ConsignmentID,
		DeliveryStatus: shipper.NormalizeStatus(apiResp.Data.OrderStatus),
		RawStatus:      apiResp,
	}, nil
}

// GetStatus fetches a consignment's current status from Pathao.
func (c *Client) GetStatus(ctx context.Context, consignmentID string) (_ *shipper.ConsignmentResult, err error) {
	ctx, span := c.tracer.Start(ctx, "pathao.GetStatus",
		trace.WithAttributes(attribute.String("courier.consignment_id", consignmentID)))
	defer func() { shipper.FinishSpan(span, err) }()

	c.logger.Info("Getting Pathao order status", zap.String("consignment_id", consignmentID))

	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	apiResp, err := c.apiClient.GetOrderInfo(ctx, token, consignmentID)
	if err != nil {
		c.logger.Error("Pathao API error", zap.Error(err))
		return nil, err
	}

	return &shipper.ConsignmentResult{
		ConsignmentID:  consignmentID,
		DeliveryStatus: shipper.NormalizeStatus(apiResp.Data.RawStatus()),
		RawStatus:      apiResp,
	}, nil
}

// bearer issues a fresh token for a single call. Tokens are not reused.
func (c *Client) bearer(ctx context.Context) (string, error) {
	tok, err := c.apiClient.IssueToken(ctx, &TokenRequest{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		Username:     c.config.Username,
		Password:     c.config.Password,
		GrantType:    "password",
	})
	if err != nil {
		c.logger.Error("Pathao token request failed", zap.Error(err))
		return "", err
	}
	return tok.AccessToken, nil
}

var _ shipper.Shipper = (*Client)(nil)
