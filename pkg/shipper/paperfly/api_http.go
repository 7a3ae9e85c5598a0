package paperfly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	username   string
	password   string
	apiKey     string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL  string
	Username string
	Password string
	APIKey   string
	Timeout  time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PlaceOrder books a parcel.
// POST /OrderPlacement
func (c *HTTPAPIClient) PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	var result OrderResponse
	if err := c.do(ctx, "/OrderPlacement", req, &result); err != nil {
		return nil, err
	}
	if result.Error != nil || result.Success == nil {
		return nil, envelopeError(result.ResponseCode, result.Error)
	}
	return &result, nil
}

// TrackOrder fetches a parcel's tracking timeline.
// POST /API-Order-Tracking
func (c *HTTPAPIClient) TrackOrder(ctx context.Context, req *TrackingRequest) (*TrackingResponse, error) {
	var result TrackingResponse
	if err := c.do(ctx, "/API-Order-Tracking", req, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, envelopeError(result.ResponseCode, result.Error)
	}
	return &result, nil
}

// do posts a JSON body with basic auth and the paperflykey header.
func (c *HTTPAPIClient) do(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("paperflykey", c.apiKey)
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shipper.TransientError(carrierName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return shipper.NewShipperError(carrierName, "DECODE", "unreadable response").WithCause(err)
	}
	return nil
}

// envelopeError reports a failure Paperfly signalled inside a 2xx body.
func envelopeError(code int, apiErr *APIError) error {
	if code == 0 {
		code = http.StatusOK
	}
	msg := ""
	if apiErr != nil {
		msg = apiErr.Message
	}
	return shipper.ProviderError(carrierName, code, msg)
}

// parseError extracts error information from an HTTP response.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	raw := strings.TrimSpace(string(body))

	var envelope struct {
		Error   *APIError `json:"error"`
		Message string    `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Error != nil && envelope.Error.Message != "":
			raw = envelope.Error.Message
		case envelope.Message != "":
			raw = envelope.Message
		}
	}

	e := shipper.ProviderError(carrierName, resp.StatusCode, raw)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		e.Code = "AUTH_FAILED"
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		e.Retryable = true
	}
	return e
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
