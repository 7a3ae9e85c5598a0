package steadfast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateOrder places a consignment.
// POST /create_order
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	var result OrderResponse
	if err := c.do(ctx, http.MethodPost, "/create_order", req, &result); err != nil {
		return nil, err
	}
	// Steadfast reports some failures with HTTP 200 and a body status.
	if result.Status != http.StatusOK || result.Consignment.ConsignmentID == "" {
		return nil, shipper.ProviderError(carrierName, result.Status, result.Message)
	}
	return &result, nil
}

// StatusByConsignmentID fetches a delivery status.
// GET /status_by_cid/{id}
func (c *HTTPAPIClient) StatusByConsignmentID(ctx context.Context, consignmentID string) (*StatusResponse, error) {
	path := fmt.Sprintf("/status_by_cid/%s", url.PathEscape(consignmentID))

	var result StatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	if result.Status != 0 && result.Status != http.StatusOK {
		return nil, shipper.ProviderError(carrierName, result.Status, "status lookup rejected")
	}
	return &result, nil
}

// do performs a JSON request with the Api-Key and Secret-Key headers.
func (c *HTTPAPIClient) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Secret-Key", c.secretKey)

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

// parseError extracts error information from an HTTP response.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	raw := strings.TrimSpace(string(body))

	var simple struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &simple); err == nil && simple.Message != "" {
		raw = simple.Message
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
