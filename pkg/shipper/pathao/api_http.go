package pathao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// IssueToken requests a bearer token.
// POST /aladdin/api/v1/issue-token
func (c *HTTPAPIClient) IssueToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	var result TokenResponse
	if err := c.do(ctx, http.MethodPost, "/aladdin/api/v1/issue-token", "", req, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, shipper.NewShipperError(carrierName, "AUTH_FAILED", "token response carried no access_token")
	}
	return &result, nil
}

// CreateOrder books a parcel.
// POST /aladdin/api/v1/orders
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error) {
	var result OrderResponse
	if err := c.do(ctx, http.MethodPost, "/aladdin/api/v1/orders", token, req, &result); err != nil {
		return nil, err
	}
	if result.Data.ConsignmentID == "" {
		return nil, shipper.ProviderError(carrierName, http.StatusOK, result.Message)
	}
	return &result, nil
}

// GetOrderInfo fetches a consignment's state.
// GET /aladdin/api/v1/orders/{consignment_id}/info
func (c *HTTPAPIClient) GetOrderInfo(ctx context.Context, token string, consignmentID string) (*OrderInfoResponse, error) {
	path := fmt.Sprintf("/aladdin/api/v1/orders/%s/info", url.PathEscape(consignmentID))

	var result OrderInfoResponse
	if err := c.do(ctx, http.MethodGet, path, token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs a JSON request and decodes a 2xx body into out.
func (c *HTTPAPIClient) do(ctx context.Context, method, path, token string, body, out any) error {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

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

// parseError extracts the provider's message and field errors.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	raw := strings.TrimSpace(string(body))

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		raw = apiErr.Message
		if len(apiErr.Errors) > 0 {
			fields := make([]string, 0, len(apiErr.Errors))
			for f := range apiErr.Errors {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				parts = append(parts, f+": "+strings.Join(apiErr.Errors[f], " "))
			}
			raw += " (" + strings.Join(parts, "; ") + ")"
		}
	}

	e := shipper.ProviderError(carrierName, resp.StatusCode, raw)
	if resp.StatusCode == http.StatusUnauthorized {
		e.Code = "AUTH_FAILED"
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		e.Retryable = true
	}
	return e
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
