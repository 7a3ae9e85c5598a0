package redx

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
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	APIKey  string
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
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetAreas lists delivery areas.
// GET /areas?district_name={district}
func (c *HTTPAPIClient) GetAreas(ctx context.Context, districtName string) (*AreasResponse, error) {
	path := "/areas"
	if districtName != "" {
		path += "?" + url.Values{"district_name": {districtName}}.Encode()
	}

	var result AreasResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateParcel books a parcel.
// POST /parcel
func (c *HTTPAPIClient) CreateParcel(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error) {
	var result ParcelResponse
	if err := c.do(ctx, http.MethodPost, "/parcel", req, &result); err != nil {
		return nil, err
	}
	if result.TrackingID == "" {
		return nil, shipper.ProviderError(carrierName, http.StatusOK, "parcel response carried no tracking_id")
	}
	return &result, nil
}

// GetParcelInfo fetches a parcel.
// GET /parcel/info/{tracking_id}
func (c *HTTPAPIClient) GetParcelInfo(ctx context.Context, trackingID string) (*ParcelInfoResponse, error) {
	path := fmt.Sprintf("/parcel/info/%s", url.PathEscape(trackingID))

	var result ParcelInfoResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs a JSON request with the API-ACCESS-TOKEN header.
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
	req.Header.Set("API-ACCESS-TOKEN", "Bearer "+c.apiKey)

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

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error
		}
		for _, v := range apiErr.Validation {
			msg = strings.TrimSpace(msg + " " + v.Param + ": " + v.Message)
		}
		if msg != "" {
			raw = msg
		}
	}

	e := shipper.ProviderError(carrierName, resp.StatusCode, raw)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		e.Retryable = true
	}
	return e
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
